package http

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"property-finance-system/internal/core/domain"
	"property-finance-system/internal/core/ports"
)

// PaymentHandler wires the payment pipeline to the HTTP surface.
type PaymentHandler struct {
	service ports.PaymentService
	logger  *slog.Logger
}

func NewPaymentHandler(service ports.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger,
	}
}

type createPaymentRequest struct {
	TenantID     string  `json:"tenant_id"`
	Amount       float64 `json:"amount"`
	PaymentDate  string  `json:"payment_date"` // YYYY-MM-DD
	Method       string  `json:"method"`
	Reference    string  `json:"reference"`
	Notes        string  `json:"notes"`
	PayerName    string  `json:"payer_name"`
	PayerContact string  `json:"payer_contact"`
	NotifyPayer  bool    `json:"notify_payer"`
}

// HandleCreatePayment submits a payment through the pipeline. The response
// body is always a well-formed PaymentResult; the pipeline itself never
// surfaces an error to the transport.
func (h *PaymentHandler) HandleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest, h.logger)
		return
	}

	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		writeJSONError(w, "invalid tenant id", http.StatusBadRequest, h.logger)
		return
	}

	paymentDate, err := time.Parse("2006-01-02", req.PaymentDate)
	if err != nil {
		writeJSONError(w, "invalid payment date, expected YYYY-MM-DD", http.StatusBadRequest, h.logger)
		return
	}

	submission := domain.PaymentRequest{
		TenantID:     tenantID,
		Amount:       decimal.NewFromFloat(req.Amount),
		PaymentDate:  paymentDate,
		Method:       domain.PaymentMethod(req.Method),
		Reference:    req.Reference,
		Notes:        req.Notes,
		PayerName:    req.PayerName,
		PayerContact: req.PayerContact,
		NotifyPayer:  req.NotifyPayer,
	}

	result := h.service.ProcessPayment(r.Context(), submission, callerFromRequest(r))

	status := http.StatusCreated
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("failed to write json response", "error", err)
	}
}

// callerFromRequest builds the security-screening context from the verified
// claims and transport details of the request.
func callerFromRequest(r *http.Request) domain.CallerContext {
	caller := domain.CallerContext{
		UserAgent: r.UserAgent(),
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		caller.IPAddress = ip
	}
	if claims, ok := r.Context().Value(claimsContextKey).(map[string]interface{}); ok {
		if sub, ok := claims["sub"].(string); ok {
			caller.UserID = sub
		}
	}
	return caller
}
