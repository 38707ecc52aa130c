package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"property-finance-system/internal/core/domain"
	"property-finance-system/internal/core/ports"
)

// AllocationHandler wires the allocation engine to the HTTP surface.
type AllocationHandler struct {
	service ports.AllocationService
	logger  *slog.Logger
}

func NewAllocationHandler(service ports.AllocationService, logger *slog.Logger) *AllocationHandler {
	return &AllocationHandler{
		service: service,
		logger:  logger,
	}
}

type allocateExpenseRequest struct {
	Method  string `json:"method"`
	Replace bool   `json:"replace"`
	Splits  []struct {
		PropertyID string  `json:"property_id"`
		Percentage float64 `json:"percentage"`
	} `json:"manual_splits"`
}

// HandleAllocateExpense splits a shared expense across properties.
func (h *AllocationHandler) HandleAllocateExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, "invalid expense id", http.StatusBadRequest, h.logger)
		return
	}

	var req allocateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest, h.logger)
		return
	}

	manual := make([]domain.ManualSplit, 0, len(req.Splits))
	for _, s := range req.Splits {
		propertyID, err := uuid.Parse(s.PropertyID)
		if err != nil {
			writeJSONError(w, "invalid property id in manual splits", http.StatusBadRequest, h.logger)
			return
		}
		manual = append(manual, domain.ManualSplit{
			PropertyID: propertyID,
			Percentage: decimal.NewFromFloat(s.Percentage),
		})
	}

	records, err := h.service.Allocate(r.Context(), expenseID, domain.AllocationMethod(req.Method), manual, req.Replace)
	if err != nil {
		var invalidErr *domain.InvalidAllocationError
		switch {
		case errors.Is(err, domain.ErrExpenseNotFound):
			writeJSONError(w, "Expense not found", http.StatusNotFound, h.logger)

		case errors.Is(err, domain.ErrAlreadyAllocated):
			writeJSONError(w, "Expense is already allocated", http.StatusConflict, h.logger)

		case errors.As(err, &invalidErr),
			errors.Is(err, domain.ErrZeroValueBasis),
			errors.Is(err, domain.ErrNoEligibleProperty),
			errors.Is(err, domain.ErrAllocationNotReq),
			errors.Is(err, domain.ErrUnsupportedMethod):
			writeJSONError(w, err.Error(), http.StatusUnprocessableEntity, h.logger)

		default:
			h.logger.Error("unexpected error during expense allocation", "error", err, "expense_id", expenseID)
			writeJSONError(w, "internal server error", http.StatusInternalServerError, h.logger)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(records); err != nil {
		h.logger.Error("failed to write json response", "error", err)
	}
}
