package security

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"property-finance-system/internal/core/domain"
)

// scoringRequest is the wire shape the external fraud scorer expects.
type scoringRequest struct {
	TenantID     string  `json:"tenant_id"`
	Amount       float64 `json:"amount"`
	Method       string  `json:"method"`
	Reference    string  `json:"reference,omitempty"`
	PayerName    string  `json:"payer_name,omitempty"`
	PayerContact string  `json:"payer_contact,omitempty"`
	UserID       string  `json:"user_id,omitempty"`
	IPAddress    string  `json:"ip_address,omitempty"`
	UserAgent    string  `json:"user_agent,omitempty"`
}

// DetectFraud calls the external scoring service. Any transport or decoding
// failure is returned to the pipeline, which reports it as a generic
// collaborator failure rather than letting the payment through unscored.
func (a *Assessor) DetectFraud(ctx context.Context, req domain.PaymentRequest, caller domain.CallerContext) (domain.FraudAssessment, error) {
	amount, _ := req.Amount.Float64()
	body, err := json.Marshal(scoringRequest{
		TenantID:     req.TenantID.String(),
		Amount:       amount,
		Method:       string(req.Method),
		Reference:    req.Reference,
		PayerName:    req.PayerName,
		PayerContact: req.PayerContact,
		UserID:       caller.UserID,
		IPAddress:    caller.IPAddress,
		UserAgent:    caller.UserAgent,
	})
	if err != nil {
		return domain.FraudAssessment{}, fmt.Errorf("marshaling scoring request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.scorerURL, bytes.NewBuffer(body))
	if err != nil {
		return domain.FraudAssessment{}, fmt.Errorf("creating scoring request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return domain.FraudAssessment{}, fmt.Errorf("fraud scoring service call failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.Warn("failed to close scorer response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return domain.FraudAssessment{}, fmt.Errorf("fraud scoring service returned status %s", resp.Status)
	}

	var result domain.FraudAssessment
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.FraudAssessment{}, fmt.Errorf("decoding scoring response: %w", err)
	}
	return result, nil
}
