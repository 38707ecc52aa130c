package app

import (
	"time"

	"property-finance-system/internal/core/domain"
)

// maxNotesLength keeps free-text notes within what the ledger row stores.
const maxNotesLength = 500

// ValidateSubmission checks the method-independent business fields of a
// submission. It returns all violations so the caller sees everything wrong
// at once rather than one message per round trip.
func ValidateSubmission(req domain.PaymentRequest) []string {
	var msgs []string

	if !req.Amount.IsPositive() {
		msgs = append(msgs, "Payment amount must be greater than zero")
	}
	if req.PaymentDate.IsZero() {
		msgs = append(msgs, "Payment date is required")
	} else if req.PaymentDate.After(time.Now().AddDate(0, 0, 1)) {
		msgs = append(msgs, "Payment date cannot be in the future")
	}
	if len(req.Notes) > maxNotesLength {
		msgs = append(msgs, "Notes must be at most 500 characters")
	}
	if req.NotifyPayer && req.PayerContact == "" {
		msgs = append(msgs, "Payer contact is required when notification is requested")
	}

	return msgs
}
