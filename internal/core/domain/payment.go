package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is our own type for statuses to avoid "magic strings".
type PaymentStatus string

const (
	StatusCompleted PaymentStatus = "COMPLETED"
	StatusFailed    PaymentStatus = "FAILED"
)

// RiskLevel classifies a payment submission after security screening.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// PaymentRequest is a raw payment submission as it enters the pipeline.
// It is transient: owned by a single pipeline invocation, never persisted.
type PaymentRequest struct {
	TenantID     uuid.UUID
	Amount       decimal.Decimal
	PaymentDate  time.Time
	Method       PaymentMethod
	Reference    string
	Notes        string
	PayerName    string
	PayerContact string
	NotifyPayer  bool
}

// CallerContext carries who submitted the request, for security screening.
type CallerContext struct {
	UserID    string
	IPAddress string
	UserAgent string
}

// PaymentResult is the terminal value of the pipeline. It is never partially
// populated: Success=true implies a committed PaymentID and an empty Error.
type PaymentResult struct {
	Success              bool          `json:"success"`
	PaymentID            *uuid.UUID    `json:"paymentId,omitempty"`
	Status               PaymentStatus `json:"status"`
	Error                string        `json:"error,omitempty"`
	ValidationErrors     []string      `json:"validationErrors,omitempty"`
	SecurityWarnings     []string      `json:"securityWarnings,omitempty"`
	RequiresManualReview bool          `json:"requiresManualReview,omitempty"`
	RiskLevel            RiskLevel     `json:"riskLevel,omitempty"`
}

// PaymentConfirmation is the event published after a successful commit.
type PaymentConfirmation struct {
	PaymentID    uuid.UUID       `json:"payment_id"`
	TenantID     uuid.UUID       `json:"tenant_id"`
	TenantName   string          `json:"tenant_name,omitempty"`
	PropertyName string          `json:"property_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Fee          decimal.Decimal `json:"fee"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Method       PaymentMethod   `json:"method"`
	Reference    string          `json:"reference,omitempty"`
	PaymentDate  time.Time       `json:"payment_date"`
	PayerContact string          `json:"payer_contact,omitempty"`
	NotifyPayer  bool            `json:"notify_payer"`
}
