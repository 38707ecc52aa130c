package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"property-finance-system/internal/core/domain"
)

// SecurityAssessor is an outgoing port for security and fraud screening.
// Implementations may call external services; any returned error is treated
// by the pipeline as a collaborator failure, never surfaced raw.
type SecurityAssessor interface {
	Assess(ctx context.Context, req domain.PaymentRequest, caller domain.CallerContext) (domain.SecurityAssessment, error)
	DetectFraud(ctx context.Context, req domain.PaymentRequest, caller domain.CallerContext) (domain.FraudAssessment, error)
}

// LedgerWriter is an outgoing port for durable payment persistence. The
// implementation must enforce uniqueness of (reference, method) over
// committed payments server-side; a violating commit returns
// domain.ErrDuplicateReference.
type LedgerWriter interface {
	ApplyPayment(ctx context.Context, tenantID uuid.UUID, totalAmount decimal.Decimal, date time.Time, method domain.PaymentMethod, reference string, meta map[string]string) (uuid.UUID, error)
	// HasCommittedPayment is the advisory duplicate pre-check. It exists for
	// a fast, friendly rejection; the unique constraint is the real guard.
	HasCommittedPayment(ctx context.Context, reference string, method domain.PaymentMethod) (bool, error)
}

// TenantDirectory resolves tenants for validation and confirmation display.
type TenantDirectory interface {
	FindTenant(ctx context.Context, id uuid.UUID) (domain.Tenant, error)
}

// AllocationStore is the outgoing port for shared-expense allocation state.
// CommitAllocations is the single transactional unit of the allocation
// write path: delete prior records when replacing, insert the new set, and
// flip the expense's allocated flag, all or nothing. Concurrent callers for
// the same expense must be serialized by the implementation; losers get
// domain.ErrAlreadyAllocated.
type AllocationStore interface {
	LoadExpense(ctx context.Context, id uuid.UUID) (domain.ExpenseTransaction, error)
	LoadEligibleProperties(ctx context.Context) ([]domain.Property, error)
	CommitAllocations(ctx context.Context, expenseID uuid.UUID, method domain.AllocationMethod, records []domain.AllocationRecord, replace bool) error
}

// NotificationDispatcher is an outgoing port for best-effort confirmation
// delivery. It never blocks the financial result: the pipeline fires it
// after commit and only logs its outcome.
type NotificationDispatcher interface {
	SendPaymentConfirmation(ctx context.Context, confirmation domain.PaymentConfirmation) error
}

// RateLimiterRepository is an outgoing port for request rate limiting.
type RateLimiterRepository interface {
	IsAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// PaymentService is the incoming port: how the outside world submits
// payments to the core.
type PaymentService interface {
	ProcessPayment(ctx context.Context, req domain.PaymentRequest, caller domain.CallerContext) domain.PaymentResult
}

// AllocationService is the incoming port for shared-expense allocation.
type AllocationService interface {
	Allocate(ctx context.Context, expenseID uuid.UUID, method domain.AllocationMethod, manual []domain.ManualSplit, replace bool) ([]domain.AllocationRecord, error)
}
