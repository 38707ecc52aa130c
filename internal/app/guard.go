package app

import (
	"context"

	"property-finance-system/internal/core/domain"
	"property-finance-system/internal/core/ports"
)

// DuplicateGuard is the advisory pre-commit check for reused transaction
// references. It gives submitters a fast, named rejection; the storage-side
// unique constraint on (reference, method) remains the actual correctness
// guarantee under concurrent submissions.
type DuplicateGuard struct {
	ledger ports.LedgerWriter
}

func NewDuplicateGuard(ledger ports.LedgerWriter) *DuplicateGuard {
	return &DuplicateGuard{ledger: ledger}
}

// IsDuplicate reports whether a committed payment already holds the same
// (reference, method) pair. Empty references are never duplicates.
func (g *DuplicateGuard) IsDuplicate(ctx context.Context, reference string, method domain.PaymentMethod) (bool, error) {
	if reference == "" {
		return false, nil
	}
	return g.ledger.HasCommittedPayment(ctx, reference, method)
}
