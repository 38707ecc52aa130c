package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"property-finance-system/internal/core/domain"
)

// ApplyPayment commits a payment row. A partial unique index on
// (reference, method) over committed payments is the actual duplicate
// guard; violating it maps to domain.ErrDuplicateReference so the pipeline
// reports the same named failure as the advisory pre-check.
func (s *Store) ApplyPayment(ctx context.Context, tenantID uuid.UUID, totalAmount decimal.Decimal, date time.Time, method domain.PaymentMethod, reference string, meta map[string]string) (uuid.UUID, error) {
	const sql = `
		INSERT INTO payments
		    (id, tenant_id, total_amount_kes, payment_date, method, reference, payer_name, notes, recorded_by, status, created_at)
		VALUES
		    ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11)
	`
	id := uuid.New()
	_, err := s.pool.Exec(ctx, sql,
		id,
		tenantID,
		totalAmount,
		date,
		string(method),
		reference,
		meta["payer_name"],
		meta["notes"],
		meta["user_id"],
		string(domain.StatusCompleted),
		time.Now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, domain.ErrDuplicateReference
		}
		return uuid.Nil, fmt.Errorf("failed to apply payment: %w", err)
	}

	return id, nil
}

// HasCommittedPayment is the advisory duplicate pre-check.
func (s *Store) HasCommittedPayment(ctx context.Context, reference string, method domain.PaymentMethod) (bool, error) {
	const sql = `
		SELECT EXISTS (
			SELECT 1 FROM payments
			WHERE reference = $1 AND method = $2 AND status = $3
		)
	`
	var exists bool
	err := s.pool.QueryRow(ctx, sql, reference, string(method), string(domain.StatusCompleted)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate payment: %w", err)
	}
	return exists, nil
}
