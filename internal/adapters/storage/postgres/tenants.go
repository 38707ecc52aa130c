package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"property-finance-system/internal/core/domain"
)

// FindTenant loads a tenant with its property display info for validation
// and confirmation messages.
func (s *Store) FindTenant(ctx context.Context, id uuid.UUID) (domain.Tenant, error) {
	const sql = `
		SELECT t.id, t.full_name, t.contact, COALESCE(p.name, ''), COALESCE(t.unit_label, ''), t.status
		FROM tenants t
		LEFT JOIN properties p ON p.id = t.property_id
		WHERE t.id = $1
	`
	var tenant domain.Tenant
	var status string
	err := s.pool.QueryRow(ctx, sql, id).Scan(
		&tenant.ID,
		&tenant.FullName,
		&tenant.Contact,
		&tenant.PropertyName,
		&tenant.UnitLabel,
		&status,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Tenant{}, domain.ErrTenantNotFound
	}
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("failed to load tenant: %w", err)
	}
	tenant.Status = domain.TenantStatus(status)
	return tenant, nil
}
