package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"property-finance-system/internal/core/domain"
)

// LoadExpense loads one expense transaction by ID.
func (s *Store) LoadExpense(ctx context.Context, id uuid.UUID) (domain.ExpenseTransaction, error) {
	const sql = `
		SELECT id, category_id, property_id, description, amount_kes, expense_date,
		       requires_allocation, is_allocated, COALESCE(allocation_method, '')
		FROM expenses
		WHERE id = $1
	`
	var expense domain.ExpenseTransaction
	var method string
	err := s.pool.QueryRow(ctx, sql, id).Scan(
		&expense.ID,
		&expense.CategoryID,
		&expense.PropertyID,
		&expense.Description,
		&expense.AmountKes,
		&expense.ExpenseDate,
		&expense.RequiresAllocation,
		&expense.IsAllocated,
		&method,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ExpenseTransaction{}, domain.ErrExpenseNotFound
	}
	if err != nil {
		return domain.ExpenseTransaction{}, fmt.Errorf("failed to load expense: %w", err)
	}
	expense.AllocationMethod = domain.AllocationMethod(method)
	return expense, nil
}

// LoadEligibleProperties returns the active properties a shared expense can
// be split across, with the weighting columns the strategies use.
func (s *Store) LoadEligibleProperties(ctx context.Context) ([]domain.Property, error) {
	const sql = `
		SELECT id, name, purchase_value_kes, unit_count, annual_rent_income_kes, is_active
		FROM properties
		WHERE is_active = TRUE
		ORDER BY name
	`
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to load eligible properties: %w", err)
	}
	defer rows.Close()

	var properties []domain.Property
	for rows.Next() {
		var p domain.Property
		if err := rows.Scan(&p.ID, &p.Name, &p.PurchaseValueKes, &p.UnitCount, &p.AnnualRentIncomeKes, &p.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

// CommitAllocations writes an allocation set as one transaction: it locks
// the expense row, rejects concurrent or repeated allocation, removes prior
// records when replacing, inserts the new set and flips the allocated flag.
// Nothing is left partially applied on failure.
func (s *Store) CommitAllocations(ctx context.Context, expenseID uuid.UUID, method domain.AllocationMethod, records []domain.AllocationRecord, replace bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin allocation transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Row lock serializes concurrent allocate calls on the same expense;
	// the re-check under the lock turns the loser into ErrAlreadyAllocated.
	var isAllocated bool
	err = tx.QueryRow(ctx,
		`SELECT is_allocated FROM expenses WHERE id = $1 FOR UPDATE`, expenseID,
	).Scan(&isAllocated)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrExpenseNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock expense: %w", err)
	}
	if isAllocated && !replace {
		return domain.ErrAlreadyAllocated
	}

	if replace {
		if _, err := tx.Exec(ctx, `DELETE FROM expense_allocations WHERE expense_id = $1`, expenseID); err != nil {
			return fmt.Errorf("failed to delete prior allocations: %w", err)
		}
	}

	batch := &pgx.Batch{}
	now := time.Now()
	for _, r := range records {
		basis, err := json.Marshal(r.AllocationBasis)
		if err != nil {
			return fmt.Errorf("failed to marshal allocation basis: %w", err)
		}
		batch.Queue(`
			INSERT INTO expense_allocations
			    (id, expense_id, property_id, allocation_percentage, allocated_amount_kes, allocation_method, allocation_basis, created_at)
			VALUES
			    ($1, $2, $3, $4, $5, $6, $7, $8)`,
			r.ID, r.ExpenseID, r.PropertyID, r.AllocationPercentage, r.AllocatedAmountKes, string(r.AllocationMethod), basis, now,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert allocations: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE expenses SET is_allocated = TRUE, allocation_method = $2 WHERE id = $1`,
		expenseID, string(method),
	); err != nil {
		return fmt.Errorf("failed to mark expense allocated: %w", err)
	}

	return tx.Commit(ctx)
}
