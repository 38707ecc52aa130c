package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"property-finance-system/internal/core/domain"
	"property-finance-system/internal/core/ports"
	"property-finance-system/internal/observability"
)

// percentage sums may drift from 100 by rounding; anything beyond this is a
// caller or strategy defect and must be rejected, not normalized.
var allocationEpsilon = decimal.NewFromFloat(0.01)

// engine is the implementation of the AllocationService port.
type engine struct {
	store  ports.AllocationStore
	logger *slog.Logger
}

// NewAllocationEngine constructs the shared-expense allocation engine.
func NewAllocationEngine(store ports.AllocationStore, logger *slog.Logger) ports.AllocationService {
	return &engine{store: store, logger: logger}
}

func (e *engine) Allocate(ctx context.Context, expenseID uuid.UUID, method domain.AllocationMethod, manual []domain.ManualSplit, replace bool) ([]domain.AllocationRecord, error) {
	expense, err := e.store.LoadExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if !expense.RequiresAllocation || !expense.IsShared() {
		return nil, domain.ErrAllocationNotReq
	}
	if expense.IsAllocated && !replace {
		return nil, domain.ErrAlreadyAllocated
	}

	var properties []domain.Property
	if method != domain.AllocManual {
		properties, err = e.store.LoadEligibleProperties(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading eligible properties: %w", err)
		}
	}

	splits, basis, err := ResolveSplits(method, properties, manual)
	if err != nil {
		return nil, err
	}

	sum := decimal.Zero
	for _, s := range splits {
		sum = sum.Add(s.Percentage)
	}
	if sum.Sub(oneHundred).Abs().GreaterThan(allocationEpsilon) {
		return nil, &domain.InvalidAllocationError{Sum: sum}
	}

	records := buildRecords(expense, method, basis, splits)

	// One transactional unit: prior records removed when replacing, the new
	// set inserted, the expense flagged. Concurrent callers on the same
	// expense are serialized by the store; losers get ErrAlreadyAllocated.
	if err := e.store.CommitAllocations(ctx, expenseID, method, records, replace); err != nil {
		return nil, err
	}

	observability.ExpenseAllocations.WithLabelValues(string(method)).Inc()
	e.logger.Info("expense allocated",
		"expense_id", expenseID,
		"method", method,
		"properties", len(records),
		"used_fallback", basis.UsedFallback,
	)
	return records, nil
}

// buildRecords turns resolved splits into persistable records. Each amount
// is rounded to whole shillings; the rounding remainder lands on the largest
// allocation so the amounts sum exactly to the expense amount.
func buildRecords(expense domain.ExpenseTransaction, method domain.AllocationMethod, basis domain.AllocationBasis, splits []PropertySplit) []domain.AllocationRecord {
	amounts := make([]decimal.Decimal, len(splits))
	allocatedTotal := decimal.Zero
	largest := 0
	for i, s := range splits {
		amounts[i] = expense.AmountKes.Mul(s.Percentage).Div(oneHundred).Round(0)
		allocatedTotal = allocatedTotal.Add(amounts[i])
		if amounts[i].GreaterThan(amounts[largest]) {
			largest = i
		}
	}

	remainder := expense.AmountKes.Sub(allocatedTotal)
	if !remainder.IsZero() {
		amounts[largest] = amounts[largest].Add(remainder)
	}

	records := make([]domain.AllocationRecord, 0, len(splits))
	for i, s := range splits {
		records = append(records, domain.AllocationRecord{
			ID:                   uuid.New(),
			ExpenseID:            expense.ID,
			PropertyID:           s.PropertyID,
			AllocationPercentage: s.Percentage,
			AllocatedAmountKes:   amounts[i],
			AllocationMethod:     method,
			AllocationBasis:      basis,
		})
	}
	return records
}
