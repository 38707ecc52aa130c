package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrTenantInactive     = errors.New("tenant is not active")
	ErrExpenseNotFound    = errors.New("expense not found")
	ErrAlreadyAllocated   = errors.New("expense is already allocated")
	ErrDuplicateReference = errors.New("a payment with this reference already exists")
	ErrNoEligibleProperty = errors.New("no eligible properties for allocation")
	ErrZeroValueBasis     = errors.New("total property value basis is zero")
	ErrAllocationNotReq   = errors.New("expense does not require allocation")
	ErrUnsupportedMethod  = errors.New("unsupported allocation method")
	ErrStorageUnavailable = errors.New("storage is unavailable")
)

// InvalidAllocationError reports a split whose percentages do not sum to 100.
// The computed sum is carried for diagnosis, never silently normalized.
type InvalidAllocationError struct {
	Sum decimal.Decimal
}

func (e *InvalidAllocationError) Error() string {
	return fmt.Sprintf("allocation percentages sum to %s, expected 100", e.Sum.StringFixed(2))
}
