package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TenantStatus is the lifecycle state of a tenant.
type TenantStatus string

const (
	TenantActive   TenantStatus = "ACTIVE"
	TenantInactive TenantStatus = "INACTIVE"
	TenantEvicted  TenantStatus = "EVICTED"
)

// Tenant is the payer of rent. Only the fields the financial core needs.
type Tenant struct {
	ID           uuid.UUID
	FullName     string
	Contact      string
	PropertyName string
	UnitLabel    string
	Status       TenantStatus
}

// Property is a rental property eligible for shared-expense allocation.
// The weighting columns feed the VALUE/INCOME/UNITS strategies.
type Property struct {
	ID                  uuid.UUID
	Name                string
	PurchaseValueKes    decimal.Decimal
	UnitCount           int
	AnnualRentIncomeKes decimal.Decimal
	IsActive            bool
}

// ExpenseTransaction is a durable expense row owned by the storage
// collaborator. PropertyID is nil for shared expenses, which must be
// allocated exactly once before they affect per-property financials.
type ExpenseTransaction struct {
	ID                 uuid.UUID
	CategoryID         uuid.UUID
	PropertyID         *uuid.UUID
	Description        string
	AmountKes          decimal.Decimal
	ExpenseDate        time.Time
	RequiresAllocation bool
	IsAllocated        bool
	AllocationMethod   AllocationMethod
}

// IsShared reports whether the expense spans properties and so needs
// allocation before it is usable.
func (e ExpenseTransaction) IsShared() bool {
	return e.PropertyID == nil
}
