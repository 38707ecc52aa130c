package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationMethod selects the strategy used to split a shared expense.
type AllocationMethod string

const (
	AllocEqual    AllocationMethod = "EQUAL"
	AllocValue    AllocationMethod = "VALUE"
	AllocIncome   AllocationMethod = "INCOME"
	AllocUnits    AllocationMethod = "UNITS"
	AllocActivity AllocationMethod = "ACTIVITY"
	AllocManual   AllocationMethod = "MANUAL"
)

// AllocationBasis is the structured rationale stored with every record.
// UsedFallback is set when a weighted strategy had no usable data and the
// engine fell back to an equal split; the fallback is never silent.
type AllocationBasis struct {
	Method       AllocationMethod `json:"method"`
	UsedFallback bool             `json:"usedFallback"`
	Detail       string           `json:"detail"`
}

// AllocationRecord is one property's share of a shared expense. Records for
// one expense are created atomically as a set; their percentages sum to 100
// within 0.01 and their amounts sum exactly to the expense amount.
type AllocationRecord struct {
	ID                   uuid.UUID        `json:"id"`
	ExpenseID            uuid.UUID        `json:"expenseId"`
	PropertyID           uuid.UUID        `json:"propertyId"`
	AllocationPercentage decimal.Decimal  `json:"allocationPercentage"`
	AllocatedAmountKes   decimal.Decimal  `json:"allocatedAmountKes"`
	AllocationMethod     AllocationMethod `json:"allocationMethod"`
	AllocationBasis      AllocationBasis  `json:"allocationBasis"`
}

// ManualSplit is a caller-supplied share for the MANUAL strategy.
type ManualSplit struct {
	PropertyID uuid.UUID       `json:"property_id"`
	Percentage decimal.Decimal `json:"percentage"`
}
