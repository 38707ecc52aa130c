package app

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"property-finance-system/internal/core/domain"
)

// PropertySplit is a resolved percentage share for one property.
type PropertySplit struct {
	PropertyID uuid.UUID
	Percentage decimal.Decimal
}

// ResolveSplits computes per-property percentage shares for an allocation
// method. Weighted strategies whose data source is empty fall back to an
// equal split; the fallback is recorded in the returned basis so it is
// visible in every persisted record, never silent.
func ResolveSplits(method domain.AllocationMethod, properties []domain.Property, manual []domain.ManualSplit) ([]PropertySplit, domain.AllocationBasis, error) {
	basis := domain.AllocationBasis{Method: method}

	switch method {
	case domain.AllocManual:
		if len(manual) == 0 {
			return nil, basis, domain.ErrNoEligibleProperty
		}
		splits := make([]PropertySplit, 0, len(manual))
		for _, m := range manual {
			splits = append(splits, PropertySplit{PropertyID: m.PropertyID, Percentage: m.Percentage.Round(2)})
		}
		basis.Detail = fmt.Sprintf("manual split across %d properties", len(manual))
		return splits, basis, nil

	case domain.AllocEqual:
		basis.Detail = fmt.Sprintf("equal split across %d properties", len(properties))
		splits, err := equalSplits(properties)
		return splits, basis, err

	case domain.AllocValue:
		total := decimal.Zero
		for _, p := range properties {
			total = total.Add(p.PurchaseValueKes)
		}
		if total.IsZero() {
			return nil, basis, domain.ErrZeroValueBasis
		}
		basis.Detail = fmt.Sprintf("weighted by purchase value (total KES %s)", total.StringFixed(0))
		return weightedSplits(properties, total, func(p domain.Property) decimal.Decimal {
			return p.PurchaseValueKes
		}), basis, nil

	case domain.AllocIncome:
		total := decimal.Zero
		for _, p := range properties {
			total = total.Add(p.AnnualRentIncomeKes)
		}
		if total.IsZero() {
			basis.UsedFallback = true
			basis.Detail = "rental income data unavailable; fell back to equal split"
			splits, err := equalSplits(properties)
			return splits, basis, err
		}
		basis.Detail = fmt.Sprintf("weighted by annual rental income (total KES %s)", total.StringFixed(0))
		return weightedSplits(properties, total, func(p domain.Property) decimal.Decimal {
			return p.AnnualRentIncomeKes
		}), basis, nil

	case domain.AllocUnits:
		total := decimal.Zero
		for _, p := range properties {
			total = total.Add(decimal.NewFromInt(int64(p.UnitCount)))
		}
		if total.IsZero() {
			basis.UsedFallback = true
			basis.Detail = "unit count data unavailable; fell back to equal split"
			splits, err := equalSplits(properties)
			return splits, basis, err
		}
		basis.Detail = fmt.Sprintf("weighted by unit count (total %s units)", total.StringFixed(0))
		return weightedSplits(properties, total, func(p domain.Property) decimal.Decimal {
			return decimal.NewFromInt(int64(p.UnitCount))
		}), basis, nil

	case domain.AllocActivity:
		// Activity weighting has no data source in this system yet.
		basis.UsedFallback = true
		basis.Detail = "activity weighting is not tracked; fell back to equal split"
		splits, err := equalSplits(properties)
		return splits, basis, err

	default:
		return nil, basis, fmt.Errorf("%w: %q", domain.ErrUnsupportedMethod, method)
	}
}

func equalSplits(properties []domain.Property) ([]PropertySplit, error) {
	if len(properties) == 0 {
		return nil, domain.ErrNoEligibleProperty
	}
	share := oneHundred.Div(decimal.NewFromInt(int64(len(properties)))).Round(2)
	splits := make([]PropertySplit, 0, len(properties))
	for _, p := range properties {
		splits = append(splits, PropertySplit{PropertyID: p.ID, Percentage: share})
	}
	return reconcilePercentages(splits), nil
}

func weightedSplits(properties []domain.Property, total decimal.Decimal, weight func(domain.Property) decimal.Decimal) []PropertySplit {
	splits := make([]PropertySplit, 0, len(properties))
	for _, p := range properties {
		pct := weight(p).Mul(oneHundred).Div(total).Round(2)
		splits = append(splits, PropertySplit{PropertyID: p.ID, Percentage: pct})
	}
	return reconcilePercentages(splits)
}

// reconcilePercentages settles the drift that 2dp rounding leaves in a
// computed split (6 equal shares of 16.67 sum to 100.02) onto the largest
// share, so computed splits always sum to exactly 100. Manual splits are
// never reconciled; their sum is the caller's claim to verify.
func reconcilePercentages(splits []PropertySplit) []PropertySplit {
	sum := decimal.Zero
	largest := 0
	for i, s := range splits {
		sum = sum.Add(s.Percentage)
		if s.Percentage.GreaterThan(splits[largest].Percentage) {
			largest = i
		}
	}
	if drift := oneHundred.Sub(sum); !drift.IsZero() {
		splits[largest].Percentage = splits[largest].Percentage.Add(drift)
	}
	return splits
}
