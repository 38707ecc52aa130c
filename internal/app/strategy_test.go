package app

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-finance-system/internal/core/domain"
)

func fourProperties() []domain.Property {
	return []domain.Property{
		{ID: uuid.New(), Name: "Riverside Apartments", PurchaseValueKes: decimal.NewFromInt(30000000), UnitCount: 12, AnnualRentIncomeKes: decimal.NewFromInt(4800000), IsActive: true},
		{ID: uuid.New(), Name: "Hilltop Villas", PurchaseValueKes: decimal.NewFromInt(70000000), UnitCount: 8, AnnualRentIncomeKes: decimal.NewFromInt(7200000), IsActive: true},
		{ID: uuid.New(), Name: "Garden Court", PurchaseValueKes: decimal.NewFromInt(50000000), UnitCount: 20, AnnualRentIncomeKes: decimal.NewFromInt(6000000), IsActive: true},
		{ID: uuid.New(), Name: "Acacia Flats", PurchaseValueKes: decimal.NewFromInt(50000000), UnitCount: 10, AnnualRentIncomeKes: decimal.NewFromInt(6000000), IsActive: true},
	}
}

func percentageSum(splits []PropertySplit) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range splits {
		sum = sum.Add(s.Percentage)
	}
	return sum
}

func TestResolveSplits_Equal(t *testing.T) {
	properties := fourProperties()

	splits, basis, err := ResolveSplits(domain.AllocEqual, properties, nil)

	require.NoError(t, err)
	require.Len(t, splits, 4)
	for _, s := range splits {
		assert.True(t, s.Percentage.Equal(decimal.NewFromInt(25)), "got %s", s.Percentage)
	}
	assert.False(t, basis.UsedFallback)
	assert.Equal(t, domain.AllocEqual, basis.Method)
}

func TestResolveSplits_EqualNoProperties(t *testing.T) {
	_, _, err := ResolveSplits(domain.AllocEqual, nil, nil)

	assert.ErrorIs(t, err, domain.ErrNoEligibleProperty)
}

func TestResolveSplits_ValueWeighted(t *testing.T) {
	properties := []domain.Property{
		{ID: uuid.New(), Name: "Riverside Apartments", PurchaseValueKes: decimal.NewFromInt(300000)},
		{ID: uuid.New(), Name: "Hilltop Villas", PurchaseValueKes: decimal.NewFromInt(700000)},
	}

	splits, basis, err := ResolveSplits(domain.AllocValue, properties, nil)

	require.NoError(t, err)
	require.Len(t, splits, 2)
	assert.True(t, splits[0].Percentage.Equal(decimal.NewFromInt(30)), "got %s", splits[0].Percentage)
	assert.True(t, splits[1].Percentage.Equal(decimal.NewFromInt(70)), "got %s", splits[1].Percentage)
	assert.False(t, basis.UsedFallback)
	assert.Contains(t, basis.Detail, "purchase value")
}

func TestResolveSplits_ValueZeroBasisFails(t *testing.T) {
	// Purchase value has no sensible fallback: an all-zero basis is a data
	// defect the bookkeeper has to fix, not something to paper over.
	properties := []domain.Property{
		{ID: uuid.New(), PurchaseValueKes: decimal.Zero},
		{ID: uuid.New(), PurchaseValueKes: decimal.Zero},
	}

	_, _, err := ResolveSplits(domain.AllocValue, properties, nil)

	assert.ErrorIs(t, err, domain.ErrZeroValueBasis)
}

func TestResolveSplits_IncomeFallsBackWhenUnknown(t *testing.T) {
	properties := []domain.Property{
		{ID: uuid.New(), AnnualRentIncomeKes: decimal.Zero},
		{ID: uuid.New(), AnnualRentIncomeKes: decimal.Zero},
	}

	splits, basis, err := ResolveSplits(domain.AllocIncome, properties, nil)

	require.NoError(t, err)
	require.Len(t, splits, 2)
	assert.True(t, basis.UsedFallback)
	assert.Contains(t, basis.Detail, "fell back to equal split")
	assert.True(t, splits[0].Percentage.Equal(decimal.NewFromInt(50)))
}

func TestResolveSplits_UnitsWeighted(t *testing.T) {
	properties := []domain.Property{
		{ID: uuid.New(), UnitCount: 12},
		{ID: uuid.New(), UnitCount: 8},
	}

	splits, basis, err := ResolveSplits(domain.AllocUnits, properties, nil)

	require.NoError(t, err)
	assert.True(t, splits[0].Percentage.Equal(decimal.NewFromInt(60)), "got %s", splits[0].Percentage)
	assert.True(t, splits[1].Percentage.Equal(decimal.NewFromInt(40)), "got %s", splits[1].Percentage)
	assert.False(t, basis.UsedFallback)
}

func TestResolveSplits_ActivityAlwaysFallsBack(t *testing.T) {
	splits, basis, err := ResolveSplits(domain.AllocActivity, fourProperties(), nil)

	require.NoError(t, err)
	require.Len(t, splits, 4)
	assert.True(t, basis.UsedFallback)
	assert.Contains(t, basis.Detail, "not tracked")
}

func TestResolveSplits_Manual(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	manual := []domain.ManualSplit{
		{PropertyID: a, Percentage: decimal.NewFromFloat(62.5)},
		{PropertyID: b, Percentage: decimal.NewFromFloat(37.5)},
	}

	splits, basis, err := ResolveSplits(domain.AllocManual, nil, manual)

	require.NoError(t, err)
	require.Len(t, splits, 2)
	assert.Equal(t, a, splits[0].PropertyID)
	assert.True(t, percentageSum(splits).Equal(decimal.NewFromInt(100)))
	assert.False(t, basis.UsedFallback)
}

func TestResolveSplits_ManualEmpty(t *testing.T) {
	_, _, err := ResolveSplits(domain.AllocManual, nil, nil)

	assert.ErrorIs(t, err, domain.ErrNoEligibleProperty)
}

func TestResolveSplits_UnknownMethod(t *testing.T) {
	_, _, err := ResolveSplits(domain.AllocationMethod("VIBES"), fourProperties(), nil)

	assert.ErrorIs(t, err, domain.ErrUnsupportedMethod)
	assert.Contains(t, err.Error(), "VIBES")
}

func TestResolveSplits_EqualSettlesRoundingDrift(t *testing.T) {
	// Property counts whose 2dp shares do not divide 100 evenly: 3 shares of
	// 33.33 undershoot by 0.01, 6 of 16.67 overshoot by 0.02, 7 of 14.29 by
	// 0.03. One share absorbs the drift so the set sums to exactly 100.
	for _, n := range []int{3, 6, 7, 11} {
		properties := make([]domain.Property, n)
		for i := range properties {
			properties[i] = domain.Property{ID: uuid.New()}
		}

		splits, _, err := ResolveSplits(domain.AllocEqual, properties, nil)

		require.NoError(t, err, "n=%d", n)
		require.Len(t, splits, n)
		assert.True(t, percentageSum(splits).Equal(decimal.NewFromInt(100)),
			"n=%d: percentages sum to %s", n, percentageSum(splits))
	}
}

func TestResolveSplits_WeightedSettlesRoundingDrift(t *testing.T) {
	// Three equal weights each round to 33.33; the largest share takes the
	// remaining 0.01.
	properties := []domain.Property{
		{ID: uuid.New(), UnitCount: 5},
		{ID: uuid.New(), UnitCount: 5},
		{ID: uuid.New(), UnitCount: 5},
	}

	splits, _, err := ResolveSplits(domain.AllocUnits, properties, nil)

	require.NoError(t, err)
	assert.True(t, percentageSum(splits).Equal(decimal.NewFromInt(100)),
		"percentages sum to %s", percentageSum(splits))
	assert.True(t, splits[0].Percentage.Equal(decimal.NewFromFloat(33.34)), "got %s", splits[0].Percentage)
	assert.True(t, splits[1].Percentage.Equal(decimal.NewFromFloat(33.33)))
}
