package calculatepremium

import (
	"context"
	"testing"

	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ==========================
// Cell parsing
// ==========================

func TestParseCell(t *testing.T) {
	cell, err := ParseCell("Table1-50000-1000-750.00-1000,50000")
	require.NoError(t, err)
	assert.Equal(t, "Table1", cell.Table)
	assert.Equal(t, "50000", cell.Limit)
	assert.Equal(t, "1000", cell.Deductible)
	assert.True(t, cell.Premium.Equal(d("750")))
	assert.Equal(t, "1000,50000", cell.LimitClaimID)

	cell, err = ParseCell("Coverage Options-100000-0-420-LC-17-A")
	require.NoError(t, err)
	assert.Equal(t, "LC-17-A", cell.LimitClaimID)

	for _, bad := range []string{"Table1-50000-1000", "Table1-50000-1000-abc-1,2"} {
		_, err := ParseCell(bad)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidCoverageCell), bad)
	}
}

func TestCellKey_RoundTrip(t *testing.T) {
	key := CellKey("Table2", "250000", "2500", "1210.5", "2500,250000")
	assert.Equal(t, "Table2-250000-2500-1210.5-2500,250000", key)
	cell, err := ParseCell(key)
	require.NoError(t, err)
	assert.Equal(t, "2500,250000", cell.LimitClaimID)
}

func TestParseTaxPercent(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"number", 5.0, "5"},
		{"fraction", 7.25, "7.25"},
		{"string", "6.5", "6.5"},
		{"padded string", " 3 ", "3"},
		{"missing", nil, "0"},
		{"garbage", "NaN", "0"},
		{"empty", "", "0"},
		{"int", 4, "4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, ParseTaxPercent(tt.in).Equal(d(tt.want)), ParseTaxPercent(tt.in).String())
		})
	}
}

// ==========================
// Derivation
// ==========================

func TestSelectCoverage_TaxAndTotal(t *testing.T) {
	s, err := SelectCoverage(PremiumState{}, "Table1-50000-1000-750.00-1000,50000", d("5"), false)
	require.NoError(t, err)
	assert.Equal(t, "750.00", s.AnnualPremium.String())
	assert.Equal(t, "37.50", s.TaxAmount.String())
	assert.Equal(t, "787.50", s.CalculatedTotal.String())
	assert.Equal(t, "50000", s.PriceLimit)
	assert.Equal(t, "1000", s.Deductible)
	assert.Equal(t, "1000,50000", s.LimitClaimID)

	s = ToggleConvenienceFee(s, true, d("25"))
	assert.Equal(t, "812.50", s.CalculatedTotal.String())
	s = ToggleConvenienceFee(s, false, d("25"))
	assert.Equal(t, "787.50", s.CalculatedTotal.String())
	assert.True(t, s.ConvenienceFee.IsZero())
}

func TestSelectCoverage_RoundsHalfUp(t *testing.T) {
	// 333.33 * 7.25% = 24.166425
	s, err := SelectCoverage(PremiumState{}, "Table1-100000-0-333.33-0,100000", d("7.25"), false)
	require.NoError(t, err)
	assert.Equal(t, "24.17", s.TaxAmount.String())
	assert.Equal(t, "357.50", s.CalculatedTotal.String())

	// 10.10 * 5% = 0.505
	s, err = SelectCoverage(PremiumState{}, "T-1-0-10.10-x", d("5"), false)
	require.NoError(t, err)
	assert.Equal(t, "0.51", s.TaxAmount.String())
}

func TestSelectCoverage_KeepsFeeAcrossSelections(t *testing.T) {
	s := ToggleConvenienceFee(PremiumState{}, true, d("25"))
	assert.Equal(t, "25.00", s.CalculatedTotal.String(), "no premium leaves only the fee")

	s, err := SelectCoverage(s, "Table1-50000-1000-750.00-1000,50000", d("5"), false)
	require.NoError(t, err)
	assert.Equal(t, "812.50", s.CalculatedTotal.String())
}

func TestSelectCoverage_EmptyCellClears(t *testing.T) {
	s, err := SelectCoverage(PremiumState{}, "Coverage Options-100000-2500-900-2500,100000", d("5"), true)
	require.NoError(t, err)
	s = TogglePaymentTerm(s, true)
	require.True(t, s.PayFullTwoYear)

	s, err = SelectCoverage(s, "", d("5"), true)
	require.NoError(t, err)
	assert.True(t, s.AnnualPremium.IsZero())
	assert.True(t, s.TaxAmount.IsZero())
	assert.True(t, s.CalculatedTotal.IsZero())
	assert.False(t, s.PayFullTwoYear)
	assert.Empty(t, s.LimitClaimID)
}

func TestRecompute_TotalInvariant(t *testing.T) {
	const cell = "Table1-50000-1000-750.00-1000,50000"
	steps := []struct {
		name  string
		apply func(PremiumState) (PremiumState, error)
		total string
	}{
		{"select", func(s PremiumState) (PremiumState, error) { return SelectCoverage(s, cell, d("5"), false) }, "787.50"},
		{"fee on", func(s PremiumState) (PremiumState, error) { return ToggleConvenienceFee(s, true, d("25")), nil }, "812.50"},
		{"clear", func(s PremiumState) (PremiumState, error) { return SelectCoverage(s, "", d("5"), false) }, "25.00"},
		{"fee off", func(s PremiumState) (PremiumState, error) { return ToggleConvenienceFee(s, false, d("25")), nil }, "0.00"},
		{"fee on again", func(s PremiumState) (PremiumState, error) { return ToggleConvenienceFee(s, true, d("25")), nil }, "25.00"},
		{"reselect", func(s PremiumState) (PremiumState, error) { return SelectCoverage(s, cell, d("5"), false) }, "812.50"},
	}

	var s PremiumState
	for _, step := range steps {
		var err error
		s, err = step.apply(s)
		require.NoError(t, err, step.name)
		assert.Equal(t, step.total, s.CalculatedTotal.String(), step.name)

		want := s.EffectivePremium().Add(s.TaxAmount.Decimal)
		if s.IsConvenienceFeeChecked {
			want = want.Add(s.ConvenienceFee.Decimal)
		}
		assert.True(t, want.Round(2).Equal(s.CalculatedTotal.Decimal), step.name)
	}
}

func TestTogglePaymentTerm(t *testing.T) {
	s, err := SelectCoverage(PremiumState{}, "Coverage Options-100000-2500-900-2500,100000", d("5"), true)
	require.NoError(t, err)
	assert.Equal(t, "945.00", s.CalculatedTotal.String())

	s = TogglePaymentTerm(s, true)
	assert.Equal(t, "1800", s.EffectivePremium().String())
	assert.Equal(t, "90.00", s.TaxAmount.String())
	assert.Equal(t, "1890.00", s.CalculatedTotal.String())

	again := TogglePaymentTerm(s, true)
	assert.Equal(t, s, again, "toggling to the same term changes nothing")

	s = TogglePaymentTerm(s, false)
	assert.Equal(t, "45.00", s.TaxAmount.String())
	assert.Equal(t, "945.00", s.CalculatedTotal.String())
}

func TestTogglePaymentTerm_OneYearForcedOff(t *testing.T) {
	s, err := SelectCoverage(PremiumState{}, "Table1-50000-1000-750.00-1000,50000", d("5"), false)
	require.NoError(t, err)

	s = TogglePaymentTerm(s, true)
	assert.False(t, s.PayFullTwoYear)
	assert.Equal(t, "787.50", s.CalculatedTotal.String())
}

func TestSelectCoverage_OneYearCellResetsFullPayment(t *testing.T) {
	s, err := SelectCoverage(PremiumState{}, "Coverage Options-100000-2500-900-2500,100000", d("5"), true)
	require.NoError(t, err)
	s = TogglePaymentTerm(s, true)

	s, err = SelectCoverage(s, "Coverage Options-100000-0-1000-0,100000", d("5"), false)
	require.NoError(t, err)
	assert.False(t, s.PayFullTwoYear)
	assert.Equal(t, "1050.00", s.CalculatedTotal.String())
}

// ==========================
// Policy data
// ==========================

func TestApplyToPolicyData(t *testing.T) {
	s, err := SelectCoverage(PremiumState{}, "Coverage Options-100000-2500-900-2500,100000", d("5"), true)
	require.NoError(t, err)
	s = ToggleConvenienceFee(TogglePaymentTerm(s, true), true, d("25"))

	pd := ApplyToPolicyData(s, models.PolicyData{LicenseNo: "LIC-9"})
	assert.Equal(t, "900.00", pd.AnnualPremium.String())
	assert.Equal(t, "90.00", pd.StateTax.String())
	assert.Equal(t, "25.00", pd.ConvenienceFee.String())
	assert.Equal(t, "1915.00", pd.TotalAmount.String())
	assert.Equal(t, models.Text("5"), pd.TaxPercent)
	assert.Equal(t, models.Text("100000"), pd.PriceLimit)
	assert.Equal(t, models.Text("2500"), pd.Deductible)
	assert.Equal(t, models.Int(2), pd.PolicyTerm)
	assert.Equal(t, models.Int(2), pd.BillTerm)
	assert.Equal(t, models.Int(2), pd.YearPolicy)
	assert.Equal(t, models.Text("LIC-9"), pd.LicenseNo)

	s = TogglePaymentTerm(s, false)
	pd = ApplyToPolicyData(s, pd)
	assert.Equal(t, models.Int(2), pd.PolicyTerm)
	assert.Equal(t, models.Int(1), pd.BillTerm)
	assert.Equal(t, models.Int(1), pd.YearPolicy)
}

func TestCoverageOptions(t *testing.T) {
	rates := models.Rates{
		TableRate: models.RateTable{
			"0":    {"100000": {Premium: "1000"}},
			"2500": {"100000": {Premium: "900", LimitClaimID: "LC9"}},
		},
	}
	name, cells := CoverageOptions(rates, models.Answers{}, false)
	assert.Equal(t, "Coverage Options", name)
	assert.Len(t, cells, 2)

	_, cells = CoverageOptions(rates, models.Answers{}, true)
	require.Len(t, cells, 1)
	assert.Equal(t, "Coverage Options-100000-2500-900-LC9", cells[0].Key)
}

// ==========================
// Handler
// ==========================

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(nil, logger.NewTestLogger(t))
	ctx := context.Background()

	out, err := h.Execute(ctx, &Input{
		Action:     ActionSelectCoverage,
		Cell:       "Table1-50000-1000-750.00-1000,50000",
		TaxPercent: "5",
	})
	require.NoError(t, err)
	assert.Equal(t, "787.50", out.State.CalculatedTotal.String())
	assert.Equal(t, "787.50", out.PolicyData.TotalAmount.String())

	out, err = h.Execute(ctx, &Input{Action: ActionConvenienceFee, State: out.State, Checked: true})
	require.NoError(t, err)
	assert.Equal(t, "812.50", out.State.CalculatedTotal.String(), "default fee is 25")

	out, err = h.Execute(ctx, &Input{Action: ActionConvenienceFee, State: out.State, Checked: true, FlatFee: "30"})
	require.NoError(t, err)
	assert.Equal(t, "817.50", out.State.CalculatedTotal.String())

	_, err = h.Execute(ctx, &Input{Action: "discount"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}
