// internal/workers/quote/calculate-premium/service.go
package calculatepremium

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Cell is a parsed coverage cell value.
type Cell struct {
	Table        string
	Limit        string
	Deductible   string
	Premium      decimal.Decimal
	LimitClaimID string
}

// CellKey builds the value of a coverage cell:
// {table}-{limit}-{deductible}-{premium}-{limitClaimId}.
func CellKey(table, limit, deductible, premium, limitClaimID string) string {
	return strings.Join([]string{table, limit, deductible, premium, limitClaimID}, "-")
}

// ParseCell splits a cell value. The limit claim id may contain dashes and
// commas, so everything after the fourth dash belongs to it.
func ParseCell(value string) (Cell, error) {
	parts := strings.SplitN(value, "-", 5)
	if len(parts) < 5 {
		return Cell{}, apperrors.NewInvalidCoverageCellError(value)
	}
	premium, err := decimal.NewFromString(strings.TrimSpace(parts[3]))
	if err != nil {
		return Cell{}, apperrors.NewInvalidCoverageCellError(value)
	}
	return Cell{
		Table:        strings.TrimSpace(parts[0]),
		Limit:        strings.TrimSpace(parts[1]),
		Deductible:   strings.TrimSpace(parts[2]),
		Premium:      premium,
		LimitClaimID: strings.TrimSpace(parts[4]),
	}, nil
}

// ParseTaxPercent reads a tax rate sent as a number or a numeric string.
// Missing and unparseable values are 0.
func ParseTaxPercent(v interface{}) decimal.Decimal {
	switch t := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return t
	case models.Money:
		return t.Decimal
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case int64:
		return decimal.NewFromInt(t)
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero
		}
		return d
	case models.Text:
		return ParseTaxPercent(string(t))
	}
	return decimal.Zero
}

// SelectCoverage applies a coverage cell. An empty cell clears the
// selection, zeroes the premium amounts and the full two-year payment.
func SelectCoverage(s PremiumState, cellValue string, taxPercent decimal.Decimal, isTwoYear bool) (PremiumState, error) {
	s.TaxPercent = models.NewMoney(taxPercent)

	if strings.TrimSpace(cellValue) == "" {
		s.AnnualPremium = models.Money{}
		s.PayFullTwoYear = false
		s.Table, s.PriceLimit, s.Deductible, s.LimitClaimID, s.CellKey = "", "", "", "", ""
		return recompute(s), nil
	}

	cell, err := ParseCell(cellValue)
	if err != nil {
		return s, err
	}

	s.AnnualPremium = models.NewMoney(cell.Premium)
	s.Table = cell.Table
	s.PriceLimit = cell.Limit
	s.Deductible = cell.Deductible
	s.LimitClaimID = cell.LimitClaimID
	s.CellKey = cellValue
	s.IsTwoYear = isTwoYear
	if !isTwoYear {
		s.PayFullTwoYear = false
	}
	return recompute(s), nil
}

// ToggleConvenienceFee charges flatFee when checked and nothing otherwise.
func ToggleConvenienceFee(s PremiumState, checked bool, flatFee decimal.Decimal) PremiumState {
	s.IsConvenienceFeeChecked = checked
	if checked {
		s.ConvenienceFee = models.NewMoney(flatFee)
	} else {
		s.ConvenienceFee = models.Money{}
	}
	return recompute(s)
}

// TogglePaymentTerm sets whether both years of a two-year term are paid up
// front. It has no effect on one-year terms.
func TogglePaymentTerm(s PremiumState, payFullTwoYear bool) PremiumState {
	s.PayFullTwoYear = s.IsTwoYear && payFullTwoYear
	return recompute(s)
}

// EffectivePremium is the premium charged now.
func (s PremiumState) EffectivePremium() decimal.Decimal {
	if s.IsTwoYear && s.PayFullTwoYear {
		return s.AnnualPremium.Decimal.Mul(decimal.NewFromInt(2))
	}
	return s.AnnualPremium.Decimal
}

// recompute keeps calculatedTotal = round2(premium + tax + fee if checked).
// With no coverage selected the total is just the checked fee.
func recompute(s PremiumState) PremiumState {
	premium := s.EffectivePremium()
	tax := premium.Mul(s.TaxPercent.Decimal).Div(hundred).Round(2)
	total := premium.Add(tax)
	if s.IsConvenienceFeeChecked {
		total = total.Add(s.ConvenienceFee.Decimal)
	}
	s.TaxAmount = models.NewMoney(tax)
	s.CalculatedTotal = models.NewMoney(total.Round(2))
	return s
}

// ApplyToPolicyData writes the selection into the submitted policy block.
func ApplyToPolicyData(s PremiumState, pd models.PolicyData) models.PolicyData {
	pd.AnnualPremium = s.AnnualPremium
	pd.AnnualPremiumSelected = s.AnnualPremium
	pd.StateTax = s.TaxAmount
	pd.ConvenienceFee = s.ConvenienceFee
	pd.TotalAmount = s.CalculatedTotal
	pd.TaxPercent = models.Text(s.TaxPercent.Decimal.String())
	pd.PriceLimit = models.Text(s.PriceLimit)
	pd.Deductible = models.Text(s.Deductible)
	pd.LimitClaimID = models.Text(s.LimitClaimID)

	pd.PolicyTerm = 1
	if s.IsTwoYear {
		pd.PolicyTerm = 2
	}
	pd.BillTerm = 1
	if s.IsTwoYear && s.PayFullTwoYear {
		pd.BillTerm = 2
	}
	pd.YearPolicy = pd.BillTerm
	return pd
}

// ApplyToForm writes the selection into an application.
func ApplyToForm(s PremiumState, form *models.ApplicationForm) {
	form.PremiumTable = s.CellKey
	form.ConvenienceFees = models.NewBool(s.IsConvenienceFeeChecked)
	form.PolicyData = ApplyToPolicyData(s, form.PolicyData)
}

// CoverageOptions lists the cells an applicant can pick from. Two-year
// terms are only offered on deductible matrices, which then drop the $0
// deductible row.
func CoverageOptions(rates models.Rates, answers models.Answers, twoYear bool) (string, []models.Cell) {
	name, table := rates.Table(answers)
	return name, table.Cells(name, twoYear && table.IsMultiDeductible())
}

// Apply runs one premium edit.
func Apply(in Input, defaultFee decimal.Decimal) (PremiumState, error) {
	switch in.Action {
	case ActionSelectCoverage:
		return SelectCoverage(in.State, in.Cell, ParseTaxPercent(in.TaxPercent), in.IsTwoYear)
	case ActionConvenienceFee:
		fee := defaultFee
		if f, ok := models.ParseMoney(in.FlatFee); ok {
			fee = f.Decimal
		}
		return ToggleConvenienceFee(in.State, in.Checked, fee), nil
	case ActionPaymentTerm:
		return TogglePaymentTerm(in.State, in.PayFullTwoYear), nil
	default:
		return in.State, fmt.Errorf("%w: %q", ErrUnknownAction, in.Action)
	}
}
