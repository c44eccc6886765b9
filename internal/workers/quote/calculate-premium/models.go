// internal/workers/quote/calculate-premium/models.go
package calculatepremium

import "quote-workflow/internal/models"

// PremiumState is the coverage selection of an application and every amount
// derived from it.
type PremiumState struct {
	AnnualPremium           models.Money `json:"annualPremium"`
	TaxPercent              models.Money `json:"taxPercent"`
	TaxAmount               models.Money `json:"taxAmount"`
	IsConvenienceFeeChecked bool         `json:"isConvenienceFeeChecked"`
	ConvenienceFee          models.Money `json:"convenienceFee"`
	CalculatedTotal         models.Money `json:"calculatedTotal"`
	IsTwoYear               bool         `json:"isTwoYear"`
	PayFullTwoYear          bool         `json:"payFullTwoYear"`

	Table        string `json:"table,omitempty"`
	PriceLimit   string `json:"priceLimit,omitempty"`
	Deductible   string `json:"deductible,omitempty"`
	LimitClaimID string `json:"limitClaimId,omitempty"`
	CellKey      string `json:"cellKey,omitempty"`
}

// Action is the premium edit a job applies.
type Action string

const (
	ActionSelectCoverage Action = "select_coverage"
	ActionConvenienceFee Action = "convenience_fee"
	ActionPaymentTerm    Action = "payment_term"
)

type Input struct {
	Action Action       `json:"action"`
	State  PremiumState `json:"premium"`

	// select_coverage
	Cell       string      `json:"cell,omitempty"`
	TaxPercent interface{} `json:"taxPercent,omitempty"`
	IsTwoYear  bool        `json:"isTwoYear,omitempty"`

	// convenience_fee
	Checked bool   `json:"checked,omitempty"`
	FlatFee string `json:"flatFee,omitempty"`

	// payment_term
	PayFullTwoYear bool `json:"payFullTwoYear,omitempty"`

	// PolicyData is updated with the result when present.
	PolicyData models.PolicyData `json:"policyData"`
}

type Output struct {
	State      PremiumState      `json:"premium"`
	PolicyData models.PolicyData `json:"policyData"`
}
