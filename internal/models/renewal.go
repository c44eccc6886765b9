package models

// NoChanges are the three confirmations an auto-renewal requires.
type NoChanges struct {
	AddressContact     bool `json:"address_contact"`
	NewFirmsAdditional bool `json:"new_firms_additional"`
	LimitChanges       bool `json:"limit_changes"`
}

// RenewalPolicyData is the financial block of a renewal submission.
type RenewalPolicyData struct {
	PriceLimit            Text  `json:"price_limit,omitempty"`
	AnnualPremiumSelected Money `json:"annual_premium_selected"`
	AnnualPremium         Money `json:"annual_premium"`
	LimitClaimID          Text  `json:"limit_claim_id"`
	TaxAmount             Money `json:"tax_amount"`
	ConvenienceFee        Money `json:"convenience_fee"`
	TotalAmount           Money `json:"total_amount"`
}

// AutoRenewalRequest is the body of policy/auto-renew.
type AutoRenewalRequest struct {
	PolicyPaymentType string            `json:"policy_payment_type"`
	PolicyNum         string            `json:"policy_num"`
	QuoteID           string            `json:"quote_id"`
	QuoteType         string            `json:"quote_type"`
	State             string            `json:"state"`
	Email             string            `json:"email"`
	ESign             string            `json:"e_sign"`
	TAndC             bool              `json:"t_and_c"`
	NoChanges         NoChanges         `json:"no_changes"`
	PolicyData        RenewalPolicyData `json:"policy_data"`
}

// SecondYearPaymentRequest is the body of policy/second-year.
type SecondYearPaymentRequest struct {
	PolicyPaymentType string            `json:"policy_payment_type"`
	PolicyNum         string            `json:"policy_num"`
	QuoteID           string            `json:"quote_id"`
	QuoteType         string            `json:"quote_type"`
	Fullname          string            `json:"fullname"`
	State             string            `json:"state"`
	Email             string            `json:"email"`
	ESign             string            `json:"e_sign"`
	TAndC             bool              `json:"t_and_c"`
	PolicyData        RenewalPolicyData `json:"policy_data"`
}

// RenewalDraftKey is the cache key of a renewal confirmation in progress.
func RenewalDraftKey(policyPaymentType, quoteID string) string {
	return policyPaymentType + "form_" + quoteID
}

// RenewalTotal is the amount due on a renewal. Without the convenience fee
// the backend's total is used as is; with it the total is rebuilt from the
// premium and tax.
func RenewalTotal(premium, tax, backendTotal, fee Money, withFee bool) Money {
	if !withFee {
		if !backendTotal.IsZero() {
			return backendTotal
		}
		return NewMoney(premium.Decimal.Add(tax.Decimal)).Round2()
	}
	return NewMoney(premium.Decimal.Add(tax.Decimal).Add(fee.Decimal)).Round2()
}
