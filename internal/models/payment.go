package models

import (
	"encoding/json"
	"strings"
)

// Payment types accepted by the pay endpoint.
const (
	PaymentTypeCard      = "card"
	PaymentTypeACHDirect = "ach_direct"
)

// Policy payment types tell the backend which flow a payment settles.
const (
	PolicyPaymentPurchase          = "purchase"
	PolicyPaymentAutoRenewal       = "auto_renewal"
	PolicyPaymentSecondYearPayment = "second_year_payment"
)

// PaymentHandoff is what the payment step needs from a completed
// submission. Amount is the backend's authoritative total, as a decimal string.
type PaymentHandoff struct {
	QuoteID           string `json:"quoteId"`
	Amount            string `json:"amount"`
	ClientToken       string `json:"clientToken"`
	PolicyPaymentType string `json:"policyPaymentType,omitempty"`
}

// Matches reports whether a payment page request refers to this handoff.
func (h PaymentHandoff) Matches(quoteID, token string) bool {
	return h.QuoteID != "" && h.QuoteID == quoteID && h.ClientToken == token
}

// SavedPolicyData is the financial block echoed by quote/save.
type SavedPolicyData struct {
	TableRate             Text  `json:"table_rate"`
	PriceLimit            Text  `json:"price_limit"`
	PolicyTermYear        Int   `json:"policy_term_year"`
	PolicyBillTerm        Int   `json:"policy_bill_term"`
	ConvenienceFee        Money `json:"convenience_fee"`
	StateTax              Money `json:"state_tax"`
	LimitClaimID          Text  `json:"limit_claim_id"`
	LicenseNo             Text  `json:"license_no"`
	AnnualPremium         Money `json:"annual_premium"`
	TotalAmount           Money `json:"total_amount"`
	Deductible            Text  `json:"deductible"`
	AnnualPremiumSelected Money `json:"annual_premium_selected"`
}

// QuoteSaveResponse is the data block returned by quote/save and by the
// auto-renew and second-year endpoints.
type QuoteSaveResponse struct {
	QuoteID            string          `json:"quote_id"`
	QuoteType          string          `json:"quote_type"`
	Program            string          `json:"program"`
	State              string          `json:"state"`
	EffectiveDate      Text            `json:"effective_date"`
	Fullname           string          `json:"fullname"`
	FirmNames          FirmNames       `json:"firm_name"`
	Address            Address         `json:"address"`
	MailingAddress     Address         `json:"mailing_address"`
	PhoneNo            string          `json:"phone_no"`
	FaxNo              string          `json:"fax_no"`
	Email              string          `json:"email"`
	WebsiteURL         string          `json:"website_url"`
	Questions          map[string]Bool `json:"questions"`
	ESign              string          `json:"e_sign"`
	TAndC              Bool            `json:"t_and_c"`
	PolicyData         SavedPolicyData `json:"policy_data"`
	PaymentClientToken string          `json:"payment_client_token"`
}

// PaymentRequest is the body of policy/pay.
type PaymentRequest struct {
	QuoteID           string          `json:"quote_id"`
	PaymentType       string          `json:"payment_type"`
	PolicyPaymentType string          `json:"policy_payment_type"`
	Nonce             string          `json:"nonce"`
	Type              string          `json:"type"`
	Description       string          `json:"description"`
	Details           json.RawMessage `json:"details"`
	BinData           json.RawMessage `json:"binData"`
}

// PaymentResult is the data block of a successful payment.
type PaymentResult struct {
	Email               string `json:"email"`
	LastID              Text   `json:"last_id"`
	PolicyNo            string `json:"policy_no"`
	QuoteID             string `json:"quote_id"`
	UploadInsuranceFile Text   `json:"upload_insurance_file"`
	MailResponse        Bool   `json:"mail_response"`
}

// ACH account and ownership types.
const (
	ACHChecking = "CHECKING"
	ACHSavings  = "SAVINGS"
	ACHPersonal = "PERSONAL"
	ACHBusiness = "BUSINESS"
)

type BillingAddress struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zipcode  string `json:"zipcode"`
}

// ACHDetails is the bank account an applicant enters for ach_direct.
type ACHDetails struct {
	AccountNumber  string         `json:"accountNumber"`
	RoutingNumber  string         `json:"routingNumber"`
	AccountType    string         `json:"accountType"`
	OwnershipType  string         `json:"ownershipType"`
	FirstName      string         `json:"firstName,omitempty"`
	LastName       string         `json:"lastName,omitempty"`
	BusinessName   string         `json:"businessName,omitempty"`
	BillingAddress BillingAddress `json:"billingAddress"`
	MandateText    string         `json:"mandateText,omitempty"`
}

// Description is the label sent with an ACH nonce.
func (a ACHDetails) Description() string {
	n := strings.TrimSpace(a.AccountNumber)
	if len(n) > 4 {
		n = n[len(n)-4:]
	}
	return "US bank account ending in - " + n
}
