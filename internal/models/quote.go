package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// QuoteRequest is the qualifier submission. It is compared with == to
// decide whether a cached quote answers the same question, so it must stay
// a flat struct of comparable fields.
type QuoteRequest struct {
	ProgramCode        string `json:"program_code"`
	State              string `json:"state"`
	CurrentlyInsurance bool   `json:"currently_insurance"`
	GAInsurance        bool   `json:"ga_insurance"`
	EffectiveDate      string `json:"effective_date"`
	ExpiryDate         string `json:"expiry_date"`
	PolicyNum          string `json:"policy_num"`
}

// Normalized upper-cases the program and state codes and trims free text.
func (r QuoteRequest) Normalized() QuoteRequest {
	r.ProgramCode = strings.ToUpper(strings.TrimSpace(r.ProgramCode))
	r.State = strings.ToUpper(strings.TrimSpace(r.State))
	r.EffectiveDate = strings.TrimSpace(r.EffectiveDate)
	r.ExpiryDate = strings.TrimSpace(r.ExpiryDate)
	r.PolicyNum = strings.TrimSpace(r.PolicyNum)
	return r
}

// QuoteType discriminates the qualifier response.
type QuoteType string

const (
	QuoteTypeNewBusiness       QuoteType = "new_business"
	QuoteTypeRenewal           QuoteType = "renewal"
	QuoteTypeAutoRenewal       QuoteType = "auto_renewal"
	QuoteTypeSecondYearPayment QuoteType = "second_year_payment"
)

type LoginStatus string

const (
	LoggedIn    LoginStatus = "logged_in"
	NotLoggedIn LoginStatus = "not_logged_in"
)

type RegistrationStatus string

const (
	Registered    RegistrationStatus = "registered"
	NotRegistered RegistrationStatus = "not_registered"
)

// QuoteHeader holds the fields every quote_type variant shares.
type QuoteHeader struct {
	QuoteID            string             `json:"quote_id"`
	QuoteType          QuoteType          `json:"quote_type"`
	ProgramCode        string             `json:"program_code,omitempty"`
	State              string             `json:"state,omitempty"`
	LoginStatus        LoginStatus        `json:"login_status,omitempty"`
	RegistrationStatus RegistrationStatus `json:"registration_status,omitempty"`
	Email              string             `json:"email,omitempty"`
	PolicyNum          string             `json:"policy_num,omitempty"`
}

// Variant is one arm of the QuoteResponse union.
type Variant interface {
	Header() QuoteHeader
	isVariant()
}

// QuoteDetail is the prefilled application the backend returns for new
// business and renewal quotes.
type QuoteDetail struct {
	ApplicationForm
	LoginStatus        LoginStatus        `json:"login_status,omitempty"`
	RegistrationStatus RegistrationStatus `json:"registration_status,omitempty"`
	Rates              Rates              `json:"rates"`
	TaxFees            TaxFees            `json:"tax_fees"`
}

func (d QuoteDetail) Header() QuoteHeader {
	return QuoteHeader{
		QuoteID:            d.QuoteID,
		QuoteType:          QuoteType(d.QuoteType),
		ProgramCode:        d.ProgramCode,
		State:              d.State,
		LoginStatus:        d.LoginStatus,
		RegistrationStatus: d.RegistrationStatus,
		Email:              d.Email,
	}
}

type NewBusinessQuote struct {
	QuoteDetail
}

// RenewalQuote carries last year's policy record for prefilling.
type RenewalQuote struct {
	QuoteDetail
	Renewal RenewalRecord `json:"renewal"`
}

// RenewalRecord is the prior-year policy snapshot. Only the fields the
// application prefill reads are typed.
type RenewalRecord struct {
	PolicyNum1 Text `json:"policynum1"`
	State      Text `json:"state"`
	FirmName   Text `json:"firmname"`
	Firm1      Text `json:"firm1"`
	Firm2      Text `json:"firm2"`
	Firm3      Text `json:"firm3"`
	Zipcode    Text `json:"zipcode"`
	ExpDate    Text `json:"expdate"`
	Limit1     Text `json:"limit1"`
	Deductible Text `json:"ded"`
	Select2Yr  Text `json:"select2yr"`
	Paid2Yr    Text `json:"paid2yr"`
	AutoRenew  Text `json:"autorenew"`
}

type AutoRenewalQuote struct {
	QuoteHeader
	Data AutoRenewalData `json:"autoRenewal_data"`
}

func (q AutoRenewalQuote) Header() QuoteHeader { return q.QuoteHeader }

// AutoRenewalData is the renewal offer for a policy with unchanged terms.
type AutoRenewalData struct {
	FirmName              Text  `json:"firm_name"`
	State                 Text  `json:"state"`
	PolicyNum             Text  `json:"policy_num"`
	CurrentLimitOption    Text  `json:"current_limit_option"`
	LimitClaimID          Text  `json:"limit_claim_id"`
	ConvenienceFees       Money `json:"convenience_fees"`
	AnnualPremium         Money `json:"annual_premium"`
	TotalAmountWithoutTax Money `json:"total_amount_without_tax"`
	TaxAmount             Money `json:"tax_amount"`
	TotalAmountWithTax    Money `json:"total_amount_with_tax"`
}

type SecondYearPaymentQuote struct {
	QuoteHeader
	Data SecondYearPayment `json:"secondYear_payment"`
}

func (q SecondYearPaymentQuote) Header() QuoteHeader { return q.QuoteHeader }

// SecondYearPayment is the balance due on the second year of a two-year
// policy billed annually.
type SecondYearPayment struct {
	Fullname              Text  `json:"fullname"`
	FirmName              Text  `json:"firm_name"`
	CurrentLimitOption    Text  `json:"current_limit_option"`
	LimitClaimID          Text  `json:"limit_claim_id"`
	AnnualPremium         Money `json:"annual_premium"`
	TotalAmountWithoutTax Money `json:"total_amount_without_tax"`
	TaxAmount             Money `json:"tax_amount"`
	ConvenienceFee        Money `json:"convenience_fee"`
	TotalAmountWithTax    Money `json:"total_amount_with_tax"`
}

// UnknownQuote is any quote_type this service does not route.
type UnknownQuote struct {
	QuoteHeader
}

func (q UnknownQuote) Header() QuoteHeader { return q.QuoteHeader }

func (NewBusinessQuote) isVariant()       {}
func (RenewalQuote) isVariant()           {}
func (AutoRenewalQuote) isVariant()       {}
func (SecondYearPaymentQuote) isVariant() {}
func (UnknownQuote) isVariant()           {}

// QuoteResponse is the qualifier response as a tagged union on quote_type.
// Raw keeps the backend document so a cached response round-trips without
// losing fields the variants do not type.
type QuoteResponse struct {
	Variant Variant
	Raw     json.RawMessage
}

// NewQuoteResponse wraps a variant built in code.
func NewQuoteResponse(v Variant) QuoteResponse {
	return QuoteResponse{Variant: v}
}

// Header returns the shared fields, or the zero header for an empty response.
func (r QuoteResponse) Header() QuoteHeader {
	if r.Variant == nil {
		return QuoteHeader{}
	}
	return r.Variant.Header()
}

func (r QuoteResponse) QuoteID() string { return r.Header().QuoteID }

func (r QuoteResponse) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	if r.Variant == nil {
		return []byte("null"), nil
	}
	return json.Marshal(r.Variant)
}

func (r *QuoteResponse) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = QuoteResponse{}
		return nil
	}
	v, err := decodeVariant(data)
	if err != nil {
		return err
	}
	r.Variant = v
	r.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// ParseQuoteResponse decodes the qualifier payload. The backend sometimes
// double-encodes it as a JSON string; both forms are accepted.
func ParseQuoteResponse(data []byte) (QuoteResponse, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return QuoteResponse{}, fmt.Errorf("decode quote response string: %w", err)
		}
		data = []byte(inner)
	}
	var r QuoteResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return QuoteResponse{}, err
	}
	return r, nil
}

func decodeVariant(data []byte) (Variant, error) {
	var tag struct {
		QuoteType QuoteType `json:"quote_type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode quote_type: %w", err)
	}

	switch tag.QuoteType {
	case QuoteTypeNewBusiness:
		var q NewBusinessQuote
		err := json.Unmarshal(data, &q)
		return q, err
	case QuoteTypeRenewal:
		var q RenewalQuote
		err := json.Unmarshal(data, &q)
		return q, err
	case QuoteTypeAutoRenewal:
		var q AutoRenewalQuote
		err := json.Unmarshal(data, &q)
		return q, err
	case QuoteTypeSecondYearPayment:
		var q SecondYearPaymentQuote
		err := json.Unmarshal(data, &q)
		return q, err
	default:
		var q UnknownQuote
		err := json.Unmarshal(data, &q)
		return q, err
	}
}

// CachedQuote pairs a qualifier submission with the response it produced.
// The timestamp lives in the surrounding TTL entry.
type CachedQuote struct {
	FormData      QuoteRequest  `json:"formData"`
	QuoteResponse QuoteResponse `json:"quoteResponse"`
}
