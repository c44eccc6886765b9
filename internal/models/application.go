package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// MaxFirmNames is the number of firm names a RAP application may list.
const MaxFirmNames = 4

// QuestionCount is the number of qualifier questions on every application.
const QuestionCount = 7

type Address struct {
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	County       string `json:"county"`
	State        string `json:"state"`
	Zipcode      string `json:"zipcode"`
}

func (a Address) IsZero() bool { return a == Address{} }

// UnmarshalJSON accepts the object form and the flattened single-line
// string some save responses echo back.
func (a *Address) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Address{}
		return nil
	}
	if data[0] == '"' {
		*a = Address{AddressLine1: scalarString(data)}
		return nil
	}
	type plain Address
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Address(p)
	return nil
}

// String renders the address on one line, skipping empty parts.
func (a Address) String() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.AddressLine1, a.AddressLine2, a.City, a.County} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	tail := strings.TrimSpace(strings.TrimSpace(a.State) + " " + strings.TrimSpace(a.Zipcode))
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

// Answers holds the seven yes/no qualifier answers keyed question1..question7.
type Answers [QuestionCount]Bool

func questionKey(i int) string { return fmt.Sprintf("question%d", i+1) }

func (a Answers) MarshalJSON() ([]byte, error) {
	m := make(map[string]Bool, QuestionCount)
	for i, v := range a {
		m[questionKey(i)] = v
	}
	return json.Marshal(m)
}

func (a *Answers) UnmarshalJSON(data []byte) error {
	var m map[string]Bool
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*a = Answers{}
	for i := range a {
		a[i] = m[questionKey(i)]
	}
	return nil
}

// AllPresent reports whether every question has an answer.
func (a Answers) AllPresent() bool {
	for _, v := range a {
		if !v.Valid {
			return false
		}
	}
	return true
}

// FirstNotTrue returns the index of the first answer that is not a present
// true, or -1.
func (a Answers) FirstNotTrue() int {
	for i, v := range a {
		if !v.True() {
			return i
		}
	}
	return -1
}

func (a Answers) IsZero() bool {
	for _, v := range a {
		if v.Valid {
			return false
		}
	}
	return true
}

// UsesSecondTable reports whether questions 5 to 7 are all answered true,
// which moves a RAP applicant to the second rate table.
func (a Answers) UsesSecondTable() bool {
	return a[4].True() && a[5].True() && a[6].True()
}

// FirmNames is the applicant firm list. RAP sends it as an array of up to
// four names and RAS as a single string; Scalar records which.
type FirmNames struct {
	Names  []string
	Scalar bool
}

func SingleFirmName(name string) FirmNames {
	return FirmNames{Names: []string{name}, Scalar: true}
}

func FirmNameList(names ...string) FirmNames {
	return FirmNames{Names: append([]string(nil), names...)}
}

// First returns the first firm name or "".
func (f FirmNames) First() string {
	if len(f.Names) == 0 {
		return ""
	}
	return f.Names[0]
}

func (f FirmNames) IsZero() bool { return len(f.Names) == 0 }

// Add appends an empty entry, up to MaxFirmNames.
func (f FirmNames) Add() (FirmNames, bool) {
	if f.Scalar || len(f.Names) >= MaxFirmNames {
		return f, false
	}
	names := append(append([]string(nil), f.Names...), "")
	return FirmNames{Names: names}, true
}

// Remove drops entry i; the list never shrinks below one entry.
func (f FirmNames) Remove(i int) (FirmNames, bool) {
	if f.Scalar || len(f.Names) <= 1 || i < 0 || i >= len(f.Names) {
		return f, false
	}
	names := make([]string, 0, len(f.Names)-1)
	names = append(names, f.Names[:i]...)
	names = append(names, f.Names[i+1:]...)
	return FirmNames{Names: names}, true
}

// Trimmed returns a copy with surrounding whitespace removed from each name.
func (f FirmNames) Trimmed() FirmNames {
	out := FirmNames{Names: make([]string, len(f.Names)), Scalar: f.Scalar}
	for i, n := range f.Names {
		out.Names[i] = strings.TrimSpace(n)
	}
	return out
}

func (f FirmNames) MarshalJSON() ([]byte, error) {
	if f.Scalar {
		return json.Marshal(f.First())
	}
	if f.Names == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f.Names)
}

func (f *FirmNames) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = FirmNames{}
	case data[0] == '[':
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return err
		}
		*f = FirmNames{Names: names}
	default:
		*f = SingleFirmName(scalarString(data))
	}
	return nil
}

// Int is a whole number the backend may send quoted.
type Int int

func (n *Int) UnmarshalJSON(data []byte) error {
	m, ok := ParseMoney(scalarString(data))
	if !ok {
		*n = 0
		return nil
	}
	*n = Int(m.IntPart())
	return nil
}

// PolicyData is the selected coverage and the amounts derived from it.
type PolicyData struct {
	Deductible             Text  `json:"deductible"`
	LicenseNo              Text  `json:"license_no"`
	PriceLimit             Text  `json:"price_limit"`
	YearPolicy             Int   `json:"year_policy"`
	AnnualPremiumSelected  Money `json:"annual_premium_selected"`
	AnnualPremium          Money `json:"annual_premium"`
	LimitClaimID           Text  `json:"limit_claim_id"`
	ConvenienceFee         Money `json:"convenience_fee"`
	TaxPercent             Text  `json:"tax_percent"`
	StateTax               Money `json:"state_tax"`
	TotalAmount            Money `json:"total_amount"`
	BillTerm               Int   `json:"bill_term"`
	PolicyTerm             Int   `json:"policy_term"`
	AdditionalInstructions Text  `json:"additional_instructions,omitempty"`
	FraudWarning           Text  `json:"fraud_warning,omitempty"`
}

// ApplicationForm is the union of the RAP and RAS application shapes.
// Program-specific fields are left empty by the other program.
type ApplicationForm struct {
	QuoteID            string `json:"quote_id"`
	QuoteType          string `json:"quote_type"`
	Program            string `json:"program"`
	ProgramCode        string `json:"program_code"`
	State              string `json:"state"`
	CurrentlyInsurance Bool   `json:"currently_insurance"`
	GAInsurance        Bool   `json:"ga_insurance"`

	Fullname  string    `json:"fullname"`
	FirmNames FirmNames `json:"firm_name"`

	Address        Address `json:"address"`
	IsMailingSame  Bool    `json:"isMailingSame"`
	MailingAddress Address `json:"mailing_address"`
	PhoneNo        string  `json:"phone_no"`
	FaxNo          string  `json:"fax_no"`
	WebsiteURL     string  `json:"website_url"`
	Email          string  `json:"email"`
	ConfirmEmail   string  `json:"confirmEmail"`
	GoogleAddress  string  `json:"google_address"`

	// RAP
	NoOfProfessional Text `json:"no_of_professional,omitempty"`

	// RAS
	ApplicantIs                 string `json:"applicant_is,omitempty"`
	NoOfProfessionalMoreThan20k Text   `json:"no_of_professional_more_than_20k,omitempty"`
	NoOfProfessionalLessThan20k Text   `json:"no_of_professional_less_than_20k,omitempty"`
	NoOfTransactions            Text   `json:"no_of_transactions,omitempty"`
	HasPredecessorCoverage      Bool   `json:"has_predecessor_coverage"`
	PredecessorName             string `json:"predecessor_name,omitempty"`
	PredecessorRetroactiveDate  Date   `json:"predecessor_retroactive_date"`
	PredecessorDissolutionDate  Date   `json:"predecessor_dissolution_date"`

	EffectiveDate     Date            `json:"effective_date"`
	FirmDate          Date            `json:"firm_date"`
	GrossAnnualIncome Income          `json:"gross_annual_income"`
	PremiumTable      string          `json:"premium_table"`
	Questions         map[string]Text `json:"questions,omitempty"`
	Answers           Answers         `json:"answers"`
	PolicyData        PolicyData      `json:"policy_data"`

	AdditionalInstructions Text   `json:"additional_instructions,omitempty"`
	FraudWarning           Text   `json:"fraud_warning,omitempty"`
	ConvenienceFees        Bool   `json:"convenience_fees"`
	ESign                  string `json:"e_sign"`
	TAndC                  Bool   `json:"t_and_c"`
}

// IsRAS reports whether the form follows the RAS shape.
func (f ApplicationForm) IsRAS() bool {
	return strings.EqualFold(f.ProgramCode, ProgramRAS)
}

// CopyMailingAddress overwrites the mailing address with a copy of the
// address when the applicant marked them the same.
func (f *ApplicationForm) CopyMailingAddress() {
	if f.IsMailingSame.True() {
		f.MailingAddress = f.Address
	}
}

// NormalizeIncome replaces the typed income with its plain amount, which is
// what quote/save expects. Unparseable text is left for validation.
func (f *ApplicationForm) NormalizeIncome() {
	if m, ok := f.GrossAnnualIncome.Amount(); ok {
		f.GrossAnnualIncome = Income(m.Decimal.String())
	}
}

// DraftKey is the cache key of a saved application draft.
func DraftKey(program, quoteID string) string {
	return strings.ToUpper(program) + "form_" + quoteID
}
