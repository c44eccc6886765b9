// internal/workers/application/submit-application/rules.go
package submitapplication

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"quote-workflow/internal/common/validation"
	"quote-workflow/internal/models"
)

const (
	codeRequired    = "MISSING_REQUIRED"
	codeFormat      = "INVALID_FORMAT"
	codeValue       = "INVALID_VALUE"
	codeMismatch    = "MISMATCH"
	codeNotAccepted = "NOT_ACCEPTED"
)

const (
	msgAnswerTrue       = "You must answer 'True' to this question to be eligible for this insurance."
	msgAnswersMissing   = "All qualifier questions need to be answered"
	msgCoverage         = "Please select a coverage option"
	msgEmailsDontMatch  = "Emails don't match"
	msgFirmNameTooShort = "Firm Name must be at least 2 characters."
)

// Validate runs the client-side gate over f. Errors are recorded in the
// order the fields appear on the application.
func Validate(f models.ApplicationForm) *validation.ValidationResult {
	res := &validation.ValidationResult{Valid: true}
	ras := f.IsRAS()

	if runes(f.Fullname) < 2 {
		res.Add("fullname", "Full Name must be at least 2 characters.", codeFormat)
	}
	validateFirmNames(res, f.FirmNames, ras)
	if ras {
		validatePredecessor(res, f)
	}

	validateAddress(res, "address", f.Address)
	if !f.IsMailingSame.True() && !f.MailingAddress.IsZero() {
		validateAddress(res, "mailing_address", f.MailingAddress)
	}

	if runes(f.PhoneNo) < 10 {
		res.Add("phone_no", "Phone Number must be at least 10 digits.", codeFormat)
	}
	if w := strings.TrimSpace(f.WebsiteURL); w != "" && !validURL(w) {
		res.Add("website_url", "Please enter a valid URL.", codeFormat)
	}
	switch {
	case strings.TrimSpace(f.Email) == "":
		res.Add("email", "Email is required", codeRequired)
	case !validation.ValidateEmail(strings.TrimSpace(f.Email)):
		res.Add("email", "Please enter a valid email address.", codeFormat)
	}
	if f.Email != f.ConfirmEmail {
		res.Add("confirmEmail", msgEmailsDontMatch, codeMismatch)
	}

	if ras {
		if strings.TrimSpace(f.ApplicantIs) == "" {
			res.Add("applicant_is", "Applicant is required", codeRequired)
		}
		numeric(res, "no_of_professional_more_than_20k", f.NoOfProfessionalMoreThan20k, "Number of professionals is required")
		numeric(res, "no_of_professional_less_than_20k", f.NoOfProfessionalLessThan20k, "Number of professionals is required")
		numeric(res, "no_of_transactions", f.NoOfTransactions, "Number of transactions is required")
	} else {
		numeric(res, "no_of_professional", f.NoOfProfessional, "Number of professionals is required")
	}

	if f.EffectiveDate.IsZero() {
		res.Add("effective_date", "Effective Date is required.", codeRequired)
	}

	income := strings.TrimSpace(f.GrossAnnualIncome.String())
	if income == "" {
		res.Add("gross_annual_income", "Gross Annual Income is required", codeRequired)
	} else if m, ok := f.GrossAnnualIncome.Amount(); !ok || !m.IsPositive() {
		res.Add("gross_annual_income", "Please enter a valid amount", codeValue)
	}

	validateAnswers(res, f.Answers, ras)

	if f.PolicyData.AnnualPremium.IsZero() {
		res.Add("premium_table", msgCoverage, codeRequired)
	}
	if !f.ConvenienceFees.True() {
		res.Add("convenience_fees", "You must accept the convenience fee to proceed.", codeNotAccepted)
	}
	if strings.TrimSpace(f.ESign) == "" {
		res.Add("e_sign", "E-Signature is required", codeRequired)
	}
	if !f.TAndC.True() {
		res.Add("t_and_c", "You must agree to the terms and conditions", codeNotAccepted)
	}
	return res
}

// validateFirmNames: RAP lists up to four names of which blanks are
// allowed but at least one must be given; RAS has exactly one.
func validateFirmNames(res *validation.ValidationResult, names models.FirmNames, ras bool) {
	if ras {
		if runes(names.First()) < 2 {
			res.Add("firm_name", msgFirmNameTooShort, codeFormat)
		}
		return
	}

	if len(names.Names) > models.MaxFirmNames {
		res.Add("firm_name", "No more than 4 firm names may be listed.", codeValue)
		return
	}
	given := 0
	for i, n := range names.Names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		given++
		if runes(n) < 2 {
			res.Add("firm_name."+strconv.Itoa(i), msgFirmNameTooShort, codeFormat)
		}
	}
	if given == 0 {
		res.Add("firm_name.0", msgFirmNameTooShort, codeRequired)
	}
}

func validatePredecessor(res *validation.ValidationResult, f models.ApplicationForm) {
	if !f.HasPredecessorCoverage.True() {
		return
	}
	if strings.TrimSpace(f.PredecessorName) == "" {
		res.Add("predecessor_name", "Predecessor firm name is required when have predecessor coverage.", codeRequired)
	}
	if f.PredecessorRetroactiveDate.IsZero() {
		res.Add("predecessor_retroactive_date", "Retroactive date is required when have predecessor coverage.", codeRequired)
	}
	if f.PredecessorDissolutionDate.IsZero() {
		res.Add("predecessor_dissolution_date", "Dissolution date is required when have predecessor coverage.", codeRequired)
	}
}

func validateAddress(res *validation.ValidationResult, prefix string, a models.Address) {
	if runes(a.AddressLine1) < 2 {
		res.Add(prefix+".address_line1", "Address line 1 is required", codeRequired)
	}
	if runes(a.City) < 2 {
		res.Add(prefix+".city", "City is required", codeRequired)
	}
	if runes(a.State) < 2 {
		res.Add(prefix+".state", "State is required", codeRequired)
	}
	if runes(a.Zipcode) < 5 {
		res.Add(prefix+".zipcode", "Zip code is required", codeRequired)
	}
}

// validateAnswers: every question needs an answer; RAP additionally
// accepts only true.
func validateAnswers(res *validation.ValidationResult, a models.Answers, ras bool) {
	if !a.AllPresent() {
		res.Add("answers", msgAnswersMissing, codeRequired)
		return
	}
	if !ras && a.FirstNotTrue() >= 0 {
		res.Add("answers", msgAnswerTrue, codeValue)
	}
}

func numeric(res *validation.ValidationResult, field string, v models.Text, required string) {
	s := strings.TrimSpace(v.String())
	if s == "" {
		res.Add(field, required, codeRequired)
		return
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		res.Add(field, "Please enter a valid value.", codeFormat)
	}
}

func validURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func runes(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
