// internal/workers/application/build-review/service.go
package buildreview

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/session"
	"quote-workflow/internal/models"
)

// Section titles, in display order.
const (
	SectionQuote       = "Quote Details"
	SectionPersonal    = "Personal Information"
	SectionAddress     = "Address Information"
	SectionEligibility = "Eligibility Questions"
	SectionPolicy      = "Policy Data"
)

// PDFLinker builds the application PDF download link.
type PDFLinker interface {
	PDFDownloadURL(quoteID string) string
}

type Service struct {
	pdf    PDFLinker
	logger logger.Logger
}

func NewService(pdf PDFLinker, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{pdf: pdf, logger: log}
}

// Bridge turns a backend save response into the review summary and
// places the payment handoff on the session. Nothing is recomputed: the
// backend total is the amount charged.
func (s *Service) Bridge(_ context.Context, st *session.State, resp models.QuoteSaveResponse, policyPaymentType string) (*Result, error) {
	handoff, err := NewHandoff(resp, policyPaymentType)
	if err != nil {
		return nil, err
	}

	st.SetHandoff(handoff)
	if err := st.Advance(session.StageReviewing); err != nil {
		s.logger.Debug("Stage not changed", map[string]interface{}{
			"sessionId": st.ID(),
			"from":      string(st.Stage()),
			"to":        string(session.StageReviewing),
		})
	}

	res := &Result{
		Review:      BuildReview(resp),
		Handoff:     handoff,
		PaymentPath: PaymentPath(handoff),
	}
	if s.pdf != nil {
		res.DownloadURL = s.pdf.PDFDownloadURL(resp.QuoteID)
	}

	s.logger.Info("Payment handoff ready", map[string]interface{}{
		"sessionId":         st.ID(),
		"quoteId":           handoff.QuoteID,
		"amount":            handoff.Amount,
		"policyPaymentType": handoff.PolicyPaymentType,
	})
	return res, nil
}

// NewHandoff builds the payment handoff from a save response.
func NewHandoff(resp models.QuoteSaveResponse, policyPaymentType string) (models.PaymentHandoff, error) {
	if strings.TrimSpace(resp.QuoteID) == "" {
		return models.PaymentHandoff{}, apperrors.NewQuoteIDMissingError()
	}
	if strings.TrimSpace(resp.PaymentClientToken) == "" {
		return models.PaymentHandoff{}, apperrors.NewPaymentHandoffMissingError()
	}
	if policyPaymentType == "" {
		policyPaymentType = models.PolicyPaymentPurchase
	}
	return models.PaymentHandoff{
		QuoteID:           resp.QuoteID,
		Amount:            resp.PolicyData.TotalAmount.String(),
		ClientToken:       resp.PaymentClientToken,
		PolicyPaymentType: policyPaymentType,
	}, nil
}

// PaymentPath is the payment page of a handoff.
func PaymentPath(h models.PaymentHandoff) string {
	return "/quote/pay?token=" + url.QueryEscape(h.ClientToken) + "&quote_id=" + url.QueryEscape(h.QuoteID)
}

// BuildReview groups the echoed application into the review sections.
func BuildReview(resp models.QuoteSaveResponse) Review {
	pd := resp.PolicyData
	return Review{Sections: []Section{
		{Title: SectionQuote, Items: []Item{
			{Label: "Program", Value: resp.Program},
			{Label: "State", Value: resp.State},
			{Label: "Effective Date", Value: models.FormatDate(resp.EffectiveDate.String())},
		}},
		{Title: SectionPersonal, Items: []Item{
			{Label: "Full Name", Value: resp.Fullname},
			{Label: "Firm Name", Value: strings.Join(nonEmpty(resp.FirmNames.Names), ", ")},
			{Label: "Phone", Value: resp.PhoneNo},
			{Label: "Fax", Value: resp.FaxNo},
			{Label: "Email", Value: resp.Email},
			{Label: "Website", Value: resp.WebsiteURL},
		}},
		{Title: SectionAddress, Items: []Item{
			{Label: "Address", Value: resp.Address.String()},
			{Label: "Mailing Address", Value: resp.MailingAddress.String()},
		}},
		{Title: SectionEligibility, Items: eligibility(resp.Questions)},
		{Title: SectionPolicy, Items: []Item{
			{Label: "Price Limit", Value: pd.PriceLimit.String()},
			{Label: "Deductible", Value: "$" + pd.Deductible.String()},
			{Label: "Annual Premium", Value: "$" + pd.AnnualPremium.String()},
			{Label: "State Tax", Value: "$" + pd.StateTax.String()},
			{Label: "Convenience Fee", Value: "$" + pd.ConvenienceFee.String()},
			{Label: "Total Amount", Value: "$" + pd.TotalAmount.String()},
		}},
	}}
}

// eligibility lists answers in question order: question2 before question10.
func eligibility(questions map[string]models.Bool) []Item {
	keys := make([]string, 0, len(questions))
	for k := range questions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, ei := questionNumber(keys[i])
		nj, ej := questionNumber(keys[j])
		if ei == nil && ej == nil && ni != nj {
			return ni < nj
		}
		return keys[i] < keys[j]
	})

	items := make([]Item, 0, len(keys))
	for i, k := range keys {
		v := "False"
		if questions[k].True() {
			v = "True"
		}
		items = append(items, Item{Label: strconv.Itoa(i+1) + ". " + k, Value: v})
	}
	return items
}

func questionNumber(key string) (int, error) {
	return strconv.Atoi(strings.TrimPrefix(key, "question"))
}

func nonEmpty(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
