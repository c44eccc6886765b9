// internal/workers/application/prepare-application-form/models.go
package prepareapplicationform

import "quote-workflow/internal/models"

type Input struct {
	SessionID string `json:"sessionId"`
	Program   string `json:"program"`
	QuoteID   string `json:"quoteId"`

	// Draft, when set, is saved instead of preparing a form.
	Draft *models.ApplicationForm `json:"draft,omitempty"`
}

// PreparedForm is an application ready to edit together with the quote
// data it is edited against.
type PreparedForm struct {
	Form      models.ApplicationForm `json:"form"`
	Rates     models.Rates           `json:"rates"`
	TaxFees   models.TaxFees         `json:"taxFees"`
	FromDraft bool                   `json:"fromDraft"`
}

type Output struct {
	SessionID string       `json:"sessionId"`
	Prepared  PreparedForm `json:"application"`
}
