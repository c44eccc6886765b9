// internal/workers/application/submit-application/models.go
package submitapplication

import (
	"fmt"

	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/validation"
	"quote-workflow/internal/models"
)

type Input struct {
	SessionID string                 `json:"sessionId"`
	Form      models.ApplicationForm `json:"application"`
}

type Output struct {
	SessionID  string                   `json:"sessionId"`
	QuoteID    string                   `json:"quoteId"`
	Submission models.QuoteSaveResponse `json:"submission"`
}

// FocusStrategy is how a client brings an invalid field into view.
type FocusStrategy string

const (
	StrategyFocus          FocusStrategy = "focus"
	StrategyScrollIntoView FocusStrategy = "scroll-into-view"
)

// FocusTarget names the first invalid field. Fields rendered in popovers
// or overlays cannot take focus directly; they are scrolled into view and
// date pickers are opened as well.
type FocusTarget struct {
	Field       string        `json:"field"`
	Strategy    FocusStrategy `json:"strategy"`
	OpenPopover bool          `json:"openPopover,omitempty"`
}

var datePickers = map[string]bool{
	"effective_date":               true,
	"firm_date":                    true,
	"predecessor_retroactive_date": true,
	"predecessor_dissolution_date": true,
}

var overlays = map[string]bool{
	"premium_table": true,
	"answers":       true,
}

// FocusFor returns the focus target for field.
func FocusFor(field string) FocusTarget {
	switch {
	case datePickers[field]:
		return FocusTarget{Field: field, Strategy: StrategyScrollIntoView, OpenPopover: true}
	case overlays[field]:
		return FocusTarget{Field: field, Strategy: StrategyScrollIntoView}
	default:
		return FocusTarget{Field: field, Strategy: StrategyFocus}
	}
}

// FormError is a failed validation gate. It unwraps to an
// APPLICATION_VALIDATION_FAILED StandardError for the first field.
type FormError struct {
	Errors []validation.ValidationError `json:"errors"`
	Focus  FocusTarget                  `json:"focus"`

	std *apperrors.StandardError
}

func newFormError(res *validation.ValidationResult) *FormError {
	first, _ := res.First()
	return &FormError{
		Errors: res.Errors,
		Focus:  FocusFor(first.Field),
		std:    apperrors.NewApplicationValidationError(first.Field, first.Message),
	}
}

func (e *FormError) Error() string {
	return fmt.Sprintf("application invalid: %d field errors, first on %s", len(e.Errors), e.Focus.Field)
}

func (e *FormError) Unwrap() error { return e.std }
