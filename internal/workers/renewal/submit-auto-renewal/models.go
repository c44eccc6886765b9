// internal/workers/renewal/submit-auto-renewal/models.go
package submitautorenewal

import (
	buildreview "quote-workflow/internal/workers/application/build-review"

	"quote-workflow/internal/models"
)

type Input struct {
	SessionID      string           `json:"sessionId"`
	QuoteID        string           `json:"quoteId"`
	Email          string           `json:"email"`
	ESign          string           `json:"e_sign"`
	TAndC          models.Bool      `json:"t_and_c"`
	NoChanges      NoChangesAnswers `json:"no_changes"`
	ConvenienceFee models.Bool      `json:"convenienceFee"`
}

// NoChangesAnswers are the confirmations as submitted, decoded leniently.
type NoChangesAnswers struct {
	AddressContact     models.Bool `json:"address_contact"`
	NewFirmsAdditional models.Bool `json:"new_firms_additional"`
	LimitChanges       models.Bool `json:"limit_changes"`
}

type Output struct {
	SessionID string                    `json:"sessionId"`
	Request   models.AutoRenewalRequest `json:"request"`
	buildreview.Result
}
