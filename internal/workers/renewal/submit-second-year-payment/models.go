// internal/workers/renewal/submit-second-year-payment/models.go
package submitsecondyearpayment

import (
	"quote-workflow/internal/models"
	buildreview "quote-workflow/internal/workers/application/build-review"
)

type Input struct {
	SessionID      string      `json:"sessionId"`
	QuoteID        string      `json:"quoteId"`
	Email          string      `json:"email"`
	ESign          string      `json:"e_sign"`
	TAndC          models.Bool `json:"t_and_c"`
	ConvenienceFee models.Bool `json:"convenienceFee"`
}

type Output struct {
	SessionID string                          `json:"sessionId"`
	Request   models.SecondYearPaymentRequest `json:"request"`
	buildreview.Result
}
