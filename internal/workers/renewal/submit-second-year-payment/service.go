// internal/workers/renewal/submit-second-year-payment/service.go
package submitsecondyearpayment

import (
	"context"
	"strings"

	"quote-workflow/internal/common/cache"
	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/metrics"
	"quote-workflow/internal/common/session"
	"quote-workflow/internal/common/validation"
	"quote-workflow/internal/models"
	buildreview "quote-workflow/internal/workers/application/build-review"
)

type SecondYearAPI interface {
	SubmitSecondYearPayment(ctx context.Context, payload interface{}) (models.QuoteSaveResponse, error)
}

type Service struct {
	config *Config
	api    SecondYearAPI
	bridge *buildreview.Service
	logger logger.Logger
}

func NewService(api SecondYearAPI, bridge *buildreview.Service, cfg *Config, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{config: cfg, api: api, bridge: bridge, logger: log}
}

func (s *Service) Submit(ctx context.Context, st *session.State, in Input) (*models.SecondYearPaymentRequest, *buildreview.Result, error) {
	entry, ok := cache.NewTyped[models.CachedQuote](st.Cache(), cache.KeyCachedQuote, s.logger).LoadEntry(ctx)
	quote, isSecondYear := entry.Value.QuoteResponse.Variant.(models.SecondYearPaymentQuote)
	if !ok || !isSecondYear || quote.QuoteID != in.QuoteID {
		return nil, nil, apperrors.NewQuoteNotFoundError(in.QuoteID)
	}

	s.advance(st, session.StageDrafting)
	if res := Validate(in); !res.Valid {
		first, _ := res.First()
		return nil, nil, apperrors.NewApplicationValidationError(first.Field, first.Message).
			WithMetadata("errors", res.Errors)
	}

	req := BuildRequest(quote, in, models.NewMoney(s.config.ConvenienceFee))
	draft := cache.NewTyped[models.SecondYearPaymentRequest](st.Cache(), models.RenewalDraftKey(req.PolicyPaymentType, req.QuoteID), s.logger)
	if err := draft.Save(ctx, req); err != nil {
		s.logger.Warn("Second-year draft not saved", map[string]interface{}{
			"sessionId": st.ID(),
			"error":     err.Error(),
		})
	}

	s.advance(st, session.StageValidating)
	s.advance(st, session.StageSubmitting)

	program := strings.ToUpper(quote.ProgramCode)
	if program == "" && len(req.PolicyNum) >= 3 {
		program = strings.ToUpper(req.PolicyNum[:3])
	}
	resp, err := s.api.SubmitSecondYearPayment(ctx, req)
	if err != nil {
		s.advance(st, session.StageDrafting)
		metrics.Submissions.WithLabelValues(program, "failed").Inc()
		return nil, nil, err
	}
	metrics.Submissions.WithLabelValues(program, "submitted").Inc()

	result, err := s.bridge.Bridge(ctx, st, resp, models.PolicyPaymentSecondYearPayment)
	if err != nil {
		return nil, nil, err
	}
	return &req, result, nil
}

func (s *Service) advance(st *session.State, to session.Stage) {
	if err := st.Advance(to); err != nil {
		s.logger.Debug("Stage not changed", map[string]interface{}{
			"sessionId": st.ID(),
			"from":      string(st.Stage()),
			"to":        string(to),
		})
	}
}

func Validate(in Input) *validation.ValidationResult {
	res := &validation.ValidationResult{Valid: true}
	if !validation.ValidateEmail(strings.TrimSpace(in.Email)) {
		res.Add("email", "Invalid email address", "INVALID_FORMAT")
	}
	if strings.TrimSpace(in.ESign) == "" {
		res.Add("e_sign", "E-signature is required", "MISSING_REQUIRED")
	}
	if !in.TAndC.True() {
		res.Add("t_and_c", "You must accept the terms and conditions to continue", "NOT_ACCEPTED")
	}
	return res
}

// BuildRequest fills the second-year payment body. The fullname and tax
// come from the offer, not the form.
func BuildRequest(q models.SecondYearPaymentQuote, in Input, fee models.Money) models.SecondYearPaymentRequest {
	d := q.Data
	withFee := in.ConvenienceFee.True()
	charged := models.Money{}
	if withFee {
		charged = fee.Round2()
	}
	return models.SecondYearPaymentRequest{
		PolicyPaymentType: models.PolicyPaymentSecondYearPayment,
		PolicyNum:         q.PolicyNum,
		QuoteID:           q.QuoteID,
		QuoteType:         string(q.QuoteType),
		Fullname:          d.Fullname.String(),
		State:             q.State,
		Email:             strings.TrimSpace(in.Email),
		ESign:             in.ESign,
		TAndC:             in.TAndC.True(),
		PolicyData: models.RenewalPolicyData{
			AnnualPremiumSelected: d.AnnualPremium,
			AnnualPremium:         d.AnnualPremium,
			LimitClaimID:          d.LimitClaimID,
			TaxAmount:             d.TaxAmount,
			ConvenienceFee:        charged,
			TotalAmount:           models.RenewalTotal(d.AnnualPremium, d.TaxAmount, d.TotalAmountWithTax, fee, withFee),
		},
	}
}
