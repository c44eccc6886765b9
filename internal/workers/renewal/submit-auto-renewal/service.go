// internal/workers/renewal/submit-auto-renewal/service.go
package submitautorenewal

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

const msgAgree = "You must agree to continue with auto renewal"

type AutoRenewAPI interface {
	SubmitAutoRenewal(ctx context.Context, payload interface{}) (models.QuoteSaveResponse, error)
}

type Service struct {
	config *Config
	api    AutoRenewAPI
	bridge *buildreview.Service
	logger logger.Logger
}

func NewService(api AutoRenewAPI, bridge *buildreview.Service, cfg *Config, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{config: cfg, api: api, bridge: bridge, logger: log}
}

// Submit confirms an unchanged renewal for the session's cached
// auto-renewal quote and hands the backend total to payment.
func (s *Service) Submit(ctx context.Context, st *session.State, in Input) (*models.AutoRenewalRequest, *buildreview.Result, error) {
	quote, err := s.cachedQuote(ctx, st, in.QuoteID)
	if err != nil {
		return nil, nil, err
	}

	s.advance(st, session.StageDrafting)
	if res := Validate(in); !res.Valid {
		first, _ := res.First()
		return nil, nil, apperrors.NewApplicationValidationError(first.Field, first.Message).
			WithMetadata("errors", res.Errors)
	}

	req := BuildRequest(quote, in, models.NewMoney(s.config.ConvenienceFee))
	if err := cache.NewTyped[models.AutoRenewalRequest](st.Cache(), models.RenewalDraftKey(req.PolicyPaymentType, req.QuoteID), s.logger).Save(ctx, req); err != nil {
		s.logger.Warn("Auto-renewal draft not saved", map[string]interface{}{
			"sessionId": st.ID(),
			"error":     err.Error(),
		})
	}

	s.advance(st, session.StageValidating)
	s.advance(st, session.StageSubmitting)

	program := programLabel(quote.ProgramCode, req.PolicyNum)
	resp, err := s.api.SubmitAutoRenewal(ctx, req)
	if err != nil {
		s.advance(st, session.StageDrafting)
		metrics.Submissions.WithLabelValues(program, "failed").Inc()
		return nil, nil, err
	}
	metrics.Submissions.WithLabelValues(program, "submitted").Inc()

	result, err := s.bridge.Bridge(ctx, st, resp, models.PolicyPaymentAutoRenewal)
	if err != nil {
		return nil, nil, err
	}
	return &req, result, nil
}

func (s *Service) cachedQuote(ctx context.Context, st *session.State, quoteID string) (models.AutoRenewalQuote, error) {
	entry, ok := cache.NewTyped[models.CachedQuote](st.Cache(), cache.KeyCachedQuote, s.logger).LoadEntry(ctx)
	if ok {
		if q, isAuto := entry.Value.QuoteResponse.Variant.(models.AutoRenewalQuote); isAuto && q.QuoteID == quoteID {
			return q, nil
		}
	}
	return models.AutoRenewalQuote{}, apperrors.NewQuoteNotFoundError(quoteID)
}

func (s *Service) advance(st *session.State, to session.Stage) {
	from := st.Stage()
	if from == to {
		return
	}
	if err := st.Advance(to); err != nil {
		s.logger.Debug("Stage not changed", map[string]interface{}{
			"sessionId": st.ID(),
			"from":      string(from),
			"to":        string(to),
		})
	}
}

// programLabel prefers the quote's program code and falls back to the
// policy number prefix.
func programLabel(code, policyNum string) string {
	if code == "" && len(policyNum) >= 3 {
		code = policyNum[:3]
	}
	return strings.ToUpper(code)
}

// Validate checks the auto-renewal confirmation form.
func Validate(in Input) *validation.ValidationResult {
	res := &validation.ValidationResult{Valid: true}
	for _, c := range []struct {
		field string
		value models.Bool
	}{
		{"no_changes.address_contact", in.NoChanges.AddressContact},
		{"no_changes.new_firms_additional", in.NoChanges.NewFirmsAdditional},
		{"no_changes.limit_changes", in.NoChanges.LimitChanges},
	} {
		if !c.value.True() {
			res.Add(c.field, msgAgree, "NOT_ACCEPTED")
		}
	}
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

// BuildRequest fills the policy/auto-renew body from the renewal offer.
func BuildRequest(q models.AutoRenewalQuote, in Input, fee models.Money) models.AutoRenewalRequest {
	d := q.Data
	withFee := in.ConvenienceFee.True()
	charged := models.Money{}
	if withFee {
		charged = fee.Round2()
	}
	return models.AutoRenewalRequest{
		PolicyPaymentType: models.PolicyPaymentAutoRenewal,
		PolicyNum:         d.PolicyNum.String(),
		QuoteID:           q.QuoteID,
		QuoteType:         string(q.QuoteType),
		State:             q.State,
		Email:             strings.TrimSpace(in.Email),
		ESign:             in.ESign,
		TAndC:             in.TAndC.True(),
		NoChanges: models.NoChanges{
			AddressContact:     in.NoChanges.AddressContact.True(),
			NewFirmsAdditional: in.NoChanges.NewFirmsAdditional.True(),
			LimitChanges:       in.NoChanges.LimitChanges.True(),
		},
		PolicyData: models.RenewalPolicyData{
			PriceLimit:            d.CurrentLimitOption,
			AnnualPremiumSelected: d.AnnualPremium,
			AnnualPremium:         d.AnnualPremium,
			LimitClaimID:          d.LimitClaimID,
			TaxAmount:             d.TaxAmount,
			ConvenienceFee:        charged,
			TotalAmount:           models.RenewalTotal(d.AnnualPremium, d.TaxAmount, d.TotalAmountWithTax, fee, withFee),
		},
	}
}
