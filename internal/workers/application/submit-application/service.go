// internal/workers/application/submit-application/service.go
package submitapplication

import (
	"context"
	"strings"

	"quote-workflow/internal/common/cache"
	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/metrics"
	"quote-workflow/internal/common/session"
	"quote-workflow/internal/models"
)

// SaveAPI is the backend call that submits an application.
type SaveAPI interface {
	SaveQuote(ctx context.Context, form models.ApplicationForm) (models.QuoteSaveResponse, error)
}

type Service struct {
	api    SaveAPI
	logger logger.Logger
}

func NewService(api SaveAPI, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{api: api, logger: log}
}

// Submit persists the form as a draft, runs the validation gate and posts
// the application. The draft is written before anything can fail so the
// applicant can always retry from it.
func (s *Service) Submit(ctx context.Context, st *session.State, form models.ApplicationForm) (*models.QuoteSaveResponse, error) {
	form.CopyMailingAddress()
	form.NormalizeIncome()
	program := strings.ToUpper(form.ProgramCode)

	if err := s.saveDraft(ctx, st, form); err != nil {
		return nil, apperrors.NewCacheUnavailableError(st.Cache().Backend(), err)
	}

	s.advance(st, session.StageValidating)
	if ferr := s.check(form); ferr != nil {
		s.advance(st, session.StageDrafting)
		metrics.Submissions.WithLabelValues(program, "invalid").Inc()
		s.logger.Info("Application failed validation", map[string]interface{}{
			"sessionId":  st.ID(),
			"quoteId":    form.QuoteID,
			"field":      ferr.Focus.Field,
			"errorCount": len(ferr.Errors),
		})
		return nil, ferr
	}

	s.advance(st, session.StageSubmitting)
	resp, err := s.api.SaveQuote(ctx, form)
	if err != nil {
		s.advance(st, session.StageDrafting)
		metrics.Submissions.WithLabelValues(program, "failed").Inc()
		s.logger.Warn("Application submission failed", map[string]interface{}{
			"sessionId": st.ID(),
			"quoteId":   form.QuoteID,
			"error":     err.Error(),
		})
		return nil, err
	}

	metrics.Submissions.WithLabelValues(program, "submitted").Inc()
	s.logger.Info("Application submitted", map[string]interface{}{
		"sessionId": st.ID(),
		"quoteId":   resp.QuoteID,
		"program":   program,
	})
	return &resp, nil
}

// check runs the field rules, then the structural schema.
func (s *Service) check(form models.ApplicationForm) *FormError {
	res := Validate(form)
	if !res.Valid {
		return newFormError(res)
	}

	structural, err := applicationSchema.Validate(form)
	if err != nil {
		s.logger.Error("Schema validation could not run", map[string]interface{}{
			"error": err.Error(),
		})
		res.Add("", "The application could not be checked.", codeValue)
		return newFormError(res)
	}
	if !structural.Valid {
		return newFormError(structural)
	}
	return nil
}

func (s *Service) saveDraft(ctx context.Context, st *session.State, form models.ApplicationForm) error {
	key := models.DraftKey(form.ProgramCode, form.QuoteID)
	if err := cache.NewTyped[models.ApplicationForm](st.Cache(), key, s.logger).Save(ctx, form); err != nil {
		return err
	}
	return cache.NewTyped[string](st.Cache(), cache.KeyQuoteID, s.logger).Save(ctx, form.QuoteID)
}

// advance moves the session when the transition is allowed. Workers may
// see sessions that skipped earlier steps, so a refused move is logged only.
func (s *Service) advance(st *session.State, to session.Stage) {
	if err := st.Advance(to); err != nil {
		s.logger.Debug("Stage not changed", map[string]interface{}{
			"sessionId": st.ID(),
			"from":      string(st.Stage()),
			"to":        string(to),
		})
	}
}
