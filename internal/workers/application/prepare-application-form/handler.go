// internal/workers/application/prepare-application-form/handler.go
package prepareapplicationform

import (
	"context"
	"errors"
	"fmt"

	"quote-workflow/internal/common/camunda"
	"quote-workflow/internal/common/config"
	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/session"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "application.form.prepare"

var ErrInvalidInput = errors.New("INPUT_PARSING_FAILED")

type Handler struct {
	config   *Config
	service  *Service
	sessions *session.Registry
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(appCfg *config.Config, sessions *session.Registry, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   LoadConfig(appCfg),
		service:  NewService(log),
		sessions: sessions,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log,
	}
}

func (h *Handler) Service() *Service { return h.service }

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		h.errors.HandleJobError(ctx, client, job, fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	st, err := h.sessions.GetOrCreate(input.SessionID)
	if err != nil {
		return nil, err
	}

	if input.Draft != nil {
		if err := h.service.SaveDraft(ctx, st, *input.Draft); err != nil {
			return nil, apperrors.NewCacheUnavailableError(st.Cache().Backend(), err)
		}
		return &Output{SessionID: st.ID(), Prepared: PreparedForm{Form: *input.Draft, FromDraft: true}}, nil
	}

	prepared, err := h.service.Prepare(ctx, st, input.Program, input.QuoteID)
	if err != nil {
		return nil, err
	}
	return &Output{SessionID: st.ID(), Prepared: *prepared}, nil
}
