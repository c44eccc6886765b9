// internal/workers/quote/resolve-qualifier/handler.go
package resolvequalifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quote-workflow/internal/common/camunda"
	"quote-workflow/internal/common/config"
	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/session"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "quote.qualifier.resolve"

var ErrInvalidInput = errors.New("INPUT_PARSING_FAILED")

type Handler struct {
	config   *Config
	service  *Service
	sessions *session.Registry
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

type HandlerOptions struct {
	AppConfig *config.Config
	API       QualifierAPI
	Sessions  *session.Registry
	Logger    logger.Logger
	Clock     func() time.Time
}

func NewHandler(opts HandlerOptions) *Handler {
	cfg := LoadConfig(opts.AppConfig)
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config: cfg,
		service: NewService(ServiceDependencies{
			API:    opts.API,
			Logger: log,
			Clock:  opts.Clock,
		}, cfg),
		sessions: opts.Sessions,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log,
	}
}

// Service exposes the resolver to the HTTP surface.
func (h *Handler) Service() *Service { return h.service }

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing qualifier", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

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

	decision, err := h.service.Resolve(ctx, st, input.Qualifier)
	if err != nil {
		return nil, err
	}
	return &Output{SessionID: st.ID(), Decision: *decision}, nil
}
