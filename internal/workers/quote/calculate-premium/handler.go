// internal/workers/quote/calculate-premium/handler.go
package calculatepremium

import (
	"context"
	"errors"
	"fmt"

	"quote-workflow/internal/common/camunda"
	"quote-workflow/internal/common/config"
	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "quote.premium.calculate"

var (
	ErrInvalidInput  = errors.New("INPUT_PARSING_FAILED")
	ErrUnknownAction = errors.New("UNKNOWN_PREMIUM_ACTION")
)

type Handler struct {
	config *Config
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(appCfg *config.Config, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: LoadConfig(appCfg),
		errors: apperrors.NewErrorHandler(log),
		logger: log,
	}
}

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

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	state, err := Apply(*input, h.config.DefaultConvenienceFee)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("Premium recalculated", map[string]interface{}{
		"action":  input.Action,
		"premium": state.AnnualPremium.String(),
		"tax":     state.TaxAmount.String(),
		"total":   state.CalculatedTotal.String(),
	})
	return &Output{
		State:      state,
		PolicyData: ApplyToPolicyData(state, input.PolicyData),
	}, nil
}
