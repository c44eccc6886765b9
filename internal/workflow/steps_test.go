package workflow

import (
	"testing"

	"quote-workflow/internal/common/backend"
	"quote-workflow/internal/common/cache"
	"quote-workflow/internal/common/config"
	"quote-workflow/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobHandlers_CoverEveryTaskType(t *testing.T) {
	client := backend.New(config.BackendConfig{BaseURL: "http://127.0.0.1:1", Timeout: 100}, nil, nil)
	steps := New(Options{
		Backend: client,
		Store:   cache.NewMemoryStore(),
		Logger:  logger.NewTestLogger(t),
	})
	require.NotNil(t, steps.Sessions)

	handlers := steps.JobHandlers()
	for _, taskType := range []string{
		"quote.qualifier.resolve",
		"quote.premium.calculate",
		"quote.supported-states.fetch",
		"application.form.prepare",
		"application.submit",
		"application.review.build",
		"payment.process",
		"renewal.auto-renewal.submit",
		"renewal.second-year.submit",
	} {
		h, ok := handlers[taskType]
		assert.True(t, ok, taskType)
		assert.NotNil(t, h, taskType)
	}
	assert.Len(t, handlers, 9)
}
