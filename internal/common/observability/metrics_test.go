package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"quote-workflow/internal/common/config"

	"github.com/stretchr/testify/assert"
)

func TestNew_WithoutJaeger(t *testing.T) {
	o := New(config.ObservabilityConfig{ServiceName: "quote-workflow-test"})
	defer o.Shutdown()

	assert.Nil(t, o.tracerProvider)
	assert.NotNil(t, o.meterProvider)

	ctx, span := o.StartSpan(context.Background(), "backend.qualifier")
	assert.NotNil(t, ctx)
	span.End()

	o.Track(context.Background(), "resolve-qualifier", time.Now(), nil)
	o.Track(context.Background(), "resolve-qualifier", time.Now(), errors.New("boom"))
}

func TestStartSpan_ZeroValue(t *testing.T) {
	var o Observability
	_, span := o.StartSpan(context.Background(), "noop")
	span.End()
	o.RecordJobProcessed(context.Background(), "x", "success")
	o.Shutdown()
}
