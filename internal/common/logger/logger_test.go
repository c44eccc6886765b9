package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapWrapper_FieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	scoped := log.WithFields(map[string]interface{}{"taskType": "resolve-qualifier"})
	scoped.Info("processing job", map[string]interface{}{"jobKey": int64(42)})
	scoped.WithError(errors.New("boom")).Error("job failed", nil)
	log.Debug("debug line", nil)
	log.Warn("cache miss", map[string]interface{}{"cause": errors.New("bad json")})

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, "processing job", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "resolve-qualifier", ctx["taskType"])
	assert.Equal(t, int64(42), ctx["jobKey"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])

	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
	assert.Equal(t, "bad json", entries[3].ContextMap()["cause"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestUnwrap(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, Unwrap(NewZapAdapter(base)))
	assert.NotNil(t, Unwrap(nil))
}
