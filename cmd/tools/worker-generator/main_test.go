package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quote-workflow/pkg/registry"
)

func TestGoName(t *testing.T) {
	tests := map[string]string{
		"quoteId":        "QuoteID",
		"policy_num":     "PolicyNum",
		"e_sign":         "ESign",
		"program":        "Program",
		"id":             "ID",
		"payment-method": "PaymentMethod",
	}
	for in, want := range tests {
		assert.Equal(t, want, goName(in), in)
	}
}

func TestGenerate(t *testing.T) {
	data, err := newWorkerData(registry.Task{
		ID:          "send-reminder",
		DisplayName: "Send Reminder",
		Category:    "Renewal",
		TaskType:    "renewal.reminder.send",
		Inputs:      []string{"quoteId", "email"},
		Outputs:     []string{"sent"},
		ErrorCodes:  []string{"BACKEND_API_ERROR"},
		Timeout:     "10s",
	})
	require.NoError(t, err)
	assert.Equal(t, "sendreminder", data.PackageName)
	assert.Equal(t, 10*time.Second, data.Timeout)

	root := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, generate(root, data, &out))

	dir := filepath.Join(root, "renewal", "send-reminder")
	for _, f := range []string{"config.go", "models.go", "service.go", "handler.go", "handler_test.go"} {
		assert.FileExists(t, filepath.Join(dir, f))
	}

	handler, err := os.ReadFile(filepath.Join(dir, "handler.go"))
	require.NoError(t, err)
	assert.Contains(t, string(handler), `const TaskType = "renewal.reminder.send"`)
	assert.Contains(t, string(handler), "Business errors: BACKEND_API_ERROR.")

	models, err := os.ReadFile(filepath.Join(dir, "models.go"))
	require.NoError(t, err)
	assert.Contains(t, string(models), "QuoteID interface{} `json:\"quoteId\"`")

	cfg, err := os.ReadFile(filepath.Join(dir, "config.go"))
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "10000 * time.Millisecond")

	out.Reset()
	require.NoError(t, generate(root, data, &out))
	assert.Contains(t, out.String(), "skipped")
}

func TestNewWorkerData_BadTimeout(t *testing.T) {
	_, err := newWorkerData(registry.Task{ID: "x", Timeout: "soon"})
	assert.Error(t, err)
}
