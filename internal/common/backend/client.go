// Package backend is the typed client of the external insurance API. Every
// failure is returned as a StandardError whose Message is the single
// human-readable string the workflow shows.
package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"quote-workflow/internal/common/config"
	apperrors "quote-workflow/internal/common/errors"
	httpclient "quote-workflow/internal/common/http"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/metrics"
	"quote-workflow/internal/common/observability"
	"quote-workflow/internal/models"
)

// Endpoint paths relative to the configured base URL.
const (
	PathSupportedStates = "/api/policy/supported-states"
	PathQualifier       = "/api/policy/qualifier"
	PathSaveQuote       = "/api/quote/save"
	PathPay             = "/api/policy/pay"
	PathSendEmail       = "/api/policy/sendEmail"
	PathAutoRenew       = "/api/policy/auto-renew"
	PathSecondYear      = "/api/policy/second-year"
	PathUploadDocument  = "/api/policy/upload-document"
)

type Client struct {
	baseURL string
	pdfURL  string
	http    *httpclient.Client
	obs     *observability.Observability
	logger  logger.Logger
}

// New builds a client for cfg. obs may be nil.
func New(cfg config.BackendConfig, obs *observability.Observability, log logger.Logger) *Client {
	if obs == nil {
		obs = &observability.Observability{}
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		pdfURL:  cfg.PDFDownloadURL,
		http:    httpclient.NewClient(config.GetDuration(cfg.Timeout), cfg.MaxRetries),
		obs:     obs,
		logger:  log.WithFields(map[string]interface{}{"component": "backend"}),
	}
}

// envelope is the {status, message, data} wrapper of every response.
// status is a number on some endpoints and a string on others.
type envelope struct {
	Status  models.Text     `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type request struct {
	endpoint    string
	method      string
	path        string
	body        io.Reader
	contentType string
	// ok decides whether a 2xx envelope reports success.
	ok func(envelope) bool
}

func statusSuccess(e envelope) bool { return e.Status.String() == "success" }
func statusNotError(e envelope) bool { return e.Status.String() != "error" }

func (c *Client) jsonRequest(endpoint, method, path string, payload interface{}, ok func(envelope) bool) (request, error) {
	req := request{endpoint: endpoint, method: method, path: path, ok: ok}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return req, apperrors.NewBackendRequestError(err)
		}
		req.body = bytes.NewReader(raw)
		req.contentType = "application/json"
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, r request) (envelope, error) {
	ctx, span := c.obs.StartSpan(ctx, "backend."+r.endpoint,
		attribute.String("http.method", r.method),
		attribute.String("http.path", r.path),
	)
	defer span.End()

	start := time.Now()
	status := "error"
	defer func() {
		metrics.BackendRequestDuration.WithLabelValues(r.endpoint, status).Observe(time.Since(start).Seconds())
	}()

	env, code, err := c.roundTrip(ctx, r)
	if code != 0 {
		status = strconv.Itoa(code)
		span.SetAttributes(attribute.Int("http.status_code", code))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperrors.UserMessage(err))
		c.logger.Warn("Backend call failed", map[string]interface{}{
			"endpoint": r.endpoint,
			"status":   status,
			"error":    err.Error(),
		})
		return envelope{}, err
	}
	return env, nil
}

func (c *Client) roundTrip(ctx context.Context, r request) (envelope, int, error) {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return envelope{}, 0, apperrors.NewBackendRequestError(err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		return envelope{}, 0, apperrors.NewBackendNoResponseError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, resp.StatusCode, apperrors.NewBackendNoResponseError(err)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := apperrors.NewBackendHTTPError(resp.StatusCode, http.StatusText(resp.StatusCode))
		// A message in the error body is more useful than the status line.
		if decodeErr == nil && env.Message != "" {
			httpErr.Message = env.Message
		}
		return envelope{}, resp.StatusCode, httpErr
	}
	if decodeErr != nil {
		return envelope{}, resp.StatusCode, apperrors.NewBackendRequestError(fmt.Errorf("decode %s response: %w", r.endpoint, decodeErr))
	}
	if r.ok != nil && !r.ok(env) {
		return envelope{}, resp.StatusCode, apperrors.NewBackendAPIError(env.Message)
	}
	return env, resp.StatusCode, nil
}

// decodeData unmarshals an envelope data block, which some endpoints send
// as a JSON document encoded in a string.
func decodeData(endpoint string, raw json.RawMessage, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return apperrors.NewBackendRequestError(fmt.Errorf("decode %s data: %w", endpoint, err))
		}
		raw = []byte(inner)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperrors.NewBackendRequestError(fmt.Errorf("decode %s data: %w", endpoint, err))
	}
	return nil
}
