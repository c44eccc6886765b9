// internal/api/respond.go
package api

import (
	"errors"
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	apperrors "quote-workflow/internal/common/errors"
	submitapplication "quote-workflow/internal/workers/application/submit-application"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error    string                 `json:"error"`
	Code     string                 `json:"code,omitempty"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// Set for invalid applications.
	Errors interface{}                    `json:"errors,omitempty"`
	Focus  *submitapplication.FocusTarget `json:"focus,omitempty"`
}

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid request body",
		Code:    "INPUT_PARSING_FAILED",
		Details: err.Error(),
	})
}

// writeError renders err with the status of its error code.
func writeError(w http.ResponseWriter, err error) {
	std := apperrors.Normalize(err)
	resp := ErrorResponse{
		Error:    std.Message,
		Code:     string(std.Code),
		Details:  std.Details,
		Metadata: std.Metadata,
	}

	var formErr *submitapplication.FormError
	if errors.As(err, &formErr) {
		resp.Errors = formErr.Errors
		resp.Focus = &formErr.Focus
	}
	writeJSON(w, StatusFor(std.Code), resp)
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeApplicationValidationFailed,
		apperrors.ErrCodeQualifierValidationFailed,
		apperrors.ErrCodeInvalidPaymentMethod,
		apperrors.ErrCodeInvalidCoverageCell,
		apperrors.ErrCodeUnknownQuoteType:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeQuoteNotFound, apperrors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeQuoteIDMissing,
		apperrors.ErrCodePaymentHandoffMissing,
		apperrors.ErrCodeInvalidStageTransition:
		return http.StatusConflict
	case apperrors.ErrCodeBackendHTTP,
		apperrors.ErrCodeBackendAPI,
		apperrors.ErrCodeBackendRequest:
		return http.StatusBadGateway
	case apperrors.ErrCodeBackendNoResponse, apperrors.ErrCodeEngineTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeCacheUnavailable, apperrors.ErrCodeEngineUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
