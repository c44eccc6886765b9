// Package errors provides the standardized error taxonomy of the quote
// workflow and its mapping onto BPMN errors.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Validation errors: raised before any network call, attached to fields.
const (
	ErrCodeApplicationValidationFailed ErrorCode = "APPLICATION_VALIDATION_FAILED"
	ErrCodeQualifierValidationFailed   ErrorCode = "QUALIFIER_VALIDATION_FAILED"
	ErrCodeInvalidPaymentMethod        ErrorCode = "INVALID_PAYMENT_METHOD"
	ErrCodeInvalidCoverageCell         ErrorCode = "INVALID_COVERAGE_CELL"
)

// Network / backend API errors.
const (
	ErrCodeBackendHTTP       ErrorCode = "BACKEND_HTTP_ERROR"
	ErrCodeBackendNoResponse ErrorCode = "BACKEND_NO_RESPONSE"
	ErrCodeBackendRequest    ErrorCode = "BACKEND_REQUEST_FAILED"
	ErrCodeBackendAPI        ErrorCode = "BACKEND_API_ERROR"
)

// Cache errors. Corruption never reaches a user; it is logged and treated
// as a miss.
const (
	ErrCodeCacheCorrupted   ErrorCode = "CACHE_ENTRY_CORRUPTED"
	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
)

// Missing upstream data and workflow state errors.
const (
	ErrCodeQuoteIDMissing         ErrorCode = "QUOTE_ID_MISSING"
	ErrCodeQuoteNotFound          ErrorCode = "QUOTE_NOT_FOUND"
	ErrCodePaymentHandoffMissing  ErrorCode = "PAYMENT_HANDOFF_MISSING"
	ErrCodeSessionNotFound        ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeUnknownQuoteType       ErrorCode = "UNKNOWN_QUOTE_TYPE"
	ErrCodeInvalidStageTransition ErrorCode = "INVALID_STAGE_TRANSITION"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// Workflow engine (Zeebe broker) errors.
const (
	ErrCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	ErrCodeEngineTimeout     ErrorCode = "ENGINE_TIMEOUT"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches another StandardError with the same code, so callers can write
// errors.Is(err, &StandardError{Code: ErrCodeQuoteIDMissing}).
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata attaches a key to the error metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewApplicationValidationError carries the first failing field in Metadata.
func NewApplicationValidationError(field, message string) *StandardError {
	return newError(ErrCodeApplicationValidationFailed, message, "field: "+field, false).
		WithMetadata("field", field)
}

func NewQualifierValidationError(field, message string) *StandardError {
	return newError(ErrCodeQualifierValidationFailed, message, "field: "+field, false).
		WithMetadata("field", field)
}

func NewInvalidPaymentMethodError(paymentType string) *StandardError {
	return newError(ErrCodeInvalidPaymentMethod, "Invalid payment method type", paymentType, false)
}

func NewInvalidCoverageCellError(cell string) *StandardError {
	return newError(ErrCodeInvalidCoverageCell, "Invalid coverage option", cell, false)
}

// NewBackendHTTPError is returned when the backend answered with a non-2xx status.
func NewBackendHTTPError(status int, statusText string) *StandardError {
	return newError(ErrCodeBackendHTTP,
		fmt.Sprintf("HTTP Error: %d - %s", status, statusText), "",
		status >= 500).
		WithMetadata("status", status)
}

func NewBackendNoResponseError(err error) *StandardError {
	return newError(ErrCodeBackendNoResponse,
		"Network Error: No response received from the server", errDetails(err), true)
}

func NewBackendRequestError(err error) *StandardError {
	return newError(ErrCodeBackendRequest,
		fmt.Sprintf("Request Error: %s", errDetails(err)), errDetails(err), false)
}

// NewBackendAPIError is returned when the backend answered 2xx but reported
// a failure in its envelope.
func NewBackendAPIError(message string) *StandardError {
	return newError(ErrCodeBackendAPI, fmt.Sprintf("API Error: %s", message), message, false)
}

func NewCacheCorruptedError(key string, err error) *StandardError {
	return newError(ErrCodeCacheCorrupted, "Cached value could not be decoded", errDetails(err), false).
		WithMetadata("key", key)
}

func NewCacheUnavailableError(backend string, err error) *StandardError {
	return newError(ErrCodeCacheUnavailable,
		fmt.Sprintf("Cache backend '%s' unavailable", backend), errDetails(err), true)
}

func NewQuoteIDMissingError() *StandardError {
	return newError(ErrCodeQuoteIDMissing,
		"No quote_id received in the response. Please try again later.", "", false)
}

func NewQuoteNotFoundError(quoteID string) *StandardError {
	return newError(ErrCodeQuoteNotFound,
		"Unable to load form data. Please try again later.", "quote_id: "+quoteID, false).
		WithMetadata("quoteId", quoteID)
}

func NewPaymentHandoffMissingError() *StandardError {
	return newError(ErrCodePaymentHandoffMissing,
		"No payment details found. Please complete the application first.", "", false)
}

func NewSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Session not found", "session: "+sessionID, false)
}

func NewUnknownQuoteTypeError(quoteType string) *StandardError {
	return newError(ErrCodeUnknownQuoteType,
		"Unsupported quote type received from the server", quoteType, false).
		WithMetadata("quoteType", quoteType)
}

func NewInvalidStageTransitionError(from, to string) *StandardError {
	return newError(ErrCodeInvalidStageTransition,
		fmt.Sprintf("Cannot move from %s to %s", from, to), "", false)
}

func NewEngineUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeEngineUnavailable,
		fmt.Sprintf("Workflow engine unavailable during %s", operation), errDetails(err), true)
}

func NewEngineTimeoutError(operation string, err error) *StandardError {
	return newError(ErrCodeEngineTimeout,
		fmt.Sprintf("Workflow engine timed out during %s", operation), errDetails(err), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", errDetails(err), false)
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeBackendNoResponse,
		ErrCodeCacheUnavailable,
		ErrCodeEngineUnavailable,
		ErrCodeEngineTimeout:
		return 3
	case ErrCodeBackendHTTP:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
// BPMN codes are the internal codes.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.HasPrefix(codeStr, "INVALID_"):
		return "VALIDATION"
	case strings.HasPrefix(codeStr, "BACKEND") || strings.HasPrefix(codeStr, "ENGINE"):
		return "NETWORK"
	case strings.HasPrefix(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "MISSING") || strings.Contains(codeStr, "NOT_FOUND"):
		return "MISSING_DATA"
	default:
		return "OTHER"
	}
}

// AsStandardError extracts a StandardError from an error chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// UserMessage renders the single human-readable string shown for an error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Message
	}
	return "An unexpected error occurred. Please try again."
}
