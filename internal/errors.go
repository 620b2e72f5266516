package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeConflict   ErrorType = "CONFLICT"
	ErrorTypeInternal   ErrorType = "INTERNAL_ERROR"
	ErrorTypeNetwork    ErrorType = "NETWORK_ERROR"
	ErrorTypeExternal   ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeMalformedRequest ErrorCode = "MALFORMED_REQUEST"
	ErrCodeReportIncomplete ErrorCode = "REPORT_INCOMPLETE"
	ErrCodeInvalidState     ErrorCode = "INVALID_REPORT_STATE"
	ErrCodeInProgress       ErrorCode = "SUBMISSION_IN_PROGRESS"
	ErrCodeSessionNotFound  ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionExists    ErrorCode = "SESSION_EXISTS"
	ErrCodeTariffNotFound   ErrorCode = "TARIFF_NOT_FOUND"

	ErrCodeMalformedReport       ErrorCode = "MALFORMED_REPORT"
	ErrCodeAlreadySubmitted      ErrorCode = "ALREADY_SUBMITTED"
	ErrCodeUnprocessableReport   ErrorCode = "UNPROCESSABLE_REPORT"
	ErrCodeBackOfficeUnavailable ErrorCode = "BACKOFFICE_UNAVAILABLE"
	ErrCodeBackOfficeRejected    ErrorCode = "BACKOFFICE_REJECTED"
	ErrCodeSubmissionTimeout     ErrorCode = "SUBMISSION_TIMEOUT"
	ErrCodeConnectionFailed      ErrorCode = "CONNECTION_FAILED"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	Severity   Severity    `json:"severity"`
	Retryable  bool        `json:"retryable"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			messages := make([]string, len(validationErrors.Errors))
			for i, err := range validationErrors.Errors {
				messages[i] = err.Message
			}
			return strings.Join(messages, "; ")
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on code so sentinel errors can be compared after WithCause copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Type == t.Type
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func (e *AppError) WithMessage(message string) *AppError {
	clone := *e
	clone.Message = message
	return &clone
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		Severity:   SeverityError,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		Severity:   SeverityError,
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		Severity:   SeverityError,
		StatusCode: http.StatusNotFound,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Severity:   SeverityError,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		Severity:   SeverityWarning,
		StatusCode: http.StatusConflict,
	}
}

// NewNetworkError covers timeouts, aborted requests and refused connections.
// The request never produced a server verdict, so it may be retried.
func NewNetworkError(message string, code ErrorCode, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Code:       code,
		Message:    message,
		Severity:   SeverityError,
		Retryable:  true,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// NewExternalError wraps a rejection answered by the back office with the given status.
func NewExternalError(message string, code ErrorCode, status int) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       code,
		Message:    message,
		Severity:   SeverityError,
		Retryable:  status >= http.StatusInternalServerError,
		StatusCode: http.StatusBadGateway,
	}
}

var (
	ErrReportIncomplete = NewValidationError("Report is incomplete and cannot be submitted", ErrCodeReportIncomplete)
	ErrInvalidState     = NewConflictError("Operation is not allowed in the current report state", ErrCodeInvalidState)
	ErrInProgress       = NewConflictError("A submission is already in progress", ErrCodeInProgress)
	ErrSessionNotFound  = NewNotFoundError("Report session not found", ErrCodeSessionNotFound)
	ErrSessionExists    = NewConflictError("Report session is already open", ErrCodeSessionExists)
	ErrTariffNotFound   = NewNotFoundError("No tariff table is effective for the report date", ErrCodeTariffNotFound)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      ErrorType   `json:"type"`
		Code      ErrorCode   `json:"code"`
		Message   string      `json:"message"`
		Details   interface{} `json:"details,omitempty"`
		Severity  Severity    `json:"severity,omitempty"`
		Retryable bool        `json:"retryable"`
	}{
		Type:      e.Type,
		Code:      e.Code,
		Message:   e.Message,
		Details:   e.Details,
		Severity:  e.Severity,
		Retryable: e.Retryable,
	})
}
