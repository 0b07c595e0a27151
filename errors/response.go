package errors

import (
	stderrors "errors"
)

// ErrorResponse is the JSON structure returned by the status endpoint.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains the error details sent to clients.
type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToResponse converts an AppError to an ErrorResponse for JSON serialization.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:      e.Code,
			Message:   e.Message,
			Retryable: e.Retryable,
			Details:   e.Details,
		},
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool { return IsCode(err, ErrCodeConfiguration) }

// IsDispatchIndex reports whether err is a DispatchIndexError.
func IsDispatchIndex(err error) bool { return IsCode(err, ErrCodeDispatchIndex) }

// HasViolation reports whether err is a ConfigurationError that includes a
// violation for slot with the given reason. An empty reason matches any.
func HasViolation(err error, slot, reason string) bool {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Code != ErrCodeConfiguration {
		return false
	}
	for _, v := range appErr.Violations() {
		if v.Slot == slot && (reason == "" || v.Reason == reason) {
			return true
		}
	}
	return false
}
