package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// AppError is the unified error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Violations returns the configuration violations attached to the error, if any.
func (e *AppError) Violations() []Violation {
	if e.Details == nil {
		return nil
	}
	v, _ := e.Details["violations"].([]Violation)
	return v
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Configuration errors ---

// Configuration creates a ConfigurationError carrying every violation found
// while validating a builder or a graph definition.
func Configuration(component string, violations ...Violation) *AppError {
	msgs := make([]string, 0, len(violations))
	for _, v := range violations {
		msgs = append(msgs, v.String())
	}
	return &AppError{
		Code:       ErrCodeConfiguration,
		Message:    fmt.Sprintf("invalid %s configuration: %s", component, strings.Join(msgs, "; ")),
		HTTPStatus: http.StatusBadRequest,
		Details: map[string]any{
			"component":  component,
			"violations": violations,
		},
	}
}

// MissingSlot creates a ConfigurationError for a mandatory slot that was never set.
func MissingSlot(component, slot string) *AppError {
	return Configuration(component, Violation{
		Slot: slot, Reason: ReasonMissing,
		Message: fmt.Sprintf("%s is required", slot),
	})
}

// SlotAlreadySet creates a ConfigurationError for a slot that was set twice.
func SlotAlreadySet(component, slot string) *AppError {
	return Configuration(component, Violation{
		Slot: slot, Reason: ReasonSlotAlreadySet,
		Message: fmt.Sprintf("%s was already set", slot),
	})
}

// OutOfRange creates a ConfigurationError for a numeric slot outside [min, max].
func OutOfRange(component, slot string, value, min, max int) *AppError {
	return Configuration(component, Violation{
		Slot: slot, Reason: ReasonOutOfRange,
		Message: fmt.Sprintf("%s must be between %d and %d, got %d", slot, min, max, value),
	})
}

// BuilderConsumed creates a ConfigurationError for a builder whose Build was already called.
func BuilderConsumed(component string) *AppError {
	return Configuration(component, Violation{
		Slot: "build", Reason: ReasonBuilderConsumed,
		Message: "builder was already built",
	})
}

// StreamConsumed creates a ConfigurationError for a stream that already has a consumer.
func StreamConsumed(component, slot string) *AppError {
	return Configuration(component, Violation{
		Slot: slot, Reason: ReasonStreamConsumed,
		Message: fmt.Sprintf("%s stream already has a consumer", slot),
	})
}

// --- Runtime errors ---

// DispatchIndex creates a DispatchIndexError for a dispatcher that selected a
// branch outside the stage's egress range.
func DispatchIndex(stage string, index, numEgressors int) *AppError {
	return &AppError{
		Code: ErrCodeDispatchIndex,
		Message: fmt.Sprintf("stage %s dispatched to branch %d but has %d egressors",
			stage, index, numEgressors),
		HTTPStatus: http.StatusInternalServerError,
		Details: map[string]any{
			"stage":         stage,
			"index":         index,
			"num_egressors": numEgressors,
		},
	}
}

// Internal creates a new AppError for an unexpected runtime failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// ServiceUnavailable creates a new AppError for a component that is not ready.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}
