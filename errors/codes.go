package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Construction errors
const (
	// ErrCodeConfiguration indicates a builder or graph definition is invalid.
	// It is always reported before any item flows.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
)

// Runtime errors
const (
	// ErrCodeDispatchIndex indicates a dispatcher returned an index outside
	// the stage's egress range.
	ErrCodeDispatchIndex ErrorCode = "DISPATCH_INDEX_ERROR"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeServiceUnavailable indicates a component is not running.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeConfiguration:      false,
	ErrCodeDispatchIndex:      false,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// Violation reasons.
const (
	ReasonMissing          = "missing"
	ReasonSlotAlreadySet   = "slot_already_set"
	ReasonOutOfRange       = "out_of_range"
	ReasonBuilderConsumed  = "builder_consumed"
	ReasonStreamConsumed   = "stream_consumed"
	ReasonUnclaimedStream  = "unclaimed_stream"
	ReasonCycle            = "cycle"
	ReasonUnknownReference = "unknown_reference"
	ReasonInvalid          = "invalid"
)
