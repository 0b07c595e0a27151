package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
	FieldRunID     = "run_id"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldDuration  = "duration_ms"

	// Pipeline fields.
	FieldStage     = "stage"
	FieldLinkKind  = "link_kind"
	FieldBranch    = "branch"
	FieldRunnable  = "runnable"
	FieldGraph     = "graph"
	FieldEgressors = "egressors"
	FieldCapacity  = "queue_capacity"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("stage finished", logger.Fields(logger.FieldStage, "classify", "items", 42))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// DurationFields creates fields for a timed operation.
func DurationFields(op string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldDuration:  d.Milliseconds(),
	}
}

// StageFields creates the common fields logged by a running stage.
func StageFields(stage, kind string) map[string]interface{} {
	return map[string]interface{}{
		FieldStage:    stage,
		FieldLinkKind: kind,
	}
}
