package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeServiceUnavailable, "down", http.StatusServiceUnavailable)
	if !err.Retryable {
		t.Error("SERVICE_UNAVAILABLE should be retryable")
	}
}

func TestConfiguration_CollectsViolations(t *testing.T) {
	err := Configuration("classify",
		Violation{Slot: "ingressor", Reason: ReasonMissing, Message: "ingressor is required"},
		Violation{Slot: "num_egressors", Reason: ReasonOutOfRange, Message: "num_egressors must be between 1 and 1000, got 0"},
	)
	if err.Code != ErrCodeConfiguration {
		t.Fatalf("expected CONFIGURATION_ERROR, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", err.HTTPStatus)
	}
	if len(err.Violations()) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(err.Violations()))
	}
	if !strings.Contains(err.Message, "ingressor is required; num_egressors must be") {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Details["component"] != "classify" {
		t.Errorf("expected component=classify, got %v", err.Details["component"])
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		slot   string
		reason string
	}{
		{"missing", MissingSlot("join", "ingressors"), "ingressors", ReasonMissing},
		{"already set", SlotAlreadySet("clone", "num_egressors"), "num_egressors", ReasonSlotAlreadySet},
		{"out of range", OutOfRange("clone", "queue_capacity", 0, 1, 1000), "queue_capacity", ReasonOutOfRange},
		{"consumed builder", BuilderConsumed("process"), "build", ReasonBuilderConsumed},
		{"consumed stream", StreamConsumed("process", "ingressor"), "ingressor", ReasonStreamConsumed},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if !IsConfiguration(tt.err) {
				t.Fatalf("expected configuration error, got %s", tt.err.Code)
			}
			if !HasViolation(tt.err, tt.slot, tt.reason) {
				t.Errorf("expected violation %s/%s in %v", tt.slot, tt.reason, tt.err.Violations())
			}
			if HasViolation(tt.err, "unrelated", "") {
				t.Error("unexpected violation for unrelated slot")
			}
		})
	}
}

func TestOutOfRange_Message(t *testing.T) {
	err := OutOfRange("join", "queue_capacity", 1001, 1, 1000)
	want := "queue_capacity must be between 1 and 1000, got 1001"
	if !strings.Contains(err.Error(), want) {
		t.Errorf("expected %q in %q", want, err.Error())
	}
}

func TestDispatchIndex(t *testing.T) {
	err := DispatchIndex("classifier", 3, 2)
	if !IsDispatchIndex(err) {
		t.Fatalf("expected DISPATCH_INDEX_ERROR, got %s", err.Code)
	}
	if IsConfiguration(err) {
		t.Error("dispatch index error must not be a configuration error")
	}
	if err.Details["index"] != 3 || err.Details["num_egressors"] != 2 {
		t.Errorf("unexpected details %v", err.Details)
	}
	if err.Retryable {
		t.Error("dispatch index errors are not retryable")
	}
}

func TestHasViolation_NonAppError(t *testing.T) {
	if HasViolation(fmt.Errorf("plain"), "slot", "") {
		t.Error("plain errors carry no violations")
	}
	if HasViolation(nil, "slot", "") {
		t.Error("nil carries no violations")
	}
}

func TestAppError_WrappedDetection(t *testing.T) {
	inner := MissingSlot("classify", "classifier")
	wrapped := fmt.Errorf("building stage: %w", inner)

	if !IsAppError(wrapped) {
		t.Fatal("expected wrapped AppError to be detected")
	}
	got, ok := AsAppError(wrapped)
	if !ok || got != inner {
		t.Fatal("expected AsAppError to return the inner error")
	}
	if !HasViolation(wrapped, "classifier", ReasonMissing) {
		t.Error("expected violation through wrapping")
	}
}

func TestAppError_UnwrapCause(t *testing.T) {
	cause := stderrors.New("channel closed")
	err := Internal(cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "cause: channel closed") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestAppError_WithDetails(t *testing.T) {
	err := NotFound("stage", "").
		WithDetail("graph", "router").
		WithDetails(map[string]any{"kind": "join"})
	if err.Details["graph"] != "router" || err.Details["kind"] != "join" {
		t.Errorf("unexpected details %v", err.Details)
	}
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no id detail for empty id")
	}
}

func TestAppError_ToResponse(t *testing.T) {
	err := MissingSlot("process", "processor")
	resp := err.ToResponse()
	if resp.Error.Code != ErrCodeConfiguration {
		t.Errorf("expected CONFIGURATION_ERROR, got %s", resp.Error.Code)
	}
	if resp.Error.Message != err.Message {
		t.Errorf("expected message %q, got %q", err.Message, resp.Error.Message)
	}
}

func TestViolation_String(t *testing.T) {
	if got := (Violation{Slot: "a", Reason: "r"}).String(); got != "a: r" {
		t.Errorf("got %q", got)
	}
	if got := (Violation{Slot: "a", Reason: "r", Message: "m"}).String(); got != "a: m" {
		t.Errorf("got %q", got)
	}
}
