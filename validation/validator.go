package validation

import (
	"fmt"
	"strings"

	"github.com/kbukum/packetflow/errors"
)

// Validator collects configuration violations for one component.
type Validator struct {
	component  string
	violations []errors.Violation
}

// New creates a new Validator for the named component (a builder kind or a graph).
func New(component string) *Validator {
	return &Validator{
		component:  component,
		violations: make([]errors.Violation, 0),
	}
}

// Add records a violation.
func (v *Validator) Add(slot, reason, message string) *Validator {
	v.violations = append(v.violations, errors.Violation{
		Slot:    slot,
		Reason:  reason,
		Message: message,
	})
	return v
}

// Merge appends the violations carried by err, or a single invalid violation
// for slot when err carries none.
func (v *Validator) Merge(slot string, err error) *Validator {
	if err == nil {
		return v
	}
	if appErr, ok := errors.AsAppError(err); ok && len(appErr.Violations()) > 0 {
		v.violations = append(v.violations, appErr.Violations()...)
		return v
	}
	return v.Add(slot, errors.ReasonInvalid, err.Error())
}

// HasErrors returns true if there are violations.
func (v *Validator) HasErrors() bool {
	return len(v.violations) > 0
}

// Violations returns all violations recorded so far.
func (v *Validator) Violations() []errors.Violation {
	return v.violations
}

// Validate returns a ConfigurationError if there are violations, nil otherwise.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	return errors.Configuration(v.component, v.violations...)
}

// Required records a missing violation when a mandatory slot was never set.
func (v *Validator) Required(slot string, set bool) *Validator {
	if !set {
		v.Add(slot, errors.ReasonMissing, fmt.Sprintf("%s is required", slot))
	}
	return v
}

// Once records a slot_already_set violation when a single-assignment slot is
// assigned again. It returns true when the assignment may proceed.
func (v *Validator) Once(slot string, alreadySet bool) bool {
	if alreadySet {
		v.Add(slot, errors.ReasonSlotAlreadySet, fmt.Sprintf("%s was already set", slot))
		return false
	}
	return true
}

// Range checks if a number is within [minVal, maxVal].
func (v *Validator) Range(slot string, value, minVal, maxVal int) *Validator {
	if value < minVal || value > maxVal {
		v.Add(slot, errors.ReasonOutOfRange,
			fmt.Sprintf("%s must be between %d and %d, got %d", slot, minVal, maxVal, value))
	}
	return v
}

// NotEmpty checks that a name-like value is non-blank.
func (v *Validator) NotEmpty(slot, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.Add(slot, errors.ReasonMissing, fmt.Sprintf("%s is required", slot))
	}
	return v
}

// OneOf checks if a value is one of the allowed values.
func (v *Validator) OneOf(slot, value string, allowed []string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.Add(slot, errors.ReasonInvalid, fmt.Sprintf("%s must be one of: %s", slot, strings.Join(allowed, ", ")))
	return v
}

// Custom applies a custom validation condition.
func (v *Validator) Custom(condition bool, slot, reason, message string) *Validator {
	if !condition {
		v.Add(slot, reason, message)
	}
	return v
}
