package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/packetflow/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Use yaml, then mapstructure tag names for field names in violations.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"yaml", "mapstructure"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return toSnakeCase(fld.Name)
		})
	})
	return validate
}

// Struct validates a struct using struct tags such as `validate:"required,min=1,max=1000"`.
// The result is a ConfigurationError naming component.
func Struct(component string, s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Configuration(component, errors.Violation{
			Slot: component, Reason: errors.ReasonInvalid, Message: err.Error(),
		})
	}

	v := New(component)
	for _, e := range validationErrors {
		slot := fieldPath(e)
		v.Add(slot, reasonFor(e), slot+" "+formatValidationError(e))
	}
	return v.Validate()
}

// fieldPath strips the root struct name from the namespace so nested fields
// read as runtime.queue_capacity.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func reasonFor(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return errors.ReasonMissing
	case "min", "max", "gte", "lte":
		return errors.ReasonOutOfRange
	default:
		return errors.ReasonInvalid
	}
}

// formatValidationError creates a human-readable error message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		if e.Kind() == reflect.Slice || e.Kind() == reflect.String || e.Kind() == reflect.Map {
			return "must have at least " + e.Param() + " entries"
		}
		return "must be at least " + e.Param()
	case "max", "lte":
		if e.Kind() == reflect.Slice || e.Kind() == reflect.String || e.Kind() == reflect.Map {
			return "must have at most " + e.Param() + " entries"
		}
		return "must be at most " + e.Param()
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "hostname_port":
		return "must be a host:port address"
	case "dive":
		return "has an invalid entry"
	default:
		return "is invalid"
	}
}

// toSnakeCase converts a field name to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		if r >= 'A' && r <= 'Z' {
			result.WriteRune(r + 32) // lowercase
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
