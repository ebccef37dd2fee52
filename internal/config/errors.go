package config

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the configuration service.
var (
	// ErrUnknownNamespace is returned when a section is requested for a
	// namespace that was never registered.
	ErrUnknownNamespace = errors.New("unknown configuration namespace")

	// ErrDuplicateNamespace is returned when a schema is registered twice
	// for the same namespace.
	ErrDuplicateNamespace = errors.New("configuration namespace already registered")

	// ErrNotLoaded is returned when sections are read before Load ran.
	ErrNotLoaded = errors.New("configuration not loaded")

	// ErrAlreadyLoaded is returned when a schema is registered after the
	// document was loaded. Schemas must be complete before validation.
	ErrAlreadyLoaded = errors.New("configuration already loaded")
)

// ValidationError describes a single invalid field inside a namespace.
type ValidationError struct {
	Namespace string
	Field     string
	Value     interface{}
	Message   string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return fmt.Sprintf("namespace '%s': %s", ve.Namespace, ve.Message)
	}
	return fmt.Sprintf("namespace '%s', field '%s': %s", ve.Namespace, ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors for one namespace.
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors.
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error.
func (ve *ValidationErrors) Add(namespace, field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Namespace: namespace,
		Field:     field,
		Value:     val,
		Message:   message,
	})
}
