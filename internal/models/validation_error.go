package models

import (
	"sort"
	"strings"
)

// ValidationError carries one message per offending input field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (ve *ValidationError) Add(field, message string) {
	if _, exists := ve.Fields[field]; !exists {
		ve.Fields[field] = message
	}
}

func (ve *ValidationError) Empty() bool {
	return len(ve.Fields) == 0
}

// OrNil returns nil when no field failed, so callers can return it as error.
func (ve *ValidationError) OrNil() error {
	if ve.Empty() {
		return nil
	}
	return ve
}

func (ve *ValidationError) Error() string {
	names := make([]string, 0, len(ve.Fields))
	for name := range ve.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+ve.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
