package core

import (
	"errors"
	"sort"
	"strings"
)

// Error taxonomy shared by the aggregation, scoring and normalization paths.
// Callers branch with errors.Is; the HTTP layer maps each to a status code.
var (
	ErrEmptyDataset      = errors.New("empty dataset: no transactions to aggregate")
	ErrDivisionUndefined = errors.New("division undefined: income must be greater than zero")
	ErrValidation        = errors.New("validation failed")
	ErrUnreadableImage   = errors.New("unreadable image")
	ErrGeneration        = errors.New("generation failed")
	ErrNotFound          = errors.New("not found")
)

// FieldError names one violated field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every violated field instead of stopping at the
// first one.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) hold for any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add records a violation.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Has reports whether field was recorded.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// ErrOrNil returns nil when nothing was recorded.
func (e *ValidationError) ErrOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
