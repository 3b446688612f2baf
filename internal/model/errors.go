package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCategoryValue is returned when an ordinal field carries a value outside its mapping.
	ErrInvalidCategoryValue = errors.New("invalid category value")
	// ErrInvalidNumericValue is returned when a numeric field cannot be read as a number.
	ErrInvalidNumericValue = errors.New("invalid numeric value")
	// ErrUnknownColumn is returned in strict mode when a one-hot value has no schema column.
	ErrUnknownColumn = errors.New("unknown feature column")
	// ErrMissingArtifact is returned when the model bundle cannot be found.
	ErrMissingArtifact = errors.New("model artifact is missing")
	// ErrIncompatibleSchema is returned when a bundle fails the load-time compatibility check.
	ErrIncompatibleSchema = errors.New("incompatible feature schema")
)

// InvalidCategoryValueError names the offending field and the values it accepts.
type InvalidCategoryValueError struct {
	Field string
	Value string
	Valid []string
}

func (e *InvalidCategoryValueError) Error() string {
	quoted := make([]string, 0, len(e.Valid))
	for _, v := range e.Valid {
		quoted = append(quoted, fmt.Sprintf("%q", v))
	}
	return fmt.Sprintf("invalid value %q for %s. Must be one of: [%s]", e.Value, e.Field, strings.Join(quoted, ", "))
}

func (e *InvalidCategoryValueError) Is(target error) bool {
	return target == ErrInvalidCategoryValue
}

// InvalidNumericValueError reports a numeric field that could not be converted.
type InvalidNumericValueError struct {
	Field string
	Value any
	Err   error
}

func (e *InvalidNumericValueError) Error() string {
	return fmt.Sprintf("invalid numeric value %v for %s: %v", e.Value, e.Field, e.Err)
}

func (e *InvalidNumericValueError) Is(target error) bool {
	return target == ErrInvalidNumericValue
}

func (e *InvalidNumericValueError) Unwrap() error { return e.Err }

// UnknownColumnError reports a one-hot value never seen at training time.
type UnknownColumnError struct {
	Field  string
	Value  string
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("value %q for %s was not seen in training (no column %q)", e.Value, e.Field, e.Column)
}

func (e *UnknownColumnError) Is(target error) bool {
	return target == ErrUnknownColumn
}

// IsInputError reports whether err is caused by the caller's record rather than the service.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidCategoryValue) ||
		errors.Is(err, ErrInvalidNumericValue) ||
		errors.Is(err, ErrUnknownColumn)
}

func incompatible(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIncompatibleSchema, fmt.Sprintf(format, args...))
}
