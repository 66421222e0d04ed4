package domain

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is matching across the typed errors below.
var (
	ErrValidation = errors.New("validation failed")
	ErrFormat     = errors.New("invalid format")
	ErrOutOfRange = errors.New("out of range")
	ErrLookup     = errors.New("lookup miss")
)

// ValidationError reports malformed or insufficient input.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// LookupError marks a product with no weight entry. It is soft: the engine
// records it and applies no correction.
type LookupError struct {
	SKU string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no weight entry for sku %q", e.SKU)
}

func (e *LookupError) Is(target error) bool { return target == ErrLookup }

// LookupErrors joins one LookupError per SKU, or returns nil for none.
func LookupErrors(skus []string) error {
	errs := make([]error, len(skus))
	for i, sku := range skus {
		errs[i] = &LookupError{SKU: sku}
	}
	return errors.Join(errs...)
}

// FormatError reports a date literal that does not match Layout.
type FormatError struct {
	Value  string
	Layout string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid date %q, expected DD.MM.YYYY (%s)", e.Value, e.Layout)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// OutOfRangeError reports an override addressed to a row that does not exist.
// Either Position or Key is set depending on how the row was addressed.
type OutOfRangeError struct {
	Position int
	Key      string
	Len      int
}

func (e *OutOfRangeError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("row %q not found in ledger of %d rows", e.Key, e.Len)
	}
	return fmt.Sprintf("row position %d out of range [0,%d)", e.Position, e.Len)
}

func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }
