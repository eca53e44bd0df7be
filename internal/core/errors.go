package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Concrete errors wrap one of these so callers can classify with errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrBusinessRule   = errors.New("business rule violation")
	ErrNotFound       = errors.New("not found")
	ErrAccessDenied   = errors.New("access denied")
	ErrMalformedInput = errors.New("malformed input")
)

var (
	ErrRenewalInPast     = fmt.Errorf("%w: renewal can't be in the past", ErrBusinessRule)
	ErrDuplicateName     = fmt.Errorf("%w: a subscription with this name already exists", ErrBusinessRule)
	ErrDuplicateUsername = fmt.Errorf("%w: username already taken", ErrBusinessRule)
)

// FieldErrors collects validation messages keyed by field name.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Err returns nil when no field failed.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(fe[f], ", "))
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) Unwrap() error {
	return ErrValidation
}

// RowError reports a batch failure at a 1-indexed data row.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
