package models

import (
	"errors"
	"fmt"
)

// Error kinds raised along the statement pipeline. Callers match them with
// errors.Is; concrete failures wrap one of these.
var (
	ErrExtraction         = errors.New("extraction failed")
	ErrLayoutParse        = errors.New("statement layout not recognized")
	ErrDateFormat         = errors.New("invalid date")
	ErrAmountFormat       = errors.New("invalid amount")
	ErrCategoryStore      = errors.New("category rule store unusable")
	ErrBudgetPrecondition = errors.New("statement period unknown")
)

// FieldError reports a single field that could not be interpreted.
type FieldError struct {
	Kind  error
	Field string
	Value string
	Row   int
	Err   error
}

func (e *FieldError) Error() string {
	msg := fmt.Sprintf("%v: %s %q", e.Kind, e.Field, e.Value)
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is lets errors.Is match the error kind as well as the wrapped cause.
func (e *FieldError) Is(target error) bool {
	return target == e.Kind
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// PageError attaches a page number to a layout failure.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}
