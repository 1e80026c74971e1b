package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidTransition  = errors.New("action not allowed in current checkout state")
	ErrSubmissionInFlight = errors.New("order submission already in flight")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError blocks an action and lists every offending field so the
// terminal can show each message next to its input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns nil when no field was added.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// SubmissionError wraps a failed call to the order service. The cart is
// kept and the operator may retry.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string { return "order submission failed: " + e.Err.Error() }
func (e *SubmissionError) Unwrap() error { return e.Err }

// PaymentError reports a failed intent or confirmation. The order already
// exists server side and is unpaid.
type PaymentError struct {
	OrderID string
	Err     error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment for order %s failed (order exists, unpaid): %v", e.OrderID, e.Err)
}

func (e *PaymentError) Unwrap() error { return e.Err }

func invalidTransition(action string, s State) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, action, s)
}
