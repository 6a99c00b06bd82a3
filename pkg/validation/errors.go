package validation

import (
	"fmt"

	"github.com/aretw0/bookflow/pkg/domain"
)

// FieldError represents a single field validation failure.
type FieldError struct {
	Field domain.FieldKey
	Code  domain.ErrorCode
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Code)
}

// AggregateError represents multiple validation failures, in field order.
type AggregateError struct {
	Errors []*FieldError
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Codes flattens the aggregate into a field → code map.
func (e *AggregateError) Codes() map[domain.FieldKey]domain.ErrorCode {
	out := make(map[domain.FieldKey]domain.ErrorCode, len(e.Errors))
	for _, fe := range e.Errors {
		out[fe.Field] = fe.Code
	}
	return out
}

// FieldErrors returns all field errors if err is an AggregateError or a FieldError.
// Otherwise returns nil.
func FieldErrors(err error) []*FieldError {
	switch e := err.(type) {
	case *AggregateError:
		return e.Errors
	case *FieldError:
		return []*FieldError{e}
	}
	return nil
}
