package runtime

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/bookflow/pkg/domain"
)

// ErrNoNextStep is returned by Advance on the terminal step.
var ErrNoNextStep = errors.New("no visible step after the current one")

// ErrNoPreviousStep is returned by Retreat on the first visible step.
var ErrNoPreviousStep = errors.New("no visible step before the current one")

// ErrSchedulingUnavailable is returned by date and slot selection when the
// machine has no scheduling controller.
var ErrSchedulingUnavailable = errors.New("scheduling is not configured")

// StepBlockedError is returned when advancing is refused.
// Errors lists every failing field of the step; it can be empty when only
// the step's own completion predicate failed.
type StepBlockedError struct {
	Step   domain.StepID
	Errors map[domain.FieldKey]domain.ErrorCode
}

func (e *StepBlockedError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("step '%s' is not complete", e.Step)
	}
	keys := make([]string, 0, len(e.Errors))
	for k, code := range e.Errors {
		keys = append(keys, fmt.Sprintf("%s=%s", k, code))
	}
	sort.Strings(keys)
	return fmt.Sprintf("step '%s' has invalid fields: %s", e.Step, strings.Join(keys, ", "))
}

// SubmissionError wraps a failure of the submission collaborator.
// The attempt is over; the visitor may retry from the review step.
type SubmissionError struct {
	SessionID string
	Cause     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission of session '%s' failed: %v", e.SessionID, e.Cause)
}

func (e *SubmissionError) Unwrap() error {
	return e.Cause
}
