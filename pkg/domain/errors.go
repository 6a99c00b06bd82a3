package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSubmitInProgress is returned when a submission is attempted while another one is pending.
var ErrSubmitInProgress = errors.New("submission already in progress")

// ErrAlreadySubmitted is returned when a booking that was accepted is submitted again.
var ErrAlreadySubmitted = errors.New("booking already submitted")

// ErrNotSubmittable is returned when submit is called outside the review step
// or while some visible field is still invalid.
var ErrNotSubmittable = errors.New("booking is not ready to be submitted")

// ErrUnknownField is returned when a field key is not declared by any step.
var ErrUnknownField = errors.New("unknown field")
