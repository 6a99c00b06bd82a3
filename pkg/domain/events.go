package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter        EventType = "step_enter"
	EventStepLeave        EventType = "step_leave"
	EventValidationFailed EventType = "validation_failed"
	EventAreaCheck        EventType = "area_check"
	EventSlotsLoaded      EventType = "slots_loaded"
	EventSubmit           EventType = "submit"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent represents entry to or exit from a step.
type StepEvent struct {
	EventBase
	Step StepID `json:"step"`
}

// ValidationEvent is emitted when advancing or submitting is refused.
type ValidationEvent struct {
	EventBase
	Step   StepID                 `json:"step"`
	Errors map[FieldKey]ErrorCode `json:"errors"`
}

// AreaCheckEvent is emitted when an area check response is applied.
type AreaCheckEvent struct {
	EventBase
	Result   AreaCheckResult `json:"result"`
	Duration time.Duration   `json:"duration"`
}

// SlotsEvent is emitted when a slot fetch resolves for the current date.
type SlotsEvent struct {
	EventBase
	Date  string `json:"date"`
	Count int    `json:"count"`
	Err   string `json:"err,omitempty"`
}

// SubmitEvent is emitted when a submission attempt resolves.
type SubmitEvent struct {
	EventBase
	BookingID string        `json:"booking_id,omitempty"`
	Err       string        `json:"err,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for wizard observability.
type LifecycleHooks struct {
	OnStepEnter        func(context.Context, *StepEvent)
	OnStepLeave        func(context.Context, *StepEvent)
	OnValidationFailed func(context.Context, *ValidationEvent)
	OnAreaCheck        func(context.Context, *AreaCheckEvent)
	OnSlotsLoaded      func(context.Context, *SlotsEvent)
	OnSubmit           func(context.Context, *SubmitEvent)
}
