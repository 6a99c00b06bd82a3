package domain

import "time"

// Status is the submission lifecycle of a session.
type Status string

const (
	StatusActive       Status = "active"        // Visitor is filling in the steps
	StatusSubmitting   Status = "submitting"    // Waiting for the submission collaborator
	StatusSubmitted    Status = "submitted"     // Booking accepted
	StatusSubmitFailed Status = "submit_failed" // Last attempt failed, retry allowed
)

// Snapshot is the serialisable state of one wizard session.
// It is what stores persist, what Diff compares and what Resume restores.
type Snapshot struct {
	SessionID   string `json:"session_id"`
	CurrentStep StepID `json:"current_step"`
	Status      Status `json:"status"`

	Fields     map[FieldKey]FieldState `json:"fields,omitempty"`
	AreaCheck  AreaCheckResult         `json:"area_check"`
	Scheduling SchedulingState         `json:"scheduling"`

	BookingID   string `json:"booking_id,omitempty"`
	SubmitError string `json:"submit_error,omitempty"`

	// History lists the steps entered, in order.
	History []StepID `json:"history,omitempty"`

	// Sealed holds the encrypted payload when the snapshot is an at-rest envelope.
	Sealed string `json:"sealed,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewSnapshot creates a clean snapshot positioned at start.
func NewSnapshot(sessionID string, start StepID) *Snapshot {
	return &Snapshot{
		SessionID:   sessionID,
		CurrentStep: start,
		Status:      StatusActive,
		Fields:      make(map[FieldKey]FieldState),
		AreaCheck:   AreaCheckResult{Status: AreaCheckIdle},
		Scheduling:  SchedulingState{Status: SlotsIdle},
		History:     []StepID{start},
	}
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Fields = make(map[FieldKey]FieldState, len(s.Fields))
	for k, v := range s.Fields {
		out.Fields[k] = v
	}
	out.Scheduling = s.Scheduling.Clone()
	out.History = append([]StepID(nil), s.History...)
	return &out
}
