package http

import (
	"github.com/aretw0/bookflow"
	"github.com/aretw0/bookflow/pkg/domain"
)

// StepView describes one visible step.
type StepView struct {
	ID      domain.StepID `json:"id"`
	Name    string        `json:"name"`
	Current bool          `json:"current,omitempty"`
}

// SessionView is the state of a session as rendered to clients.
type SessionView struct {
	SessionID   string                                `json:"session_id"`
	CurrentStep string                                `json:"current_step"`
	Steps       []StepView                            `json:"steps"`
	Status      domain.Status                         `json:"status"`
	Fields      map[domain.FieldKey]domain.FieldState `json:"fields,omitempty"`
	AreaCheck   domain.AreaCheckResult                `json:"area_check"`
	Scheduling  domain.SchedulingState                `json:"scheduling"`
	Quote       domain.Quote                          `json:"quote"`
	CanSubmit   bool                                  `json:"can_submit"`
	BookingID   string                                `json:"booking_id,omitempty"`
	SubmitError string                                `json:"submit_error,omitempty"`
}

// NewSessionView renders the current state of s.
func NewSessionView(s *bookflow.Session) *SessionView {
	snap := s.Snapshot()
	visible := s.VisibleSteps()

	steps := make([]StepView, 0, len(visible))
	for _, st := range visible {
		steps = append(steps, StepView{ID: st.ID, Name: st.Name, Current: st.ID == snap.CurrentStep})
	}

	return &SessionView{
		SessionID:   snap.SessionID,
		CurrentStep: snap.CurrentStep.String(),
		Steps:       steps,
		Status:      snap.Status,
		Fields:      snap.Fields,
		AreaCheck:   snap.AreaCheck,
		Scheduling:  snap.Scheduling,
		Quote:       s.Quote(),
		CanSubmit:   s.CanSubmit(),
		BookingID:   snap.BookingID,
		SubmitError: snap.SubmitError,
	}
}
