package bookflow

import (
	"context"
	"sync"

	"github.com/aretw0/bookflow/internal/runtime"
	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/ports"
)

// Listener observes committed session changes.
type Listener func(prev, next *domain.Snapshot)

// Session is one visitor's pass through the booking wizard.
// All methods are safe for concurrent use.
type Session struct {
	engine   *Engine
	machine  *runtime.Machine
	services []domain.Service

	mu     sync.Mutex
	subs   map[int]Listener
	nextID int
}

func newSession(e *Engine, m *runtime.Machine, services []domain.Service) *Session {
	s := &Session{
		engine:   e,
		machine:  m,
		services: services,
		subs:     make(map[int]Listener),
	}
	m.OnChange(s.broadcast)
	return s
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.machine.ID()
}

// Services returns the catalog the session was created with.
func (s *Session) Services() []domain.Service {
	return append([]domain.Service(nil), s.services...)
}

// CurrentStep returns the step the visitor is on.
func (s *Session) CurrentStep() domain.Step {
	return s.machine.CurrentStep()
}

// VisibleSteps returns the steps shown for the current answers and settings.
func (s *Session) VisibleSteps() []domain.Step {
	return s.machine.VisibleSteps()
}

// Field returns the value, touched flag and error of a field.
func (s *Session) Field(key domain.FieldKey) domain.FieldState {
	return s.machine.Field(key)
}

// Status returns the submission status.
func (s *Session) Status() domain.Status {
	return s.machine.Status()
}

// Context returns a copy of the wizard context.
func (s *Session) Context() domain.Context {
	return s.machine.Context()
}

// Quote prices the current selection.
func (s *Session) Quote() domain.Quote {
	return s.machine.Quote()
}

// Snapshot returns the serialisable state.
func (s *Session) Snapshot() *domain.Snapshot {
	return s.machine.Snapshot()
}

// CanSubmit reports whether Submit would be attempted.
func (s *Session) CanSubmit() bool {
	return s.machine.CanSubmit()
}

// BookingID returns the confirmed booking ID, if submitted.
func (s *Session) BookingID() string {
	return s.machine.BookingID()
}

// SetFieldValue records visitor input.
func (s *Session) SetFieldValue(ctx context.Context, key domain.FieldKey, value string) error {
	return s.machine.SetFieldValue(ctx, key, value)
}

// SelectDate picks a date and starts loading its slots.
func (s *Session) SelectDate(ctx context.Context, date string) error {
	return s.machine.SelectDate(ctx, date)
}

// SelectSlot picks a slot from the loaded list.
func (s *Session) SelectSlot(ctx context.Context, startTime string) error {
	return s.machine.SelectSlot(ctx, startTime)
}

// Advance moves to the next visible step if the current one is complete.
func (s *Session) Advance(ctx context.Context) error {
	return s.machine.Advance(ctx)
}

// Retreat moves to the previous visible step.
func (s *Session) Retreat(ctx context.Context) error {
	return s.machine.Retreat(ctx)
}

// UpdateSettings applies new form settings; a step that becomes hidden
// moves the session forward to the nearest visible step.
func (s *Session) UpdateSettings(ctx context.Context, settings domain.Settings) {
	s.machine.UpdateSettings(ctx, settings)
}

// Submit hands the booking to the submitter. Once accepted, the booking is
// announced through the engine's publisher; a publishing failure is logged
// and does not undo the booking.
func (s *Session) Submit(ctx context.Context) error {
	if err := s.machine.Submit(ctx); err != nil {
		return err
	}
	if s.engine.publisher == nil {
		return nil
	}

	evt := ports.BookingSubmitted{
		BookingID: s.machine.BookingID(),
		Request:   s.machine.BookingRequest(),
	}
	if err := s.engine.publisher.PublishSubmitted(ctx, evt); err != nil {
		s.engine.logger.Warn("failed to publish booking",
			"session_id", s.ID(),
			"booking_id", evt.BookingID,
			"err", err,
		)
	}
	return nil
}

// Subscribe registers l for every committed change until cancel is called.
func (s *Session) Subscribe(l Listener) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) broadcast(prev, next *domain.Snapshot) {
	s.mu.Lock()
	subs := make([]Listener, 0, len(s.subs))
	for _, l := range s.subs {
		subs = append(subs, l)
	}
	s.mu.Unlock()

	for _, l := range subs {
		l(prev, next)
	}
}

// Close stops pending timers and fetches. The session must not be used afterwards.
func (s *Session) Close() {
	s.machine.Close()
}
