package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/bookflow/internal/logging"
	"github.com/aretw0/bookflow/pkg/areacheck"
	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/ports"
	"github.com/aretw0/bookflow/pkg/registry"
	"github.com/aretw0/bookflow/pkg/scheduling"
	"github.com/aretw0/bookflow/pkg/validation"
)

// Listener observes every committed change of a machine.
type Listener func(prev, next *domain.Snapshot)

// Machine is the wizard state machine of one booking session.
//
// Every transition runs to completion under the machine lock. The machine
// lock is always taken before a controller lock, never after. Hooks and
// listeners run once the lock is released, and collaborators are never
// called while it is held.
type Machine struct {
	id        string
	registry  *registry.Registry
	rules     *validation.Rules
	area      *areacheck.Controller
	sched     *scheduling.Controller
	submitter ports.Submitter
	services  map[string]domain.Service
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.Mutex
	ctx       domain.Context
	current   domain.StepID
	status    domain.Status
	bookingID string
	submitErr string
	history   []domain.StepID
	updatedAt time.Time
	listeners []Listener
}

// Option configures a Machine.
type Option func(*Machine)

// WithAreaCheck sets the area-check controller. Without one the area step
// can never be completed, so it should only be omitted when the area check is disabled.
func WithAreaCheck(c *areacheck.Controller) Option {
	return func(m *Machine) {
		m.area = c
	}
}

// WithScheduling sets the scheduling controller.
func WithScheduling(c *scheduling.Controller) Option {
	return func(m *Machine) {
		m.sched = c
	}
}

// WithSubmitter sets the submission collaborator.
func WithSubmitter(s ports.Submitter) Option {
	return func(m *Machine) {
		m.submitter = s
	}
}

// WithServices sets the catalog the service field resolves against.
func WithServices(services []domain.Service) Option {
	return func(m *Machine) {
		m.services = make(map[string]domain.Service, len(services))
		for _, s := range services {
			m.services[s.ID] = s
		}
	}
}

// WithSettings sets the form settings. Defaults to domain.DefaultSettings().
func WithSettings(s domain.Settings) Option {
	return func(m *Machine) {
		m.ctx.Settings = s
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// WithClock replaces time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// New creates a machine for the session id. Call Start or Restore before use.
func New(id string, reg *registry.Registry, opts ...Option) *Machine {
	m := &Machine{
		id:       id,
		registry: reg,
		rules:    reg.Rules(),
		services: make(map[string]domain.Service),
		logger:   logging.NewNop(),
		now:      time.Now,
		ctx:      domain.NewContext(domain.DefaultSettings()),
		status:   domain.StatusActive,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("session_id", id)

	if m.sched != nil {
		m.ctx.DisabledDate = m.sched.IsDisabled
		m.sched.OnUpdate(m.onSlots)
	}
	if m.area != nil {
		m.area.OnResult(m.onAreaCheck)
	}
	return m
}

// ID returns the session ID.
func (m *Machine) ID() string {
	return m.id
}

// OnChange registers a listener for committed changes.
func (m *Machine) OnChange(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Start positions the machine on the first incomplete visible step.
func (m *Machine) Start(ctx context.Context) {
	_ = m.mutate(ctx, func(fx *effects) error {
		view := m.viewLocked()
		m.current = m.registry.FirstIncomplete(view).ID
		m.history = []domain.StepID{m.current}
		fx.enter(m, m.current)
		return nil
	})
}

// Close stops the timers and fetches of the controllers.
func (m *Machine) Close() {
	if m.area != nil {
		m.area.Close()
	}
	if m.sched != nil {
		m.sched.Close()
	}
}

// CurrentStep returns the current step.
func (m *Machine) CurrentStep() domain.Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, _ := m.registry.Step(m.current)
	return s
}

// VisibleSteps returns the steps visible for the current context.
func (m *Machine) VisibleSteps() []domain.Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.Visible(m.viewLocked())
}

// Field returns the state of a single field.
func (m *Machine) Field(key domain.FieldKey) domain.FieldState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctx.Fields[key]
}

// Status returns the submission status.
func (m *Machine) Status() domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Context returns a copy of the wizard context.
func (m *Machine) Context() domain.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

// Quote prices the current selection.
func (m *Machine) Quote() domain.Quote {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.NewQuote(m.ctx.Service, m.ctx.Fields)
}

// Snapshot returns the serialisable state of the session.
func (m *Machine) Snapshot() *domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// viewLocked syncs the controller-owned parts of the context and returns a clone.
func (m *Machine) viewLocked() domain.Context {
	if m.area != nil {
		m.ctx.AreaCheck = m.area.Result()
	}
	if m.sched != nil {
		s := m.sched.State()
		m.ctx.SelectedDate = s.Date
		m.ctx.SelectedSlot = s.Selected
		m.ctx.Slots = s.Slots
		m.ctx.SlotStatus = s.Status
	}
	return m.ctx.Clone()
}

func (m *Machine) snapshotLocked() *domain.Snapshot {
	view := m.viewLocked()
	snap := &domain.Snapshot{
		SessionID:   m.id,
		CurrentStep: m.current,
		Status:      m.status,
		Fields:      view.Fields,
		AreaCheck:   view.AreaCheck,
		BookingID:   m.bookingID,
		SubmitError: m.submitErr,
		History:     append([]domain.StepID(nil), m.history...),
		UpdatedAt:   m.updatedAt,
	}
	if m.sched != nil {
		snap.Scheduling = m.sched.State()
	} else {
		snap.Scheduling = domain.SchedulingState{Status: domain.SlotsIdle}
	}
	return snap
}

// effects collects the callbacks a transition fires once the lock is released.
type effects struct {
	calls []func(context.Context)
}

func (fx *effects) add(f func(context.Context)) {
	fx.calls = append(fx.calls, f)
}

// mutate runs fn under the machine lock, then fires hooks and listeners.
func (m *Machine) mutate(ctx context.Context, fn func(fx *effects) error) error {
	m.mu.Lock()
	prev := m.snapshotLocked()
	var fx effects
	err := fn(&fx)
	next := m.snapshotLocked()
	changed := domain.Diff(prev, next) != nil
	if changed {
		m.updatedAt = m.now()
		next.UpdatedAt = m.updatedAt
	}
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, f := range fx.calls {
		f(ctx)
	}
	if changed {
		for _, l := range listeners {
			l(prev, next)
		}
	}
	return err
}
