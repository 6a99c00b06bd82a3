package bookflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/bookflow/internal/logging"
	"github.com/aretw0/bookflow/internal/runtime"
	"github.com/aretw0/bookflow/pkg/adapters/memory"
	"github.com/aretw0/bookflow/pkg/areacheck"
	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/ports"
	"github.com/aretw0/bookflow/pkg/registry"
	"github.com/aretw0/bookflow/pkg/scheduling"
	"github.com/google/uuid"
)

// ErrNoCatalog is returned by New when no service catalog is configured.
var ErrNoCatalog = errors.New("a service catalog is required")

// Errors returned by Session methods.
var (
	ErrNoNextStep            = runtime.ErrNoNextStep
	ErrNoPreviousStep        = runtime.ErrNoPreviousStep
	ErrSchedulingUnavailable = runtime.ErrSchedulingUnavailable
)

type (
	// StepBlockedError is returned by Advance when the current step is incomplete.
	StepBlockedError = runtime.StepBlockedError
	// SubmissionError is returned by Submit when the submitter failed.
	SubmissionError = runtime.SubmissionError
)

// Engine is the high-level entry point for the bookflow library.
// It holds the collaborators shared by every session and creates the
// per-session state machines.
type Engine struct {
	registry  *registry.Registry
	settings  domain.Settings
	catalog   ports.ServiceCatalog
	checker   ports.AreaChecker
	slots     ports.SlotProvider
	calendar  ports.Calendar
	submitter ports.Submitter
	publisher ports.EventPublisher
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	Tenant    string

	debounce       time.Duration
	requestTimeout time.Duration
	fetchTimeout   time.Duration
	scheduler      areacheck.Scheduler
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry replaces the default eight-step booking flow.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithSettings sets the form settings new sessions start with.
func WithSettings(s domain.Settings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithCatalog sets the source of bookable services.
func WithCatalog(c ports.ServiceCatalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithAreaChecker sets the collaborator behind the area-check step.
func WithAreaChecker(c ports.AreaChecker) Option {
	return func(e *Engine) {
		e.checker = c
	}
}

// WithSlotProvider sets the collaborator listing bookable slots.
func WithSlotProvider(p ports.SlotProvider) Option {
	return func(e *Engine) {
		e.slots = p
	}
}

// WithCalendar sets the source of disabled days.
// If the slot provider also implements ports.Calendar it is used by default.
func WithCalendar(c ports.Calendar) Option {
	return func(e *Engine) {
		e.calendar = c
	}
}

// WithSubmitter sets the collaborator receiving bookings (default: in-memory).
func WithSubmitter(s ports.Submitter) Option {
	return func(e *Engine) {
		e.submitter = s
	}
}

// WithPublisher announces accepted bookings.
func WithPublisher(p ports.EventPublisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTenant labels logs, stored keys and published subjects.
func WithTenant(name string) Option {
	return func(e *Engine) {
		e.Tenant = name
	}
}

// WithDebounce sets the quiet period before a zip is checked.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) {
		e.debounce = d
	}
}

// WithRequestTimeout bounds each area-check request.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.requestTimeout = d
	}
}

// WithFetchTimeout bounds each slot fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.fetchTimeout = d
	}
}

// WithScheduler replaces the timer used for the area-check debounce.
func WithScheduler(s areacheck.Scheduler) Option {
	return func(e *Engine) {
		e.scheduler = s
	}
}

// New initializes a new Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		settings: domain.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.catalog == nil {
		return nil, ErrNoCatalog
	}
	if eng.registry == nil {
		eng.registry = registry.Default()
	}
	if eng.submitter == nil {
		eng.submitter = memory.NewSubmitter()
	}
	if eng.calendar == nil {
		if cal, ok := eng.slots.(ports.Calendar); ok {
			eng.calendar = cal
		}
	}
	if eng.settings.AreaCheckEnabled && eng.checker == nil {
		return nil, fmt.Errorf("area check is enabled but no area checker is configured")
	}
	if eng.settings.DateTimeEnabled && eng.slots == nil {
		return nil, fmt.Errorf("date selection is enabled but no slot provider is configured")
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Tenant != "" {
		eng.logger = eng.logger.With("tenant", eng.Tenant)
	}
	return eng, nil
}

// Registry returns the step registry sessions run on.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Settings returns the form settings new sessions start with.
func (e *Engine) Settings() domain.Settings {
	return e.settings
}

// Services returns the current catalog.
func (e *Engine) Services(ctx context.Context) ([]domain.Service, error) {
	services, err := e.catalog.Services(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load services: %w", err)
	}
	return services, nil
}

// Start creates a session positioned on its first incomplete step.
// An empty sessionID gets a random UUID.
func (e *Engine) Start(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s, err := e.newSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.machine.Start(ctx)
	e.logger.Debug("session started", "session_id", sessionID)
	return s, nil
}

// Resume rebuilds a session from a stored snapshot.
// Pending area checks and slot fetches are re-issued.
func (e *Engine) Resume(ctx context.Context, snap *domain.Snapshot) (*Session, error) {
	if snap == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	s, err := e.newSession(ctx, snap.SessionID)
	if err != nil {
		return nil, err
	}
	if err := s.machine.Restore(ctx, snap); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to resume session %s: %w", snap.SessionID, err)
	}
	e.logger.Debug("session resumed", "session_id", snap.SessionID, "step", snap.CurrentStep.String())
	return s, nil
}

func (e *Engine) newSession(ctx context.Context, id string) (*Session, error) {
	services, err := e.Services(ctx)
	if err != nil {
		return nil, err
	}

	opts := []runtime.Option{
		runtime.WithServices(services),
		runtime.WithSettings(e.settings),
		runtime.WithSubmitter(e.submitter),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithLogger(e.logger),
	}

	if e.checker != nil {
		areaOpts := []areacheck.Option{
			areacheck.WithRules(e.registry.Rules()),
			areacheck.WithLogger(e.logger),
		}
		if e.debounce > 0 {
			areaOpts = append(areaOpts, areacheck.WithDebounce(e.debounce))
		}
		if e.requestTimeout > 0 {
			areaOpts = append(areaOpts, areacheck.WithRequestTimeout(e.requestTimeout))
		}
		if e.scheduler != nil {
			areaOpts = append(areaOpts, areacheck.WithScheduler(e.scheduler))
		}
		opts = append(opts, runtime.WithAreaCheck(areacheck.New(e.checker, areaOpts...)))
	}

	if e.slots != nil {
		schedOpts := []scheduling.Option{scheduling.WithLogger(e.logger)}
		if e.calendar != nil {
			schedOpts = append(schedOpts, scheduling.WithCalendar(e.calendar))
		}
		if e.fetchTimeout > 0 {
			schedOpts = append(schedOpts, scheduling.WithFetchTimeout(e.fetchTimeout))
		}
		opts = append(opts, runtime.WithScheduling(scheduling.New(e.slots, schedOpts...)))
	}

	return newSession(e, runtime.New(id, e.registry, opts...), services), nil
}
