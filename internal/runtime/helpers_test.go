package runtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/bookflow/internal/runtime"
	"github.com/aretw0/bookflow/internal/testutils"
	"github.com/aretw0/bookflow/pkg/areacheck"
	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/ports"
	"github.com/aretw0/bookflow/pkg/registry"
	"github.com/aretw0/bookflow/pkg/scheduling"
	"github.com/stretchr/testify/require"
)

const (
	debounce = 500 * time.Millisecond
	dayOne   = "2026-03-02"
	dayTwo   = "2026-03-03"
)

var catalog = []domain.Service{
	{
		ID:       "deep",
		Name:     "Deep Clean",
		Price:    120,
		Duration: 120,
		Options: []domain.ServiceOption{
			{ID: "rooms", Name: "Rooms", Type: domain.OptionNumber, Required: true, PriceImpact: 20, ImpactType: domain.ImpactFixed},
		},
	},
	{
		ID:                     "basic",
		Name:                   "Basic Clean",
		Price:                  60,
		Duration:               60,
		DisablePetQuestion:     true,
		DisableFrequencyOption: true,
		Options: []domain.ServiceOption{
			{ID: "oven", Name: "Oven", Type: domain.OptionCheckbox, PriceImpact: 15, ImpactType: domain.ImpactFixed},
		},
	},
}

type fixture struct {
	m         *runtime.Machine
	clock     *testutils.ManualScheduler
	checker   *testutils.AreaChecker
	slots     *testutils.SlotProvider
	submitter *testutils.Submitter
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	settings  domain.Settings
	checker   *testutils.AreaChecker
	slots     *testutils.SlotProvider
	submitter *testutils.Submitter
	opts      []runtime.Option
}

func withSettings(s domain.Settings) fixtureOption {
	return func(c *fixtureConfig) { c.settings = s }
}

func withChecker(a *testutils.AreaChecker) fixtureOption {
	return func(c *fixtureConfig) { c.checker = a }
}

func withSlots(p *testutils.SlotProvider) fixtureOption {
	return func(c *fixtureConfig) { c.slots = p }
}

func withSubmitter(s *testutils.Submitter) fixtureOption {
	return func(c *fixtureConfig) { c.submitter = s }
}

func withMachineOptions(opts ...runtime.Option) fixtureOption {
	return func(c *fixtureConfig) { c.opts = append(c.opts, opts...) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	cfg := &fixtureConfig{
		settings:  domain.DefaultSettings(),
		checker:   &testutils.AreaChecker{},
		slots:     &testutils.SlotProvider{},
		submitter: &testutils.Submitter{},
	}
	for _, o := range opts {
		o(cfg)
	}

	clock := testutils.NewManualScheduler()
	area := areacheck.New(cfg.checker,
		areacheck.WithDebounce(debounce),
		areacheck.WithScheduler(clock.Schedule),
	)
	sched := scheduling.New(cfg.slots)

	mopts := []runtime.Option{
		runtime.WithAreaCheck(area),
		runtime.WithScheduling(sched),
		runtime.WithSubmitter(cfg.submitter),
		runtime.WithServices(catalog),
		runtime.WithSettings(cfg.settings),
	}
	m := runtime.New("sess-1", registry.Default(), append(mopts, cfg.opts...)...)
	m.Start(context.Background())
	t.Cleanup(m.Close)

	return &fixture{m: m, clock: clock, checker: cfg.checker, slots: cfg.slots, submitter: cfg.submitter}
}

func (f *fixture) set(t *testing.T, key domain.FieldKey, value string) {
	t.Helper()
	require.NoError(t, f.m.SetFieldValue(context.Background(), key, value))
}

func (f *fixture) advance(t *testing.T, want domain.StepID) {
	t.Helper()
	require.NoError(t, f.m.Advance(context.Background()))
	require.Equal(t, want, f.m.CurrentStep().ID)
}

func (f *fixture) waitSlots(t *testing.T, date string) {
	t.Helper()
	require.Eventually(t, func() bool {
		c := f.m.Context()
		return c.SlotStatus == domain.SlotsReady && c.SelectedDate == date
	}, time.Second, time.Millisecond)
}

// walkToReview fills every step of the full flow with valid values.
func (f *fixture) walkToReview(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	f.set(t, domain.FieldZip, "12345")
	f.clock.Advance(debounce)
	f.advance(t, domain.StepService)

	f.set(t, domain.FieldService, "deep")
	f.advance(t, domain.StepOptions)

	f.set(t, domain.OptionField("rooms"), "2")
	f.advance(t, domain.StepPets)

	f.set(t, domain.FieldHasPets, "no")
	f.advance(t, domain.StepFrequency)

	f.set(t, domain.FieldFrequency, "weekly")
	f.advance(t, domain.StepSchedule)

	require.NoError(t, f.m.SelectDate(ctx, dayOne))
	f.waitSlots(t, dayOne)
	require.NoError(t, f.m.SelectSlot(ctx, "09:00"))
	f.advance(t, domain.StepCustomer)

	f.set(t, domain.FieldCustomerName, "Ada Lovelace")
	f.set(t, domain.FieldCustomerEmail, "ada@example.com")
	f.set(t, domain.FieldCustomerPhone, "555-0100")
	f.set(t, domain.FieldServiceAddress, "1 Analytical Way")
	f.advance(t, domain.StepReview)
}

// events is a copy of what a recorder saw.
type events struct {
	entered []domain.StepID
	left    []domain.StepID
	failed  []domain.StepID
	areas   []domain.AreaCheckResult
	slots   []string
	submits []*domain.SubmitEvent
}

// recorder collects hook events from any goroutine.
type recorder struct {
	mu sync.Mutex
	ev events
}

func (r *recorder) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.ev.entered = append(r.ev.entered, e.Step)
		},
		OnStepLeave: func(_ context.Context, e *domain.StepEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.ev.left = append(r.ev.left, e.Step)
		},
		OnValidationFailed: func(_ context.Context, e *domain.ValidationEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.ev.failed = append(r.ev.failed, e.Step)
		},
		OnAreaCheck: func(_ context.Context, e *domain.AreaCheckEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.ev.areas = append(r.ev.areas, e.Result)
		},
		OnSlotsLoaded: func(_ context.Context, e *domain.SlotsEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.ev.slots = append(r.ev.slots, e.Date)
		},
		OnSubmit: func(_ context.Context, e *domain.SubmitEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.ev.submits = append(r.ev.submits, e)
		},
	}
}

func (r *recorder) seen() events {
	r.mu.Lock()
	defer r.mu.Unlock()
	return events{
		entered: append([]domain.StepID(nil), r.ev.entered...),
		left:    append([]domain.StepID(nil), r.ev.left...),
		failed:  append([]domain.StepID(nil), r.ev.failed...),
		areas:   append([]domain.AreaCheckResult(nil), r.ev.areas...),
		slots:   append([]string(nil), r.ev.slots...),
		submits: append([]*domain.SubmitEvent(nil), r.ev.submits...),
	}
}

func unserviceable(context.Context, string) (ports.AreaCheckResponse, error) {
	return ports.AreaCheckResponse{Serviceable: false, Message: "outside our area"}, nil
}
