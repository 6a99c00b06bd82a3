package bookflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/bookflow"
	"github.com/aretw0/bookflow/internal/testutils"
	"github.com/aretw0/bookflow/pkg/adapters/memory"
	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/ports"
	"github.com/aretw0/bookflow/pkg/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	debounce = 300 * time.Millisecond
	monday   = "2026-10-26"
)

type publisher struct {
	mu     sync.Mutex
	err    error
	events []ports.BookingSubmitted
}

func (p *publisher) PublishSubmitted(_ context.Context, evt ports.BookingSubmitted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *publisher) published() []ports.BookingSubmitted {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ports.BookingSubmitted(nil), p.events...)
}

type harness struct {
	engine    *bookflow.Engine
	clock     *testutils.ManualScheduler
	submitter *memory.Submitter
	publisher *publisher
}

func newHarness(t *testing.T, opts ...bookflow.Option) *harness {
	t.Helper()
	catalog, err := memory.NewCatalog(
		domain.Service{ID: "deep", Name: "Deep Clean", Price: 120, Duration: 120, Options: []domain.ServiceOption{
			{ID: "rooms", Name: "Rooms", Type: domain.OptionNumber, Required: true, PriceImpact: 20, ImpactType: domain.ImpactFixed},
		}},
		domain.Service{ID: "basic", Name: "Basic Clean", Price: 60, Duration: 60, DisablePetQuestion: true, DisableFrequencyOption: true},
	)
	require.NoError(t, err)

	availability, err := memory.NewAvailability(memory.AvailabilityConfig{
		Rules: []memory.WeeklyRule{{Day: "monday", Start: "09:00", End: "13:00"}},
	}, memory.WithNow(func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) }))
	require.NoError(t, err)

	h := &harness{
		clock:     testutils.NewManualScheduler(),
		submitter: memory.NewSubmitter(memory.ReserveIn(availability)),
		publisher: &publisher{},
	}
	base := []bookflow.Option{
		bookflow.WithCatalog(catalog),
		bookflow.WithAreaChecker(memory.NewAreaChecker(memory.Area{Name: "Downtown", Prefixes: []string{"123"}})),
		bookflow.WithSlotProvider(availability),
		bookflow.WithSubmitter(h.submitter),
		bookflow.WithPublisher(h.publisher),
		bookflow.WithDebounce(debounce),
		bookflow.WithScheduler(h.clock.Schedule),
		bookflow.WithTenant("Acme Cleaning"),
	}
	h.engine, err = bookflow.New(append(base, opts...)...)
	require.NoError(t, err)
	return h
}

func (h *harness) start(t *testing.T) *bookflow.Session {
	t.Helper()
	s, err := h.engine.Start(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func set(t *testing.T, s *bookflow.Session, key domain.FieldKey, value string) {
	t.Helper()
	require.NoError(t, s.SetFieldValue(context.Background(), key, value))
}

func advance(t *testing.T, s *bookflow.Session, want domain.StepID) {
	t.Helper()
	require.NoError(t, s.Advance(context.Background()))
	require.Equal(t, want, s.CurrentStep().ID)
}

func (h *harness) walkToReview(t *testing.T, s *bookflow.Session) {
	t.Helper()
	ctx := context.Background()

	set(t, s, domain.FieldZip, "12345")
	h.clock.Advance(debounce)
	require.Eventually(t, func() bool {
		return s.Context().AreaCheck.Passed()
	}, time.Second, time.Millisecond)
	assert.Equal(t, "Downtown", s.Context().AreaCheck.AreaName)
	advance(t, s, domain.StepService)

	set(t, s, domain.FieldService, "deep")
	advance(t, s, domain.StepOptions)
	set(t, s, domain.OptionField("rooms"), "3")
	advance(t, s, domain.StepPets)
	set(t, s, domain.FieldHasPets, "yes")
	set(t, s, domain.FieldPetDetails, "one cat")
	advance(t, s, domain.StepFrequency)
	set(t, s, domain.FieldFrequency, "monthly")
	advance(t, s, domain.StepSchedule)

	require.NoError(t, s.SelectDate(ctx, monday))
	require.Eventually(t, func() bool {
		return s.Context().SlotStatus == domain.SlotsReady
	}, time.Second, time.Millisecond)
	require.NoError(t, s.SelectSlot(ctx, "10:00"))
	advance(t, s, domain.StepCustomer)

	set(t, s, domain.FieldCustomerName, "Ada Lovelace")
	set(t, s, domain.FieldCustomerEmail, "ada@example.com")
	set(t, s, domain.FieldCustomerPhone, "555-0100")
	set(t, s, domain.FieldServiceAddress, "1 Analytical Way")
	set(t, s, domain.FieldPropertyAccess, "key")
	advance(t, s, domain.StepReview)
}

func TestNew_Validation(t *testing.T) {
	_, err := bookflow.New()
	assert.ErrorIs(t, err, bookflow.ErrNoCatalog)

	catalog, err := memory.NewCatalog()
	require.NoError(t, err)

	_, err = bookflow.New(bookflow.WithCatalog(catalog))
	assert.Error(t, err, "area check enabled without a checker")

	settings := domain.DefaultSettings()
	settings.AreaCheckEnabled = false
	_, err = bookflow.New(bookflow.WithCatalog(catalog), bookflow.WithSettings(settings))
	assert.Error(t, err, "date selection enabled without a slot provider")

	settings.DateTimeEnabled = false
	eng, err := bookflow.New(bookflow.WithCatalog(catalog), bookflow.WithSettings(settings))
	require.NoError(t, err)
	assert.Len(t, eng.Registry().Steps(), 8)
	assert.Equal(t, settings, eng.Settings())
}

func TestEngine_FullBooking(t *testing.T) {
	h := newHarness(t)
	s := h.start(t)
	assert.NotEmpty(t, s.ID(), "empty session IDs get a UUID")
	assert.Equal(t, domain.StepAreaCheck, s.CurrentStep().ID)
	assert.Len(t, s.Services(), 2)

	h.walkToReview(t, s)
	require.True(t, s.CanSubmit())
	assert.Equal(t, 180.0, s.Quote().Total)

	require.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, domain.StatusSubmitted, s.Status())
	assert.Equal(t, h.submitter.IDs(), []string{s.BookingID()})

	events := h.publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, s.BookingID(), events[0].BookingID)
	assert.Equal(t, "deep", events[0].Request.ServiceID)
	require.NotNil(t, events[0].Request.Access)
	assert.Equal(t, "key", events[0].Request.Access.Method)
	require.NotNil(t, events[0].Request.Pets)
	assert.Equal(t, "one cat", events[0].Request.Pets.Details)

	// The booked range is no longer offered.
	other := h.start(t)
	set(t, other, domain.FieldZip, "12399")
	h.clock.Advance(debounce)
	require.Eventually(t, func() bool { return other.Context().AreaCheck.Passed() }, time.Second, time.Millisecond)
	advance(t, other, domain.StepService)
	set(t, other, domain.FieldService, "basic")
	advance(t, other, domain.StepOptions)
	advance(t, other, domain.StepSchedule)
	require.NoError(t, other.SelectDate(context.Background(), monday))
	require.Eventually(t, func() bool { return other.Context().SlotStatus == domain.SlotsReady }, time.Second, time.Millisecond)

	var offered []string
	for _, slot := range other.Context().Slots {
		offered = append(offered, slot.StartTime)
	}
	assert.Equal(t, []string{"09:00", "12:00"}, offered)
}

func TestEngine_PublishFailureKeepsBooking(t *testing.T) {
	h := newHarness(t)
	h.publisher.err = errors.New("broker down")
	s := h.start(t)
	h.walkToReview(t, s)

	require.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, domain.StatusSubmitted, s.Status())
	assert.Len(t, h.publisher.published(), 1)
}

func TestEngine_DisabledDateRejected(t *testing.T) {
	h := newHarness(t)
	s := h.start(t)
	h.walkToReview(t, s)

	require.NoError(t, s.Retreat(context.Background()))
	require.NoError(t, s.Retreat(context.Background()))
	require.Equal(t, domain.StepSchedule, s.CurrentStep().ID)

	err := s.SelectDate(context.Background(), "2026-10-27")
	var schedErr *scheduling.Error
	require.ErrorAs(t, err, &schedErr, "tuesdays have no working hours")
	assert.Equal(t, domain.CodeDateUnavailable, schedErr.Code)
	assert.Equal(t, domain.CodeDateUnavailable, s.Field(domain.FieldDate).Error)
	assert.Equal(t, monday, s.Context().SelectedDate, "the previous date is kept")
}

func TestEngine_Resume(t *testing.T) {
	h := newHarness(t)
	s := h.start(t)
	h.walkToReview(t, s)
	snap := s.Snapshot()
	s.Close()

	resumed, err := h.engine.Resume(context.Background(), snap)
	require.NoError(t, err)
	t.Cleanup(resumed.Close)

	assert.Equal(t, snap.SessionID, resumed.ID())
	assert.Equal(t, domain.StepReview, resumed.CurrentStep().ID)
	assert.Equal(t, "Ada Lovelace", resumed.Field(domain.FieldCustomerName).Value)
	assert.True(t, resumed.CanSubmit())
	require.NoError(t, resumed.Submit(context.Background()))

	_, err = h.engine.Resume(context.Background(), nil)
	assert.Error(t, err)
}

func TestSession_Subscribe(t *testing.T) {
	h := newHarness(t)
	s := h.start(t)

	var mu sync.Mutex
	var diffs []*domain.SnapshotDiff
	cancel := s.Subscribe(func(prev, next *domain.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		diffs = append(diffs, domain.Diff(prev, next))
	})

	set(t, s, domain.FieldZip, "1")
	mu.Lock()
	require.Len(t, diffs, 1)
	require.Contains(t, diffs[0].Fields, domain.FieldZip)
	assert.Equal(t, "1", diffs[0].Fields[domain.FieldZip].Value)
	mu.Unlock()

	cancel()
	set(t, s, domain.FieldZip, "12")
	mu.Lock()
	assert.Len(t, diffs, 1)
	mu.Unlock()
}

func TestSession_AdvanceBlocked(t *testing.T) {
	h := newHarness(t)
	s := h.start(t)

	err := s.Advance(context.Background())
	var blocked *bookflow.StepBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, domain.StepAreaCheck, blocked.Step)
	assert.Equal(t, domain.CodeRequired, blocked.Errors[domain.FieldZip])
	assert.ErrorIs(t, s.Retreat(context.Background()), bookflow.ErrNoPreviousStep)
}
