package scheduling

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/bookflow/internal/logging"
	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/ports"
)

// DefaultFetchTimeout bounds a single slot fetch.
const DefaultFetchTimeout = 10 * time.Second

// ErrClosed is returned by SelectDate after Close.
var ErrClosed = errors.New("scheduling controller closed")

// Update is delivered when a fetch for the current date resolves.
type Update struct {
	State domain.SchedulingState
	Err   error
}

// Controller owns the scheduling state of one wizard session.
// It is safe for concurrent use.
type Controller struct {
	provider ports.SlotProvider
	calendar ports.Calendar
	timeout  time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	state     domain.SchedulingState
	serviceID string
	duration  int
	cancel    context.CancelFunc
	notify    func(Update)
	closed    bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithCalendar sets the collaborator flagging disabled days.
func WithCalendar(cal ports.Calendar) Option {
	return func(c *Controller) {
		c.calendar = cal
	}
}

// WithFetchTimeout bounds each slot fetch. A timeout is a failure.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// New creates a controller with no date selected.
func New(provider ports.SlotProvider, opts ...Option) *Controller {
	c := &Controller{
		provider: provider,
		timeout:  DefaultFetchTimeout,
		logger:   logging.NewNop(),
		state:    domain.SchedulingState{Status: domain.SlotsIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUpdate registers the callback invoked, without locks held, every time a
// fetch result is applied. It replaces any previous callback.
func (c *Controller) OnUpdate(fn func(Update)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notify = fn
}

// IsDisabled reports whether the calendar flags date. Malformed dates are disabled.
func (c *Controller) IsDisabled(date string) bool {
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return true
	}
	return c.calendar != nil && c.calendar.IsDisabled(date)
}

// State returns a copy of the current scheduling state.
func (c *Controller) State() domain.SchedulingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// SetService scopes later fetches to a service and its duration in minutes.
// It reports whether the scope changed.
func (c *Controller) SetService(id string, duration int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.serviceID == id && c.duration == duration {
		return false
	}
	c.serviceID = id
	c.duration = duration
	return true
}

// SelectDate selects a date and starts fetching its slots.
// Malformed or disabled dates return *Error and leave the state untouched.
func (c *Controller) SelectDate(ctx context.Context, date string) error {
	date = strings.TrimSpace(date)
	if c.IsDisabled(date) {
		return &Error{Code: domain.CodeDateUnavailable, Date: date}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.startFetchLocked(ctx, date)
	c.mu.Unlock()
	return nil
}

// Refresh refetches the slots of the selected date, clearing the selected slot.
// It is a no-op when no date is selected.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state.Date == "" {
		return
	}
	c.startFetchLocked(ctx, c.state.Date)
}

func (c *Controller) startFetchLocked(ctx context.Context, date string) {
	if c.cancel != nil {
		c.cancel()
	}
	token := c.state.Token + 1
	c.state = domain.SchedulingState{Status: domain.SlotsLoading, Date: date, Token: token}

	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	c.cancel = cancel
	q := ports.SlotQuery{Date: date, ServiceID: c.serviceID, Duration: c.duration}

	go c.fetch(fctx, cancel, token, q)
}

func (c *Controller) fetch(ctx context.Context, cancel context.CancelFunc, token uint64, q ports.SlotQuery) {
	slots, err := c.provider.AvailableSlots(ctx, q)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	cancel()

	c.mu.Lock()
	if c.closed || token != c.state.Token || q.Date != c.state.Date {
		c.mu.Unlock()
		c.logger.Debug("slot response discarded", "date", q.Date, "token", token)
		return
	}
	c.cancel = nil
	if err != nil {
		c.state.Status = domain.SlotsFailed
		c.state.Reason = err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			c.state.Reason = "timeout"
		}
	} else {
		c.state.Status = domain.SlotsReady
		c.state.Slots = forDate(slots, q.Date)
	}
	state := c.state.Clone()
	notify := c.notify
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("slot fetch failed", "date", q.Date, "error", err)
	}
	if notify != nil {
		notify(Update{State: state, Err: err})
	}
}

// SelectSlot selects one of the slots fetched for the current date.
func (c *Controller) SelectSlot(startTime string) (domain.AvailableSlot, error) {
	startTime = strings.TrimSpace(startTime)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status != domain.SlotsReady {
		return domain.AvailableSlot{}, &Error{Code: domain.CodeSlotUnavailable, Date: c.state.Date, Slot: startTime}
	}
	slot, ok := domain.FindSlot(c.state.Slots, c.state.Date, startTime)
	if !ok {
		return domain.AvailableSlot{}, &Error{Code: domain.CodeSlotUnavailable, Date: c.state.Date, Slot: startTime}
	}
	c.state.Selected = &slot
	return slot, nil
}

// ClearSlot deselects the selected slot, keeping the fetched list.
func (c *Controller) ClearSlot() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Selected = nil
}

// Reset discards the selected date, its slots and any in-flight fetch.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state = domain.SchedulingState{Status: domain.SlotsIdle, Token: c.state.Token + 1}
}

// Restore replaces the state, e.g. when a session is resumed.
// An interrupted fetch is restarted.
func (c *Controller) Restore(ctx context.Context, s domain.SchedulingState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state = s.Clone()
	if c.state.Status == domain.SlotsLoading && c.state.Date != "" {
		c.startFetchLocked(ctx, c.state.Date)
	}
}

// Close discards in-flight fetches.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func forDate(slots []domain.AvailableSlot, date string) []domain.AvailableSlot {
	out := make([]domain.AvailableSlot, 0, len(slots))
	for _, s := range slots {
		if s.Date == "" {
			s.Date = date
		}
		if s.Date == date {
			out = append(out, s)
		}
	}
	return out
}
