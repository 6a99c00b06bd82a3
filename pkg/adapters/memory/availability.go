package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/ports"
)

const (
	// DefaultSlotInterval is the grid slot start times are aligned to.
	DefaultSlotInterval = 30 * time.Minute
	// DefaultDuration is used when a query does not name a service duration, in minutes.
	DefaultDuration = 60

	clockLayout   = "15:04"
	displayLayout = "3:04 PM"
)

// WeeklyRule opens a window of working hours on a weekday.
type WeeklyRule struct {
	Day   string `mapstructure:"day" yaml:"day"`
	Start string `mapstructure:"start" yaml:"start"`
	End   string `mapstructure:"end" yaml:"end"`
}

// AvailabilityConfig describes when bookings can be made.
type AvailabilityConfig struct {
	Interval    time.Duration `mapstructure:"interval" yaml:"interval,omitempty"`
	Rules       []WeeklyRule  `mapstructure:"rules" yaml:"rules"`
	ClosedDates []string      `mapstructure:"closed_dates" yaml:"closed_dates,omitempty"`
	// HorizonDays limits how far ahead a date can be booked. Zero means unlimited.
	HorizonDays int `mapstructure:"horizon_days" yaml:"horizon_days,omitempty"`
}

type window struct {
	start, end time.Duration // offsets from midnight
}

type reservation struct {
	start, end time.Duration
}

// Availability implements ports.SlotProvider and ports.Calendar from weekly rules.
//
// Slots start on the interval grid inside each window and must fit the
// service duration before the window closes. Slots overlapping a reservation
// are left out, as are slots of today that already started.
type Availability struct {
	interval time.Duration
	windows  map[time.Weekday][]window
	closed   map[string]bool
	horizon  int
	now      func() time.Time

	mu       sync.RWMutex
	reserved map[string][]reservation
}

// AvailabilityOption configures an Availability.
type AvailabilityOption func(*Availability)

// WithNow replaces the clock used for "today".
func WithNow(now func() time.Time) AvailabilityOption {
	return func(a *Availability) {
		a.now = now
	}
}

// NewAvailability validates the config and builds the provider.
func NewAvailability(cfg AvailabilityConfig, opts ...AvailabilityOption) (*Availability, error) {
	a := &Availability{
		interval: cfg.Interval,
		windows:  make(map[time.Weekday][]window),
		closed:   make(map[string]bool),
		horizon:  cfg.HorizonDays,
		now:      time.Now,
		reserved: make(map[string][]reservation),
	}
	if a.interval <= 0 {
		a.interval = DefaultSlotInterval
	}
	if a.horizon < 0 {
		return nil, fmt.Errorf("horizon_days must not be negative: %d", a.horizon)
	}

	for _, r := range cfg.Rules {
		day, err := parseWeekday(r.Day)
		if err != nil {
			return nil, err
		}
		start, err := parseClock(r.Start)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Day, err)
		}
		end, err := parseClock(r.End)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Day, err)
		}
		if end <= start {
			return nil, fmt.Errorf("rule %s: end %s is not after start %s", r.Day, r.End, r.Start)
		}
		a.windows[day] = append(a.windows[day], window{start: start, end: end})
	}
	for day := range a.windows {
		sort.Slice(a.windows[day], func(i, j int) bool {
			return a.windows[day][i].start < a.windows[day][j].start
		})
	}

	for _, d := range cfg.ClosedDates {
		if _, err := time.Parse(domain.DateLayout, d); err != nil {
			return nil, fmt.Errorf("invalid closed date %q: %w", d, err)
		}
		a.closed[d] = true
	}

	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// IsDisabled implements ports.Calendar. Malformed dates, dates before today,
// dates past the horizon, closed dates and weekdays without rules are disabled.
func (a *Availability) IsDisabled(date string) bool {
	day, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return true
	}
	if a.closed[date] || len(a.windows[day.Weekday()]) == 0 {
		return true
	}

	today := a.today()
	if day.Before(today) {
		return true
	}
	return a.horizon > 0 && day.After(today.AddDate(0, 0, a.horizon))
}

// AvailableSlots implements ports.SlotProvider. Disabled dates have no slots.
func (a *Availability) AvailableSlots(ctx context.Context, q ports.SlotQuery) ([]domain.AvailableSlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.IsDisabled(q.Date) {
		return []domain.AvailableSlot{}, nil
	}

	day, _ := time.Parse(domain.DateLayout, q.Date)
	duration := time.Duration(q.Duration) * time.Minute
	if duration <= 0 {
		duration = DefaultDuration * time.Minute
	}

	var notBefore time.Duration
	if day.Equal(a.today()) {
		now := a.now()
		notBefore = time.Duration(now.Hour())*time.Hour + time.Duration(now.Minute())*time.Minute
	}

	a.mu.RLock()
	taken := a.reserved[q.Date]
	a.mu.RUnlock()

	slots := []domain.AvailableSlot{}
	for _, w := range a.windows[day.Weekday()] {
		for t := w.start; t+duration <= w.end; t += a.interval {
			if t < notBefore || overlaps(taken, t, t+duration) {
				continue
			}
			slots = append(slots, newSlot(day, t, t+duration))
		}
	}
	return slots, nil
}

// ErrSlotTaken is returned by Reserve when the range overlaps an earlier reservation.
var ErrSlotTaken = errors.New("slot already booked")

// Reserve marks the slot's time range as booked.
func (a *Availability) Reserve(slot domain.AvailableSlot) error {
	start, err := parseClock(slot.StartTime)
	if err != nil {
		return err
	}
	end, err := parseClock(slot.EndTime)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if overlaps(a.reserved[slot.Date], start, end) {
		return ErrSlotTaken
	}
	a.reserved[slot.Date] = append(a.reserved[slot.Date], reservation{start: start, end: end})
	return nil
}

func (a *Availability) today() time.Time {
	now := a.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func overlaps(taken []reservation, start, end time.Duration) bool {
	for _, r := range taken {
		if start < r.end && r.start < end {
			return true
		}
	}
	return false
}

func newSlot(day time.Time, start, end time.Duration) domain.AvailableSlot {
	from := day.Add(start)
	to := day.Add(end)
	return domain.AvailableSlot{
		Date:      day.Format(domain.DateLayout),
		StartTime: from.Format(clockLayout),
		EndTime:   to.Format(clockLayout),
		Display:   from.Format(displayLayout) + " - " + to.Format(displayLayout),
	}
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
