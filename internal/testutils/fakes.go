package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/ports"
)

// AreaChecker records every request and answers with Fn.
// A nil Fn reports every zip as serviceable.
type AreaChecker struct {
	Fn func(ctx context.Context, zip string) (ports.AreaCheckResponse, error)

	mu    sync.Mutex
	calls []string
}

// CheckArea implements ports.AreaChecker.
func (a *AreaChecker) CheckArea(ctx context.Context, req ports.AreaCheckRequest) (ports.AreaCheckResponse, error) {
	a.mu.Lock()
	a.calls = append(a.calls, req.Zip)
	fn := a.Fn
	a.mu.Unlock()

	if fn == nil {
		return ports.AreaCheckResponse{Serviceable: true}, nil
	}
	return fn(ctx, req.Zip)
}

// Calls returns the zips requested so far.
func (a *AreaChecker) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

// SlotProvider records every query and answers with Fn.
// A nil Fn returns two morning slots for the queried date.
type SlotProvider struct {
	Fn func(ctx context.Context, q ports.SlotQuery) ([]domain.AvailableSlot, error)

	mu    sync.Mutex
	calls []ports.SlotQuery
}

// AvailableSlots implements ports.SlotProvider.
func (p *SlotProvider) AvailableSlots(ctx context.Context, q ports.SlotQuery) ([]domain.AvailableSlot, error) {
	p.mu.Lock()
	p.calls = append(p.calls, q)
	fn := p.Fn
	p.mu.Unlock()

	if fn == nil {
		return MorningSlots(q.Date), nil
	}
	return fn(ctx, q)
}

// Calls returns the queries issued so far.
func (p *SlotProvider) Calls() []ports.SlotQuery {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ports.SlotQuery(nil), p.calls...)
}

// MorningSlots returns the 09:00 and 10:00 slots of date.
func MorningSlots(date string) []domain.AvailableSlot {
	return []domain.AvailableSlot{
		{Date: date, StartTime: "09:00", EndTime: "10:00", Display: "09:00 - 10:00"},
		{Date: date, StartTime: "10:00", EndTime: "11:00", Display: "10:00 - 11:00"},
	}
}

// Submitter records every request and answers with Fn.
// A nil Fn confirms every booking as "booking-<n>".
type Submitter struct {
	Fn func(ctx context.Context, req ports.BookingRequest) (ports.BookingConfirmation, error)

	mu    sync.Mutex
	calls []ports.BookingRequest
}

// Submit implements ports.Submitter.
func (s *Submitter) Submit(ctx context.Context, req ports.BookingRequest) (ports.BookingConfirmation, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	n := len(s.calls)
	fn := s.Fn
	s.mu.Unlock()

	if fn == nil {
		return ports.BookingConfirmation{BookingID: fmt.Sprintf("booking-%d", n)}, nil
	}
	return fn(ctx, req)
}

// Calls returns the requests submitted so far.
func (s *Submitter) Calls() []ports.BookingRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.BookingRequest(nil), s.calls...)
}
