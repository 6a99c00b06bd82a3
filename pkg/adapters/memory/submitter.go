package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/bookflow/pkg/ports"
	"github.com/google/uuid"
)

// Submitter implements ports.Submitter by keeping bookings in memory.
// Safe for concurrent use.
type Submitter struct {
	slots *Availability

	mu       sync.RWMutex
	bookings map[string]ports.BookingRequest
	order    []string
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// ReserveIn makes accepted bookings take their slot out of av.
func ReserveIn(av *Availability) SubmitterOption {
	return func(s *Submitter) {
		s.slots = av
	}
}

// NewSubmitter creates an empty in-memory booking sink.
func NewSubmitter(opts ...SubmitterOption) *Submitter {
	s := &Submitter{bookings: make(map[string]ports.BookingRequest)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit stores the booking under a fresh UUID.
func (s *Submitter) Submit(ctx context.Context, req ports.BookingRequest) (ports.BookingConfirmation, error) {
	if err := ctx.Err(); err != nil {
		return ports.BookingConfirmation{}, err
	}
	if req.ServiceID == "" {
		return ports.BookingConfirmation{}, errors.New("booking has no service")
	}

	if s.slots != nil && req.Slot != nil {
		if err := s.slots.Reserve(*req.Slot); err != nil {
			return ports.BookingConfirmation{}, err
		}
	}

	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[id] = req
	s.order = append(s.order, id)
	return ports.BookingConfirmation{BookingID: id}, nil
}

// Booking returns a stored booking.
func (s *Submitter) Booking(id string) (ports.BookingRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.bookings[id]
	return req, ok
}

// IDs returns the booking IDs in submission order.
func (s *Submitter) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}
