package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/bookflow/internal/logging"
	"github.com/aretw0/bookflow/pkg/ports"
	"github.com/gosimple/slug"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// StreamName is the JetStream stream holding booking events.
	StreamName = "bookflow_bookings"

	// EventSubmitted is the event type of accepted bookings.
	EventSubmitted = "booking.submitted"

	defaultTenant = "default"
)

// Envelope is the payload published for every booking event.
type Envelope struct {
	Timestamp time.Time              `json:"timestamp"`
	Tenant    string                 `json:"tenant"`
	Type      string                 `json:"type"`
	Booking   ports.BookingSubmitted `json:"booking"`
}

// Subject returns the subject of an event, e.g. "bookflow.acme-cleaning.booking.submitted".
func Subject(tenant, event string) string {
	t := slug.Make(tenant)
	if t == "" {
		t = defaultTenant
	}
	return fmt.Sprintf("bookflow.%s.%s", t, event)
}

// SetupStream creates or updates the stream capturing every bookflow subject.
func SetupStream(ctx context.Context, js jetstream.JetStream, storage jetstream.StorageType) (jetstream.Stream, error) {
	return js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{"bookflow.>"},
		Storage:    storage,
		MaxAge:     30 * 24 * time.Hour,
		Duplicates: time.Hour,
	})
}

// Publisher implements ports.EventPublisher on JetStream.
type Publisher struct {
	js     jetstream.JetStream
	tenant string
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithTenant sets the tenant used in subjects and envelopes.
func WithTenant(name string) Option {
	return func(p *Publisher) {
		p.tenant = name
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = l
	}
}

// NewPublisher creates a publisher. The stream must exist, see SetupStream.
func NewPublisher(js jetstream.JetStream, opts ...Option) *Publisher {
	p := &Publisher{
		js:     js,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishSubmitted implements ports.EventPublisher.
// The booking ID is the message ID, so retried publishes are deduplicated.
func (p *Publisher) PublishSubmitted(ctx context.Context, evt ports.BookingSubmitted) error {
	data, err := json.Marshal(Envelope{
		Timestamp: p.now(),
		Tenant:    p.tenant,
		Type:      EventSubmitted,
		Booking:   evt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := Subject(p.tenant, EventSubmitted)
	ack, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(evt.BookingID))
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	p.logger.Debug("booking event published", "subject", subject, "seq", ack.Sequence, "duplicate", ack.Duplicate)
	return nil
}
