package nats_test

import (
	"context"
	"encoding/json"
	"testing"

	bfnats "github.com/aretw0/bookflow/pkg/adapters/nats"
	"github.com/aretw0/bookflow/internal/logging"
	"github.com/aretw0/bookflow/pkg/ports"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (jetstream.JetStream, jetstream.Stream) {
	t.Helper()
	ctx := context.Background()
	logger := logging.NewNop()

	ns, err := bfnats.StartEmbedded(t.TempDir(), logger)
	require.NoError(t, err)
	nc, err := bfnats.ConnectInProcess(ns)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bfnats.Shutdown(nc, ns, logger) })

	js, err := jetstream.New(nc)
	require.NoError(t, err)
	stream, err := bfnats.SetupStream(ctx, js, jetstream.MemoryStorage)
	require.NoError(t, err)
	return js, stream
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "bookflow.acme-cleaning.booking.submitted", bfnats.Subject("Acme Cleaning", bfnats.EventSubmitted))
	assert.Equal(t, "bookflow.default.booking.submitted", bfnats.Subject("", bfnats.EventSubmitted))
}

func TestPublisher_PublishSubmitted(t *testing.T) {
	ctx := context.Background()
	js, stream := setup(t)
	pub := bfnats.NewPublisher(js, bfnats.WithTenant("Acme Cleaning"))

	evt := ports.BookingSubmitted{
		BookingID: "b-1",
		Request:   ports.BookingRequest{SessionID: "s1", ServiceID: "deep"},
	}
	require.NoError(t, pub.PublishSubmitted(ctx, evt))
	require.NoError(t, pub.PublishSubmitted(ctx, evt), "a retry is accepted")

	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.State.Msgs, "retries are deduplicated by booking ID")

	msg, err := stream.GetLastMsgForSubject(ctx, "bookflow.acme-cleaning.booking.submitted")
	require.NoError(t, err)

	var env bfnats.Envelope
	require.NoError(t, json.Unmarshal(msg.Data, &env))
	assert.Equal(t, bfnats.EventSubmitted, env.Type)
	assert.Equal(t, "Acme Cleaning", env.Tenant)
	assert.Equal(t, "b-1", env.Booking.BookingID)
	assert.Equal(t, "deep", env.Booking.Request.ServiceID)
	assert.False(t, env.Timestamp.IsZero())
}

func TestPublisher_NoStream(t *testing.T) {
	ctx := context.Background()
	js, _ := setup(t)
	require.NoError(t, js.DeleteStream(ctx, bfnats.StreamName))

	pub := bfnats.NewPublisher(js)
	err := pub.PublishSubmitted(ctx, ports.BookingSubmitted{BookingID: "b-2"})
	assert.Error(t, err, "publishing without a stream is reported")
}
