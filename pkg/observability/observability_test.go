package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m, err := observability.NewMetrics(nil)
	require.NoError(t, err)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStepEnter(ctx, &domain.StepEvent{Step: domain.StepService})
	hooks.OnStepEnter(ctx, &domain.StepEvent{Step: domain.StepService})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StepEnters.WithLabelValues("service")))

	hooks.OnValidationFailed(ctx, &domain.ValidationEvent{Step: domain.StepOptions, Errors: map[domain.FieldKey]domain.ErrorCode{
		domain.OptionField("rooms"): domain.CodeRequired,
	}})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("options", "option", "required")))

	hooks.OnAreaCheck(ctx, &domain.AreaCheckEvent{Result: domain.AreaCheckResult{Status: domain.AreaCheckSuccess, Serviceable: true}, Duration: time.Millisecond})
	hooks.OnAreaCheck(ctx, &domain.AreaCheckEvent{Result: domain.AreaCheckResult{Status: domain.AreaCheckSuccess}})
	hooks.OnAreaCheck(ctx, &domain.AreaCheckEvent{Result: domain.AreaCheckResult{Status: domain.AreaCheckFailure, Reason: "timeout"}})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AreaChecks.WithLabelValues(observability.OutcomeServiceable)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AreaChecks.WithLabelValues(observability.OutcomeUnserviceable)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AreaChecks.WithLabelValues(observability.OutcomeFailed)))

	hooks.OnSlotsLoaded(ctx, &domain.SlotsEvent{Date: "2026-10-26", Count: 3})
	hooks.OnSlotsLoaded(ctx, &domain.SlotsEvent{Date: "2026-10-26", Err: "boom"})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SlotFetches.WithLabelValues(observability.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SlotFetches.WithLabelValues(observability.OutcomeFailed)))

	hooks.OnSubmit(ctx, &domain.SubmitEvent{BookingID: "b1", Duration: time.Second})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(observability.OutcomeSubmitted)))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "bookflow_submissions_total")
}

func TestCombine(t *testing.T) {
	var order []string
	first := domain.LifecycleHooks{OnSubmit: func(context.Context, *domain.SubmitEvent) { order = append(order, "first") }}
	second := domain.LifecycleHooks{
		OnSubmit:    func(context.Context, *domain.SubmitEvent) { order = append(order, "second") },
		OnStepEnter: func(context.Context, *domain.StepEvent) { order = append(order, "enter") },
	}

	hooks := observability.Combine(first, domain.LifecycleHooks{}, second)
	hooks.OnSubmit(context.Background(), &domain.SubmitEvent{})
	hooks.OnStepEnter(context.Background(), &domain.StepEvent{})

	assert.Equal(t, []string{"first", "second", "enter"}, order)
	assert.Nil(t, hooks.OnStepLeave)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LoggingHooks(logger)

	hooks.OnSubmit(context.Background(), &domain.SubmitEvent{EventBase: domain.EventBase{SessionID: "s1"}, BookingID: "b1"})
	assert.Contains(t, buf.String(), `"msg":"submitted"`)
	assert.Contains(t, buf.String(), `"booking_id":"b1"`)
}
