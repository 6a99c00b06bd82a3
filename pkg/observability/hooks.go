package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/bookflow/pkg/domain"
)

// Combine merges hook sets; each event is delivered to every set in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnStepEnter = chain(out.OnStepEnter, h.OnStepEnter)
		out.OnStepLeave = chain(out.OnStepLeave, h.OnStepLeave)
		out.OnValidationFailed = chain(out.OnValidationFailed, h.OnValidationFailed)
		out.OnAreaCheck = chain(out.OnAreaCheck, h.OnAreaCheck)
		out.OnSlotsLoaded = chain(out.OnSlotsLoaded, h.OnSlotsLoaded)
		out.OnSubmit = chain(out.OnSubmit, h.OnSubmit)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LoggingHooks writes one structured record per lifecycle event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.InfoContext(ctx, "step_enter", "session_id", e.SessionID, "step", e.Step.String())
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_leave", "session_id", e.SessionID, "step", e.Step.String())
		},
		OnValidationFailed: func(ctx context.Context, e *domain.ValidationEvent) {
			logger.InfoContext(ctx, "validation_failed",
				"session_id", e.SessionID,
				"step", e.Step.String(),
				"errors", len(e.Errors),
			)
		},
		OnAreaCheck: func(ctx context.Context, e *domain.AreaCheckEvent) {
			logger.InfoContext(ctx, "area_check",
				"session_id", e.SessionID,
				"status", string(e.Result.Status),
				"serviceable", e.Result.Serviceable,
				"duration", e.Duration,
			)
		},
		OnSlotsLoaded: func(ctx context.Context, e *domain.SlotsEvent) {
			logger.DebugContext(ctx, "slots_loaded",
				"session_id", e.SessionID,
				"date", e.Date,
				"count", e.Count,
				"err", e.Err,
			)
		},
		OnSubmit: func(ctx context.Context, e *domain.SubmitEvent) {
			if e.Err != "" {
				logger.WarnContext(ctx, "submit_failed", "session_id", e.SessionID, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "submitted", "session_id", e.SessionID, "booking_id", e.BookingID)
		},
	}
}
