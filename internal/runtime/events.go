package runtime

import (
	"context"
	"time"

	"github.com/aretw0/bookflow/pkg/areacheck"
	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/scheduling"
)

func (m *Machine) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: m.now(), Type: t, SessionID: m.id}
}

func (fx *effects) enter(m *Machine, step domain.StepID) {
	m.logger.Debug("step entered", "step", step)
	if m.hooks.OnStepEnter == nil {
		return
	}
	evt := &domain.StepEvent{EventBase: m.base(domain.EventStepEnter), Step: step}
	fx.add(func(ctx context.Context) { m.hooks.OnStepEnter(ctx, evt) })
}

func (fx *effects) leave(m *Machine, step domain.StepID) {
	if m.hooks.OnStepLeave == nil {
		return
	}
	evt := &domain.StepEvent{EventBase: m.base(domain.EventStepLeave), Step: step}
	fx.add(func(ctx context.Context) { m.hooks.OnStepLeave(ctx, evt) })
}

func (fx *effects) validationFailed(m *Machine, step domain.StepID, errs map[domain.FieldKey]domain.ErrorCode) {
	m.logger.Debug("validation failed", "step", step, "fields", len(errs))
	if m.hooks.OnValidationFailed == nil {
		return
	}
	evt := &domain.ValidationEvent{EventBase: m.base(domain.EventValidationFailed), Step: step, Errors: errs}
	fx.add(func(ctx context.Context) { m.hooks.OnValidationFailed(ctx, evt) })
}

func (fx *effects) submitted(m *Machine, bookingID string, err error, d time.Duration) {
	if m.hooks.OnSubmit == nil {
		return
	}
	evt := &domain.SubmitEvent{EventBase: m.base(domain.EventSubmit), BookingID: bookingID, Duration: d}
	if err != nil {
		evt.Err = err.Error()
	}
	fx.add(func(ctx context.Context) { m.hooks.OnSubmit(ctx, evt) })
}

// transitionLocked moves the current step and records it in the history.
func (m *Machine) transitionLocked(fx *effects, to domain.StepID) {
	if to == m.current {
		return
	}
	fx.leave(m, m.current)
	m.current = to
	m.history = append(m.history, to)
	fx.enter(m, to)
}

// onAreaCheck applies a resolved area check to the context.
func (m *Machine) onAreaCheck(u areacheck.Update) {
	_ = m.mutate(context.Background(), func(fx *effects) error {
		m.viewLocked()
		m.refreshErrorsLocked()
		if m.hooks.OnAreaCheck != nil {
			evt := &domain.AreaCheckEvent{EventBase: m.base(domain.EventAreaCheck), Result: u.Result, Duration: u.Duration}
			fx.add(func(ctx context.Context) { m.hooks.OnAreaCheck(ctx, evt) })
		}
		return nil
	})
}

// onSlots applies a resolved slot fetch to the context.
func (m *Machine) onSlots(u scheduling.Update) {
	_ = m.mutate(context.Background(), func(fx *effects) error {
		m.viewLocked()
		m.refreshErrorsLocked()
		if m.hooks.OnSlotsLoaded != nil {
			evt := &domain.SlotsEvent{EventBase: m.base(domain.EventSlotsLoaded), Date: u.State.Date, Count: len(u.State.Slots)}
			if u.Err != nil {
				evt.Err = u.Err.Error()
			}
			fx.add(func(ctx context.Context) { m.hooks.OnSlotsLoaded(ctx, evt) })
		}
		return nil
	})
}
