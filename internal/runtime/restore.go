package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/bookflow/pkg/domain"
)

// Restore loads a persisted snapshot into a fresh machine.
//
// A submission that was interrupted is reported as failed so it can be
// retried. When the stored step is no longer visible the machine jumps
// forward to the nearest visible step.
func (m *Machine) Restore(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("restore session %q: nil snapshot", m.id)
	}
	if snap.Sealed != "" {
		return fmt.Errorf("restore session %q: snapshot is still sealed", m.id)
	}
	if _, ok := m.registry.Step(snap.CurrentStep); !ok {
		return fmt.Errorf("restore session %q: unknown step %d", m.id, snap.CurrentStep)
	}

	return m.mutate(ctx, func(fx *effects) error {
		m.ctx.Fields = make(map[domain.FieldKey]domain.FieldState, len(snap.Fields))
		for k, v := range snap.Fields {
			m.ctx.Fields[k] = v
		}

		m.ctx.Service = nil
		if s, ok := m.services[m.ctx.TrimmedValue(domain.FieldService)]; ok {
			m.ctx.Service = &s
		}

		if m.area != nil {
			m.area.Restore(snap.AreaCheck)
		} else {
			m.ctx.AreaCheck = snap.AreaCheck
		}
		if m.sched != nil {
			if m.ctx.Service != nil {
				m.sched.SetService(m.ctx.Service.ID, m.ctx.Service.Duration)
			}
			m.sched.Restore(ctx, snap.Scheduling)
		}

		m.status = snap.Status
		m.bookingID = snap.BookingID
		m.submitErr = snap.SubmitError
		if m.status == domain.StatusSubmitting {
			m.status = domain.StatusSubmitFailed
			m.submitErr = "submission interrupted"
		}

		m.current = snap.CurrentStep
		m.history = append([]domain.StepID(nil), snap.History...)
		if len(m.history) == 0 {
			m.history = []domain.StepID{m.current}
		}
		m.updatedAt = snap.UpdatedAt

		fx.enter(m, m.current)
		m.viewLocked()
		m.refreshErrorsLocked()
		m.normalizeLocked(fx)
		return nil
	})
}
