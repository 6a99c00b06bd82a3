package runtime

import (
	"context"

	"github.com/aretw0/bookflow/pkg/domain"
)

// Advance validates the current step and moves to the next visible step.
// On failure the failing fields get their error set and a *StepBlockedError
// is returned; the current step does not change.
func (m *Machine) Advance(ctx context.Context) error {
	return m.mutate(ctx, func(fx *effects) error {
		if err := m.checkEditableLocked(); err != nil {
			return err
		}

		view := m.viewLocked()
		step, _ := m.registry.Step(m.current)

		if errs := m.gateStepLocked(step, view); len(errs) > 0 {
			fx.validationFailed(m, step.ID, errs)
			return &StepBlockedError{Step: step.ID, Errors: errs}
		}
		if step.Complete != nil && !step.Complete(view) {
			fx.validationFailed(m, step.ID, nil)
			return &StepBlockedError{Step: step.ID}
		}

		next, ok := m.registry.Next(step.ID, view)
		if !ok {
			return ErrNoNextStep
		}
		m.transitionLocked(fx, next.ID)
		return nil
	})
}

// Retreat moves to the previous visible step without validating.
// Values and errors are kept.
func (m *Machine) Retreat(ctx context.Context) error {
	return m.mutate(ctx, func(fx *effects) error {
		if err := m.checkEditableLocked(); err != nil {
			return err
		}
		prev, ok := m.registry.Prev(m.current, m.viewLocked())
		if !ok {
			return ErrNoPreviousStep
		}
		m.transitionLocked(fx, prev.ID)
		return nil
	})
}

// CanSubmit reports whether the current step is terminal and every visible
// step is complete.
func (m *Machine) CanSubmit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canSubmitLocked(m.viewLocked())
}

// UpdateSettings replaces the form settings. When the current step becomes
// hidden the machine jumps forward to the nearest visible step.
func (m *Machine) UpdateSettings(ctx context.Context, s domain.Settings) {
	_ = m.mutate(ctx, func(fx *effects) error {
		m.ctx.Settings = s
		m.viewLocked()
		m.refreshErrorsLocked()
		m.normalizeLocked(fx)
		return nil
	})
}

func (m *Machine) canSubmitLocked(view domain.Context) bool {
	if m.status != domain.StatusActive && m.status != domain.StatusSubmitFailed {
		return false
	}
	step, ok := m.registry.Step(m.current)
	if !ok || !step.Terminal {
		return false
	}
	for _, s := range m.registry.Visible(view) {
		if !m.registry.IsComplete(s.ID, view) {
			return false
		}
	}
	return true
}

// gateStepLocked validates every field of step and sets the error of each
// failing one. It returns the failures.
func (m *Machine) gateStepLocked(step domain.Step, view domain.Context) map[domain.FieldKey]domain.ErrorCode {
	errs := make(map[domain.FieldKey]domain.ErrorCode)
	for _, key := range step.AllFields(view) {
		fs := m.ctx.Fields[key]
		code := m.gateCode(key, fs.Value, view)
		if code == "" {
			continue
		}
		fs.Error = code
		m.ctx.Fields[key] = fs
		errs[key] = code
	}
	return errs
}

// gateCode is the error of a field when the visitor tries to move on.
// On top of its rule, the zip must have passed the area check.
func (m *Machine) gateCode(key domain.FieldKey, value string, view domain.Context) domain.ErrorCode {
	if code := m.rules.Check(key, value, view); code != "" {
		return code
	}
	if key == domain.FieldZip && view.AreaCheckEnabled() {
		if view.AreaCheck.Zip != view.TrimmedValue(domain.FieldZip) {
			return domain.CodeAreaPending
		}
		return view.AreaCheck.BlockingCode()
	}
	return ""
}

// refreshErrorsLocked re-evaluates every displayed error: errors that now
// pass are cleared and the others follow the current code. Fields outside
// the visible steps lose their error but keep their value. It never shows
// an error that is not displayed already.
func (m *Machine) refreshErrorsLocked() {
	view := m.ctx.Clone()
	visible := make(map[domain.FieldKey]bool)
	for _, key := range m.registry.VisibleFields(view) {
		visible[key] = true
	}
	for key, fs := range m.ctx.Fields {
		if !fs.HasError() {
			continue
		}
		if visible[key] {
			fs.Error = m.gateCode(key, fs.Value, view)
		} else {
			fs.Error = ""
		}
		m.ctx.Fields[key] = fs
	}
}

// normalizeLocked jumps forward to the nearest visible step when the
// current one has become hidden.
func (m *Machine) normalizeLocked(fx *effects) {
	view := m.viewLocked()
	if m.registry.IsVisible(m.current, view) {
		return
	}
	to := m.registry.NearestVisibleFrom(m.current, view)
	m.logger.Debug("current step hidden, jumping forward", "from", m.current, "to", to.ID)
	m.transitionLocked(fx, to.ID)
}

func (m *Machine) checkEditableLocked() error {
	switch m.status {
	case domain.StatusSubmitting:
		return domain.ErrSubmitInProgress
	case domain.StatusSubmitted:
		return domain.ErrAlreadySubmitted
	}
	return nil
}
