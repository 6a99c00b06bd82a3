package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/scheduling"
	"github.com/aretw0/bookflow/pkg/validation"
)

// SetFieldValue stores value, marks the field touched and revalidates it.
// A passing value clears the displayed error; a failing one only updates
// the code of an error that is already displayed.
//
// The zip is forwarded to the area check, a service change re-resolves the
// catalog entry, and date and time_slot go through the scheduling controller.
func (m *Machine) SetFieldValue(ctx context.Context, key domain.FieldKey, value string) error {
	value, err := validation.Sanitize(value)
	if err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}

	switch key {
	case domain.FieldDate:
		return m.SelectDate(ctx, value)
	case domain.FieldTimeSlot:
		return m.SelectSlot(ctx, value)
	}

	return m.mutate(ctx, func(fx *effects) error {
		if err := m.checkEditableLocked(); err != nil {
			return err
		}
		view := m.viewLocked()
		if !m.knownFieldLocked(key, view) {
			return fmt.Errorf("%w: %q", domain.ErrUnknownField, key)
		}

		prev := m.ctx.Fields[key]
		m.ctx.Fields[key] = domain.FieldState{Value: value, Touched: true, Error: prev.Error}

		switch key {
		case domain.FieldZip:
			m.forwardZipLocked(prev.Value, value)
		case domain.FieldService:
			m.resolveServiceLocked(ctx, value)
		}

		view = m.viewLocked()
		fs := m.ctx.Fields[key]
		if code := m.rules.Check(key, value, view); code == "" {
			fs.Error = ""
		} else if fs.HasError() {
			fs.Error = code
		}
		m.ctx.Fields[key] = fs

		m.refreshErrorsLocked()
		m.normalizeLocked(fx)
		return nil
	})
}

// SelectDate selects a calendar day and starts fetching its slots.
// Disabled or malformed dates return a *scheduling.Error and set the date
// error; the selected date and slots are left untouched.
func (m *Machine) SelectDate(ctx context.Context, date string) error {
	return m.mutate(ctx, func(fx *effects) error {
		if err := m.checkEditableLocked(); err != nil {
			return err
		}
		if m.sched == nil {
			return ErrSchedulingUnavailable
		}

		date = strings.TrimSpace(date)
		if err := m.sched.SelectDate(ctx, date); err != nil {
			var se *scheduling.Error
			if errors.As(err, &se) {
				fs := m.ctx.Fields[domain.FieldDate]
				fs.Touched = true
				fs.Error = se.Code
				m.ctx.Fields[domain.FieldDate] = fs
			}
			return err
		}

		m.ctx.Fields[domain.FieldDate] = domain.FieldState{Value: date, Touched: true}
		m.clearSlotFieldLocked()
		m.viewLocked()
		m.refreshErrorsLocked()
		return nil
	})
}

// SelectSlot selects one of the slots fetched for the selected date.
func (m *Machine) SelectSlot(ctx context.Context, startTime string) error {
	return m.mutate(ctx, func(fx *effects) error {
		if err := m.checkEditableLocked(); err != nil {
			return err
		}
		if m.sched == nil {
			return ErrSchedulingUnavailable
		}

		slot, err := m.sched.SelectSlot(startTime)
		if err != nil {
			var se *scheduling.Error
			if errors.As(err, &se) {
				fs := m.ctx.Fields[domain.FieldTimeSlot]
				fs.Touched = true
				fs.Error = se.Code
				m.ctx.Fields[domain.FieldTimeSlot] = fs
			}
			return err
		}

		m.ctx.Fields[domain.FieldTimeSlot] = domain.FieldState{Value: slot.StartTime, Touched: true}
		m.viewLocked()
		m.refreshErrorsLocked()
		return nil
	})
}

// clearSlotFieldLocked empties the time slot value, keeping any displayed error.
func (m *Machine) clearSlotFieldLocked() {
	fs, ok := m.ctx.Fields[domain.FieldTimeSlot]
	if !ok {
		return
	}
	fs.Value = ""
	m.ctx.Fields[domain.FieldTimeSlot] = fs
}

// forwardZipLocked hands a changed zip to the area check. An unchanged zip
// keeps a pending or successful check instead of starting over.
func (m *Machine) forwardZipLocked(prev, value string) {
	if m.area == nil {
		return
	}
	res := m.area.Result()
	unchanged := strings.TrimSpace(prev) == strings.TrimSpace(value)
	if unchanged && (res.Status == domain.AreaCheckPending || res.Status == domain.AreaCheckSuccess) {
		return
	}
	// Invalid input comes back as a field error; the rules report it below.
	_ = m.area.OnZipInput(value)
}

// resolveServiceLocked points the context at the catalog entry of id.
// Changing service rescopes the slot query and refetches the selected date.
func (m *Machine) resolveServiceLocked(ctx context.Context, id string) {
	id = strings.TrimSpace(id)
	var svc *domain.Service
	if s, ok := m.services[id]; ok {
		svc = &s
	}
	m.ctx.Service = svc

	if m.sched == nil {
		return
	}
	duration := 0
	if svc != nil {
		duration = svc.Duration
	}
	if m.sched.SetService(id, duration) && m.sched.State().Date != "" {
		m.sched.Refresh(ctx)
		m.clearSlotFieldLocked()
	}
}

// knownFieldLocked reports whether some step declares key for the current context.
func (m *Machine) knownFieldLocked(key domain.FieldKey, view domain.Context) bool {
	for _, s := range m.registry.Steps() {
		for _, f := range s.AllFields(view) {
			if f == key {
				return true
			}
		}
	}
	return false
}
