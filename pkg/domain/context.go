package domain

import "strings"

// Context is the aggregate the step predicates and validation rules read.
// The state machine owns it; everything else receives a clone.
type Context struct {
	Fields    map[FieldKey]FieldState
	Settings  Settings
	Service   *Service
	AreaCheck AreaCheckResult

	SelectedDate string
	SelectedSlot *AvailableSlot
	Slots        []AvailableSlot
	SlotStatus   SlotStatus

	// DisabledDate flags calendar days that cannot be booked. Nil means none.
	DisabledDate func(date string) bool
}

// NewContext returns an empty context for the given settings.
func NewContext(settings Settings) Context {
	return Context{
		Fields:     make(map[FieldKey]FieldState),
		Settings:   settings,
		AreaCheck:  AreaCheckResult{Status: AreaCheckIdle},
		SlotStatus: SlotsIdle,
	}
}

// Value returns the raw value of a field, or "" if it was never set.
func (c Context) Value(key FieldKey) string {
	return c.Fields[key].Value
}

// TrimmedValue returns the value with surrounding whitespace removed.
func (c Context) TrimmedValue(key FieldKey) string {
	return strings.TrimSpace(c.Value(key))
}

// AreaCheckEnabled is derived from the deployment settings.
func (c Context) AreaCheckEnabled() bool {
	return c.Settings.AreaCheckEnabled
}

// IsDateDisabled consults the calendar collaborator.
func (c Context) IsDateDisabled(date string) bool {
	if c.DisabledDate == nil {
		return false
	}
	return c.DisabledDate(date)
}

// Clone returns a copy that shares no mutable state with c.
func (c Context) Clone() Context {
	out := c
	out.Fields = make(map[FieldKey]FieldState, len(c.Fields))
	for k, v := range c.Fields {
		out.Fields[k] = v
	}
	if c.Service != nil {
		svc := *c.Service
		svc.Options = append([]ServiceOption(nil), c.Service.Options...)
		out.Service = &svc
	}
	if c.SelectedSlot != nil {
		slot := *c.SelectedSlot
		out.SelectedSlot = &slot
	}
	if c.Slots != nil {
		out.Slots = append([]AvailableSlot(nil), c.Slots...)
	}
	return out
}
