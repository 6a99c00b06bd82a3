package domain

import "reflect"

// SnapshotDiff represents the changes between two snapshots.
// It is serialised to JSON for partial updates on the client.
type SnapshotDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentStep *StepID `json:"current_step,omitempty"`
	Status      *Status `json:"status,omitempty"`

	// Fields contains only changed, added or deleted fields.
	// Deleted fields are present with a nil value.
	Fields map[FieldKey]*FieldState `json:"fields,omitempty"`

	AreaCheck  *AreaCheckResult `json:"area_check,omitempty"`
	Scheduling *SchedulingState `json:"scheduling,omitempty"`

	BookingID   *string `json:"booking_id,omitempty"`
	SubmitError *string `json:"submit_error,omitempty"`

	History *HistoryDelta `json:"history,omitempty"`
}

// HistoryDelta lists steps appended to the history.
type HistoryDelta struct {
	Appended []StepID `json:"appended"`
}

// Diff calculates the difference between prev and next.
// If prev is nil, the diff carries the whole of next (initial load).
// It returns nil when nothing changed.
func Diff(prev, next *Snapshot) *SnapshotDiff {
	if next == nil {
		return nil
	}

	diff := &SnapshotDiff{SessionID: next.SessionID}

	if prev == nil || prev.CurrentStep != next.CurrentStep {
		step := next.CurrentStep
		diff.CurrentStep = &step
	}
	if prev == nil || prev.Status != next.Status {
		status := next.Status
		diff.Status = &status
	}
	if prev == nil || prev.AreaCheck != next.AreaCheck {
		ac := next.AreaCheck
		diff.AreaCheck = &ac
	}
	if prev == nil || !reflect.DeepEqual(prev.Scheduling, next.Scheduling) {
		sch := next.Scheduling.Clone()
		diff.Scheduling = &sch
	}
	if (prev == nil && next.BookingID != "") || (prev != nil && prev.BookingID != next.BookingID) {
		id := next.BookingID
		diff.BookingID = &id
	}
	if (prev == nil && next.SubmitError != "") || (prev != nil && prev.SubmitError != next.SubmitError) {
		reason := next.SubmitError
		diff.SubmitError = &reason
	}

	diff.Fields = diffFields(prev, next)
	diff.History = diffHistory(prev, next)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffFields(prev, next *Snapshot) map[FieldKey]*FieldState {
	delta := make(map[FieldKey]*FieldState)

	for k, v := range next.Fields {
		if prev != nil {
			if old, ok := prev.Fields[k]; ok && old == v {
				continue
			}
		}
		fs := v
		delta[k] = &fs
	}

	if prev != nil {
		for k := range prev.Fields {
			if _, ok := next.Fields[k]; !ok {
				delta[k] = nil
			}
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffHistory assumes append-only history.
func diffHistory(prev, next *Snapshot) *HistoryDelta {
	if len(next.History) == 0 {
		return nil
	}
	if prev == nil {
		return &HistoryDelta{Appended: append([]StepID(nil), next.History...)}
	}
	if len(next.History) > len(prev.History) {
		return &HistoryDelta{Appended: append([]StepID(nil), next.History[len(prev.History):]...)}
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.CurrentStep == nil &&
		d.Status == nil &&
		d.AreaCheck == nil &&
		d.Scheduling == nil &&
		d.BookingID == nil &&
		d.SubmitError == nil &&
		len(d.Fields) == 0 &&
		d.History == nil
}
