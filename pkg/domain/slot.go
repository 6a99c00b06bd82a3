package domain

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// AvailableSlot is a bookable time window on a given date.
type AvailableSlot struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Display   string `json:"display,omitempty"`
}

// SlotStatus is the lifecycle of the slot list for the selected date.
type SlotStatus string

const (
	SlotsIdle    SlotStatus = "idle"
	SlotsLoading SlotStatus = "loading"
	SlotsReady   SlotStatus = "ready"
	SlotsFailed  SlotStatus = "failed"
)

// SchedulingState is the serialisable view of the scheduling controller.
type SchedulingState struct {
	Status   SlotStatus      `json:"status"`
	Date     string          `json:"date,omitempty"`
	Slots    []AvailableSlot `json:"slots,omitempty"`
	Selected *AvailableSlot  `json:"selected,omitempty"`
	Reason   string          `json:"reason,omitempty"`
	Token    uint64          `json:"token"`
}

// Clone returns a deep copy.
func (s SchedulingState) Clone() SchedulingState {
	out := s
	if s.Slots != nil {
		out.Slots = append([]AvailableSlot(nil), s.Slots...)
	}
	if s.Selected != nil {
		sel := *s.Selected
		out.Selected = &sel
	}
	return out
}

// FindSlot returns the slot of the list starting at startTime.
func FindSlot(slots []AvailableSlot, date, startTime string) (AvailableSlot, bool) {
	for _, s := range slots {
		if s.Date == date && s.StartTime == startTime {
			return s, true
		}
	}
	return AvailableSlot{}, false
}
