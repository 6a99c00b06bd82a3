package scheduling

import (
	"fmt"

	"github.com/aretw0/bookflow/pkg/domain"
)

// Error reports a date or slot that can no longer be selected.
// It is recoverable by selecting again.
type Error struct {
	Code domain.ErrorCode
	Date string
	Slot string
}

func (e *Error) Error() string {
	if e.Slot != "" {
		return fmt.Sprintf("slot %s on %s: %s", e.Slot, e.Date, e.Code)
	}
	return fmt.Sprintf("date %q: %s", e.Date, e.Code)
}
