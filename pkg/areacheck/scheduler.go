package areacheck

import "time"

// Scheduler runs f once after d. The returned stop function cancels the
// call and reports whether it was still pending.
type Scheduler func(d time.Duration, f func()) (stop func() bool)

// AfterFunc is the default Scheduler, backed by time.AfterFunc.
func AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
