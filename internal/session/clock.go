package session

import "time"

// Clock provides wall-clock time. Elapsed time is always computed from
// timestamp deltas against it, never from tick counts, so missed or delayed
// ticks cannot under-count a session.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real wall clock.
func SystemClock() Clock { return systemClock{} }
