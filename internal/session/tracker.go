package session

import (
	"context"
	"time"
)

// Elapsed-time tracking. All values derive from the transient state and the
// clock; a tick only triggers re-evaluation, it never accumulates anything,
// so the countdown stays correct across arbitrary tick jitter.

// Elapsed returns total time spent Running across all pause/resume cycles of
// the current session. Zero when idle.
func (m *Manager) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elapsedLocked(m.clock.Now())
}

func (m *Manager) elapsedLocked(now time.Time) time.Duration {
	if m.current == nil {
		return 0
	}
	if m.phase == Running {
		return m.accumulated + now.Sub(m.startedAt)
	}
	return m.accumulated
}

// Remaining returns time left until the target duration, clamped at zero.
func (m *Manager) Remaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return 0
	}
	target := time.Duration(m.current.TargetMinutes) * time.Minute
	left := target - m.elapsedLocked(m.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

// Progress returns elapsed over target in [0, 1].
func (m *Manager) Progress() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return 0
	}
	target := time.Duration(m.current.TargetMinutes) * time.Minute
	p := float64(m.elapsedLocked(m.clock.Now())) / float64(target)
	if p > 1 {
		return 1
	}
	return p
}

// OnCompletion registers fn to be called with the terminated record when a
// session reaches its target duration. Fired at most once per session.
func (m *Manager) OnCompletion(fn func(*EndResult)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// Tick checks the completion deadline. On the first tick at or past the
// target while Running it terminates the session exactly as
// End(Completed) would, notifies subscribers, and returns the result.
// Subsequent ticks are no-ops until a new session starts (edge-triggered).
// Returns (nil, nil) when nothing happened.
func (m *Manager) Tick(ctx context.Context) (*EndResult, error) {
	m.mu.Lock()
	if m.phase != Running || m.fired || m.current == nil {
		m.mu.Unlock()
		return nil, nil
	}
	target := time.Duration(m.current.TargetMinutes) * time.Minute
	if m.elapsedLocked(m.clock.Now()) < target {
		m.mu.Unlock()
		return nil, nil
	}
	m.fired = true
	subs := make([]func(*EndResult), len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	res, err := m.End(ctx, EndSpec{Outcome: Completed})
	if res != nil {
		for _, fn := range subs {
			fn(res)
		}
	}
	return res, err
}
