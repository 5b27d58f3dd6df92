package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"deepwork/internal/store"
)

// Phase is the lifecycle manager's state. Starting and Ending are the
// short-lived sub-states held while a store call is in flight; concurrent
// intents are rejected with ErrBusy rather than racing two creates or two
// terminations for the same session.
type Phase int

const (
	Idle Phase = iota
	Starting
	Running
	Paused
	Ending
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Ending:
		return "ending"
	default:
		return "unknown"
	}
}

// Outcome is how a session terminates.
type Outcome int

const (
	Completed Outcome = iota
	Cancelled
)

// status maps the outcome onto the persisted session status. Cancellation is
// recorded as interrupted.
func (o Outcome) status() string {
	if o == Cancelled {
		return store.SessionInterrupted
	}
	return store.SessionCompleted
}

// StartSpec describes a new session. TaskID is nil for a general, untargeted
// session.
type StartSpec struct {
	TaskID        *string
	Label         string
	TargetMinutes int
}

// EndSpec describes a termination. TaskStatus is the status the referenced
// task should move to when the outcome is Completed; empty means the
// manager's configured default. Ratings and notes are optional.
type EndSpec struct {
	Outcome            Outcome
	TaskStatus         string
	MoodRating         *int
	ProductivityRating *int
	Notes              *string
}

// EndResult is the outcome of a termination. Session is the terminated
// record; when the store update failed it is the locally computed terminal
// state, not yet persisted. TaskStatusErr carries a failed task status side
// effect, which never blocks termination.
type EndResult struct {
	Session       *store.FocusSession
	TaskStatusErr error
}

// Manager owns the at-most-one current focus session for a user. It is
// constructor-injected with its store, task gateway and clock; there is no
// package-level singleton. A mutex guards it because Bubble Tea commands and
// the tick loop run on separate goroutines.
type Manager struct {
	records RecordStore
	tasks   TaskGateway
	clock   Clock
	userID  string
	timeout time.Duration

	// completionStatus is the task status applied when the target duration is
	// reached and the session auto-completes.
	completionStatus string

	mu          sync.Mutex
	phase       Phase
	current     *store.FocusSession
	startedAt   time.Time     // most recent transition into Running
	accumulated time.Duration // elapsed before the most recent pause
	fired       bool // completion event emitted for this session
	subscribers []func(*EndResult)
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock substitutes the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithTimeout bounds each store call. Defaults to 5 seconds.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithCompletionTaskStatus sets the task status applied on auto-completion.
// Defaults to in_progress.
func WithCompletionTaskStatus(status string) Option {
	return func(m *Manager) { m.completionStatus = status }
}

func NewManager(records RecordStore, tasks TaskGateway, userID string, opts ...Option) *Manager {
	m := &Manager{
		records:          records,
		tasks:            tasks,
		clock:            SystemClock(),
		userID:           userID,
		timeout:          5 * time.Second,
		completionStatus: store.TaskInProgress,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Phase returns the current lifecycle phase.
func (m *Manager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Current returns a copy of the current session, or nil when idle.
func (m *Manager) Current() *store.FocusSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	c := *m.current
	return &c
}

// Start creates a session record and moves the manager to Running. On store
// failure the manager stays Idle and no transient state is retained.
func (m *Manager) Start(ctx context.Context, spec StartSpec) (*store.FocusSession, error) {
	if spec.TargetMinutes <= 0 {
		return nil, fmt.Errorf("target duration %dm: %w", spec.TargetMinutes, ErrInvalidArgument)
	}

	m.mu.Lock()
	switch m.phase {
	case Starting, Ending:
		m.mu.Unlock()
		return nil, ErrBusy
	case Idle:
	default:
		m.mu.Unlock()
		return nil, fmt.Errorf("start while %s: %w", m.phase, ErrIllegalTransition)
	}
	m.phase = Starting
	m.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	sess, err := m.records.CreateSession(cctx, m.userID, spec.TaskID, spec.Label, spec.TargetMinutes)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.phase = Idle
		return nil, fmt.Errorf("create session record: %w", err)
	}
	m.current = sess
	m.startedAt = m.clock.Now()
	m.accumulated = 0
	m.fired = false
	m.phase = Running
	c := *sess
	return &c, nil
}

// Pause folds the live delta into the accumulated total and stops counting.
// Local-only; it never blocks on the store.
func (m *Manager) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.phase {
	case Starting, Ending:
		return ErrBusy
	case Running:
	default:
		return fmt.Errorf("pause while %s: %w", m.phase, ErrIllegalTransition)
	}
	m.accumulated += m.clock.Now().Sub(m.startedAt)
	m.phase = Paused
	return nil
}

// Resume restarts counting from now. The paused gap is excluded from elapsed
// accounting. Local-only.
func (m *Manager) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.phase {
	case Starting, Ending:
		return ErrBusy
	case Paused:
	default:
		return fmt.Errorf("resume while %s: %w", m.phase, ErrIllegalTransition)
	}
	m.startedAt = m.clock.Now()
	m.phase = Running
	return nil
}

// End terminates the current session. The recorded duration is the elapsed
// time actually accounted, not the planned target. Termination is optimistic:
// the manager returns to Idle whether or not the store update succeeds, so a
// flaky store can never strand it outside Idle. On store failure the
// locally-computed terminal record is returned alongside the error; the
// caller reconciles via ActiveSession on next load.
func (m *Manager) End(ctx context.Context, spec EndSpec) (*EndResult, error) {
	if err := validateRating(spec.MoodRating); err != nil {
		return nil, err
	}
	if err := validateRating(spec.ProductivityRating); err != nil {
		return nil, err
	}

	m.mu.Lock()
	switch m.phase {
	case Starting, Ending:
		m.mu.Unlock()
		return nil, ErrBusy
	case Running, Paused:
	default:
		m.mu.Unlock()
		return nil, fmt.Errorf("end while %s: %w", m.phase, ErrIllegalTransition)
	}

	now := m.clock.Now()
	if m.phase == Running {
		m.accumulated += now.Sub(m.startedAt)
	}
	elapsed := m.accumulated
	durationMin := int(elapsed / time.Minute)
	status := spec.Outcome.status()

	id := m.current.ID
	taskID := m.current.TaskID
	local := *m.current
	local.Status = status
	local.EndTime = &now
	local.DurationMinutes = &durationMin
	m.phase = Ending
	m.mu.Unlock()

	patch := store.SessionPatch{
		Status:             &status,
		EndTime:            &now,
		DurationMinutes:    &durationMin,
		MoodRating:         spec.MoodRating,
		ProductivityRating: spec.ProductivityRating,
		Notes:              spec.Notes,
	}
	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	updated, updateErr := m.records.UpdateSession(cctx, id, patch)
	cancel()

	m.mu.Lock()
	m.phase = Idle
	m.current = nil
	m.accumulated = 0
	m.mu.Unlock()

	res := &EndResult{Session: &local}
	if updateErr == nil && updated != nil {
		res.Session = updated
	}

	if spec.Outcome == Completed && taskID != nil {
		taskStatus := spec.TaskStatus
		if taskStatus == "" {
			taskStatus = m.completionStatus
		}
		tctx, tcancel := context.WithTimeout(ctx, m.timeout)
		if err := m.tasks.SetTaskStatus(tctx, *taskID, taskStatus); err != nil {
			res.TaskStatusErr = fmt.Errorf("set task status: %w", err)
		}
		tcancel()
	}

	if updateErr != nil {
		return res, fmt.Errorf("update session record: %w", updateErr)
	}
	return res, nil
}

// History returns the user's persisted sessions, most recent first.
func (m *Manager) History(ctx context.Context, limit int) ([]store.FocusSession, error) {
	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.records.SessionHistory(cctx, m.userID, limit)
}

func validateRating(r *int) error {
	if r != nil && (*r < 1 || *r > 5) {
		return fmt.Errorf("rating %d outside 1..5: %w", *r, ErrInvalidArgument)
	}
	return nil
}
