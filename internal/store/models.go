package store

import "time"

// Session status values, matching the focus_sessions.status column.
const (
	SessionActive      = "active"
	SessionPaused      = "paused"
	SessionCompleted   = "completed"
	SessionInterrupted = "interrupted"
)

// Task status values, matching the tasks.status column.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskArchived   = "archived"
)

type Task struct {
	ID               string
	UserID           string
	Title            string
	Description      string
	Priority         int
	Status           string
	EstimatedMinutes *int
	DueDate          *time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FocusSession is one timed work interval, targeted at a task or general.
type FocusSession struct {
	ID                 string
	UserID             string
	TaskID             *string
	Label              string
	StartTime          time.Time
	EndTime            *time.Time
	TargetMinutes      int
	DurationMinutes    *int
	Status             string
	Interruptions      int
	MoodRating         *int
	ProductivityRating *int
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Current reports whether the session still occupies the per-user
// current-session slot.
func (s *FocusSession) Current() bool {
	return s.Status == SessionActive || s.Status == SessionPaused
}

// SessionPatch describes a partial update to a focus session. Nil fields are
// left untouched.
type SessionPatch struct {
	Status             *string
	EndTime            *time.Time
	DurationMinutes    *int
	Interruptions      *int
	MoodRating         *int
	ProductivityRating *int
	Notes              *string
}

// SessionFilter is used to filter session queries.
type SessionFilter struct {
	TaskID *string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// DayFocus is the per-day aggregate consumed by the stats view.
type DayFocus struct {
	Date           string
	TotalMinutes   int64
	SessionCount   int
	CompletedCount int
}

type Setting struct {
	Key   string
	Value string
}
