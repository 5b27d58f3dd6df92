package tui

import (
	"fmt"
	"time"

	"deepwork/internal/session"
	"deepwork/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewFocus viewState = iota
	viewTasks
	viewStats
	viewSettings
)

var viewNames = []string{"Focus", "Tasks", "Stats", "Settings"}

// --- Messages ---

type sessionStartedMsg struct {
	sess *store.FocusSession
}

type sessionStartFailedMsg struct {
	err error
}

// sessionEndedMsg carries a termination, whether user-initiated or fired by
// the completion deadline.
type sessionEndedMsg struct {
	res       *session.EndResult
	err       error
	completed bool // reached the target, show the summary form
}

type tasksDataMsg struct {
	tasks []store.Task
}

type statsDataMsg struct {
	days    []store.DayFocus
	history []store.FocusSession
}

type settingsDataMsg struct {
	settings []store.Setting
}

type summarySavedMsg struct{}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatCountdown renders mm:ss, rolling over to h:mm:ss past an hour.
func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d >= time.Hour {
		return formatDuration(d)
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

func formatMinutes(mins int64) string {
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %02dm", mins/60, mins%60)
}
