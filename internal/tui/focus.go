package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"deepwork/internal/session"
	"deepwork/internal/store"
)

type focusStage int

const (
	stagePick    focusStage = iota // choosing a task and duration
	stageLive                      // session running or paused
	stageSummary                   // post-termination rating form
)

var durationSteps = []int{5, 10, 15, 25, 50, 90}

type focusModel struct {
	mgr    *session.Manager
	store  *store.Store
	userID string
	width  int
	height int

	stage         focusStage
	tasks         []store.Task
	cursor        int // 0 = general session, 1..n = tasks
	targetMinutes int

	todayMinutes int64

	// Summary form state; field pointers survive value copies.
	ended        *store.FocusSession
	form         *huh.Form
	mood         *string
	productivity *string
	notes        *string
}

func newFocusModel(mgr *session.Manager, s *store.Store, userID string) focusModel {
	mood, productivity, notes := "", "", ""
	m := focusModel{
		mgr:           mgr,
		store:         s,
		userID:        userID,
		targetMinutes: 25,
		mood:          &mood,
		productivity:  &productivity,
		notes:         &notes,
	}
	if v, err := s.GetSetting("target_duration"); err == nil {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			m.targetMinutes = n
		}
	}
	return m
}

func (f *focusModel) setSize(w, h int) {
	f.width = w
	f.height = h
}

func (f focusModel) formActive() bool {
	return f.stage == stageSummary && f.form != nil
}

type focusDataMsg struct {
	tasks        []store.Task
	todayMinutes int64
}

func (f focusModel) refresh() tea.Cmd {
	return func() tea.Msg {
		all, _ := f.store.ListTasks(f.userID, false)
		// Completed tasks are not offered as focus targets.
		var open []store.Task
		for _, t := range all {
			if t.Status != store.TaskCompleted {
				open = append(open, t)
			}
		}
		total, _ := f.store.TodayFocusMinutes(context.Background(), f.userID)
		return focusDataMsg{tasks: open, todayMinutes: total}
	}
}

func (f focusModel) update(msg tea.Msg) (focusModel, tea.Cmd) {
	if f.formActive() {
		return f.updateSummaryForm(msg)
	}

	switch msg := msg.(type) {
	case focusDataMsg:
		f.tasks = msg.tasks
		f.todayMinutes = msg.todayMinutes
		if f.cursor > len(f.tasks) {
			f.cursor = len(f.tasks)
		}
		return f, nil

	case tickMsg:
		if f.stage == stageLive {
			return f, f.tickSession()
		}
		return f, nil

	case sessionStartedMsg:
		f.stage = stageLive
		return f, func() tea.Msg {
			return statusMsg{text: "Session started"}
		}

	case sessionStartFailedMsg:
		// Stay on the pre-session screen; nothing was created.
		f.stage = stagePick
		return f, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Could not start session: %v", msg.err), isError: true}
		}

	case sessionEndedMsg:
		return f.handleEnded(msg)

	case summarySavedMsg:
		f.stage = stagePick
		f.ended = nil
		return f, tea.Batch(f.refresh(), func() tea.Msg {
			return statusMsg{text: "Session saved"}
		})

	case tea.KeyMsg:
		switch f.stage {
		case stagePick:
			return f.updatePick(msg)
		case stageLive:
			return f.updateLive(msg)
		}
	}
	return f, nil
}

func (f focusModel) updatePick(msg tea.KeyMsg) (focusModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if f.cursor > 0 {
			f.cursor--
		}
	case key.Matches(msg, keys.Down):
		if f.cursor < len(f.tasks) {
			f.cursor++
		}
	case key.Matches(msg, keys.Left):
		f.targetMinutes = stepDuration(f.targetMinutes, -1)
	case key.Matches(msg, keys.Right):
		f.targetMinutes = stepDuration(f.targetMinutes, +1)
	case key.Matches(msg, keys.Start), key.Matches(msg, keys.Enter):
		return f, f.startSession()
	}
	return f, nil
}

func (f focusModel) updateLive(msg tea.KeyMsg) (focusModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Pause):
		switch f.mgr.Phase() {
		case session.Running:
			if err := f.mgr.Pause(); err != nil {
				return f, errStatus(err)
			}
			// Record the interruption in the background; best-effort.
			var cmd tea.Cmd
			if cur := f.mgr.Current(); cur != nil {
				id := cur.ID
				cmd = func() tea.Msg {
					f.store.AddInterruption(context.Background(), id)
					return nil
				}
			}
			return f, cmd
		case session.Paused:
			if err := f.mgr.Resume(); err != nil {
				return f, errStatus(err)
			}
		}
		return f, nil

	case key.Matches(msg, keys.End):
		// Abandon: the session is recorded as interrupted.
		return f, f.endSession(session.EndSpec{Outcome: session.Cancelled})

	case key.Matches(msg, keys.Complete):
		// Explicit "complete & end": the task is done too.
		return f, f.endSession(session.EndSpec{
			Outcome:    session.Completed,
			TaskStatus: store.TaskCompleted,
		})
	}
	return f, nil
}

func (f focusModel) startSession() tea.Cmd {
	spec := session.StartSpec{TargetMinutes: f.targetMinutes}
	if f.cursor > 0 && f.cursor <= len(f.tasks) {
		task := f.tasks[f.cursor-1]
		spec.TaskID = &task.ID
		spec.Label = "Focus on: " + task.Title
	}
	mgr := f.mgr
	return func() tea.Msg {
		sess, err := mgr.Start(context.Background(), spec)
		if err != nil {
			return sessionStartFailedMsg{err: err}
		}
		return sessionStartedMsg{sess: sess}
	}
}

func (f focusModel) endSession(spec session.EndSpec) tea.Cmd {
	mgr := f.mgr
	completed := spec.Outcome == session.Completed
	return func() tea.Msg {
		res, err := mgr.End(context.Background(), spec)
		return sessionEndedMsg{res: res, err: err, completed: completed}
	}
}

// tickSession drives completion detection; the manager auto-terminates when
// the target duration is reached.
func (f focusModel) tickSession() tea.Cmd {
	mgr := f.mgr
	return func() tea.Msg {
		res, err := mgr.Tick(context.Background())
		if res == nil && err == nil {
			return nil
		}
		return sessionEndedMsg{res: res, err: err, completed: true}
	}
}

func (f focusModel) handleEnded(msg sessionEndedMsg) (focusModel, tea.Cmd) {
	var cmds []tea.Cmd

	if msg.err != nil {
		// Optimistic local termination: we are back on the pick screen
		// regardless; the record reconciles on next load.
		cmds = append(cmds, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Session ended locally, save failed: %v", msg.err), isError: true}
		})
	} else if msg.res != nil && msg.res.TaskStatusErr != nil {
		err := msg.res.TaskStatusErr
		cmds = append(cmds, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Session saved, task update failed: %v", err), isError: true}
		})
	}

	// Rate completed sessions that were persisted; skip the form otherwise.
	if msg.completed && msg.err == nil && msg.res != nil {
		f.ended = msg.res.Session
		f.stage = stageSummary
		f.buildSummaryForm()
		cmds = append(cmds, f.form.Init())
		return f, tea.Batch(cmds...)
	}

	f.stage = stagePick
	cmds = append(cmds, f.refresh())
	return f, tea.Batch(cmds...)
}

func ratingOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, 6)
	opts = append(opts, huh.NewOption("skip", ""))
	for i := 1; i <= 5; i++ {
		opts = append(opts, huh.NewOption(strings.Repeat("★", i), strconv.Itoa(i)))
	}
	return opts
}

func (f *focusModel) buildSummaryForm() {
	*f.mood = ""
	*f.productivity = ""
	*f.notes = ""

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Mood").Options(ratingOptions()...).Value(f.mood),
			huh.NewSelect[string]().Title("Productivity").Options(ratingOptions()...).Value(f.productivity),
			huh.NewInput().Title("Notes").Value(f.notes),
		).Title("How did it go?"),
	).WithShowHelp(true).WithShowErrors(true)
}

func (f focusModel) updateSummaryForm(msg tea.Msg) (focusModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			f.form = nil
			f.stage = stagePick
			f.ended = nil
			return f, f.refresh()
		}
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	if f.form.State == huh.StateCompleted {
		f.form = nil
		return f, f.saveSummary()
	}
	return f, cmd
}

func (f focusModel) saveSummary() tea.Cmd {
	if f.ended == nil {
		return func() tea.Msg { return summarySavedMsg{} }
	}
	id := f.ended.ID
	patch := store.SessionPatch{}
	if n, err := strconv.Atoi(*f.mood); err == nil && n >= 1 && n <= 5 {
		patch.MoodRating = &n
	}
	if n, err := strconv.Atoi(*f.productivity); err == nil && n >= 1 && n <= 5 {
		patch.ProductivityRating = &n
	}
	if *f.notes != "" {
		notes := *f.notes
		patch.Notes = &notes
	}
	s := f.store
	return func() tea.Msg {
		if _, err := s.UpdateSession(context.Background(), id, patch); err != nil {
			return statusMsg{text: fmt.Sprintf("Could not save ratings: %v", err), isError: true}
		}
		return summarySavedMsg{}
	}
}

func stepDuration(current, dir int) int {
	for i, step := range durationSteps {
		if step == current {
			j := i + dir
			if j < 0 || j >= len(durationSteps) {
				return current
			}
			return durationSteps[j]
		}
	}
	return durationSteps[3] // back to the 25-minute default
}

func errStatus(err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
	}
}

// --- Views ---

func (f focusModel) view() string {
	switch {
	case f.formActive():
		return f.viewSummary()
	case f.stage == stageLive:
		return f.viewLive()
	default:
		return f.viewPick()
	}
}

func (f focusModel) viewPick() string {
	w := f.width - 4

	title := titleStyle.Render("Ready to Focus?")
	duration := fmt.Sprintf("Duration: %s %d min %s",
		mutedStyle.Render("←"), f.targetMinutes, mutedStyle.Render("→"))

	var rows []string
	rows = append(rows, title, "", duration, "")

	items := make([]string, 0, len(f.tasks)+1)
	items = append(items, "General focus (no task)")
	for _, t := range f.tasks {
		marker := " "
		if t.Status == store.TaskInProgress {
			marker = accentStyle.Render("▸")
		}
		items = append(items, fmt.Sprintf("%s %s %s", marker, t.Title, mutedStyle.Render(taskMeta(t))))
	}
	for i, it := range items {
		cursor := "  "
		style := normalItemStyle
		if i == f.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+it))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("Today: %s focused", formatMinutes(f.todayMinutes))))
	rows = append(rows, mutedStyle.Render("s/enter: start  ←/→: duration  2: tasks"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (f focusModel) viewLive() string {
	w := f.width - 4

	cur := f.mgr.Current()
	label := "General focus"
	if cur != nil && cur.Label != "" {
		label = cur.Label
	}

	remaining := formatCountdown(f.mgr.Remaining())
	var countdown, phaseLabel string
	switch f.mgr.Phase() {
	case session.Paused:
		countdown = timerPausedStyle.Width(w - 6).Render(remaining)
		phaseLabel = warningStyle.Bold(true).Render("PAUSED")
	default:
		countdown = timerRunningStyle.Width(w - 6).Render(remaining)
		phaseLabel = successStyle.Bold(true).Render("FOCUS")
	}

	target := 0
	if cur != nil {
		target = cur.TargetMinutes
	}
	detail := mutedStyle.Render(fmt.Sprintf("%s elapsed of %d min",
		formatDuration(f.mgr.Elapsed()), target))

	content := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render(label),
		subtitleStyle.Render("Stay focused on this task"),
		"",
		countdown,
		phaseLabel,
		"",
		f.renderProgress(w-10),
		detail,
	)

	controls := mutedStyle.Render("space: pause/resume  c: complete & end  x: end session")
	return activePanelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}

func (f focusModel) renderProgress(width int) string {
	if width < 10 {
		width = 10
	}
	filled := int(f.mgr.Progress() * float64(width))
	if filled > width {
		filled = width
	}
	bar := successStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
	pct := mutedStyle.Render(fmt.Sprintf(" %3.0f%%", f.mgr.Progress()*100))
	return bar + pct
}

func (f focusModel) viewSummary() string {
	w := f.width - 4
	title := titleStyle.Render("Session Complete")
	sub := ""
	if f.ended != nil && f.ended.DurationMinutes != nil {
		sub = subtitleStyle.Render(fmt.Sprintf("%d focused minutes", *f.ended.DurationMinutes))
	}
	content := lipgloss.JoinVertical(lipgloss.Left, title, sub, "", f.form.View())
	return panelStyle.Width(w).Render(content)
}

func taskMeta(t store.Task) string {
	meta := fmt.Sprintf("p%d", t.Priority)
	if t.EstimatedMinutes != nil {
		meta += fmt.Sprintf(" · ~%dm", *t.EstimatedMinutes)
	}
	return meta
}
