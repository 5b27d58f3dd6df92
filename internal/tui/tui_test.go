package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"deepwork/internal/session"
	"deepwork/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestFixture(t *testing.T) (*store.Store, *session.Manager, string) {
	t.Helper()
	s := newTestStore(t)
	userID, err := s.EnsureUser()
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	mgr := session.NewManager(s, s, userID)
	return s, mgr, userID
}

// runCmd executes a tea.Cmd synchronously and returns the resulting message.
func runCmd(t *testing.T, f focusModel, msg interface{}) focusModel {
	t.Helper()
	m, _ := f.update(msg)
	return m
}

// ============================================================
// Focus model
// ============================================================

func TestFocusStartsOnPickStage(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	f := newFocusModel(mgr, s, userID)

	if f.stage != stagePick {
		t.Fatal("focus model should start on the pick stage")
	}
	if f.formActive() {
		t.Fatal("no form should be active initially")
	}
}

func TestFocusDefaultDurationFromSettings(t *testing.T) {
	s, mgr, userID := newTestFixture(t)

	f := newFocusModel(mgr, s, userID)
	if f.targetMinutes != 25 {
		t.Fatalf("default duration = %d, want 25 (seeded setting)", f.targetMinutes)
	}

	s.SetSetting("target_duration", "50")
	f = newFocusModel(mgr, s, userID)
	if f.targetMinutes != 50 {
		t.Fatalf("duration = %d, want 50 from settings", f.targetMinutes)
	}
}

func TestFocusRefreshExcludesCompletedTasks(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	open, _ := s.CreateTask(userID, "Open task", "", 1, nil)
	done, _ := s.CreateTask(userID, "Done task", "", 1, nil)
	s.SetTaskStatus(context.Background(), done.ID, store.TaskCompleted)

	f := newFocusModel(mgr, s, userID)
	msg := f.refresh()()
	data, ok := msg.(focusDataMsg)
	if !ok {
		t.Fatalf("refresh returned %T, want focusDataMsg", msg)
	}
	if len(data.tasks) != 1 {
		t.Fatalf("expected 1 open task, got %d", len(data.tasks))
	}
	if data.tasks[0].ID != open.ID {
		t.Fatal("wrong task offered as focus target")
	}
}

func TestFocusStartGeneralSession(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	f := newFocusModel(mgr, s, userID)

	msg := f.startSession()()
	started, ok := msg.(sessionStartedMsg)
	if !ok {
		t.Fatalf("start returned %T, want sessionStartedMsg", msg)
	}
	if started.sess.TaskID != nil {
		t.Fatal("general session should have no task")
	}

	f = runCmd(t, f, msg)
	if f.stage != stageLive {
		t.Fatal("focus model should be on the live stage after start")
	}

	active, err := s.ActiveSession(context.Background(), userID)
	if err != nil || active == nil {
		t.Fatalf("active session should exist in DB: %v", err)
	}
}

func TestFocusStartTaskSessionLabel(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	task, _ := s.CreateTask(userID, "Write report", "", 2, nil)

	f := newFocusModel(mgr, s, userID)
	f.tasks = []store.Task{*task}
	f.cursor = 1

	msg := f.startSession()()
	started, ok := msg.(sessionStartedMsg)
	if !ok {
		t.Fatalf("start returned %T, want sessionStartedMsg", msg)
	}
	if started.sess.TaskID == nil || *started.sess.TaskID != task.ID {
		t.Fatal("session should be bound to the picked task")
	}
	if started.sess.Label != "Focus on: Write report" {
		t.Fatalf("label = %q", started.sess.Label)
	}
}

func TestFocusSecondStartFails(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	f := newFocusModel(mgr, s, userID)

	f = runCmd(t, f, f.startSession()())
	msg := f.startSession()()
	if _, ok := msg.(sessionStartFailedMsg); !ok {
		t.Fatalf("second start returned %T, want sessionStartFailedMsg", msg)
	}

	f = runCmd(t, f, msg)
	if f.stage != stagePick {
		t.Fatal("failed start should return to the pick stage")
	}
	// The original session is untouched.
	if mgr.Phase() != session.Running {
		t.Fatal("first session should still be running")
	}
}

func TestFocusCancelReturnsToPick(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	f := newFocusModel(mgr, s, userID)
	f = runCmd(t, f, f.startSession()())

	msg := f.endSession(session.EndSpec{Outcome: session.Cancelled})()
	ended, ok := msg.(sessionEndedMsg)
	if !ok {
		t.Fatalf("end returned %T, want sessionEndedMsg", msg)
	}
	if ended.completed {
		t.Fatal("cancel should not be flagged as completed")
	}
	if ended.err != nil {
		t.Fatalf("end: %v", ended.err)
	}
	if ended.res.Session.Status != store.SessionInterrupted {
		t.Fatalf("status = %q, want interrupted", ended.res.Session.Status)
	}

	f = runCmd(t, f, msg)
	if f.stage != stagePick {
		t.Fatal("cancel should return to the pick stage")
	}
	if f.formActive() {
		t.Fatal("cancel should not open the summary form")
	}
}

func TestFocusCompleteOpensSummaryForm(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	f := newFocusModel(mgr, s, userID)
	f = runCmd(t, f, f.startSession()())

	msg := f.endSession(session.EndSpec{Outcome: session.Completed})()
	ended := msg.(sessionEndedMsg)
	if !ended.completed {
		t.Fatal("complete should be flagged as completed")
	}

	f, _ = f.update(msg)
	if f.stage != stageSummary {
		t.Fatal("completion should open the summary stage")
	}
	if !f.formActive() {
		t.Fatal("summary form should be active")
	}
	if f.ended == nil || f.ended.Status != store.SessionCompleted {
		t.Fatal("ended session should be kept for the summary save")
	}
}

func TestFocusTickWithoutSession(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	f := newFocusModel(mgr, s, userID)

	if msg := f.tickSession()(); msg != nil {
		t.Fatalf("tick without a session should be silent, got %T", msg)
	}
}

func TestFocusSaveSummaryPersistsRatings(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	f := newFocusModel(mgr, s, userID)
	f = runCmd(t, f, f.startSession()())

	msg := f.endSession(session.EndSpec{Outcome: session.Completed})()
	f, _ = f.update(msg)

	*f.mood = "4"
	*f.productivity = "5"
	*f.notes = "deep work"
	saved := f.saveSummary()()
	if _, ok := saved.(summarySavedMsg); !ok {
		t.Fatalf("save returned %T, want summarySavedMsg", saved)
	}

	got, err := s.GetSession(context.Background(), f.ended.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.MoodRating == nil || *got.MoodRating != 4 {
		t.Fatalf("mood = %v, want 4", got.MoodRating)
	}
	if got.ProductivityRating == nil || *got.ProductivityRating != 5 {
		t.Fatalf("productivity = %v, want 5", got.ProductivityRating)
	}
	if got.Notes != "deep work" {
		t.Fatalf("notes = %q", got.Notes)
	}
}

func TestFocusSaveSummarySkippedRatings(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	f := newFocusModel(mgr, s, userID)
	f = runCmd(t, f, f.startSession()())

	msg := f.endSession(session.EndSpec{Outcome: session.Completed})()
	f, _ = f.update(msg)

	// "skip" maps to the empty string in the form
	*f.mood = ""
	*f.productivity = ""
	f.saveSummary()()

	got, _ := s.GetSession(context.Background(), f.ended.ID)
	if got.MoodRating != nil || got.ProductivityRating != nil {
		t.Fatal("skipped ratings should stay null")
	}
}

// ============================================================
// Helpers
// ============================================================

func TestStepDuration(t *testing.T) {
	tests := []struct {
		current, dir, want int
	}{
		{25, +1, 50},
		{25, -1, 15},
		{5, -1, 5},   // clamped at the low end
		{90, +1, 90}, // clamped at the high end
		{42, +1, 25}, // off-scale resets to the default
	}
	for _, tt := range tests {
		got := stepDuration(tt.current, tt.dir)
		if got != tt.want {
			t.Errorf("stepDuration(%d, %d) = %d, want %d", tt.current, tt.dir, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Second, "00:00:01"},
		{time.Minute, "00:01:00"},
		{time.Hour, "01:00:00"},
		{time.Hour + time.Minute + time.Second, "01:01:01"},
		{25 * time.Hour, "25:00:00"},
	}
	for _, tt := range tests {
		got := formatDuration(tt.d)
		if got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{time.Second, "00:01"},
		{25 * time.Minute, "25:00"},
		{59*time.Minute + 59*time.Second, "59:59"},
		{time.Hour, "01:00:00"},
		{-time.Second, "00:00"}, // negative clamps to zero
	}
	for _, tt := range tests {
		got := formatCountdown(tt.d)
		if got != tt.want {
			t.Errorf("formatCountdown(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		mins int64
		want string
	}{
		{0, "0m"},
		{59, "59m"},
		{60, "1h 00m"},
		{95, "1h 35m"},
		{600, "10h 00m"},
	}
	for _, tt := range tests {
		got := formatMinutes(tt.mins)
		if got != tt.want {
			t.Errorf("formatMinutes(%d) = %q, want %q", tt.mins, got, tt.want)
		}
	}
}

// ============================================================
// View state
// ============================================================

func TestViewNames(t *testing.T) {
	if len(viewNames) != 4 {
		t.Fatalf("expected 4 view names, got %d", len(viewNames))
	}
	expected := []string{"Focus", "Tasks", "Stats", "Settings"}
	for i, name := range expected {
		if viewNames[i] != name {
			t.Fatalf("viewNames[%d] = %q, want %q", i, viewNames[i], name)
		}
	}
}

func TestViewStateConstants(t *testing.T) {
	if viewFocus != 0 || viewTasks != 1 || viewStats != 2 || viewSettings != 3 {
		t.Fatal("view state constants out of order")
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	app := NewApp(s, mgr, userID)

	if app.activeView != viewFocus {
		t.Fatal("default view should be focus")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.exportPicking {
		t.Fatal("export picker should be hidden by default")
	}
}

func TestAppIsFormActiveDefault(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	app := NewApp(s, mgr, userID)

	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppViewStates(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	app := NewApp(s, mgr, userID)
	app.width = 120
	app.height = 40

	views := []viewState{viewFocus, viewTasks, viewStats, viewSettings}
	for _, v := range views {
		app.activeView = v
		output := app.View()
		if output == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	app := NewApp(s, mgr, userID)
	app.width = 120
	app.height = 40

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppRenderFooterShowsRunningSession(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	app := NewApp(s, mgr, userID)
	app.width = 120
	app.height = 40

	if footer := app.renderFooter(); footer == "" {
		t.Fatal("footer should not be empty")
	}

	_, err := mgr.Start(context.Background(), session.StartSpec{TargetMinutes: 25})
	if err != nil {
		t.Fatal(err)
	}
	footer := app.renderFooter()
	if !strings.Contains(footer, "●") {
		t.Fatal("footer should show the running session indicator")
	}

	mgr.Pause()
	footer = app.renderFooter()
	if !strings.Contains(footer, "⏸") {
		t.Fatal("footer should show the paused indicator")
	}
}

func TestAppLoadingState(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	app := NewApp(s, mgr, userID)

	// Width 0 means not yet sized
	if output := app.View(); output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppStatusMessage(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	app := NewApp(s, mgr, userID)
	app.width = 120
	app.height = 40
	app.status = "test status"

	if !strings.Contains(app.renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppExportPickerRenders(t *testing.T) {
	s, mgr, userID := newTestFixture(t)
	app := NewApp(s, mgr, userID)
	app.width = 120
	app.height = 40
	app.exportPicking = true

	output := app.View()
	if !strings.Contains(output, "CSV") || !strings.Contains(output, "JSON") {
		t.Fatal("export picker should offer CSV and JSON")
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	bindings := keys.ShortHelp()
	if len(bindings) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test — just verify they don't panic)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"timer", func() string { return timerStyle.Render("test") }},
		{"timerRunning", func() string { return timerRunningStyle.Render("test") }},
		{"timerPaused", func() string { return timerPausedStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"subtitle", func() string { return subtitleStyle.Render("test") }},
		{"accent", func() string { return accentStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"warning", func() string { return warningStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
	}

	for _, s := range styles {
		if result := s.fn(); result == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}
