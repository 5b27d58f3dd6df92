package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"deepwork/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	targetDuration   *string
	completionStatus *string
	historyLimit     *string
	dailyGoal        *string
}

func newSettingsModel(s *store.Store) settingsModel {
	td, cs, hl, dg := "", "", "", ""
	return settingsModel{
		store:            s,
		targetDuration:   &td,
		completionStatus: &cs,
		historyLimit:     &hl,
		dailyGoal:        &dg,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.targetDuration = s.getVal("target_duration", "25")
	*s.completionStatus = s.getVal("completion_task_status", "in_progress")
	*s.historyLimit = s.getVal("history_limit", "50")
	*s.dailyGoal = s.getVal("daily_goal_minutes", "120")

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Default session length (min)").Value(s.targetDuration),
			huh.NewSelect[string]().Title("Task status when a session completes").
				Options(
					huh.NewOption("In progress", store.TaskInProgress),
					huh.NewOption("Completed", store.TaskCompleted),
				).Value(s.completionStatus),
			huh.NewInput().Title("History entries shown").Value(s.historyLimit),
			huh.NewInput().Title("Daily goal (min)").Value(s.dailyGoal),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.saveSettings()
		return s, s.refresh()
	}
	return s, cmd
}

func (s settingsModel) saveSettings() {
	if isPositiveInt(*s.targetDuration) {
		s.store.SetSetting("target_duration", *s.targetDuration)
	}
	if *s.completionStatus == store.TaskInProgress || *s.completionStatus == store.TaskCompleted {
		s.store.SetSetting("completion_task_status", *s.completionStatus)
	}
	if isPositiveInt(*s.historyLimit) {
		s.store.SetSetting("history_limit", *s.historyLimit)
	}
	if isPositiveInt(*s.dailyGoal) {
		s.store.SetSetting("daily_goal_minutes", *s.dailyGoal)
	}
}

func isPositiveInt(v string) bool {
	n, err := strconv.Atoi(v)
	return err == nil && n > 0
}

func (s settingsModel) getVal(key, fallback string) string {
	for _, setting := range s.settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	if v, err := s.store.GetSetting(key); err == nil {
		return v
	}
	return fallback
}

var settingLabels = map[string]string{
	"target_duration":        "Default session length (min)",
	"completion_task_status": "Task status on completion",
	"history_limit":          "History entries shown",
	"daily_goal_minutes":     "Daily goal (min)",
	"user_id":                "Profile id",
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Settings"), "", s.form.View())
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Settings"), "")

	for _, setting := range s.settings {
		label, ok := settingLabels[setting.Key]
		if !ok {
			label = setting.Key
		}
		rows = append(rows, fmt.Sprintf("  %s %s",
			mutedStyle.Render(fmt.Sprintf("%-32s", label)),
			normalItemStyle.Render(setting.Value)))
	}

	if len(s.settings) == 0 {
		rows = append(rows, mutedStyle.Render("  No settings loaded"))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(strings.Repeat("─", min(w-6, 50))))
	rows = append(rows, mutedStyle.Render("  enter: edit"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
