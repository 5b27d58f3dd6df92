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

	"deepwork/internal/store"
)

var taskPriorities = []string{"1", "2", "3", "4", "5"}

type tasksModel struct {
	store  *store.Store
	userID string
	width  int
	height int

	tasks        []store.Task
	cursor       int
	showArchived bool

	formActive bool
	form       *huh.Form
	editingID  string // empty when creating

	// Form field pointers (survive value copies)
	formTitle       *string
	formDescription *string
	formPriority    *string
	formEstimate    *string
}

func newTasksModel(s *store.Store, userID string) tasksModel {
	title, desc, prio, est := "", "", "3", ""
	return tasksModel{
		store:           s,
		userID:          userID,
		formTitle:       &title,
		formDescription: &desc,
		formPriority:    &prio,
		formEstimate:    &est,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m tasksModel) refresh() tea.Cmd {
	return func() tea.Msg {
		tasks, _ := m.store.ListTasks(m.userID, m.showArchived)
		return tasksDataMsg{tasks: tasks}
	}
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		m.tasks = msg.tasks
		if m.cursor >= len(m.tasks) {
			m.cursor = max(0, len(m.tasks)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.tasks)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.New):
			return m.showNewForm()
		case key.Matches(msg, keys.Edit):
			if len(m.tasks) > 0 {
				return m.showEditForm(m.tasks[m.cursor])
			}
		case key.Matches(msg, keys.Enter):
			// Cycle status: pending -> in_progress -> completed -> pending
			if len(m.tasks) > 0 {
				task := m.tasks[m.cursor]
				m.store.SetTaskStatus(context.Background(), task.ID, nextTaskStatus(task.Status))
				return m, m.refresh()
			}
		case key.Matches(msg, keys.Delete):
			if len(m.tasks) > 0 {
				m.store.ArchiveTask(m.tasks[m.cursor].ID)
				return m, m.refresh()
			}
		case key.Matches(msg, keys.Back):
			m.showArchived = !m.showArchived
			return m, m.refresh()
		}
	}
	return m, nil
}

func nextTaskStatus(status string) string {
	switch status {
	case store.TaskPending:
		return store.TaskInProgress
	case store.TaskInProgress:
		return store.TaskCompleted
	default:
		return store.TaskPending
	}
}

func (m tasksModel) showNewForm() (tasksModel, tea.Cmd) {
	*m.formTitle = ""
	*m.formDescription = ""
	*m.formPriority = "3"
	*m.formEstimate = ""
	m.editingID = ""
	return m.showForm("New Task")
}

func (m tasksModel) showEditForm(task store.Task) (tasksModel, tea.Cmd) {
	*m.formTitle = task.Title
	*m.formDescription = task.Description
	*m.formPriority = strconv.Itoa(task.Priority)
	*m.formEstimate = ""
	if task.EstimatedMinutes != nil {
		*m.formEstimate = strconv.Itoa(*task.EstimatedMinutes)
	}
	m.editingID = task.ID
	return m.showForm("Edit Task")
}

func (m tasksModel) showForm(_ string) (tasksModel, tea.Cmd) {
	prioOptions := make([]huh.Option[string], len(taskPriorities))
	for i, p := range taskPriorities {
		prioOptions[i] = huh.NewOption(p, p)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(m.formTitle),
			huh.NewInput().Title("Description").Value(m.formDescription),
			huh.NewSelect[string]().Title("Priority").Options(prioOptions...).Value(m.formPriority),
			huh.NewInput().Title("Estimate (min, optional)").Value(m.formEstimate),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		if *m.formTitle != "" {
			priority, _ := strconv.Atoi(*m.formPriority)
			if m.editingID != "" {
				m.store.UpdateTask(m.editingID, *m.formTitle, *m.formDescription, priority)
			} else {
				var estimate *int
				if n, err := strconv.Atoi(*m.formEstimate); err == nil && n > 0 {
					estimate = &n
				}
				m.store.CreateTask(m.userID, *m.formTitle, *m.formDescription, priority, estimate)
			}
		}
		return m, m.refresh()
	}
	return m, cmd
}

func (m tasksModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Task")
		if m.editingID != "" {
			title = titleStyle.Render("Edit Task")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}

	header := titleStyle.Render("Tasks")
	if m.showArchived {
		header += mutedStyle.Render("  (including archived)")
	}

	var rows []string
	rows = append(rows, header, "")

	if len(m.tasks) == 0 {
		rows = append(rows, mutedStyle.Render("No tasks yet. Press n to add one."))
	}
	for i, t := range m.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		line := fmt.Sprintf("%s%s %s %s", cursor, taskStatusIcon(t.Status), t.Title,
			mutedStyle.Render(taskMeta(t)))
		if t.Description != "" {
			line += mutedStyle.Render(" — " + truncate(t.Description, 40))
		}
		rows = append(rows, style.Render(line))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("n: new  e: edit  enter: cycle status  d: archive  esc: toggle archived"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func taskStatusIcon(status string) string {
	switch status {
	case store.TaskInProgress:
		return accentStyle.Render("◐")
	case store.TaskCompleted:
		return successStyle.Render("●")
	case store.TaskArchived:
		return mutedStyle.Render("⊘")
	default:
		return mutedStyle.Render("○")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "…"
}
