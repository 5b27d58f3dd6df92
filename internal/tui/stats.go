package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"deepwork/internal/store"
)

type statsModel struct {
	store  *store.Store
	userID string
	width  int
	height int

	days    []store.DayFocus
	history []store.FocusSession
	offset  int // 7-day blocks back from today (0 = current)

	chart barchart.Model
}

func newStatsModel(s *store.Store, userID string) statsModel {
	return statsModel{
		store:  s,
		userID: userID,
		chart:  barchart.New(60, 12),
	}
}

func (m *statsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m statsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		from, to := m.dateRange()
		days, _ := m.store.DailyFocus(ctx, m.userID, from, to)
		history, _ := m.store.SessionHistory(ctx, m.userID, 10)
		return statsDataMsg{days: days, history: history}
	}
}

func (m statsModel) dateRange() (time.Time, time.Time) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := today.AddDate(0, 0, 1-7*m.offset)
	return end.AddDate(0, 0, -7), end
}

func (m statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsDataMsg:
		m.days = msg.days
		m.history = msg.history
		m.buildChart()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			m.offset++
			return m, m.refresh()
		case key.Matches(msg, keys.Right):
			if m.offset > 0 {
				m.offset--
			}
			return m, m.refresh()
		}
	}
	return m, nil
}

func (m *statsModel) buildChart() {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if m.height > 30 {
		chartHeight = 16
	}

	m.chart = barchart.New(chartWidth, chartHeight)

	from, to := m.dateRange()

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")
		label := d.Format("Mon 02")

		value := barchart.BarValue{
			Name:  "focus",
			Value: 0,
			Style: lipgloss.NewStyle().Foreground(colorSubtle),
		}
		for _, day := range m.days {
			if day.Date == dateStr {
				value.Value = float64(day.TotalMinutes)
				value.Style = lipgloss.NewStyle().Foreground(colorPrimary)
			}
		}

		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: []barchart.BarValue{value},
		})
	}

	m.chart.PushAll(bars)
	m.chart.Draw()
}

func (m statsModel) view() string {
	w := m.width - 4

	from, to := m.dateRange()
	rangeLabel := fmt.Sprintf("%s – %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02"))

	title := titleStyle.Render("Focus Minutes") + "  " + mutedStyle.Render(rangeLabel)

	var sessions, completed int
	var minutes int64
	for _, d := range m.days {
		sessions += d.SessionCount
		completed += d.CompletedCount
		minutes += d.TotalMinutes
	}
	rate := 0.0
	if sessions > 0 {
		rate = float64(completed) / float64(sessions) * 100
	}

	summary := fmt.Sprintf("%s focused · %d sessions · %.0f%% completed · %d day streak",
		formatMinutes(minutes), sessions, rate, m.streak())

	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, m.chart.View())
	rows = append(rows, "")
	rows = append(rows, subtitleStyle.Render(summary))

	if len(m.history) > 0 {
		rows = append(rows, "", titleStyle.Render("Recent sessions"))
		for _, sess := range m.history {
			rows = append(rows, "  "+renderHistoryLine(sess))
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("←/→: week  E: export"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// streak counts consecutive days with at least one terminated session,
// ending today or yesterday.
func (m statsModel) streak() int {
	byDate := make(map[string]bool, len(m.days))
	for _, d := range m.days {
		if d.SessionCount > 0 {
			byDate[d.Date] = true
		}
	}

	day := time.Now().UTC()
	if !byDate[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for byDate[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func renderHistoryLine(sess store.FocusSession) string {
	when := sess.StartTime.Local().Format("Jan 02 15:04")
	label := sess.Label
	if label == "" {
		label = "General focus"
	}

	dur := "—"
	if sess.DurationMinutes != nil {
		dur = fmt.Sprintf("%dm", *sess.DurationMinutes)
	}

	var status string
	switch sess.Status {
	case store.SessionCompleted:
		status = successStyle.Render("✓")
	case store.SessionInterrupted:
		status = errorStyle.Render("✗")
	default:
		status = warningStyle.Render("●")
	}

	return fmt.Sprintf("%s %s  %s  %s", status, mutedStyle.Render(when), truncate(label, 36), mutedStyle.Render(dur))
}
