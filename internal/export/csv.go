package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"deepwork/internal/store"
)

const generalLabel = "General"

func ToCSV(sessions []store.FocusSession, tasks map[string]string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Task", "Label", "Start", "End", "Target (min)", "Duration (min)", "Status", "Interruptions", "Mood", "Productivity", "Notes"}); err != nil {
		return err
	}

	for _, s := range sessions {
		endStr := ""
		if s.EndTime != nil {
			endStr = s.EndTime.Local().Format(time.RFC3339)
		}

		row := []string{
			s.ID,
			taskName(s.TaskID, tasks),
			s.Label,
			s.StartTime.Local().Format(time.RFC3339),
			endStr,
			fmt.Sprintf("%d", s.TargetMinutes),
			formatIntPtr(s.DurationMinutes),
			s.Status,
			fmt.Sprintf("%d", s.Interruptions),
			formatIntPtr(s.MoodRating),
			formatIntPtr(s.ProductivityRating),
			s.Notes,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func taskName(taskID *string, tasks map[string]string) string {
	if taskID == nil {
		return generalLabel
	}
	if name, ok := tasks[*taskID]; ok {
		return name
	}
	return "Unknown"
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}
