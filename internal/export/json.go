package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"deepwork/internal/store"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonSession struct {
	ID                 string `json:"id"`
	Task               string `json:"task"`
	TaskID             string `json:"task_id,omitempty"`
	Label              string `json:"label"`
	StartTime          string `json:"start_time"`
	EndTime            string `json:"end_time,omitempty"`
	TargetMinutes      int    `json:"target_minutes"`
	DurationMinutes    *int   `json:"duration_minutes,omitempty"`
	Status             string `json:"status"`
	Interruptions      int    `json:"interruptions"`
	MoodRating         *int   `json:"mood_rating,omitempty"`
	ProductivityRating *int   `json:"productivity_rating,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

func ToJSON(sessions []store.FocusSession, tasks map[string]string, path string) error {
	out := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
	}

	for _, s := range sessions {
		endStr := ""
		if s.EndTime != nil {
			endStr = s.EndTime.Local().Format(time.RFC3339)
		}
		taskID := ""
		if s.TaskID != nil {
			taskID = *s.TaskID
		}

		out.Sessions = append(out.Sessions, jsonSession{
			ID:                 s.ID,
			Task:               taskName(s.TaskID, tasks),
			TaskID:             taskID,
			Label:              s.Label,
			StartTime:          s.StartTime.Local().Format(time.RFC3339),
			EndTime:            endStr,
			TargetMinutes:      s.TargetMinutes,
			DurationMinutes:    s.DurationMinutes,
			Status:             s.Status,
			Interruptions:      s.Interruptions,
			MoodRating:         s.MoodRating,
			ProductivityRating: s.ProductivityRating,
			Notes:              s.Notes,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
