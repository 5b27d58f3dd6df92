package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"deepwork/internal/session"
	"deepwork/internal/store"
	"deepwork/internal/tui"
)

func main() {
	if os.Getenv("DEEPWORK_DEBUG") != "" {
		f, err := tea.LogToFile("deepwork-debug.log", "debug")
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	}

	dbPath, err := store.DefaultDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	s, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	userID, err := s.EnsureUser()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := reconcileOrphan(ctx, s, userID); err != nil {
		fmt.Fprintf(os.Stderr, "error reconciling previous session: %v\n", err)
		os.Exit(1)
	}

	var opts []session.Option
	if v, err := s.GetSetting("completion_task_status"); err == nil && v != "" {
		opts = append(opts, session.WithCompletionTaskStatus(v))
	}

	mgr := session.NewManager(s, s, userID, opts...)

	app := tui.NewApp(s, mgr, userID)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// reconcileOrphan closes out a session left active or paused by a previous
// process, crediting the time from start until now and marking it interrupted.
func reconcileOrphan(ctx context.Context, s *store.Store, userID string) error {
	sess, err := s.ActiveSession(ctx, userID)
	if err != nil || sess == nil {
		return err
	}

	now := time.Now().UTC()
	mins := int(now.Sub(sess.StartTime) / time.Minute)
	if mins > sess.TargetMinutes {
		mins = sess.TargetMinutes
	}
	status := store.SessionInterrupted

	_, err = s.UpdateSession(ctx, sess.ID, store.SessionPatch{
		Status:          &status,
		EndTime:         &now,
		DurationMinutes: &mins,
	})
	return err
}
