package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Focus session CRUD. These methods carry a context because the session
// lifecycle manager awaits them with a bounded deadline; the UI-only readers
// further down reuse the same plumbing.

const sessionColumns = `id, user_id, task_id, session_label, start_time, end_time,
	target_duration, duration_minutes, status, interruptions,
	mood_rating, productivity_rating, notes, created_at, updated_at`

func (s *Store) CreateSession(ctx context.Context, userID string, taskID *string, label string, targetMinutes int) (*FocusSession, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO focus_sessions (id, user_id, task_id, session_label, start_time, target_duration, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 'active', ?, ?)`,
		id, userID, taskID, label, now, targetMinutes, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s.GetSession(ctx, id)
}

func (s *Store) GetSession(ctx context.Context, id string) (*FocusSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM focus_sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, nil
}

// UpdateSession applies a partial update and bumps updated_at.
func (s *Store) UpdateSession(ctx context.Context, id string, patch SessionPatch) (*FocusSession, error) {
	query := `UPDATE focus_sessions SET updated_at = ?`
	args := []any{time.Now().UTC().Format(time.RFC3339)}

	if patch.Status != nil {
		query += `, status = ?`
		args = append(args, *patch.Status)
	}
	if patch.EndTime != nil {
		query += `, end_time = ?`
		args = append(args, patch.EndTime.UTC().Format(time.RFC3339))
	}
	if patch.DurationMinutes != nil {
		query += `, duration_minutes = ?`
		args = append(args, *patch.DurationMinutes)
	}
	if patch.Interruptions != nil {
		query += `, interruptions = ?`
		args = append(args, *patch.Interruptions)
	}
	if patch.MoodRating != nil {
		query += `, mood_rating = ?`
		args = append(args, *patch.MoodRating)
	}
	if patch.ProductivityRating != nil {
		query += `, productivity_rating = ?`
		args = append(args, *patch.ProductivityRating)
	}
	if patch.Notes != nil {
		query += `, notes = ?`
		args = append(args, *patch.Notes)
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("update session %s: %w", id, ErrNotFound)
	}
	return s.GetSession(ctx, id)
}

// ActiveSession returns the user's current (active or paused) session, or nil
// when there is none. Used on startup to reconcile a session orphaned by a
// crash.
func (s *Store) ActiveSession(ctx context.Context, userID string) (*FocusSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM focus_sessions
		 WHERE user_id = ? AND status IN ('active', 'paused')
		 ORDER BY start_time DESC LIMIT 1`, userID)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active session: %w", err)
	}
	return sess, nil
}

// SessionHistory returns the user's sessions, most recent first.
func (s *Store) SessionHistory(ctx context.Context, userID string, limit int) ([]FocusSession, error) {
	return s.ListSessions(ctx, userID, SessionFilter{Limit: limit})
}

func (s *Store) ListSessions(ctx context.Context, userID string, f SessionFilter) ([]FocusSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM focus_sessions WHERE user_id = ?`
	args := []any{userID}

	if f.TaskID != nil {
		query += ` AND task_id = ?`
		args = append(args, *f.TaskID)
	}
	if f.From != nil {
		query += ` AND start_time >= ?`
		args = append(args, f.From.Format(time.RFC3339))
	}
	if f.To != nil {
		query += ` AND start_time < ?`
		args = append(args, f.To.Format(time.RFC3339))
	}
	query += ` ORDER BY start_time DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []FocusSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM focus_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete session %s: %w", id, ErrNotFound)
	}
	return nil
}

// AddInterruption bumps the session's interruption counter. Pauses are
// recorded as interruptions; the write is best-effort from the UI's point of
// view.
func (s *Store) AddInterruption(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE focus_sessions SET interruptions = interruptions + 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id,
	)
	return err
}

// DailyFocus aggregates terminated sessions per day for the stats view.
func (s *Store) DailyFocus(ctx context.Context, userID string, from, to time.Time) ([]DayFocus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date(start_time),
		       COALESCE(SUM(duration_minutes), 0),
		       COUNT(*),
		       SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END)
		FROM focus_sessions
		WHERE user_id = ?
		  AND end_time IS NOT NULL
		  AND start_time >= ? AND start_time < ?
		GROUP BY date(start_time)
		ORDER BY date(start_time)`,
		userID, from.Format(time.RFC3339), to.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("daily focus: %w", err)
	}
	defer rows.Close()

	var days []DayFocus
	for rows.Next() {
		var d DayFocus
		if err := rows.Scan(&d.Date, &d.TotalMinutes, &d.SessionCount, &d.CompletedCount); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// TodayFocusMinutes returns total terminated focus minutes for today (UTC).
func (s *Store) TodayFocusMinutes(ctx context.Context, userID string) (int64, error) {
	today := time.Now().UTC().Format("2006-01-02")
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(duration_minutes), 0)
		FROM focus_sessions
		WHERE user_id = ? AND date(start_time) = ? AND end_time IS NOT NULL`,
		userID, today,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (*FocusSession, error) {
	sess := &FocusSession{}
	var (
		taskID           sql.NullString
		startTime        string
		endTime          sql.NullString
		duration         sql.NullInt64
		mood, prod       sql.NullInt64
		created, updated string
	)
	err := r.Scan(&sess.ID, &sess.UserID, &taskID, &sess.Label, &startTime, &endTime,
		&sess.TargetMinutes, &duration, &sess.Status, &sess.Interruptions,
		&mood, &prod, &sess.Notes, &created, &updated)
	if err != nil {
		return nil, err
	}
	if taskID.Valid {
		sess.TaskID = &taskID.String
	}
	sess.StartTime, _ = time.Parse(time.RFC3339, startTime)
	if endTime.Valid {
		t, _ := time.Parse(time.RFC3339, endTime.String)
		sess.EndTime = &t
	}
	if duration.Valid {
		d := int(duration.Int64)
		sess.DurationMinutes = &d
	}
	if mood.Valid {
		m := int(mood.Int64)
		sess.MoodRating = &m
	}
	if prod.Valid {
		p := int(prod.Int64)
		sess.ProductivityRating = &p
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339, created)
	sess.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return sess, nil
}
