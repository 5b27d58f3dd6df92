package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (s *Store) CreateTask(userID, title, description string, priority int, estimatedMinutes *int) (*Task, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO tasks (id, user_id, title, description, priority, status, estimated_minutes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 'pending', ?, ?, ?)`,
		id, userID, title, description, priority, estimatedMinutes, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(id)
}

func (s *Store) GetTask(id string) (*Task, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, title, description, priority, status, estimated_minutes, due_date, completed_at, created_at, updated_at
		 FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

func (s *Store) ListTasks(userID string, includeArchived bool) ([]Task, error) {
	query := `SELECT id, user_id, title, description, priority, status, estimated_minutes, due_date, completed_at, created_at, updated_at
		FROM tasks WHERE user_id = ?`
	if !includeArchived {
		query += ` AND status != 'archived'`
	}
	query += ` ORDER BY priority DESC, created_at`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTask(id, title, description string, priority int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, priority = ?, updated_at = ? WHERE id = ?`,
		title, description, priority, now, id,
	)
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update task %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetTaskStatus moves a task to the given status. Completing a task records
// completed_at; leaving completed clears it. This is the task status gateway
// the session manager calls on completion.
func (s *Store) SetTaskStatus(ctx context.Context, id, status string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	var completedAt any
	if status == TaskCompleted {
		completedAt = now
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		status, completedAt, now, id,
	)
	if err != nil {
		return fmt.Errorf("set task %s status: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set task %s status: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) ArchiveTask(id string) error {
	return s.SetTaskStatus(context.Background(), id, TaskArchived)
}

func scanTask(r rowScanner) (*Task, error) {
	t := &Task{}
	var (
		estimated        sql.NullInt64
		due, completed   sql.NullString
		created, updated string
	)
	err := r.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Priority, &t.Status,
		&estimated, &due, &completed, &created, &updated)
	if err != nil {
		return nil, err
	}
	if estimated.Valid {
		e := int(estimated.Int64)
		t.EstimatedMinutes = &e
	}
	if due.Valid {
		d, _ := time.Parse(time.RFC3339, due.String)
		t.DueDate = &d
	}
	if completed.Valid {
		c, _ := time.Parse(time.RFC3339, completed.String)
		t.CompletedAt = &c
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, created)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return t, nil
}
