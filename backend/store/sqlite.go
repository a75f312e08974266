package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id                  TEXT PRIMARY KEY,
	user_id             TEXT NOT NULL,
	title               TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	completed           INTEGER NOT NULL DEFAULT 0,
	priority            TEXT NOT NULL DEFAULT 'medium',
	tags                TEXT NOT NULL DEFAULT '[]',
	due_date            TEXT,
	recurrence_pattern  TEXT NOT NULL DEFAULT 'none',
	recurrence_end_date TEXT,
	reminder_at         TEXT,
	completed_at        TEXT,
	parent_task_id      TEXT,
	created_at          TEXT NOT NULL,
	updated_at          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);
`

// SQLiteStore persists tasks in a SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

type SQLiteOption func(*SQLiteStore)

func WithSQLiteClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

// OpenSQLite opens or creates the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// modernc.org/sqlite serializes access; a single connection avoids
	// SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) CreateTask(ctx context.Context, task *Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}
	if task.RecurrencePattern == "" {
		task.RecurrencePattern = RecurrenceNone
	}
	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	tags, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, user_id, title, description, completed, priority, tags,
			due_date, recurrence_pattern, recurrence_end_date, reminder_at,
			completed_at, parent_task_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID.String(), task.UserID.String(), task.Title, task.Description,
		task.Completed, string(task.Priority), string(tags),
		timeOrNull(task.DueDate), string(task.RecurrencePattern),
		timeOrNull(task.RecurrenceEndDate), timeOrNull(task.ReminderAt),
		timeOrNull(task.CompletedAt), uuidOrNull(task.ParentTaskID),
		task.CreatedAt.Format(time.RFC3339Nano), task.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*Task, error) {
	row := s.db.QueryRowContext(ctx,
		taskSelect+` WHERE id = ? AND user_id = ?`,
		taskID.String(), userID.String())
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading task: %w", err)
	}
	return task, nil
}

func (s *SQLiteStore) UpdateTask(ctx context.Context, task *Task) error {
	task.UpdatedAt = s.now()

	tags, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, completed = ?, priority = ?, tags = ?,
			due_date = ?, recurrence_pattern = ?, recurrence_end_date = ?,
			reminder_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		task.Title, task.Description, task.Completed, string(task.Priority),
		string(tags), timeOrNull(task.DueDate), string(task.RecurrencePattern),
		timeOrNull(task.RecurrenceEndDate), timeOrNull(task.ReminderAt),
		timeOrNull(task.CompletedAt), task.UpdatedAt.Format(time.RFC3339Nano),
		task.ID.String(), task.UserID.String(),
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`,
		taskID.String(), userID.String())
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListTasks(ctx context.Context, userID uuid.UUID, filter Filter) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		taskSelect+` WHERE user_id = ?`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	// Filter semantics are shared with the in-memory store, so non-trivial
	// predicates (tag overlap, overdue) run in Go rather than SQL.
	now := s.now()
	out := make([]Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		if matchesFilter(task, filter, now) {
			out = append(out, *task)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortTasks(out)
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const taskSelect = `
	SELECT id, user_id, title, description, completed, priority, tags,
	       due_date, recurrence_pattern, recurrence_end_date, reminder_at,
	       completed_at, parent_task_id, created_at, updated_at
	FROM tasks`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var (
		task                               Task
		id, userID, priority, recurrence   string
		tags, createdAt, updatedAt         string
		dueDate, endDate, reminder         sql.NullString
		completedAt, parentID              sql.NullString
	)
	err := row.Scan(&id, &userID, &task.Title, &task.Description,
		&task.Completed, &priority, &tags, &dueDate, &recurrence, &endDate,
		&reminder, &completedAt, &parentID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if task.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parsing task id: %w", err)
	}
	if task.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parsing user id: %w", err)
	}
	task.Priority = Priority(priority)
	task.RecurrencePattern = Recurrence(recurrence)
	if err := json.Unmarshal([]byte(tags), &task.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	if task.DueDate, err = parseNullTime(dueDate); err != nil {
		return nil, err
	}
	if task.RecurrenceEndDate, err = parseNullTime(endDate); err != nil {
		return nil, err
	}
	if task.ReminderAt, err = parseNullTime(reminder); err != nil {
		return nil, err
	}
	if task.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return nil, err
	}
	if parentID.Valid {
		pid, err := uuid.Parse(parentID.String)
		if err != nil {
			return nil, fmt.Errorf("parsing parent task id: %w", err)
		}
		task.ParentTaskID = &pid
	}
	if task.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if task.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &task, nil
}

func timeOrNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func uuidOrNull(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp: %w", err)
	}
	return &t, nil
}
