// Package store persists tasks and answers the filtered queries the task
// tools are built on. Two implementations exist: an in-memory store for tests
// and ephemeral sessions, and a SQLite-backed store for durable use.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a task does not exist or belongs to a
// different user. Callers cannot distinguish the two cases.
var ErrNotFound = errors.New("task not found")

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func ValidPriority(p string) bool {
	switch Priority(p) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

func ValidRecurrence(r string) bool {
	switch Recurrence(r) {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// StatusFilter selects tasks by completion state.
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusPending   StatusFilter = "pending"
	StatusCompleted StatusFilter = "completed"
)

// Task is a single todo item owned by one user. Recurring tasks chain through
// ParentTaskID: completing one creates the next occurrence pointing back at
// the completed task.
type Task struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Title             string
	Description       string
	Completed         bool
	Priority          Priority
	Tags              []string
	DueDate           *time.Time
	RecurrencePattern Recurrence
	RecurrenceEndDate *time.Time
	ReminderAt        *time.Time
	CompletedAt       *time.Time
	ParentTaskID      *uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsOverdue reports whether the task is past its due date and still open.
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(now)
}

// Filter narrows a task listing. The zero value with Status set to StatusAll
// matches everything.
type Filter struct {
	Status      StatusFilter
	Priority    Priority
	Tags        []string
	DueBefore   *time.Time
	DueAfter    *time.Time
	OverdueOnly bool
	Search      string
}

// Store is the persistence boundary for tasks. Every method scopes access to
// a single user; a task id belonging to another user behaves like a missing
// task.
type Store interface {
	CreateTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, userID, taskID uuid.UUID) (*Task, error)
	UpdateTask(ctx context.Context, task *Task) error
	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error

	// ListTasks returns the user's tasks matching the filter, ordered with
	// pending tasks first, then soonest due date (tasks without a due date
	// last), then newest created.
	ListTasks(ctx context.Context, userID uuid.UUID, filter Filter) ([]Task, error)

	Close() error
}
