package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskpilot/taskpilot/backend/store"
)

type CompleteTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"description=The ID of the task to mark as complete"`
}

func CompleteTaskTool() Tool {
	return New("complete_task",
		"Mark a task as complete. Use this when the user says they've finished, completed, or are done with a task.",
		completeTask)
}

func completeTask(ctx context.Context, env Env, input CompleteTaskInput) (map[string]any, error) {
	taskID, err := uuid.Parse(input.TaskID)
	if err != nil {
		return nil, &ValidationError{Tool: "complete_task", Reason: fmt.Sprintf("invalid task ID format: %s", input.TaskID)}
	}

	task, err := env.Store.GetTask(ctx, env.UserID, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &NotFoundError{TaskID: input.TaskID}
	}
	if err != nil {
		return nil, fmt.Errorf("loading task: %w", err)
	}

	if task.Completed {
		return map[string]any{
			"task_id": task.ID.String(),
			"status":  "already_completed",
			"title":   task.Title,
			"message": fmt.Sprintf("Task '%s' was already marked as complete.", task.Title),
		}, nil
	}

	completedAt := env.Now
	task.Completed = true
	task.CompletedAt = &completedAt
	if err := env.Store.UpdateTask(ctx, task); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{TaskID: input.TaskID}
		}
		return nil, fmt.Errorf("completing task: %w", err)
	}

	result := map[string]any{
		"task_id": task.ID.String(),
		"status":  "completed",
		"title":   task.Title,
		"message": fmt.Sprintf("Task '%s' has been marked as complete!", task.Title),
	}

	if task.RecurrencePattern != store.RecurrenceNone {
		next, created, err := rolloverRecurring(ctx, env, task)
		if err != nil {
			return nil, err
		}
		if created {
			result["next_task"] = map[string]any{
				"task_id":  next.ID.String(),
				"title":    next.Title,
				"due_date": isoOrNil(next.DueDate),
			}
		} else {
			result["recurrence_ended"] = true
		}
	}

	return result, nil
}

// rolloverRecurring creates the next occurrence of a recurring task, unless
// the next due date falls past the recurrence end date.
func rolloverRecurring(ctx context.Context, env Env, task *store.Task) (*store.Task, bool, error) {
	currentDue := env.Now
	if task.DueDate != nil {
		currentDue = *task.DueDate
	}
	nextDue := nextDueDate(currentDue, task.RecurrencePattern)

	if task.RecurrenceEndDate != nil && nextDue.After(*task.RecurrenceEndDate) {
		return nil, false, nil
	}

	// Preserve the reminder's offset from the due date.
	var nextReminder *time.Time
	if task.ReminderAt != nil && task.DueDate != nil {
		offset := task.DueDate.Sub(*task.ReminderAt)
		r := nextDue.Add(-offset)
		nextReminder = &r
	}

	parentID := task.ID
	next := &store.Task{
		UserID:            task.UserID,
		Title:             task.Title,
		Description:       task.Description,
		Priority:          task.Priority,
		Tags:              task.Tags,
		DueDate:           &nextDue,
		RecurrencePattern: task.RecurrencePattern,
		RecurrenceEndDate: task.RecurrenceEndDate,
		ReminderAt:        nextReminder,
		ParentTaskID:      &parentID,
	}
	if err := env.Store.CreateTask(ctx, next); err != nil {
		return nil, false, fmt.Errorf("creating next occurrence: %w", err)
	}
	return next, true, nil
}

func nextDueDate(current time.Time, pattern store.Recurrence) time.Time {
	switch pattern {
	case store.RecurrenceDaily:
		return current.AddDate(0, 0, 1)
	case store.RecurrenceWeekly:
		return current.AddDate(0, 0, 7)
	case store.RecurrenceMonthly:
		return current.AddDate(0, 1, 0)
	}
	return current
}
