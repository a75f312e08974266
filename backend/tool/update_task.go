package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskpilot/taskpilot/backend/store"
)

type UpdateTaskInput struct {
	TaskID            string   `json:"task_id" jsonschema:"description=The ID of the task to update"`
	Title             string   `json:"title,omitempty" jsonschema:"description=New title for the task"`
	Description       string   `json:"description,omitempty" jsonschema:"description=New description for the task"`
	Priority          string   `json:"priority,omitempty" jsonschema:"enum=low,enum=medium,enum=high,description=New priority level"`
	Tags              []string `json:"tags,omitempty" jsonschema:"description=Replacement tag list (max 10 tags, each max 30 chars)"`
	DueDate           string   `json:"due_date,omitempty" jsonschema:"description=New due date in ISO format; pass 'none' to clear it"`
	RecurrencePattern string   `json:"recurrence_pattern,omitempty" jsonschema:"enum=none,enum=daily,enum=weekly,enum=monthly,description=New recurrence pattern"`
	ReminderAt        string   `json:"reminder_at,omitempty" jsonschema:"description=New reminder datetime in ISO format; pass 'none' to clear it"`
}

func UpdateTaskTool() Tool {
	return New("update_task",
		"Update fields of an existing task. Only the fields provided are changed.",
		updateTask)
}

func updateTask(ctx context.Context, env Env, input UpdateTaskInput) (map[string]any, error) {
	taskID, err := uuid.Parse(input.TaskID)
	if err != nil {
		return nil, &ValidationError{Tool: "update_task", Reason: fmt.Sprintf("invalid task ID format: %s", input.TaskID)}
	}

	task, err := env.Store.GetTask(ctx, env.UserID, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &NotFoundError{TaskID: input.TaskID}
	}
	if err != nil {
		return nil, fmt.Errorf("loading task: %w", err)
	}

	if input.Title != "" {
		task.Title = input.Title
	}
	if input.Description != "" {
		task.Description = input.Description
	}
	if store.ValidPriority(input.Priority) {
		task.Priority = store.Priority(input.Priority)
	}
	if input.Tags != nil {
		task.Tags = sanitizeTags(input.Tags)
	}
	if input.DueDate == "none" {
		task.DueDate = nil
	} else if due, ok := parseISOTime(input.DueDate); ok {
		task.DueDate = due
	}
	if store.ValidRecurrence(input.RecurrencePattern) {
		task.RecurrencePattern = store.Recurrence(input.RecurrencePattern)
	}
	if input.ReminderAt == "none" {
		task.ReminderAt = nil
	} else if reminder, ok := parseISOTime(input.ReminderAt); ok {
		task.ReminderAt = reminder
	}

	if err := env.Store.UpdateTask(ctx, task); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{TaskID: input.TaskID}
		}
		return nil, fmt.Errorf("updating task: %w", err)
	}

	return map[string]any{
		"task_id": task.ID.String(),
		"status":  "updated",
		"title":   task.Title,
	}, nil
}
