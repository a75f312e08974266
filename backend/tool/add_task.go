package tool

import (
	"context"
	"fmt"

	"github.com/taskpilot/taskpilot/backend/store"
)

type AddTaskInput struct {
	Title             string   `json:"title" jsonschema:"description=The title of the task (1-200 characters)"`
	Description       string   `json:"description,omitempty" jsonschema:"description=Optional description of the task"`
	Priority          string   `json:"priority,omitempty" jsonschema:"enum=low,enum=medium,enum=high,description=Task priority level. Use 'high' for urgent/important tasks and 'low' for whenever/sometime tasks. Default is 'medium'."`
	Tags              []string `json:"tags,omitempty" jsonschema:"description=List of tags for categorization (max 10 tags, each max 30 chars)"`
	DueDate           string   `json:"due_date,omitempty" jsonschema:"description=Due date in ISO format (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS). Convert natural language dates like 'tomorrow' before calling."`
	RecurrencePattern string   `json:"recurrence_pattern,omitempty" jsonschema:"enum=none,enum=daily,enum=weekly,enum=monthly,description=How often the task recurs. Completing a recurring task auto-creates the next occurrence."`
	RecurrenceEndDate string   `json:"recurrence_end_date,omitempty" jsonschema:"description=End date for recurrence in ISO format. No new occurrences after this date."`
	ReminderAt        string   `json:"reminder_at,omitempty" jsonschema:"description=Reminder datetime in ISO format"`
}

func AddTaskTool() Tool {
	return New("add_task",
		"Create a new task for the user. Use this when the user wants to add, create, or remember something. Supports priority, tags, due dates, recurrence, and reminders.",
		addTask)
}

func addTask(ctx context.Context, env Env, input AddTaskInput) (map[string]any, error) {
	if input.Title == "" {
		return nil, &ValidationError{Tool: "add_task", Reason: "title is required"}
	}

	task := &store.Task{
		UserID:            env.UserID,
		Title:             input.Title,
		Description:       input.Description,
		Priority:          normalizePriority(input.Priority),
		Tags:              sanitizeTags(input.Tags),
		RecurrencePattern: normalizeRecurrence(input.RecurrencePattern),
	}

	// Unparseable dates are dropped rather than failing the whole call; the
	// model gets another chance to phrase them.
	if due, ok := parseISOTime(input.DueDate); ok {
		task.DueDate = due
	}
	if end, ok := parseISOTime(input.RecurrenceEndDate); ok {
		task.RecurrenceEndDate = end
	}
	if reminder, ok := parseISOTime(input.ReminderAt); ok {
		task.ReminderAt = reminder
	}

	if err := env.Store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	return map[string]any{
		"task_id":            task.ID.String(),
		"status":             "created",
		"title":              task.Title,
		"priority":           string(task.Priority),
		"tags":               task.Tags,
		"due_date":           isoOrNil(task.DueDate),
		"recurrence_pattern": string(task.RecurrencePattern),
		"reminder_at":        isoOrNil(task.ReminderAt),
	}, nil
}
