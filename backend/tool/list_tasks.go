package tool

import (
	"context"
	"fmt"

	"github.com/taskpilot/taskpilot/backend/store"
)

type ListTasksInput struct {
	Status      string   `json:"status,omitempty" jsonschema:"enum=all,enum=pending,enum=completed,description=Filter by completion status: 'all' (default), 'pending' (incomplete) or 'completed'"`
	Priority    string   `json:"priority,omitempty" jsonschema:"enum=low,enum=medium,enum=high,description=Filter by priority level. Use 'high' when the user asks for urgent or important tasks."`
	Tags        []string `json:"tags,omitempty" jsonschema:"description=Filter by tags; returns tasks with ANY of these tags"`
	DueBefore   string   `json:"due_before,omitempty" jsonschema:"description=Show tasks due before this date (ISO format YYYY-MM-DD)"`
	DueAfter    string   `json:"due_after,omitempty" jsonschema:"description=Show tasks due after this date (ISO format YYYY-MM-DD)"`
	OverdueOnly bool     `json:"overdue_only,omitempty" jsonschema:"description=Set true to show only overdue tasks (past due date and not completed)"`
	Search      string   `json:"search,omitempty" jsonschema:"description=Search keyword to find in task title or description. Case-insensitive."`
}

func ListTasksTool() Tool {
	return New("list_tasks",
		"List tasks with advanced filtering. Use for viewing tasks, searching, or filtering by priority/tags/dates. Supports multiple filter combinations.",
		listTasks)
}

func listTasks(ctx context.Context, env Env, input ListTasksInput) (map[string]any, error) {
	filter := store.Filter{
		Status:      store.StatusAll,
		Tags:        input.Tags,
		OverdueOnly: input.OverdueOnly,
		Search:      input.Search,
	}

	switch store.StatusFilter(input.Status) {
	case store.StatusPending, store.StatusCompleted:
		filter.Status = store.StatusFilter(input.Status)
	}
	if store.ValidPriority(input.Priority) {
		filter.Priority = store.Priority(input.Priority)
	}
	if before, ok := parseISOTime(input.DueBefore); ok {
		filter.DueBefore = before
	}
	if after, ok := parseISOTime(input.DueAfter); ok {
		filter.DueAfter = after
	}

	tasks, err := env.Store.ListTasks(ctx, env.UserID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	taskList := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		taskList = append(taskList, taskToMap(t, env.Now))
	}

	filtersApplied := map[string]any{"status": string(filter.Status)}
	if filter.Priority != "" {
		filtersApplied["priority"] = string(filter.Priority)
	}
	if len(filter.Tags) > 0 {
		filtersApplied["tags"] = filter.Tags
	}
	if filter.DueBefore != nil {
		filtersApplied["due_before"] = input.DueBefore
	}
	if filter.DueAfter != nil {
		filtersApplied["due_after"] = input.DueAfter
	}
	if filter.OverdueOnly {
		filtersApplied["overdue_only"] = true
	}
	if filter.Search != "" {
		filtersApplied["search"] = filter.Search
	}

	return map[string]any{
		"tasks":   taskList,
		"count":   len(taskList),
		"filters": filtersApplied,
	}, nil
}
