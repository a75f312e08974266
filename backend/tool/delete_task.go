package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskpilot/taskpilot/backend/store"
)

type DeleteTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"description=The ID of the task to delete"`
}

func DeleteTaskTool() Tool {
	return New("delete_task",
		"Delete a task permanently. Use this when the user wants to remove or cancel a task.",
		deleteTask)
}

func deleteTask(ctx context.Context, env Env, input DeleteTaskInput) (map[string]any, error) {
	taskID, err := uuid.Parse(input.TaskID)
	if err != nil {
		return nil, &ValidationError{Tool: "delete_task", Reason: fmt.Sprintf("invalid task ID format: %s", input.TaskID)}
	}

	task, err := env.Store.GetTask(ctx, env.UserID, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &NotFoundError{TaskID: input.TaskID}
	}
	if err != nil {
		return nil, fmt.Errorf("loading task: %w", err)
	}

	if err := env.Store.DeleteTask(ctx, env.UserID, taskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{TaskID: input.TaskID}
		}
		return nil, fmt.Errorf("deleting task: %w", err)
	}

	return map[string]any{
		"task_id": taskID.String(),
		"status":  "deleted",
		"title":   task.Title,
		"message": fmt.Sprintf("Task '%s' has been deleted.", task.Title),
	}, nil
}
