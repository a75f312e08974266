package tool

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot/taskpilot/backend/store"
)

var testNow = time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC) // a Wednesday

func newTestEnv(t *testing.T) (Env, *Registry) {
	t.Helper()

	registry, err := NewTaskRegistry()
	require.NoError(t, err)

	env := Env{
		UserID: uuid.New(),
		Store:  store.NewMemoryStore(store.WithMemoryClock(func() time.Time { return testNow })),
		Now:    testNow,
	}
	return env, registry
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	tool := New("echo", "echoes", func(ctx context.Context, env Env, input struct{}) (map[string]any, error) {
		return map[string]any{"ok": true}, nil
	})
	require.NoError(t, registry.Register(tool))

	got, err := registry.Lookup("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", got.Name)

	assert.Error(t, registry.Register(tool), "duplicate names are rejected")

	_, err = registry.Lookup("missing")
	assert.ErrorIs(t, err, ErrToolNotFound)

	_, err = registry.Invoke(context.Background(), Env{}, "missing", nil)
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestTaskRegistryHasAllTools(t *testing.T) {
	t.Parallel()

	registry, err := NewTaskRegistry()
	require.NoError(t, err)

	var names []string
	for _, tool := range registry.ListAll() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
		assert.Equal(t, "object", tool.Schema["type"])
	}
	assert.Equal(t, []string{
		"add_task", "complete_task", "delete_task", "get_analytics",
		"get_suggestions", "list_tasks", "update_task",
	}, names)
}

func TestSuggestionsSchemaAdvertisesEveryType(t *testing.T) {
	t.Parallel()

	registry, err := NewTaskRegistry()
	require.NoError(t, err)

	suggestions, err := registry.Lookup("get_suggestions")
	require.NoError(t, err)

	raw, err := json.Marshal(suggestions.Schema)
	require.NoError(t, err)

	var schema struct {
		Properties struct {
			SuggestionType struct {
				Enum []string `json:"enum"`
			} `json:"suggestion_type"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &schema))

	// Every type the handler switch accepts must be offered to the
	// model, or it can never ask for it.
	assert.Equal(t, []string{
		"focus", "priority", "tag", "similar", "time_estimate",
		"conflict", "workload", "habit", "all",
	}, schema.Properties.SuggestionType.Enum)
}

func TestAddTask(t *testing.T) {
	t.Parallel()

	env, registry := newTestEnv(t)
	ctx := context.Background()

	result, err := registry.Invoke(ctx, env, "add_task", map[string]any{
		"title":    "Buy milk",
		"priority": "high",
		"tags":     []any{"errands", "home"},
		"due_date": "2024-03-08",
	})
	require.NoError(t, err)
	assert.Equal(t, "created", result["status"])
	assert.Equal(t, "Buy milk", result["title"])
	assert.Equal(t, "high", result["priority"])

	taskID := uuid.MustParse(result["task_id"].(string))
	task, err := env.Store.GetTask(ctx, env.UserID, taskID)
	require.NoError(t, err)
	assert.Equal(t, store.PriorityHigh, task.Priority)
	assert.Equal(t, []string{"errands", "home"}, task.Tags)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), *task.DueDate)
}

func TestAddTaskRequiresTitle(t *testing.T) {
	t.Parallel()

	env, registry := newTestEnv(t)
	_, err := registry.Invoke(context.Background(), env, "add_task", map[string]any{})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "add_task", verr.Tool)
}

func TestAddTaskDropsUnparseableDates(t *testing.T) {
	t.Parallel()

	env, registry := newTestEnv(t)
	ctx := context.Background()

	result, err := registry.Invoke(ctx, env, "add_task", map[string]any{
		"title":    "Call mom",
		"due_date": "sometime soon",
	})
	require.NoError(t, err)
	assert.Nil(t, result["due_date"])
}

func TestListTasksFilters(t *testing.T) {
	t.Parallel()

	env, registry := newTestEnv(t)
	ctx := context.Background()

	for _, args := range []map[string]any{
		{"title": "Urgent report", "priority": "high"},
		{"title": "Slow chore", "priority": "low"},
	} {
		_, err := registry.Invoke(ctx, env, "add_task", args)
		require.NoError(t, err)
	}

	result, err := registry.Invoke(ctx, env, "list_tasks", map[string]any{"priority": "high"})
	require.NoError(t, err)
	assert.Equal(t, 1, result["count"])

	tasks := result["tasks"].([]map[string]any)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Urgent report", tasks[0]["title"])
	assert.Equal(t, false, tasks[0]["is_overdue"])

	result, err = registry.Invoke(ctx, env, "list_tasks", map[string]any{"search": "chore"})
	require.NoError(t, err)
	assert.Equal(t, 1, result["count"])
}

func TestCompleteTask(t *testing.T) {
	t.Parallel()

	env, registry := newTestEnv(t)
	ctx := context.Background()

	created, err := registry.Invoke(ctx, env, "add_task", map[string]any{"title": "One off"})
	require.NoError(t, err)
	taskID := created["task_id"].(string)

	result, err := registry.Invoke(ctx, env, "complete_task", map[string]any{"task_id": taskID})
	require.NoError(t, err)
	assert.Equal(t, "completed", result["status"])
	assert.Nil(t, result["next_task"])

	// Completing again reports the state instead of failing.
	result, err = registry.Invoke(ctx, env, "complete_task", map[string]any{"task_id": taskID})
	require.NoError(t, err)
	assert.Equal(t, "already_completed", result["status"])
}

func TestCompleteRecurringTaskRollsOver(t *testing.T) {
	t.Parallel()

	env, registry := newTestEnv(t)
	ctx := context.Background()

	created, err := registry.Invoke(ctx, env, "add_task", map[string]any{
		"title":              "Water plants",
		"due_date":           "2024-03-08T09:00:00",
		"reminder_at":        "2024-03-08T08:00:00",
		"recurrence_pattern": "weekly",
	})
	require.NoError(t, err)

	result, err := registry.Invoke(ctx, env, "complete_task", map[string]any{
		"task_id": created["task_id"],
	})
	require.NoError(t, err)

	next, ok := result["next_task"].(map[string]any)
	require.True(t, ok, "completing a recurring task creates the next occurrence")
	assert.Equal(t, "Water plants", next["title"])

	nextID := uuid.MustParse(next["task_id"].(string))
	task, err := env.Store.GetTask(ctx, env.UserID, nextID)
	require.NoError(t, err)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), *task.DueDate)
	require.NotNil(t, task.ReminderAt, "reminder keeps its offset from the due date")
	assert.Equal(t, time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC), *task.ReminderAt)
	require.NotNil(t, task.ParentTaskID)
	assert.Equal(t, created["task_id"], task.ParentTaskID.String())
	assert.Equal(t, store.RecurrenceWeekly, task.RecurrencePattern)
}

func TestCompleteRecurringTaskHonorsEndDate(t *testing.T) {
	t.Parallel()

	env, registry := newTestEnv(t)
	ctx := context.Background()

	created, err := registry.Invoke(ctx, env, "add_task", map[string]any{
		"title":               "Daily standup",
		"due_date":            "2024-03-07",
		"recurrence_pattern":  "daily",
		"recurrence_end_date": "2024-03-07",
	})
	require.NoError(t, err)

	result, err := registry.Invoke(ctx, env, "complete_task", map[string]any{
		"task_id": created["task_id"],
	})
	require.NoError(t, err)
	assert.Equal(t, true, result["recurrence_ended"])
	assert.Nil(t, result["next_task"])
}

func TestCompleteTaskNotFound(t *testing.T) {
	t.Parallel()

	env, registry := newTestEnv(t)

	_, err := registry.Invoke(context.Background(), env, "complete_task", map[string]any{
		"task_id": uuid.New().String(),
	})
	var nferr *NotFoundError
	assert.ErrorAs(t, err, &nferr)

	_, err = registry.Invoke(context.Background(), env, "complete_task", map[string]any{
		"task_id": "not-a-uuid",
	})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	env, registry := newTestEnv(t)
	ctx := context.Background()

	created, err := registry.Invoke(ctx, env, "add_task", map[string]any{
		"title":    "Draft email",
		"due_date": "2024-03-08",
	})
	require.NoError(t, err)
	taskID := created["task_id"].(string)

	result, err := registry.Invoke(ctx, env, "update_task", map[string]any{
		"task_id":  taskID,
		"title":    "Draft and send email",
		"priority": "high",
		"due_date": "none",
	})
	require.NoError(t, err)
	assert.Equal(t, "updated", result["status"])

	task, err := env.Store.GetTask(ctx, env.UserID, uuid.MustParse(taskID))
	require.NoError(t, err)
	assert.Equal(t, "Draft and send email", task.Title)
	assert.Equal(t, store.PriorityHigh, task.Priority)
	assert.Nil(t, task.DueDate, "'none' clears the due date")
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	env, registry := newTestEnv(t)
	ctx := context.Background()

	created, err := registry.Invoke(ctx, env, "add_task", map[string]any{"title": "Ephemeral"})
	require.NoError(t, err)
	taskID := created["task_id"].(string)

	result, err := registry.Invoke(ctx, env, "delete_task", map[string]any{"task_id": taskID})
	require.NoError(t, err)
	assert.Equal(t, "deleted", result["status"])
	assert.Equal(t, "Ephemeral", result["title"])

	_, err = env.Store.GetTask(ctx, env.UserID, uuid.MustParse(taskID))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetAnalytics(t *testing.T) {
	t.Parallel()

	env, registry := newTestEnv(t)
	ctx := context.Background()

	overdue := testNow.AddDate(0, 0, -2)
	dueToday := testNow.Add(2 * time.Hour)
	require.NoError(t, env.Store.CreateTask(ctx, &store.Task{
		UserID: env.UserID, Title: "Late", Priority: store.PriorityHigh, DueDate: &overdue,
	}))
	require.NoError(t, env.Store.CreateTask(ctx, &store.Task{
		UserID: env.UserID, Title: "Today", DueDate: &dueToday,
	}))
	completedAt := testNow.Add(-time.Hour)
	require.NoError(t, env.Store.CreateTask(ctx, &store.Task{
		UserID: env.UserID, Title: "Done", Completed: true, CompletedAt: &completedAt,
	}))

	result, err := registry.Invoke(ctx, env, "get_analytics", nil)
	require.NoError(t, err)

	summary := result["summary"].(map[string]any)
	assert.Equal(t, 3, summary["total_tasks"])
	assert.Equal(t, 1, summary["completed_count"])
	assert.Equal(t, 2, summary["pending_count"])

	urgency := result["urgency"].(map[string]any)
	assert.Equal(t, 1, urgency["overdue_count"])
	assert.Equal(t, 1, urgency["due_today_count"])
	assert.Equal(t, 1, urgency["high_priority_pending"])
}

func TestGetSuggestions(t *testing.T) {
	t.Parallel()

	env, registry := newTestEnv(t)
	ctx := context.Background()

	_, err := registry.Invoke(ctx, env, "add_task", map[string]any{
		"title": "Write weekly report",
		"tags":  []any{"work"},
	})
	require.NoError(t, err)

	result, err := registry.Invoke(ctx, env, "get_suggestions", map[string]any{
		"suggestion_type": "priority",
		"task_title":      "urgent fix for prod",
	})
	require.NoError(t, err)
	assert.Equal(t, "priority", result["type"])
	assert.Equal(t, "high", result["suggested_priority"])

	result, err = registry.Invoke(ctx, env, "get_suggestions", map[string]any{
		"suggestion_type": "all",
		"task_title":      "write report",
	})
	require.NoError(t, err)
	assert.Equal(t, "all", result["type"])
	assert.NotZero(t, result["count"])

	_, err = registry.Invoke(ctx, env, "get_suggestions", map[string]any{
		"suggestion_type": "priority",
	})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
