package tool

import (
	"strings"
	"time"

	"github.com/taskpilot/taskpilot/backend/store"
)

const (
	maxTags      = 10
	maxTagLength = 30
)

// TaskTools returns the full task tool set backed by the store threaded
// through Env.
func TaskTools() []Tool {
	return []Tool{
		AddTaskTool(),
		ListTasksTool(),
		UpdateTaskTool(),
		CompleteTaskTool(),
		DeleteTaskTool(),
		AnalyticsTool(),
		SuggestionsTool(),
	}
}

// NewTaskRegistry builds a registry with every task tool installed.
func NewTaskRegistry() (*Registry, error) {
	registry := NewRegistry()
	for _, t := range TaskTools() {
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// parseISOTime accepts the date and datetime layouts the model is told to
// emit. A trailing Z offset is tolerated.
func parseISOTime(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, true
		}
	}
	return nil, false
}

func normalizePriority(p string) store.Priority {
	p = strings.ToLower(strings.TrimSpace(p))
	if store.ValidPriority(p) {
		return store.Priority(p)
	}
	return store.PriorityMedium
}

func normalizeRecurrence(r string) store.Recurrence {
	r = strings.ToLower(strings.TrimSpace(r))
	if store.ValidRecurrence(r) {
		return store.Recurrence(r)
	}
	return store.RecurrenceNone
}

func sanitizeTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if len(tag) > maxTagLength {
			tag = tag[:maxTagLength]
		}
		out = append(out, tag)
		if len(out) == maxTags {
			break
		}
	}
	return out
}

func isoOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func taskToMap(t store.Task, now time.Time) map[string]any {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"id":                 t.ID.String(),
		"title":              t.Title,
		"description":        t.Description,
		"completed":          t.Completed,
		"priority":           string(t.Priority),
		"tags":               tags,
		"due_date":           isoOrNil(t.DueDate),
		"is_overdue":         t.IsOverdue(now),
		"recurrence_pattern": string(t.RecurrencePattern),
		"reminder_at":        isoOrNil(t.ReminderAt),
		"created_at":         t.CreatedAt.Format(time.RFC3339),
	}
}
