package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taskpilot/taskpilot/backend/model"
	"github.com/taskpilot/taskpilot/backend/tool"
)

// naturalReply renders tool outcomes into plain language from fixed
// templates. Templates are deterministic where a second model round
// trip would not be, which matters most on the recovered and intent
// tiers where the model already failed once.
func naturalReply(outcomes []ToolOutcome) string {
	var parts []string

	for _, oc := range outcomes {
		if oc.Err != nil {
			parts = append(parts, "Sorry, there was an error: "+safeErrorText(oc.Err))
			continue
		}

		switch oc.Tool {
		case "add_task":
			parts = append(parts, addTaskReply(oc.Result))
		case "list_tasks":
			parts = append(parts, listTasksReply(oc.Result))
		case "complete_task":
			parts = append(parts, completeTaskReply(oc.Result))
		case "delete_task":
			title := stringField(oc.Result, "title", "task")
			parts = append(parts, fmt.Sprintf("Deleted '%s' from your list.", title))
		case "update_task":
			title := stringField(oc.Result, "title", "task")
			parts = append(parts, fmt.Sprintf("Updated '%s'.", title))
		case "get_analytics":
			parts = append(parts, analyticsReply(oc.Result))
		case "get_suggestions":
			if msg := stringField(oc.Result, "message", ""); msg != "" {
				parts = append(parts, msg)
			} else {
				parts = append(parts, "Here are your suggestions.")
			}
		case "delete_all":
			count, _ := oc.Result["deleted_count"].(int)
			parts = append(parts, fmt.Sprintf("Deleted %d task(s) from your list.", count))
		}
	}

	if len(parts) == 0 {
		return "Done!"
	}
	return strings.Join(parts, " ")
}

func addTaskReply(result map[string]any) string {
	title := stringField(result, "title", "your task")
	recurrence := stringField(result, "recurrence_pattern", "none")
	if recurrence != "" && recurrence != "none" {
		return fmt.Sprintf("Done! I've added '%s' as a %s recurring task.", title, recurrence)
	}
	return fmt.Sprintf("Done! I've added '%s' to your list.", title)
}

func listTasksReply(result map[string]any) string {
	tasks, _ := result["tasks"].([]map[string]any)
	count := len(tasks)
	if n, ok := result["count"].(int); ok {
		count = n
	}
	if count == 0 {
		return "You don't have any tasks right now."
	}

	var lines []string
	for i, t := range tasks {
		if i >= 10 {
			break
		}
		status := "pending"
		if done, _ := t["completed"].(bool); done {
			status = "completed"
		}
		title := stringField(t, "title", "Untitled")
		priority := stringField(t, "priority", "medium")
		lines = append(lines, fmt.Sprintf("%d. %s (%s, %s)", i+1, title, priority, status))
	}
	return fmt.Sprintf("You have %d task(s):\n%s", count, strings.Join(lines, "\n"))
}

func completeTaskReply(result map[string]any) string {
	title := stringField(result, "title", "task")
	reply := fmt.Sprintf("Marked '%s' as complete!", title)
	if next, ok := result["next_task"].(map[string]any); ok {
		if nextTitle := stringField(next, "title", ""); nextTitle != "" {
			reply += fmt.Sprintf(" Created next recurring task: '%s'", nextTitle)
		}
	}
	return reply
}

func analyticsReply(result map[string]any) string {
	summary, _ := result["summary"].(map[string]any)
	total := intField(summary, "total_tasks")
	completed := intField(summary, "completed_count")
	pending := intField(summary, "pending_count")
	rate, _ := summary["completion_rate"].(float64)
	return fmt.Sprintf("You have %d total tasks: %d completed, %d pending. Completion rate: %.0f%%",
		total, completed, pending, rate)
}

// safeErrorText renders an error for user display. Validation and
// not-found errors carry their own user-facing text; provider errors
// map to their fixed message; anything else stays generic.
func safeErrorText(err error) string {
	var validationErr *tool.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Reason
	}
	var notFoundErr *tool.NotFoundError
	if errors.As(err, &notFoundErr) {
		return notFoundErr.Error()
	}
	var providerErr *model.ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.UserMessage()
	}
	return "something went wrong, please try again"
}

func stringField(m map[string]any, key, fallback string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
