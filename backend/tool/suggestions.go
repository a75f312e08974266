package tool

import (
	"context"
	"fmt"

	"github.com/taskpilot/taskpilot/backend/store"
	"github.com/taskpilot/taskpilot/backend/suggest"
)

type SuggestionsInput struct {
	SuggestionType  string `json:"suggestion_type" jsonschema:"enum=focus,enum=priority,enum=tag,enum=similar,enum=time_estimate,enum=conflict,enum=workload,enum=habit,enum=all" jsonschema_description:"Type of suggestion to request"`
	TaskTitle       string `json:"task_title,omitempty" jsonschema_description:"Task title (required for priority, similar, time_estimate, all)"`
	TaskDescription string `json:"task_description,omitempty" jsonschema_description:"Task description (optional, enhances suggestions)"`
	DueDate         string `json:"due_date,omitempty" jsonschema_description:"Due date in ISO format (required for conflict detection)"`
}

func SuggestionsTool() Tool {
	return New("get_suggestions",
		"Get smart task suggestions: what to focus on, priority and tag hints, duplicate detection, time estimates, scheduling conflicts, workload balance, and completion habits.",
		getSuggestions)
}

func getSuggestions(ctx context.Context, env Env, in SuggestionsInput) (map[string]any, error) {
	tasks, err := env.Store.ListTasks(ctx, env.UserID, store.Filter{Status: store.StatusAll})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	var open, completed []store.Task
	var tagHistory []string
	for _, t := range tasks {
		if t.Completed {
			completed = append(completed, t)
		} else {
			open = append(open, t)
		}
		tagHistory = append(tagHistory, t.Tags...)
	}

	switch in.SuggestionType {
	case "focus", "":
		s := suggest.SuggestFocus(open, env.Now)
		return suggestionResult("focus", s), nil

	case "priority":
		if in.TaskTitle == "" {
			return nil, &ValidationError{Tool: "get_suggestions", Reason: "task_title is required for priority suggestions"}
		}
		s := suggest.SuggestPriority(in.TaskTitle, in.TaskDescription)
		return suggestionResult("priority", s), nil

	case "tag":
		if in.TaskTitle == "" {
			return nil, &ValidationError{Tool: "get_suggestions", Reason: "task_title is required for tag suggestions"}
		}
		s := suggest.SuggestTags(in.TaskTitle, tagHistory)
		return suggestionResult("tag", s), nil

	case "similar":
		if in.TaskTitle == "" {
			return nil, &ValidationError{Tool: "get_suggestions", Reason: "task_title is required for similar-task detection"}
		}
		s := suggest.SimilarTasks(in.TaskTitle, open)
		return suggestionResult("similar", s), nil

	case "time_estimate":
		if in.TaskTitle == "" {
			return nil, &ValidationError{Tool: "get_suggestions", Reason: "task_title is required for time estimation"}
		}
		s := suggest.EstimateTime(in.TaskTitle, completed)
		return suggestionResult("time_estimate", s), nil

	case "conflict":
		due, ok := parseISOTime(in.DueDate)
		if !ok {
			return nil, &ValidationError{Tool: "get_suggestions", Reason: "a valid ISO due_date is required for conflict detection"}
		}
		s := suggest.DetectConflicts(*due, open, 0)
		return suggestionResult("conflict", s), nil

	case "workload":
		s := suggest.AnalyzeWorkload(open, env.Now, 0)
		return suggestionResult("workload", s), nil

	case "habit":
		s := suggest.TrackHabits(completed)
		return suggestionResult("habit", s), nil

	case "all":
		if in.TaskTitle == "" {
			return nil, &ValidationError{Tool: "get_suggestions", Reason: "task_title is required for combined suggestions"}
		}
		input := suggest.Input{
			Title:       in.TaskTitle,
			Description: in.TaskDescription,
			Existing:    open,
			Completed:   completed,
			TagHistory:  tagHistory,
			Now:         env.Now,
		}
		if due, ok := parseISOTime(in.DueDate); ok {
			input.DueDate = due
		}
		all := suggest.All(input)
		items := make([]map[string]any, len(all))
		for i, s := range all {
			items[i] = map[string]any{
				"type":       string(s.Kind),
				"message":    s.Message,
				"confidence": s.Confidence,
				"data":       s.Data,
			}
		}
		return map[string]any{"type": "all", "suggestions": items, "count": len(items)}, nil

	default:
		return nil, &ValidationError{
			Tool:   "get_suggestions",
			Reason: fmt.Sprintf("unknown suggestion_type %q; use focus, priority, tag, similar, time_estimate, conflict, workload, habit, or all", in.SuggestionType),
		}
	}
}

func suggestionResult(kind string, s suggest.Suggestion) map[string]any {
	out := map[string]any{
		"type":       kind,
		"message":    s.Message,
		"confidence": s.Confidence,
	}
	for k, v := range s.Data {
		out[k] = v
	}
	return out
}
