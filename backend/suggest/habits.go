package suggest

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/taskpilot/taskpilot/backend/store"
)

type habitCategory struct {
	name     string
	keywords []string
}

var habitCategories = []habitCategory{
	{"gym", []string{"gym", "workout", "exercise", "fitness", "run", "yoga"}},
	{"work", []string{"meeting", "call", "email", "report", "project", "review"}},
	{"personal", []string{"shopping", "grocery", "clean", "laundry", "cook"}},
	{"learning", []string{"study", "read", "course", "learn", "practice"}},
	{"health", []string{"doctor", "dentist", "medicine", "health"}},
}

func timeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 21:
		return "evening"
	default:
		return "night"
	}
}

// TrackHabits buckets completions by category and time of day and
// reports categories where a single bucket holds 60% or more of the
// completions. Categories with fewer than three samples are skipped.
func TrackHabits(completed []store.Task) Suggestion {
	patterns := make(map[string]map[string]int)
	totals := make(map[string]int)

	for _, t := range completed {
		if !t.Completed || t.CompletedAt == nil {
			continue
		}
		titleLower := strings.ToLower(t.Title)
		for _, cat := range habitCategories {
			matched := false
			for _, kw := range cat.keywords {
				if strings.Contains(titleLower, kw) {
					matched = true
					break
				}
			}
			if matched {
				if patterns[cat.name] == nil {
					patterns[cat.name] = make(map[string]int)
				}
				patterns[cat.name][timeOfDay(t.CompletedAt.Hour())]++
				totals[cat.name]++
				break
			}
		}
	}

	type habit struct {
		category  string
		timeOfDay string
		percent   int
		count     int
		total     int
	}
	var habits []habit
	for category, times := range patterns {
		total := totals[category]
		if total < 3 {
			continue
		}
		for tod, count := range times {
			percent := int(math.Round(float64(count) / float64(total) * 100))
			if percent >= 60 {
				habits = append(habits, habit{category, tod, percent, count, total})
			}
		}
	}
	sort.Slice(habits, func(i, j int) bool {
		if habits[i].percent != habits[j].percent {
			return habits[i].percent > habits[j].percent
		}
		return habits[i].category < habits[j].category
	})

	if len(habits) == 0 {
		return Suggestion{
			Kind:       KindHabit,
			Message:    "Building your habit profile... Complete more tasks to see patterns.",
			Confidence: 0.3,
			Data:       map[string]any{"habits": []map[string]any{}, "total_analyzed": len(completed)},
		}
	}

	var messages []string
	habitData := make([]map[string]any, len(habits))
	for i, h := range habits {
		if i < 3 {
			messages = append(messages, fmt.Sprintf("You complete %s tasks %d%% in the %s", h.category, h.percent, h.timeOfDay))
		}
		habitData[i] = map[string]any{
			"category":    h.category,
			"time_of_day": h.timeOfDay,
			"percentage":  h.percent,
			"count":       h.count,
			"total":       h.total,
		}
	}

	return Suggestion{
		Kind:       KindHabit,
		Message:    "Habit patterns detected: " + strings.Join(messages, ". ") + ".",
		Confidence: 0.75,
		Data: map[string]any{
			"habits":          habitData,
			"strongest_habit": habitData[0],
			"total_analyzed":  len(completed),
		},
	}
}

// Input bundles everything All needs. DueDate may be nil when the new
// task has no scheduled date yet.
type Input struct {
	Title       string
	Description string
	DueDate     *time.Time
	Existing    []store.Task
	Completed   []store.Task
	TagHistory  []string
	Now         time.Time
}

// All assembles every applicable suggestion for a prospective task,
// sorted by confidence descending.
func All(in Input) []Suggestion {
	suggestions := []Suggestion{SuggestPriority(in.Title, in.Description)}

	if len(in.TagHistory) > 0 {
		suggestions = append(suggestions, SuggestTags(in.Title, in.TagHistory))
	}
	if len(in.Existing) > 0 {
		suggestions = append(suggestions, SimilarTasks(in.Title, in.Existing))
	}
	if len(in.Completed) > 0 {
		suggestions = append(suggestions, EstimateTime(in.Title, in.Completed))
	}
	if in.DueDate != nil && len(in.Existing) > 0 {
		suggestions = append(suggestions, DetectConflicts(*in.DueDate, in.Existing, 0))
	}
	if len(in.Existing) > 0 {
		suggestions = append(suggestions, AnalyzeWorkload(in.Existing, in.Now, 0))
	}
	if len(in.Completed) > 0 {
		suggestions = append(suggestions, TrackHabits(in.Completed))
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	return suggestions
}
