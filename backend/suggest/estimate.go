package suggest

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/taskpilot/taskpilot/backend/store"
)

type taskCategory struct {
	name     string
	keywords []string
	avgHours float64
}

// Default per-category estimates used when no completion history
// overlaps the new title. Ordered so the first keyword hit wins.
var taskCategories = []taskCategory{
	{"meeting", []string{"meeting", "call", "sync", "standup"}, 1.0},
	{"coding", []string{"implement", "code", "develop", "fix bug", "build"}, 3.0},
	{"review", []string{"review", "check", "approve", "feedback"}, 0.5},
	{"writing", []string{"write", "document", "draft", "report"}, 2.0},
	{"research", []string{"research", "explore", "investigate", "analyze"}, 2.5},
	{"admin", []string{"email", "invoice", "paperwork", "update"}, 0.5},
	{"errands", []string{"buy", "pick up", "grocery", "shopping"}, 1.0},
	{"exercise", []string{"gym", "workout", "run", "exercise", "yoga"}, 1.0},
	{"learning", []string{"study", "course", "learn", "read", "tutorial"}, 1.5},
}

func matchCategory(titleLower string) (taskCategory, bool) {
	for _, cat := range taskCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(titleLower, kw) {
				return cat, true
			}
		}
	}
	return taskCategory{}, false
}

// EstimateTime predicts how long a task will take. It prefers a
// similarity-weighted average of actual durations from overlapping
// completed tasks, falls back to the category default, and reports
// insufficient data when neither applies. Durations outside 5 minutes
// to 24 hours are treated as noise and excluded.
func EstimateTime(title string, completed []store.Task) Suggestion {
	titleLower := strings.ToLower(title)
	cat, hasCat := matchCategory(titleLower)

	type weighted struct {
		hours float64
		sim   float64
	}
	var samples []weighted
	for _, t := range completed {
		if !t.Completed || t.CompletedAt == nil {
			continue
		}
		sim := jaccard(title, t.Title)
		if sim < 0.25 {
			continue
		}
		hours := t.CompletedAt.Sub(t.CreatedAt).Hours()
		if hours < 0.08 || hours > 24 {
			continue
		}
		samples = append(samples, weighted{hours, sim})
	}

	if len(samples) > 0 {
		var totalWeight, sum float64
		for _, s := range samples {
			totalWeight += s.sim
			sum += s.hours * s.sim
		}
		avg := sum / totalWeight
		count := len(samples)
		category := "general"
		if hasCat {
			category = cat.name
		}
		return Suggestion{
			Kind:       KindTimeEstimate,
			Message:    fmt.Sprintf("Tasks like this take ~%.1f hours based on %d similar completed tasks.", avg, count),
			Confidence: math.Min(0.9, 0.5+float64(count)*0.1),
			Data: map[string]any{
				"estimated_hours": math.Round(avg*10) / 10,
				"based_on_count":  count,
				"category":        category,
			},
		}
	}

	if hasCat {
		return Suggestion{
			Kind:       KindTimeEstimate,
			Message:    fmt.Sprintf("Based on similar %s tasks, this might take ~%g hours.", cat.name, cat.avgHours),
			Confidence: 0.6,
			Data: map[string]any{
				"estimated_hours": cat.avgHours,
				"based_on_count":  0,
				"category":        cat.name,
			},
		}
	}

	return Suggestion{
		Kind:       KindTimeEstimate,
		Message:    "Not enough data to estimate time for this task.",
		Confidence: 0,
		Data:       map[string]any{"estimated_hours": nil, "based_on_count": 0, "category": "unknown"},
	}
}

const defaultHoursPerTask = 1.5

// DetectConflicts checks whether scheduling a task on dueDate would
// overload that day: six or more open tasks, three or more high
// priority tasks, or estimated hours past maxDailyHours (8 when zero).
func DetectConflicts(dueDate time.Time, existing []store.Task, maxDailyHours float64) Suggestion {
	if maxDailyHours <= 0 {
		maxDailyHours = 8
	}
	targetDate := time.Date(dueDate.Year(), dueDate.Month(), dueDate.Day(), 0, 0, 0, 0, dueDate.Location())
	nextDay := targetDate.AddDate(0, 0, 1)

	taskCount := 0
	highCount := 0
	for _, t := range existing {
		if t.Completed || t.DueDate == nil {
			continue
		}
		if t.DueDate.Before(targetDate) || !t.DueDate.Before(nextDay) {
			continue
		}
		taskCount++
		if t.Priority == store.PriorityHigh {
			highCount++
		}
	}

	estimatedHours := float64(taskCount) * defaultHoursPerTask

	var conflicts []string
	if taskCount >= 6 {
		conflicts = append(conflicts, fmt.Sprintf("%d tasks already scheduled", taskCount))
	}
	if highCount >= 3 {
		conflicts = append(conflicts, fmt.Sprintf("%d high-priority tasks", highCount))
	}
	if estimatedHours > maxDailyHours {
		conflicts = append(conflicts, fmt.Sprintf("~%.0fh of work (exceeds %.0fh)", estimatedHours, maxDailyHours))
	}

	if len(conflicts) > 0 {
		return Suggestion{
			Kind: KindConflict,
			Message: fmt.Sprintf("Scheduling conflict on %s: %s. Consider a different date.",
				targetDate.Format("January 02"), strings.Join(conflicts, ", ")),
			Confidence: 0.85,
			Data: map[string]any{
				"conflict_date":       targetDate.Format("2006-01-02"),
				"existing_task_count": taskCount,
				"high_priority_count": highCount,
				"estimated_hours":     estimatedHours,
				"conflicts":           conflicts,
				"alternative_dates":   alternativeDates(targetDate, existing),
			},
		}
	}

	return Suggestion{
		Kind:       KindConflict,
		Message:    fmt.Sprintf("No scheduling conflicts detected for %s.", targetDate.Format("January 02")),
		Confidence: 0.9,
		Data: map[string]any{
			"conflict_date":       nil,
			"existing_task_count": taskCount,
			"estimated_hours":     estimatedHours,
		},
	}
}

// alternativeDates scans the week after targetDate for days with
// fewer than four open tasks, returning up to three.
func alternativeDates(targetDate time.Time, existing []store.Task) []string {
	var alternatives []string
	for i := 1; i <= 7 && len(alternatives) < 3; i++ {
		day := targetDate.AddDate(0, 0, i)
		next := day.AddDate(0, 0, 1)
		count := 0
		for _, t := range existing {
			if t.Completed || t.DueDate == nil {
				continue
			}
			if !t.DueDate.Before(day) && t.DueDate.Before(next) {
				count++
			}
		}
		if count < 4 {
			alternatives = append(alternatives, day.Format("January 02 (Monday)"))
		}
	}
	return alternatives
}

// AnalyzeWorkload buckets open tasks by due date over the coming
// daysAhead days (7 when zero) and flags any day with five or more
// tasks or three or more high priority tasks.
func AnalyzeWorkload(tasks []store.Task, now time.Time, daysAhead int) Suggestion {
	if daysAhead <= 0 {
		daysAhead = 7
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	horizon := today.AddDate(0, 0, daysAhead)

	type dayLoad struct {
		date      time.Time
		taskCount int
		highCount int
	}
	byDate := make(map[string]*dayLoad)
	total := 0

	for _, t := range tasks {
		if t.Completed || t.DueDate == nil {
			continue
		}
		due := *t.DueDate
		if due.Before(today) || due.After(horizon) {
			continue
		}
		key := due.Format("2006-01-02")
		load, ok := byDate[key]
		if !ok {
			load = &dayLoad{date: time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, due.Location())}
			byDate[key] = load
		}
		load.taskCount++
		total++
		if t.Priority == store.PriorityHigh {
			load.highCount++
		}
	}

	var overloaded []*dayLoad
	for _, load := range byDate {
		if load.taskCount >= 5 || load.highCount >= 3 {
			overloaded = append(overloaded, load)
		}
	}

	avgPerDay := math.Round(float64(total)/float64(daysAhead)*10) / 10

	if len(overloaded) > 0 {
		sort.Slice(overloaded, func(i, j int) bool {
			if overloaded[i].taskCount != overloaded[j].taskCount {
				return overloaded[i].taskCount > overloaded[j].taskCount
			}
			return overloaded[i].date.Before(overloaded[j].date)
		})
		busiest := overloaded[0]

		days := make([]map[string]any, len(overloaded))
		for i, d := range overloaded {
			days[i] = map[string]any{
				"date":                d.date.Format("2006-01-02"),
				"task_count":          d.taskCount,
				"high_priority_count": d.highCount,
			}
		}

		return Suggestion{
			Kind: KindWorkload,
			Message: fmt.Sprintf("Heavy workload: %d tasks due %s. Consider spreading tasks across days.",
				busiest.taskCount, busiest.date.Format("Monday, January 02")),
			Confidence: 0.85,
			Data: map[string]any{
				"overloaded_days": days,
				"total_upcoming":  total,
				"busiest_day":     days[0],
				"avg_per_day":     avgPerDay,
			},
		}
	}

	return Suggestion{
		Kind:       KindWorkload,
		Message:    fmt.Sprintf("Workload balanced: %d tasks over %d days (~%g/day).", total, daysAhead, avgPerDay),
		Confidence: 0.8,
		Data: map[string]any{
			"overloaded_days": []map[string]any{},
			"total_upcoming":  total,
			"avg_per_day":     avgPerDay,
		},
	}
}
