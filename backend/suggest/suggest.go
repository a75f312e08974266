// Package suggest derives heuristic task suggestions from a user's
// task history. Every function here is pure: it operates only on the
// task collections and reference instant handed to it, never on a
// clock or a store, so identical inputs always produce identical
// suggestions.
package suggest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/taskpilot/taskpilot/backend/store"
)

// Kind labels what aspect of a task a suggestion is about.
type Kind string

const (
	KindPriority     Kind = "priority"
	KindTag          Kind = "tag"
	KindSimilar      Kind = "similar"
	KindFocus        Kind = "focus"
	KindTimeEstimate Kind = "time_estimate"
	KindConflict     Kind = "conflict"
	KindWorkload     Kind = "workload"
	KindHabit        Kind = "habit"
)

// Suggestion is a single heuristic recommendation with a confidence
// score in [0, 1] and kind-specific structured data.
type Suggestion struct {
	Kind       Kind           `json:"kind"`
	Message    string         `json:"message"`
	Confidence float64        `json:"confidence"`
	Data       map[string]any `json:"data,omitempty"`
}

// Keyword tables are ordered slices rather than sets so that "first
// match wins" is deterministic across calls.
var highPriorityKeywords = []string{
	"urgent", "asap", "emergency", "critical", "important",
	"deadline", "due soon", "overdue", "immediately",
	"must", "need to", "have to", "crucial", "vital",
	"high priority", "priority",
	"zaroori", "zaruri", "fori", "jaldi", "abhi",
	"lazmi", "ahem", "zaroor",
	"ضروری", "فوری", "جلدی", "ابھی",
}

var lowPriorityKeywords = []string{
	"whenever", "someday", "eventually", "if possible",
	"when free", "no rush", "later", "maybe",
	"optional", "nice to have",
	"jab bhi", "kabi bhi", "baad mein", "phir kabhi",
	"جب بھی", "بعد میں",
}

var timeSensitiveKeywords = []string{
	"today", "tonight", "this morning", "this afternoon",
	"tomorrow", "next week", "by monday", "by friday",
	"end of day", "eod", "end of week", "eow",
	"aaj", "kal", "آج", "کل",
}

// SuggestPriority inspects title and description for urgency or
// flexibility vocabulary and recommends a priority level.
func SuggestPriority(title, description string) Suggestion {
	text := strings.ToLower(title + " " + description)

	for _, kw := range highPriorityKeywords {
		if strings.Contains(text, kw) {
			return Suggestion{
				Kind:       KindPriority,
				Message:    fmt.Sprintf("This task seems urgent based on %q. Suggesting high priority.", kw),
				Confidence: 0.85,
				Data:       map[string]any{"suggested_priority": "high", "trigger": kw},
			}
		}
	}
	for _, kw := range lowPriorityKeywords {
		if strings.Contains(text, kw) {
			return Suggestion{
				Kind:       KindPriority,
				Message:    fmt.Sprintf("This task seems flexible based on %q. Suggesting low priority.", kw),
				Confidence: 0.75,
				Data:       map[string]any{"suggested_priority": "low", "trigger": kw},
			}
		}
	}
	for _, kw := range timeSensitiveKeywords {
		if strings.Contains(text, kw) {
			return Suggestion{
				Kind:       KindPriority,
				Message:    "This task has a time element. Suggesting medium to high priority.",
				Confidence: 0.7,
				Data:       map[string]any{"suggested_priority": "medium", "trigger": kw},
			}
		}
	}
	return Suggestion{
		Kind:       KindPriority,
		Message:    "No specific urgency indicators found. Defaulting to medium priority.",
		Confidence: 0.5,
		Data:       map[string]any{"suggested_priority": "medium", "trigger": nil},
	}
}

// SuggestTags ranks the user's historical tags by frequency and
// recommends the ones whose text overlaps the new title, falling back
// to the top three most used tags.
func SuggestTags(title string, tagHistory []string) Suggestion {
	if len(tagHistory) == 0 {
		return Suggestion{
			Kind:       KindTag,
			Message:    "No tag history available for suggestions.",
			Confidence: 0,
			Data:       map[string]any{"suggested_tags": []string{}},
		}
	}

	counts := make(map[string]int)
	for _, tag := range tagHistory {
		counts[tag]++
	}
	ranked := make([]string, 0, len(counts))
	for tag := range counts {
		ranked = append(ranked, tag)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}

	titleLower := strings.ToLower(title)
	titleWords := strings.Fields(titleLower)

	var matched []string
	for _, tag := range ranked {
		tagLower := strings.ToLower(tag)
		if strings.Contains(titleLower, tagLower) {
			matched = append(matched, tag)
			continue
		}
		for _, word := range titleWords {
			if strings.Contains(tagLower, word) {
				matched = append(matched, tag)
				break
			}
		}
	}

	if len(matched) > 0 {
		return Suggestion{
			Kind:       KindTag,
			Message:    "Based on your history and task content, consider these tags: " + strings.Join(matched, ", "),
			Confidence: 0.7,
			Data:       map[string]any{"suggested_tags": matched},
		}
	}

	top := ranked
	if len(top) > 3 {
		top = top[:3]
	}
	return Suggestion{
		Kind:       KindTag,
		Message:    "Your most used tags are: " + strings.Join(top, ", "),
		Confidence: 0.5,
		Data:       map[string]any{"suggested_tags": top, "is_fallback": true},
	}
}

// jaccard computes token-set similarity between two titles.
func jaccard(a, b string) float64 {
	wordsA := tokenSet(a)
	wordsB := tokenSet(b)
	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 0
	}
	inter := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			inter++
		}
	}
	union := len(wordsA) + len(wordsB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}

// SimilarTasks finds open tasks whose titles overlap the new title at
// 30% Jaccard similarity or above, ranked by similarity.
func SimilarTasks(newTitle string, existing []store.Task) Suggestion {
	type scored struct {
		task store.Task
		sim  float64
	}
	var similar []scored
	for _, t := range existing {
		if t.Completed {
			continue
		}
		if sim := jaccard(newTitle, t.Title); sim >= 0.3 {
			similar = append(similar, scored{t, sim})
		}
	}
	sort.SliceStable(similar, func(i, j int) bool { return similar[i].sim > similar[j].sim })
	if len(similar) > 3 {
		similar = similar[:3]
	}

	if len(similar) == 0 {
		return Suggestion{
			Kind:       KindSimilar,
			Message:    "No similar tasks found. This appears to be a new task.",
			Confidence: 0.5,
			Data:       map[string]any{"similar_tasks": []map[string]any{}},
		}
	}

	titles := make([]string, len(similar))
	matches := make([]map[string]any, len(similar))
	for i, s := range similar {
		titles[i] = s.task.Title
		matches[i] = map[string]any{
			"id":         s.task.ID.String(),
			"title":      s.task.Title,
			"similarity": s.sim,
		}
	}
	return Suggestion{
		Kind:       KindSimilar,
		Message:    "Found similar existing tasks: " + strings.Join(titles, ", ") + ". Consider if this is a duplicate.",
		Confidence: 0.75,
		Data:       map[string]any{"similar_tasks": matches},
	}
}

// SuggestFocus picks the tasks most worth attention right now:
// overdue first, then due today, then high priority.
func SuggestFocus(tasks []store.Task, now time.Time) Suggestion {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)

	var overdue, dueToday, highPriority []store.Task
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		if t.DueDate != nil {
			if t.DueDate.Before(today) {
				overdue = append(overdue, t)
			} else if t.DueDate.Before(tomorrow) {
				dueToday = append(dueToday, t)
			}
		}
		if t.Priority == store.PriorityHigh {
			highPriority = append(highPriority, t)
		}
	}

	seen := make(map[string]bool)
	var focus []store.Task
	take := func(candidates []store.Task, limit int) {
		taken := 0
		for _, t := range candidates {
			if taken >= limit {
				break
			}
			id := t.ID.String()
			if seen[id] {
				continue
			}
			seen[id] = true
			focus = append(focus, t)
			taken++
		}
	}
	take(overdue, 2)
	take(dueToday, 2)
	take(highPriority, 2)

	if len(focus) == 0 {
		return Suggestion{
			Kind:       KindFocus,
			Message:    "No urgent tasks! You're all caught up. Consider working on any pending tasks.",
			Confidence: 0.5,
			Data:       map[string]any{"focus_tasks": []map[string]any{}, "summary": "all_clear"},
		}
	}

	var parts []string
	if len(overdue) > 0 {
		parts = append(parts, fmt.Sprintf("%d overdue task(s)", len(overdue)))
	}
	if len(dueToday) > 0 {
		parts = append(parts, fmt.Sprintf("%d due today", len(dueToday)))
	}
	if len(highPriority) > 0 {
		parts = append(parts, fmt.Sprintf("%d high priority", len(highPriority)))
	}

	topTitles := make([]string, 0, 3)
	focusData := make([]map[string]any, 0, len(focus))
	for i, t := range focus {
		if i < 3 {
			topTitles = append(topTitles, t.Title)
		}
		if i < 5 {
			focusData = append(focusData, map[string]any{
				"id":       t.ID.String(),
				"title":    t.Title,
				"priority": string(t.Priority),
			})
		}
	}

	return Suggestion{
		Kind:       KindFocus,
		Message:    "Focus on: " + strings.Join(parts, ", ") + ". Top tasks: " + strings.Join(topTitles, ", "),
		Confidence: 0.85,
		Data: map[string]any{
			"focus_tasks":         focusData,
			"overdue_count":       len(overdue),
			"due_today_count":     len(dueToday),
			"high_priority_count": len(highPriority),
		},
	}
}
