package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/taskpilot/taskpilot/backend/store"
)

type AnalyticsInput struct{}

func AnalyticsTool() Tool {
	return New("get_analytics",
		"Get productivity statistics for the user's tasks: totals, completion rate, overdue and upcoming counts, and a priority breakdown.",
		getAnalytics)
}

func getAnalytics(ctx context.Context, env Env, _ AnalyticsInput) (map[string]any, error) {
	tasks, err := env.Store.ListTasks(ctx, env.UserID, store.Filter{Status: store.StatusAll})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	now := env.Now
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.AddDate(0, 0, 1)

	// Week runs Monday through Sunday.
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	weekStart := todayStart.AddDate(0, 0, -daysSinceMonday)
	weekEnd := weekStart.AddDate(0, 0, 7)

	var (
		completedCount    int
		overdueCount      int
		dueTodayCount     int
		dueThisWeekCount  int
		completedThisWeek int
		byPriority        = map[string]int{"high": 0, "medium": 0, "low": 0}
		overdueTasks      []map[string]any
		dueTodayTasks     []map[string]any
	)

	for _, t := range tasks {
		if t.Completed {
			completedCount++
			if t.CompletedAt != nil && !t.CompletedAt.Before(weekStart) && t.CompletedAt.Before(weekEnd) {
				completedThisWeek++
			}
			continue
		}

		byPriority[string(t.Priority)]++

		if t.DueDate == nil {
			continue
		}
		due := *t.DueDate
		if due.Before(now) {
			overdueCount++
			if len(overdueTasks) < 5 {
				overdueTasks = append(overdueTasks, map[string]any{
					"id":       t.ID.String(),
					"title":    t.Title,
					"due_date": due.Format(time.RFC3339),
				})
			}
		}
		if !due.Before(todayStart) && due.Before(todayEnd) {
			dueTodayCount++
			if len(dueTodayTasks) < 5 {
				dueTodayTasks = append(dueTodayTasks, map[string]any{
					"id":       t.ID.String(),
					"title":    t.Title,
					"priority": string(t.Priority),
				})
			}
		}
		if !due.Before(weekStart) && due.Before(weekEnd) {
			dueThisWeekCount++
		}
	}

	totalTasks := len(tasks)
	pendingCount := totalTasks - completedCount
	completionRate := 0.0
	if totalTasks > 0 {
		completionRate = float64(completedCount) / float64(totalTasks) * 100
	}

	return map[string]any{
		"summary": map[string]any{
			"total_tasks":     totalTasks,
			"completed_count": completedCount,
			"pending_count":   pendingCount,
			"completion_rate": completionRate,
		},
		"urgency": map[string]any{
			"overdue_count":         overdueCount,
			"due_today_count":       dueTodayCount,
			"due_this_week_count":   dueThisWeekCount,
			"high_priority_pending": byPriority["high"],
		},
		"productivity": map[string]any{
			"completed_this_week": completedThisWeek,
		},
		"by_priority":     byPriority,
		"overdue_tasks":   overdueTasks,
		"due_today_tasks": dueTodayTasks,
	}, nil
}
