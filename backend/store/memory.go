package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps tasks in process memory. Used by tests and by chat
// sessions that do not need persistence.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]Task
	now   func() time.Time
}

type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the timestamp source. Tests pin it to a fixed
// instant.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		tasks: make(map[uuid.UUID]Task),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) CreateTask(_ context.Context, task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}
	if task.RecurrencePattern == "" {
		task.RecurrencePattern = RecurrenceNone
	}
	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	s.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (s *MemoryStore) GetTask(_ context.Context, userID, taskID uuid.UUID) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok || task.UserID != userID {
		return nil, ErrNotFound
	}
	out := cloneTask(task)
	return &out, nil
}

func (s *MemoryStore) UpdateTask(_ context.Context, task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return ErrNotFound
	}
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = s.now()
	s.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (s *MemoryStore) DeleteTask(_ context.Context, userID, taskID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok || task.UserID != userID {
		return ErrNotFound
	}
	delete(s.tasks, taskID)
	return nil
}

func (s *MemoryStore) ListTasks(_ context.Context, userID uuid.UUID, filter Filter) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make([]Task, 0)
	for _, task := range s.tasks {
		if task.UserID != userID {
			continue
		}
		if matchesFilter(&task, filter, now) {
			out = append(out, cloneTask(task))
		}
	}
	sortTasks(out)
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func matchesFilter(t *Task, f Filter, now time.Time) bool {
	switch f.Status {
	case StatusPending:
		if t.Completed {
			return false
		}
	case StatusCompleted:
		if !t.Completed {
			return false
		}
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if len(f.Tags) > 0 && !hasAnyTag(t.Tags, f.Tags) {
		return false
	}
	if f.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(*f.DueBefore)) {
		return false
	}
	if f.DueAfter != nil && (t.DueDate == nil || !t.DueDate.After(*f.DueAfter)) {
		return false
	}
	if f.OverdueOnly && !t.IsOverdue(now) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	return true
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

// sortTasks orders pending before completed, then soonest due date with
// undated tasks last, then newest created first.
func sortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := &tasks[i], &tasks[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		switch {
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func cloneTask(t Task) Task {
	if t.Tags != nil {
		t.Tags = append([]string(nil), t.Tags...)
	}
	return t
}
