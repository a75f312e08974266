package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	bob   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func newStores(t *testing.T, clock func() time.Time) map[string]Store {
	t.Helper()

	sqliteStore, err := OpenSQLite(":memory:", WithSQLiteClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(WithMemoryClock(clock)),
		"sqlite": sqliteStore,
	}
}

func TestStoreCRUD(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, s := range newStores(t, func() time.Time { return now }) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			due := now.AddDate(0, 0, 2)
			task := &Task{
				UserID:      alice,
				Title:       "Buy milk",
				Description: "from the corner shop",
				Tags:        []string{"errands"},
				DueDate:     &due,
			}
			require.NoError(t, s.CreateTask(ctx, task))
			assert.NotEqual(t, uuid.Nil, task.ID)
			assert.Equal(t, PriorityMedium, task.Priority)
			assert.Equal(t, RecurrenceNone, task.RecurrencePattern)
			assert.Equal(t, now, task.CreatedAt)

			got, err := s.GetTask(ctx, alice, task.ID)
			require.NoError(t, err)
			assert.Equal(t, "Buy milk", got.Title)
			assert.Equal(t, []string{"errands"}, got.Tags)
			require.NotNil(t, got.DueDate)
			assert.True(t, got.DueDate.Equal(due))

			got.Title = "Buy oat milk"
			got.Completed = true
			completedAt := now.Add(time.Hour)
			got.CompletedAt = &completedAt
			require.NoError(t, s.UpdateTask(ctx, got))

			got, err = s.GetTask(ctx, alice, task.ID)
			require.NoError(t, err)
			assert.Equal(t, "Buy oat milk", got.Title)
			assert.True(t, got.Completed)
			require.NotNil(t, got.CompletedAt)

			require.NoError(t, s.DeleteTask(ctx, alice, task.ID))
			_, err = s.GetTask(ctx, alice, task.ID)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreUserScoping(t *testing.T) {
	t.Parallel()

	for name, s := range newStores(t, time.Now) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			task := &Task{UserID: alice, Title: "Private"}
			require.NoError(t, s.CreateTask(ctx, task))

			_, err := s.GetTask(ctx, bob, task.ID)
			assert.ErrorIs(t, err, ErrNotFound)

			err = s.DeleteTask(ctx, bob, task.ID)
			assert.ErrorIs(t, err, ErrNotFound)

			stolen := *task
			stolen.UserID = bob
			stolen.Title = "Hijacked"
			assert.ErrorIs(t, s.UpdateTask(ctx, &stolen), ErrNotFound)

			tasks, err := s.ListTasks(ctx, bob, Filter{Status: StatusAll})
			require.NoError(t, err)
			assert.Empty(t, tasks)
		})
	}
}

func TestStoreNotFound(t *testing.T) {
	t.Parallel()

	for name, s := range newStores(t, time.Now) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.GetTask(ctx, alice, uuid.New())
			assert.ErrorIs(t, err, ErrNotFound)

			assert.ErrorIs(t, s.DeleteTask(ctx, alice, uuid.New()), ErrNotFound)
			assert.ErrorIs(t, s.UpdateTask(ctx, &Task{ID: uuid.New(), UserID: alice}), ErrNotFound)
		})
	}
}

func TestStoreListFilters(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, s := range newStores(t, func() time.Time { return now }) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			overdueAt := now.AddDate(0, 0, -1)
			soonAt := now.AddDate(0, 0, 1)
			laterAt := now.AddDate(0, 0, 10)

			seed := []*Task{
				{UserID: alice, Title: "Overdue report", Priority: PriorityHigh, DueDate: &overdueAt, Tags: []string{"work"}},
				{UserID: alice, Title: "Soon errand", Priority: PriorityMedium, DueDate: &soonAt, Tags: []string{"errands"}},
				{UserID: alice, Title: "Later project", Priority: PriorityLow, DueDate: &laterAt},
				{UserID: alice, Title: "Finished chore", Completed: true},
			}
			for _, task := range seed {
				require.NoError(t, s.CreateTask(ctx, task))
			}

			titles := func(tasks []Task) []string {
				out := make([]string, len(tasks))
				for i, task := range tasks {
					out[i] = task.Title
				}
				return out
			}

			tasks, err := s.ListTasks(ctx, alice, Filter{Status: StatusPending})
			require.NoError(t, err)
			assert.Equal(t, []string{"Overdue report", "Soon errand", "Later project"}, titles(tasks))

			tasks, err = s.ListTasks(ctx, alice, Filter{Status: StatusCompleted})
			require.NoError(t, err)
			assert.Equal(t, []string{"Finished chore"}, titles(tasks))

			tasks, err = s.ListTasks(ctx, alice, Filter{Status: StatusAll, Priority: PriorityHigh})
			require.NoError(t, err)
			assert.Equal(t, []string{"Overdue report"}, titles(tasks))

			tasks, err = s.ListTasks(ctx, alice, Filter{Status: StatusAll, Tags: []string{"errands", "health"}})
			require.NoError(t, err)
			assert.Equal(t, []string{"Soon errand"}, titles(tasks))

			tasks, err = s.ListTasks(ctx, alice, Filter{Status: StatusAll, OverdueOnly: true})
			require.NoError(t, err)
			assert.Equal(t, []string{"Overdue report"}, titles(tasks))

			cutoff := now.AddDate(0, 0, 5)
			tasks, err = s.ListTasks(ctx, alice, Filter{Status: StatusAll, DueBefore: &cutoff})
			require.NoError(t, err)
			assert.Equal(t, []string{"Overdue report", "Soon errand"}, titles(tasks))

			tasks, err = s.ListTasks(ctx, alice, Filter{Status: StatusAll, DueAfter: &cutoff})
			require.NoError(t, err)
			assert.Equal(t, []string{"Later project"}, titles(tasks))

			tasks, err = s.ListTasks(ctx, alice, Filter{Status: StatusAll, Search: "REPORT"})
			require.NoError(t, err)
			assert.Equal(t, []string{"Overdue report"}, titles(tasks))
		})
	}
}

func TestStoreListOrdering(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	clock := func() time.Time { return now }

	for name, s := range newStores(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			nearDue := base.AddDate(0, 0, 1)
			farDue := base.AddDate(0, 0, 5)

			now = base
			require.NoError(t, s.CreateTask(ctx, &Task{UserID: alice, Title: "Old undated"}))
			now = base.Add(time.Minute)
			require.NoError(t, s.CreateTask(ctx, &Task{UserID: alice, Title: "New undated"}))
			now = base.Add(2 * time.Minute)
			require.NoError(t, s.CreateTask(ctx, &Task{UserID: alice, Title: "Far due", DueDate: &farDue}))
			now = base.Add(3 * time.Minute)
			require.NoError(t, s.CreateTask(ctx, &Task{UserID: alice, Title: "Near due", DueDate: &nearDue}))
			now = base.Add(4 * time.Minute)
			require.NoError(t, s.CreateTask(ctx, &Task{UserID: alice, Title: "Done", Completed: true}))

			tasks, err := s.ListTasks(ctx, alice, Filter{Status: StatusAll})
			require.NoError(t, err)

			got := make([]string, len(tasks))
			for i, task := range tasks {
				got[i] = task.Title
			}
			want := []string{"Near due", "Far due", "New undated", "Old undated", "Done"}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("task order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	task := &Task{UserID: alice, Title: "Original", Tags: []string{"a"}}
	require.NoError(t, s.CreateTask(ctx, task))

	got, err := s.GetTask(ctx, alice, task.ID)
	require.NoError(t, err)
	got.Title = "Mutated"
	got.Tags[0] = "b"

	again, err := s.GetTask(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Title)
	assert.Equal(t, []string{"a"}, again.Tags)
}
