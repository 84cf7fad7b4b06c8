package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nibzard/todomini/internal/format"
	"github.com/nibzard/todomini/internal/kv"
	"github.com/nibzard/todomini/internal/todo"
)

// fixedClock returns a clock that advances one minute per call.
func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("task-%03d", n)
	}
}

func newTestStore(t *testing.T, backend kv.Store) *Store {
	t.Helper()
	if backend == nil {
		backend = kv.NewMemory()
	}
	return New(backend, WithClock(fixedClock()), WithIDFunc(seqIDs()))
}

func titles(tasks []todo.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestNew_EmptyWhenMissing(t *testing.T) {
	s := newTestStore(t, nil)
	assert.Empty(t, s.Tasks())
	assert.Equal(t, DefaultKey, s.Key())
}

func TestNew_EmptyWhenCorrupt(t *testing.T) {
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(DefaultKey, []byte("{not json")))

	s := newTestStore(t, mem)
	assert.Empty(t, s.Tasks())

	_, err := s.Add("fresh")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestNew_DropsDuplicateIDs(t *testing.T) {
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(DefaultKey, []byte(`[
		{"id":"x","title":"first","isCompleted":false,"createdAt":"2024-01-01T00:00:00Z","isStarred":false},
		{"id":"x","title":"second","isCompleted":false,"createdAt":"2024-01-02T00:00:00Z","isStarred":false}
	]`)))

	s := newTestStore(t, mem)
	assert.Equal(t, []string{"first"}, titles(s.Tasks()))
}

func TestNew_AssignsMissingIDs(t *testing.T) {
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(DefaultKey, []byte(`[
		{"title":"A","isCompleted":false,"createdAt":"2024-01-01T00:00:00Z","isStarred":false},
		{"title":"B","isCompleted":false,"isStarred":false}
	]`)))

	s := newTestStore(t, mem)
	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, []string{"A", "B"}, titles(tasks))
	assert.Equal(t, "task-001", tasks[0].ID)
	assert.Equal(t, "task-002", tasks[1].ID)
	assert.False(t, tasks[1].CreatedAt.IsZero())

	got, err := s.Resolve("task-002")
	require.NoError(t, err)
	assert.Equal(t, "B", got.Title)

	reloaded := newTestStore(t, mem).Tasks()
	require.Len(t, reloaded, 2)
	assert.Equal(t, tasks[0].ID, reloaded[0].ID, "assigned ids should be persisted")
	assert.Equal(t, tasks[1].ID, reloaded[1].ID, "assigned ids should be persisted")
	assert.True(t, tasks[1].CreatedAt.Equal(reloaded[1].CreatedAt))
}

func TestAdd_AppendsAndPersists(t *testing.T) {
	mem := kv.NewMemory()
	s := newTestStore(t, mem)

	a, err := s.Add("A")
	require.NoError(t, err)
	b, err := s.Add("B")
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, titles(s.Tasks()))
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.IsCompleted)
	assert.False(t, a.IsStarred)
	assert.Nil(t, a.DueDate)
	assert.Nil(t, a.Priority)

	data, err := mem.Get(DefaultKey)
	require.NoError(t, err)
	saved, err := todo.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, titles(saved))
}

func TestAddFull_KeepsFields(t *testing.T) {
	s := newTestStore(t, nil)
	due := time.Date(2024, 3, 2, 17, 0, 0, 0, time.UTC)

	task, err := s.AddFull(todo.Fields{
		Title:         "Report",
		DueDate:       &due,
		DurationInMin: todo.Ptr(0),
		Category:      todo.Ptr(todo.CategoryWork),
		Priority:      todo.Ptr(3),
		Notes:         todo.Ptr(""),
		IsStarred:     true,
	})
	require.NoError(t, err)

	got, ok := s.Get(task.ID)
	require.True(t, ok)
	require.NotNil(t, got.DurationInMin)
	assert.Equal(t, 0, *got.DurationInMin)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "", *got.Notes)
	assert.True(t, got.DueDate.Equal(due))
	assert.True(t, got.IsStarred)
	assert.Nil(t, got.ReminderDate)
}

func TestAddFull_RegeneratesCollidingID(t *testing.T) {
	ids := []string{"same", "same", "other"}
	n := 0
	s := New(kv.NewMemory(), WithIDFunc(func() string {
		id := ids[n]
		n++
		return id
	}))

	a, err := s.Add("a")
	require.NoError(t, err)
	b, err := s.Add("b")
	require.NoError(t, err)
	assert.Equal(t, "same", a.ID)
	assert.Equal(t, "other", b.ID)
}

func TestUpdate_InPlace(t *testing.T) {
	s := newTestStore(t, nil)
	a, _ := s.Add("A")
	b, _ := s.Add("B")
	s.Add("C")

	f := b.Fields()
	f.Title = "B2"
	f.Priority = todo.Ptr(2)
	ok, err := s.Update(b.ID, f)
	require.NoError(t, err)
	require.True(t, ok)

	tasks := s.Tasks()
	assert.Equal(t, []string{"A", "B2", "C"}, titles(tasks))
	assert.Equal(t, b.ID, tasks[1].ID)
	assert.True(t, tasks[1].CreatedAt.Equal(b.CreatedAt))
	assert.Equal(t, a.ID, tasks[0].ID)
}

func TestNotFound_IsNoop(t *testing.T) {
	mem := kv.NewMemory()
	s := newTestStore(t, mem)
	s.Add("A")
	before, _ := mem.Get(DefaultKey)

	ch, cancel := s.Subscribe()
	defer cancel()

	ok, err := s.Update("missing", todo.Fields{Title: "x"})
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.ToggleComplete("missing")
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Edit("missing", func(f *todo.Fields) { f.Title = "x" })
	assert.NoError(t, err)
	assert.False(t, ok)

	n, err := s.Delete("missing")
	assert.NoError(t, err)
	assert.Zero(t, n)

	after, _ := mem.Get(DefaultKey)
	assert.Equal(t, before, after)
	assert.Equal(t, []string{"A"}, titles(s.Tasks()))
	select {
	case <-ch:
		t.Fatal("no-op should not notify")
	default:
	}
}

func TestToggleComplete(t *testing.T) {
	s := newTestStore(t, nil)
	a, _ := s.Add("A")

	ok, err := s.ToggleComplete(a.ID)
	require.NoError(t, err)
	require.True(t, ok)
	got, _ := s.Get(a.ID)
	assert.True(t, got.IsCompleted)

	s.ToggleComplete(a.ID)
	got, _ = s.Get(a.ID)
	assert.False(t, got.IsCompleted)
}

func TestDelete_Set(t *testing.T) {
	s := newTestStore(t, nil)
	a, _ := s.Add("A")
	s.Add("B")
	c, _ := s.Add("C")

	n, err := s.Delete(a.ID, c.ID, "missing")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"B"}, titles(s.Tasks()))
}

func TestDeleteCompleted_LeavesIncompleteUntouched(t *testing.T) {
	s := newTestStore(t, nil)
	for _, title := range []string{"A", "B", "C", "D"} {
		s.AddFull(todo.Fields{Title: title, Priority: todo.Ptr(len(title))})
	}
	tasks := s.Tasks()
	s.ToggleComplete(tasks[1].ID)
	s.ToggleComplete(tasks[3].ID)

	var incomplete []todo.Task
	for _, task := range s.Tasks() {
		if !task.IsCompleted {
			incomplete = append(incomplete, task)
		}
	}

	n, err := s.DeleteCompleted()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	remaining := s.Tasks()
	for _, task := range remaining {
		assert.False(t, task.IsCompleted)
	}
	assert.Equal(t, incomplete, remaining)

	n, err = s.DeleteCompleted()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIdentityInvariants(t *testing.T) {
	s := newTestStore(t, nil)
	created := map[string]time.Time{}

	observe := func() {
		seen := map[string]bool{}
		for _, task := range s.Tasks() {
			require.False(t, seen[task.ID], "duplicate id %s", task.ID)
			seen[task.ID] = true
			if at, ok := created[task.ID]; ok {
				require.True(t, at.Equal(task.CreatedAt), "createdAt changed for %s", task.ID)
			} else {
				created[task.ID] = task.CreatedAt
			}
		}
	}

	for i := 0; i < 20; i++ {
		task, err := s.Add(fmt.Sprintf("t%d", i))
		require.NoError(t, err)
		observe()

		switch i % 4 {
		case 1:
			s.Update(task.ID, todo.Fields{Title: "renamed", Priority: todo.Ptr(i % 5)})
		case 2:
			s.ToggleComplete(task.ID)
		case 3:
			s.Delete(task.ID)
		}
		observe()

		if i%7 == 6 {
			s.DeleteCompleted()
			observe()
		}
	}
}

func TestEdit_PartialUpdate(t *testing.T) {
	s := newTestStore(t, nil)
	task, _ := s.AddFull(todo.Fields{Title: "A", Notes: todo.Ptr("keep")})

	ok, err := s.Edit(task.ID, func(f *todo.Fields) {
		f.IsStarred = true
	})
	require.NoError(t, err)
	require.True(t, ok)

	got, _ := s.Get(task.ID)
	assert.True(t, got.IsStarred)
	assert.Equal(t, "A", got.Title)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "keep", *got.Notes)
}

func TestDurationScenario(t *testing.T) {
	s := newTestStore(t, nil)
	s.AddFull(todo.Fields{Title: "A", Priority: todo.Ptr(3)})
	b, _ := s.AddFull(todo.Fields{Title: "B", Priority: todo.Ptr(1)})

	f := b.Fields()
	f.DurationInMin = todo.Ptr(45)
	_, err := s.Update(b.ID, f)
	require.NoError(t, err)
	got, _ := s.Get(b.ID)
	assert.Equal(t, "45min", format.Duration(*got.DurationInMin))

	f.DurationInMin = todo.Ptr(90)
	_, err = s.Update(b.ID, f)
	require.NoError(t, err)
	got, _ = s.Get(b.ID)
	assert.Equal(t, "1h 30m", format.Duration(*got.DurationInMin))
}

func TestReload_RoundTrip(t *testing.T) {
	mem := kv.NewMemory()
	s := newTestStore(t, mem)
	due := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.AddFull(todo.Fields{
		Title:         "full",
		DueDate:       &due,
		ReminderDate:  &due,
		DurationInMin: todo.Ptr(0),
		Category:      todo.Ptr(todo.CategoryOther),
		Priority:      todo.Ptr(5),
		Notes:         todo.Ptr(""),
		IsStarred:     true,
	})
	s.Add("bare")

	reloaded := New(mem)
	want, _ := todo.Encode(s.Tasks())
	got, _ := todo.Encode(reloaded.Tasks())
	assert.JSONEq(t, string(want), string(got))

	bare := reloaded.Tasks()[1]
	assert.Nil(t, bare.DurationInMin)
	assert.Nil(t, bare.Notes)
	assert.Nil(t, bare.Category)
}

func TestPersistFailure_KeepsMemoryAndReports(t *testing.T) {
	mem := kv.NewMemory()
	s := newTestStore(t, mem)
	s.Add("saved")

	boom := errors.New("disk full")
	mem.FailWrites = boom

	task, err := s.Add("unsaved")
	var perr *PersistError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, DefaultKey, perr.Key)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "unsaved", task.Title)
	assert.Equal(t, []string{"saved", "unsaved"}, titles(s.Tasks()))

	mem.FailWrites = nil
	assert.Equal(t, []string{"saved"}, titles(New(mem).Tasks()))
}

func TestWithKey(t *testing.T) {
	mem := kv.NewMemory()
	s := New(mem, WithKey("Other"))
	s.Add("x")

	_, err := mem.Get(DefaultKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)
	_, err = mem.Get("Other")
	assert.NoError(t, err)
}

func TestImport(t *testing.T) {
	s := newTestStore(t, nil)
	existing, _ := s.Add("existing")

	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	n, err := s.Import([]todo.Task{
		{ID: existing.ID, Title: "dup"},
		{ID: "imported", Title: "kept", CreatedAt: created},
		{Title: "no id"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, ok := s.Get("imported")
	require.True(t, ok)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Equal(t, []string{"existing", "kept", "no id"}, titles(s.Tasks()))
	for _, task := range s.Tasks() {
		assert.NotEmpty(t, task.ID)
		assert.False(t, task.CreatedAt.IsZero())
	}
}

func TestResolve(t *testing.T) {
	s := New(kv.NewMemory(), WithIDFunc(func() func() string {
		ids := []string{"abc123", "abd456", "xyz789"}
		n := 0
		return func() string { n++; return ids[n-1] }
	}()))
	s.Add("one")
	s.Add("two")
	s.Add("three")

	got, err := s.Resolve("xyz")
	require.NoError(t, err)
	assert.Equal(t, "three", got.Title)

	got, err = s.Resolve("abc123")
	require.NoError(t, err)
	assert.Equal(t, "one", got.Title)

	_, err = s.Resolve("ab")
	assert.ErrorIs(t, err, ErrAmbiguous)

	_, err = s.Resolve("nope")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = s.Resolve("  ")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestTasksReturnsCopies(t *testing.T) {
	s := newTestStore(t, nil)
	s.AddFull(todo.Fields{Title: "A", Priority: todo.Ptr(1)})

	tasks := s.Tasks()
	tasks[0].Title = "changed"
	*tasks[0].Priority = 5

	again := s.Tasks()
	assert.Equal(t, "A", again[0].Title)
	assert.Equal(t, 1, *again[0].Priority)
}

func TestSubscribe_Coalesces(t *testing.T) {
	s := newTestStore(t, nil)
	ch, cancel := s.Subscribe()

	s.Add("a")
	s.Add("b")
	s.Add("c")

	select {
	case <-ch:
	default:
		t.Fatal("expected a notification")
	}
	select {
	case <-ch:
		t.Fatal("notifications should coalesce")
	default:
	}

	cancel()
	_, open := <-ch
	assert.False(t, open)
	cancel()

	s.Add("d")
}

func TestSubscribe_NotifiesOnPersistFailure(t *testing.T) {
	mem := kv.NewMemory()
	s := newTestStore(t, mem)
	ch, cancel := s.Subscribe()
	defer cancel()

	mem.FailWrites = errors.New("read-only")
	_, err := s.Add("a")
	require.Error(t, err)

	select {
	case <-ch:
	default:
		t.Fatal("in-memory change should still notify")
	}
}

func TestConcurrentAdds(t *testing.T) {
	s := New(kv.NewMemory())
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 25; j++ {
				s.Add(fmt.Sprintf("%d-%d", i, j))
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	assert.Equal(t, 200, s.Len())
}
