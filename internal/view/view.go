// Package view derives the displayed task sequence from a collection: a
// category filter followed by the list ordering.
package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nibzard/todomini/internal/todo"
)

// Filter selects tasks by category. All keeps every task.
type Filter string

const (
	All      Filter = "all"
	Work     Filter = Filter(todo.CategoryWork)
	Personal Filter = Filter(todo.CategoryPersonal)
	Other    Filter = Filter(todo.CategoryOther)
)

// Filters lists the filters in display order.
func Filters() []Filter {
	return []Filter{All, Work, Personal, Other}
}

// ParseFilter accepts "all" (or "") and any category name, case-insensitively.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(All)) {
		return All, nil
	}
	c, err := todo.ParseCategory(s)
	if err != nil {
		return "", fmt.Errorf("invalid filter %q, must be all or one of: work, personal, other", s)
	}
	return Filter(c), nil
}

// Category returns the category the filter matches, or false for All.
func (f Filter) Category() (todo.Category, bool) {
	if f == All || f == "" {
		return "", false
	}
	return todo.Category(f), true
}

// Label is the display name of the filter.
func (f Filter) Label() string {
	if c, ok := f.Category(); ok {
		return string(c)
	}
	return "All"
}

// Match reports whether t passes the filter.
func (f Filter) Match(t todo.Task) bool {
	c, ok := f.Category()
	return !ok || t.HasCategory(c)
}

// Apply returns the tasks passing filter, sorted. The input is not modified.
func Apply(tasks []todo.Task, filter Filter) []todo.Task {
	out := make([]todo.Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.Match(t) {
			out = append(out, t)
		}
	}
	Sort(out)
	return out
}

// Sort orders tasks in place using Less. Ties keep their input order.
func Sort(tasks []todo.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return Less(tasks[i], tasks[j])
	})
}

// Less reports whether a is listed before b: incomplete first, then starred,
// then higher priority (absent counts as 0), then tasks with a due date,
// then earlier due date, then newer createdAt.
func Less(a, b todo.Task) bool {
	if a.IsCompleted != b.IsCompleted {
		return !a.IsCompleted
	}
	if a.IsStarred != b.IsStarred {
		return a.IsStarred
	}
	if pa, pb := a.PriorityValue(), b.PriorityValue(); pa != pb {
		return pa > pb
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
}

// Completed returns the completed tasks, keeping order.
func Completed(tasks []todo.Task) []todo.Task {
	return keep(tasks, func(t todo.Task) bool { return t.IsCompleted })
}

// Incomplete returns the tasks not yet completed, keeping order.
func Incomplete(tasks []todo.Task) []todo.Task {
	return keep(tasks, func(t todo.Task) bool { return !t.IsCompleted })
}

func keep(tasks []todo.Task, pred func(todo.Task) bool) []todo.Task {
	out := make([]todo.Task, 0, len(tasks))
	for _, t := range tasks {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}

// Summary counts tasks for list headers.
type Summary struct {
	Total      int
	Completed  int
	Starred    int
	ByCategory map[todo.Category]int
	// Uncategorized counts tasks without a category.
	Uncategorized int
}

// Open returns the number of incomplete tasks.
func (s Summary) Open() int {
	return s.Total - s.Completed
}

// ForFilter returns how many tasks the filter would show.
func (s Summary) ForFilter(f Filter) int {
	if c, ok := f.Category(); ok {
		return s.ByCategory[c]
	}
	return s.Total
}

// Counts summarizes tasks.
func Counts(tasks []todo.Task) Summary {
	s := Summary{ByCategory: make(map[todo.Category]int, len(todo.Categories()))}
	for _, t := range tasks {
		s.Total++
		if t.IsCompleted {
			s.Completed++
		}
		if t.IsStarred {
			s.Starred++
		}
		if t.Category != nil {
			s.ByCategory[*t.Category]++
		} else {
			s.Uncategorized++
		}
	}
	return s
}
