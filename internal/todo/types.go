// Package todo defines the task record, its JSON/YAML encoding, and validation.
package todo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category classifies a task.
type Category string

const (
	CategoryWork     Category = "Work"
	CategoryPersonal Category = "Personal"
	CategoryOther    Category = "Other"
)

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{CategoryWork, CategoryPersonal, CategoryOther}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryWork, CategoryPersonal, CategoryOther:
		return true
	}
	return false
}

// ParseCategory parses a category name, ignoring case.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q, must be one of: Work, Personal, Other", s)
}

// Priority bounds accepted by validation.
const (
	MinPriority = 1
	MaxPriority = 5
)

// Task is a single todo item.
//
// ID and CreatedAt are assigned once by New and never change afterwards.
type Task struct {
	ID            string     `json:"id" yaml:"id"`
	Title         string     `json:"title" yaml:"title"`
	IsCompleted   bool       `json:"isCompleted" yaml:"isCompleted"`
	CreatedAt     time.Time  `json:"createdAt" yaml:"createdAt"`
	DueDate       *time.Time `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	ReminderDate  *time.Time `json:"reminderDate,omitempty" yaml:"reminderDate,omitempty"`
	DurationInMin *int       `json:"durationInMin,omitempty" yaml:"durationInMin,omitempty"`
	Category      *Category  `json:"category,omitempty" yaml:"category,omitempty"`
	Priority      *int       `json:"priority,omitempty" yaml:"priority,omitempty"`
	Notes         *string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	IsStarred     bool       `json:"isStarred" yaml:"isStarred"`
}

// Fields holds the mutable part of a task: everything except ID and CreatedAt.
type Fields struct {
	Title         string
	IsCompleted   bool
	DueDate       *time.Time
	ReminderDate  *time.Time
	DurationInMin *int
	Category      *Category
	Priority      *int
	Notes         *string
	IsStarred     bool
}

// NewID returns a fresh task identifier.
func NewID() string {
	return uuid.NewString()
}

// New builds a task with the given identity and field values.
func New(id string, createdAt time.Time, f Fields) Task {
	t := Task{ID: id, CreatedAt: createdAt}
	t.Apply(f)
	return t
}

// Fields returns a copy of the task's mutable fields.
func (t Task) Fields() Fields {
	return Fields{
		Title:         t.Title,
		IsCompleted:   t.IsCompleted,
		DueDate:       clonePtr(t.DueDate),
		ReminderDate:  clonePtr(t.ReminderDate),
		DurationInMin: clonePtr(t.DurationInMin),
		Category:      clonePtr(t.Category),
		Priority:      clonePtr(t.Priority),
		Notes:         clonePtr(t.Notes),
		IsStarred:     t.IsStarred,
	}
}

// Apply overwrites every mutable field with f. ID and CreatedAt are untouched.
func (t *Task) Apply(f Fields) {
	t.Title = f.Title
	t.IsCompleted = f.IsCompleted
	t.DueDate = clonePtr(f.DueDate)
	t.ReminderDate = clonePtr(f.ReminderDate)
	t.DurationInMin = clonePtr(f.DurationInMin)
	t.Category = clonePtr(f.Category)
	t.Priority = clonePtr(f.Priority)
	t.Notes = clonePtr(f.Notes)
	t.IsStarred = f.IsStarred
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	return New(t.ID, t.CreatedAt, t.Fields())
}

// IsZero returns true if the task is empty (has no ID).
func (t *Task) IsZero() bool {
	return t.ID == ""
}

// PriorityValue returns the priority, or 0 when absent.
func (t Task) PriorityValue() int {
	if t.Priority == nil {
		return 0
	}
	return *t.Priority
}

// HasCategory reports whether the task is tagged with c.
func (t Task) HasCategory(c Category) bool {
	return t.Category != nil && *t.Category == c
}

// Ptr returns a pointer to v. Handy for filling optional fields.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Encode serializes a collection with 2-space indentation and a trailing newline.
func Encode(tasks []Task) ([]byte, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a serialized collection. Unknown keys are ignored and
// missing optional keys stay nil.
func Decode(data []byte) ([]Task, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Task{}, nil
	}
	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parse tasks: %w", err)
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}
