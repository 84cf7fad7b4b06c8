package todo

import (
	"strings"
	"testing"
	"time"
)

func TestValidateTasks(t *testing.T) {
	created := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)
	valid := func(id string) Task {
		return New(id, created, Fields{Title: "Task " + id})
	}

	tests := []struct {
		name     string
		tasks    []Task
		wantErr  bool
		wantPath string
	}{
		{
			name:  "valid",
			tasks: []Task{valid("a"), valid("b")},
		},
		{
			name:  "empty collection",
			tasks: []Task{},
		},
		{
			name:     "missing id",
			tasks:    []Task{{Title: "T", CreatedAt: created}},
			wantErr:  true,
			wantPath: "[0].id",
		},
		{
			name:     "missing title",
			tasks:    []Task{valid("a"), {ID: "b", Title: "  ", CreatedAt: created}},
			wantErr:  true,
			wantPath: "[1].title",
		},
		{
			name:     "priority out of range",
			tasks:    []Task{New("a", created, Fields{Title: "T", Priority: Ptr(6)})},
			wantErr:  true,
			wantPath: "[0].priority",
		},
		{
			name:     "negative duration",
			tasks:    []Task{New("a", created, Fields{Title: "T", DurationInMin: Ptr(-5)})},
			wantErr:  true,
			wantPath: "[0].durationInMin",
		},
		{
			name:     "unknown category",
			tasks:    []Task{New("a", created, Fields{Title: "T", Category: Ptr(Category("Home"))})},
			wantErr:  true,
			wantPath: "[0].category",
		},
		{
			name:     "duplicate id",
			tasks:    []Task{valid("a"), valid("b"), valid("a")},
			wantErr:  true,
			wantPath: "[2].id",
		},
		{
			name:  "present zero duration is fine",
			tasks: []Task{New("a", created, Fields{Title: "T", DurationInMin: Ptr(0)})},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateTasks(tt.tasks)
			if result.Valid == tt.wantErr {
				t.Fatalf("ValidateTasks() valid = %v, want error %v (errors: %v)", result.Valid, tt.wantErr, result.Errors)
			}
			if tt.wantPath == "" {
				return
			}
			found := false
			for _, err := range result.Errors {
				if ve, ok := err.(*ValidationError); ok && ve.Path == tt.wantPath {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error at %s, got %v", tt.wantPath, result.Errors)
			}
		})
	}
}

func TestValidateBlob(t *testing.T) {
	tests := []struct {
		name    string
		blob    string
		wantErr bool
	}{
		{
			name: "valid",
			blob: `[{"id":"a","title":"T","isCompleted":false,"createdAt":"2025-06-10T09:30:00Z","isStarred":false}]`,
		},
		{
			name: "unknown keys allowed",
			blob: `[{"id":"a","title":"T","createdAt":"2025-06-10T09:30:00Z","extra":1}]`,
		},
		{
			name: "empty array",
			blob: `[]`,
		},
		{
			name:    "not an array",
			blob:    `{"id":"a"}`,
			wantErr: true,
		},
		{
			name:    "missing createdAt",
			blob:    `[{"id":"a","title":"T"}]`,
			wantErr: true,
		},
		{
			name:    "bad date",
			blob:    `[{"id":"a","title":"T","createdAt":"yesterday"}]`,
			wantErr: true,
		},
		{
			name:    "priority too high",
			blob:    `[{"id":"a","title":"T","createdAt":"2025-06-10T09:30:00Z","priority":9}]`,
			wantErr: true,
		},
		{
			name:    "fractional duration",
			blob:    `[{"id":"a","title":"T","createdAt":"2025-06-10T09:30:00Z","durationInMin":1.5}]`,
			wantErr: true,
		},
		{
			name:    "unknown category",
			blob:    `[{"id":"a","title":"T","createdAt":"2025-06-10T09:30:00Z","category":"Home"}]`,
			wantErr: true,
		},
		{
			name:    "duplicate ids",
			blob:    `[{"id":"a","title":"T","createdAt":"2025-06-10T09:30:00Z"},{"id":"a","title":"U","createdAt":"2025-06-10T09:30:00Z"}]`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			blob:    `[{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateBlob([]byte(tt.blob))
			if !result.UsedSchema {
				t.Fatalf("expected schema validation, warnings: %v", result.Warnings)
			}
			if result.Valid == tt.wantErr {
				t.Errorf("ValidateBlob() valid = %v, want error %v (errors: %v)", result.Valid, tt.wantErr, result.Errors)
			}
		})
	}
}

func TestValidateBlobReportsPaths(t *testing.T) {
	blob := `[{"id":"a","title":"T","createdAt":"2025-06-10T09:30:00Z"},{"id":"b","title":"U","createdAt":"2025-06-10T09:30:00Z","priority":0}]`
	result := ValidateBlob([]byte(blob))
	if result.Valid {
		t.Fatal("expected validation failure")
	}
	found := false
	for _, err := range result.Errors {
		if strings.HasPrefix(err.Error(), "[1].priority") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an error at [1].priority, got %v", result.Errors)
	}
}

func TestJSONPointerToPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"#", ""},
		{"/0", "[0]"},
		{"/2/priority", "[2].priority"},
		{"#/1/notes", "[1].notes"},
		{"/0/a~1b", "[0].a/b"},
	}
	for _, tt := range tests {
		if got := jsonPointerToPath(tt.in); got != tt.want {
			t.Errorf("jsonPointerToPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSchemaIsCopied(t *testing.T) {
	s := Schema()
	if len(s) == 0 {
		t.Fatal("Schema() returned empty document")
	}
	s[0] = 'X'
	if Schema()[0] == 'X' {
		t.Error("Schema() should return a copy")
	}
}
