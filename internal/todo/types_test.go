package todo

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	created := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)
	due := time.Date(2025, 6, 11, 18, 0, 0, 0, time.UTC)

	original := []Task{
		New("a", created, Fields{
			Title:         "Everything set",
			DueDate:       &due,
			ReminderDate:  Ptr(due.Add(-time.Hour)),
			DurationInMin: Ptr(90),
			Category:      Ptr(CategoryWork),
			Priority:      Ptr(3),
			Notes:         Ptr("bring the charger"),
			IsStarred:     true,
		}),
		New("b", created, Fields{Title: "Nothing set"}),
		New("c", created, Fields{
			Title:         "Present zero values",
			IsCompleted:   true,
			DurationInMin: Ptr(0),
			Notes:         Ptr(""),
		}),
	}

	data, err := Encode(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("Encode should end with a newline")
	}

	loaded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(loaded) != len(original) {
		t.Fatalf("Tasks count: got %d, want %d", len(loaded), len(original))
	}
	for i := range original {
		assertSameTask(t, original[i], loaded[i])
	}

	// Absent stays absent, present zero stays present.
	if loaded[1].DurationInMin != nil || loaded[1].Notes != nil || loaded[1].Priority != nil {
		t.Errorf("absent fields decoded as present: %+v", loaded[1])
	}
	if loaded[2].DurationInMin == nil || *loaded[2].DurationInMin != 0 {
		t.Errorf("DurationInMin: got %v, want present 0", loaded[2].DurationInMin)
	}
	if loaded[2].Notes == nil || *loaded[2].Notes != "" {
		t.Errorf("Notes: got %v, want present empty string", loaded[2].Notes)
	}
}

func TestEncodeOmitsAbsentFields(t *testing.T) {
	task := New("a", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Fields{Title: "Bare"})
	data, err := Encode([]Task{task})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	for _, key := range []string{"dueDate", "reminderDate", "durationInMin", "category", "priority", "notes"} {
		if strings.Contains(string(data), `"`+key+`"`) {
			t.Errorf("absent %s should not be encoded: %s", key, data)
		}
	}
	for _, key := range []string{"id", "title", "isCompleted", "createdAt", "isStarred"} {
		if !strings.Contains(string(data), `"`+key+`"`) {
			t.Errorf("%s should always be encoded: %s", key, data)
		}
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	data := []byte(`[{"id":"x","title":"T","createdAt":"2025-06-10T09:30:00Z","color":"blue","isStarred":true}]`)
	tasks, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "x" || !tasks[0].IsStarred {
		t.Errorf("unexpected decode result: %+v", tasks)
	}
	if tasks[0].Category != nil {
		t.Errorf("Category: got %v, want nil", *tasks[0].Category)
	}
}

func TestDecodeEmptyAndInvalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantLen int
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"whitespace", "  \n", 0, false},
		{"null", "null", 0, false},
		{"empty array", "[]", 0, false},
		{"garbage", "{not json", 0, true},
		{"object instead of array", `{"id":"x"}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := Decode([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(tasks) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(tasks), tt.wantLen)
			}
			if !tt.wantErr && tasks == nil {
				t.Error("Decode should return a non-nil slice")
			}
		})
	}
}

func TestFieldsApplyPreservesIdentity(t *testing.T) {
	created := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)
	task := New("id-1", created, Fields{Title: "Old", Priority: Ptr(1)})

	f := task.Fields()
	f.Title = "New"
	f.Priority = nil
	f.DurationInMin = Ptr(45)
	task.Apply(f)

	if task.ID != "id-1" || !task.CreatedAt.Equal(created) {
		t.Errorf("identity changed: %+v", task)
	}
	if task.Title != "New" || task.Priority != nil || task.DurationInMin == nil || *task.DurationInMin != 45 {
		t.Errorf("fields not applied: %+v", task)
	}
}

func TestFieldsAreDeepCopies(t *testing.T) {
	task := New("id-1", time.Now().UTC(), Fields{Title: "T", Priority: Ptr(2)})
	f := task.Fields()
	*f.Priority = 3
	if *task.Priority != 2 {
		t.Errorf("mutating Fields leaked into task: priority = %d", *task.Priority)
	}

	clone := task.Clone()
	*clone.Priority = 1
	if *task.Priority != 2 {
		t.Errorf("mutating Clone leaked into task: priority = %d", *task.Priority)
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"Work", CategoryWork, false},
		{"personal", CategoryPersonal, false},
		{" OTHER ", CategoryOther, false},
		{"home", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCategory(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPriorityValue(t *testing.T) {
	if got := (Task{}).PriorityValue(); got != 0 {
		t.Errorf("absent priority: got %d, want 0", got)
	}
	if got := (Task{Priority: Ptr(3)}).PriorityValue(); got != 3 {
		t.Errorf("priority 3: got %d, want 3", got)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	created := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)
	original := []Task{
		New("a", created, Fields{Title: "With notes", Notes: Ptr(""), Category: Ptr(CategoryOther)}),
		New("b", created, Fields{Title: "Bare"}),
	}

	data, err := yaml.Marshal(original)
	if err != nil {
		t.Fatalf("yaml.Marshal failed: %v", err)
	}

	var loaded []Task
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("yaml.Unmarshal failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Tasks count: got %d, want 2", len(loaded))
	}
	for i := range original {
		assertSameTask(t, original[i], loaded[i])
	}
}

func TestNewIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("NewID returned empty id")
		}
		if seen[id] {
			t.Fatalf("NewID returned duplicate %q", id)
		}
		seen[id] = true
	}
}

// assertSameTask compares tasks field by field, using time.Equal for timestamps.
func assertSameTask(t *testing.T, want, got Task) {
	t.Helper()
	wantJSON, _ := json.Marshal(want)
	gotJSON, _ := json.Marshal(got)
	if string(wantJSON) != string(gotJSON) {
		t.Errorf("task mismatch:\n got: %s\nwant: %s", gotJSON, wantJSON)
	}
	if !want.CreatedAt.Equal(got.CreatedAt) {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, want.CreatedAt)
	}
}
