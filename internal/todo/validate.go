package todo

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://todomini.local/task-collection.schema.json"

// Schema returns the embedded JSON Schema for a persisted collection.
func Schema() []byte {
	out := make([]byte, len(schemaJSON))
	copy(out, schemaJSON)
	return out
}

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // JSON path to the error location
	Err  error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Valid      bool
	Errors     []error
	Warnings   []string
	UsedSchema bool // true if JSON Schema validation was performed
}

func newResult() *ValidationResult {
	return &ValidationResult{
		Valid:    true,
		Errors:   make([]error, 0),
		Warnings: make([]string, 0),
	}
}

func (r *ValidationResult) fail(err error) {
	r.Valid = false
	r.Errors = append(r.Errors, err)
}

// ValidateTasks performs minimal validation of decoded records.
func ValidateTasks(tasks []Task) *ValidationResult {
	result := newResult()
	seen := make(map[string]int, len(tasks))
	for i := range tasks {
		path := fmt.Sprintf("[%d]", i)
		if err := validateTaskMinimal(&tasks[i], path); err != nil {
			result.fail(err)
		}
		id := tasks[i].ID
		if id == "" {
			continue
		}
		if first, dup := seen[id]; dup {
			result.fail(&ValidationError{
				Path: path + ".id",
				Err:  fmt.Errorf("duplicate id %q (first seen at [%d])", id, first),
			})
			continue
		}
		seen[id] = i
	}
	return result
}

// validateTaskMinimal performs minimal task validation.
func validateTaskMinimal(task *Task, path string) *ValidationError {
	if task.ID == "" {
		return &ValidationError{
			Path: path + ".id",
			Err:  fmt.Errorf("missing required field"),
		}
	}

	if strings.TrimSpace(task.Title) == "" {
		return &ValidationError{
			Path: path + ".title",
			Err:  fmt.Errorf("missing required field"),
		}
	}

	if task.Priority != nil && (*task.Priority < MinPriority || *task.Priority > MaxPriority) {
		return &ValidationError{
			Path: path + ".priority",
			Err:  fmt.Errorf("must be between %d and %d, got %d", MinPriority, MaxPriority, *task.Priority),
		}
	}

	if task.DurationInMin != nil && *task.DurationInMin < 0 {
		return &ValidationError{
			Path: path + ".durationInMin",
			Err:  fmt.Errorf("must not be negative, got %d", *task.DurationInMin),
		}
	}

	if task.Category != nil && !task.Category.Valid() {
		return &ValidationError{
			Path: path + ".category",
			Err:  fmt.Errorf("invalid category %q, must be one of: Work, Personal, Other", *task.Category),
		}
	}

	return nil
}

// ValidateBlob validates a raw persisted collection against the embedded
// schema. When the schema cannot be compiled it falls back to decoding the
// blob and running ValidateTasks.
func ValidateBlob(data []byte) *ValidationResult {
	result := newResult()

	schema, err := compileSchema()
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("invalid schema: %v", err))
		result.Warnings = append(result.Warnings, "JSON Schema validation not available, using minimal checks")
		return validateBlobMinimal(data, result)
	}
	result.UsedSchema = true

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		result.fail(&ValidationError{Err: fmt.Errorf("invalid JSON: %w", err)})
		return result
	}

	if err := schema.Validate(doc); err != nil {
		result.Valid = false
		appendSchemaErrors(result, err)
		return result
	}

	// Schema cannot express id uniqueness across items.
	tasks, err := Decode(data)
	if err != nil {
		result.fail(&ValidationError{Err: err})
		return result
	}
	dup := ValidateTasks(tasks)
	for _, e := range dup.Errors {
		var ve *ValidationError
		if errors.As(e, &ve) && strings.HasSuffix(ve.Path, ".id") {
			result.fail(e)
		}
	}
	return result
}

func validateBlobMinimal(data []byte, result *ValidationResult) *ValidationResult {
	tasks, err := Decode(data)
	if err != nil {
		result.fail(&ValidationError{Err: err})
		return result
	}
	minimal := ValidateTasks(tasks)
	result.Valid = minimal.Valid
	result.Errors = append(result.Errors, minimal.Errors...)
	return result
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
}

func appendSchemaErrors(result *ValidationResult, err error) {
	if err == nil {
		return
	}

	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		result.Errors = append(result.Errors, err)
		return
	}

	collectSchemaErrors(result, ve)
}

func collectSchemaErrors(result *ValidationResult, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}

	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Path: jsonPointerToPath(err.InstanceLocation),
			Err:  fmt.Errorf("%s", err.Message),
		})
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}

// jsonPointerToPath turns "/2/priority" into "[2].priority".
func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			fmt.Fprintf(&b, "[%d]", idx)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
