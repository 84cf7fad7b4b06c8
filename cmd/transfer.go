package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nibzard/todomini/internal/todo"
)

// Export and import formats.
const (
	formatAuto = "auto"
	formatJSON = "json"
	formatYAML = "yaml"
)

// exportCommand writes every task as JSON or YAML.
func (a *app) exportCommand(args []string) error {
	fs := a.newFlagSet("export")
	outFormat := fs.String("format", formatJSON, "Output format: json or yaml")
	output := fs.String("output", "", "Write to file instead of stdout")
	fs.StringVar(output, "o", "", "Write to file instead of stdout (shorthand)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	data, err := encodeTasks(s.Tasks(), strings.ToLower(*outFormat))
	if err != nil {
		return err
	}

	if *output == "" {
		_, err = a.stdout.Write(data)
		return err
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", *output, err)
	}
	fmt.Fprintf(a.stderr, "Exported %d task(s) to %s\n", s.Len(), *output)
	return nil
}

// importCommand adds tasks from a file, or stdin when the file is "-".
func (a *app) importCommand(args []string) error {
	fs := a.newFlagSet("import")
	inFormat := fs.String("format", formatAuto, "Input format: auto, json or yaml")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("import requires exactly one file (use - for stdin)")
	}
	path := rest[0]

	var data []byte
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	tasks, err := decodeTasks(data, detectFormat(path, data, strings.ToLower(*inFormat)))
	if err != nil {
		return err
	}
	for i := range tasks {
		if tasks[i].ID == "" {
			tasks[i].ID = todo.NewID()
		}
	}
	result := todo.ValidateTasks(tasks)
	for _, w := range result.Warnings {
		a.logger.Warn("import", "warning", w)
	}
	if !result.Valid {
		return fmt.Errorf("invalid tasks in %s: %w", path, errors.Join(result.Errors...))
	}

	s, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := s.Import(tasks)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Imported %d of %d task(s)\n", n, len(tasks))
	return nil
}

func encodeTasks(tasks []todo.Task, format string) ([]byte, error) {
	switch format {
	case formatJSON:
		return todo.Encode(tasks)
	case formatYAML, "yml":
		if tasks == nil {
			tasks = []todo.Task{}
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(tasks); err != nil {
			return nil, fmt.Errorf("marshal tasks: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format %q, must be json or yaml", format)
	}
}

func decodeTasks(data []byte, format string) ([]todo.Task, error) {
	switch format {
	case formatJSON:
		return todo.Decode(data)
	case formatYAML, "yml":
		var tasks []todo.Task
		if err := yaml.Unmarshal(data, &tasks); err != nil {
			return nil, fmt.Errorf("parse tasks: %w", err)
		}
		if tasks == nil {
			tasks = []todo.Task{}
		}
		return tasks, nil
	default:
		return nil, fmt.Errorf("unknown format %q, must be auto, json or yaml", format)
	}
}

// detectFormat resolves auto from the file extension, then the content.
func detectFormat(path string, data []byte, format string) string {
	if format != formatAuto {
		return format
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON
	case ".yaml", ".yml":
		return formatYAML
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] == '[' {
		return formatJSON
	}
	return formatYAML
}
