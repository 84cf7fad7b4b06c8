package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nibzard/todomini/internal/config"
	"github.com/nibzard/todomini/internal/kv"
	"github.com/nibzard/todomini/internal/logging"
	"github.com/nibzard/todomini/internal/todo"
	"github.com/nibzard/todomini/internal/ui"
	"github.com/nibzard/todomini/internal/view"
)

// tuiCommand launches the interactive terminal UI.
func (a *app) tuiCommand(ctx context.Context, args []string) error {
	fs := a.newFlagSet("tui")
	filterName := fs.String("filter", a.cfg.Config.DefaultFilter, "Initial category filter")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}
	filter, err := view.ParseFilter(*filterName)
	if err != nil {
		return err
	}

	s, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	return ui.RunTUI(ctx, s, ui.WithFilter(filter), ui.WithLogger(a.logger))
}

// doctorCommand checks config, storage and the stored task data.
func (a *app) doctorCommand(args []string) error {
	fs := a.newFlagSet("doctor")
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg := a.cfg.Config
	w := a.stdout

	fmt.Fprintln(w, "TodoMini Doctor")
	fmt.Fprintln(w, "===============")
	fmt.Fprintln(w)

	allOK := true

	// Config
	fmt.Fprintln(w, "Config:")
	if path := a.cfg.GetConfigFile(); path != "" {
		fmt.Fprintf(w, "  ✅ File: %s\n", path)
	} else {
		fmt.Fprintln(w, "  ✅ File: (none, using defaults)")
	}
	if _, err := view.ParseFilter(cfg.DefaultFilter); err != nil {
		fmt.Fprintf(w, "  ❌ Default filter: %v\n", err)
		allOK = false
	} else {
		fmt.Fprintf(w, "  ✅ Default filter: %s\n", cfg.DefaultFilter)
	}
	fmt.Fprintln(w)

	// Data directory
	fmt.Fprintf(w, "Data dir: %s\n", cfg.DataDir)
	if info, err := os.Stat(cfg.DataDir); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(w, "  ⚠️  Not found (will be created on first write)")
		} else {
			fmt.Fprintf(w, "  ❌ Error: %v\n", err)
			allOK = false
		}
	} else if !info.IsDir() {
		fmt.Fprintln(w, "  ❌ Error: path is not a directory")
		allOK = false
	} else {
		fmt.Fprintln(w, "  ✅ OK")
	}
	fmt.Fprintln(w)

	// Storage and stored data
	fmt.Fprintf(w, "Storage: %s (key %s)\n", cfg.Storage, cfg.StoreKey)
	if !a.checkStoredData(*verbose) {
		allOK = false
	}
	fmt.Fprintln(w)

	// Logs
	if cfg.LogDir != "" {
		fmt.Fprintf(w, "Log dir: %s\n", cfg.LogDir)
		if _, err := os.Stat(cfg.LogDir); err != nil {
			fmt.Fprintf(w, "  ❌ Error: %v\n", err)
			allOK = false
		} else {
			fmt.Fprintln(w, "  ✅ OK")
		}
		fmt.Fprintln(w)
	}

	if !allOK {
		fmt.Fprintln(w, "❌ Some checks failed")
		return errors.New("doctor found problems")
	}
	fmt.Fprintln(w, "✅ All checks passed")
	return nil
}

func (a *app) checkStoredData(verbose bool) bool {
	cfg := a.cfg.Config
	w := a.stdout

	backend, err := kv.Open(cfg.Storage, cfg.DataDir)
	if err != nil {
		fmt.Fprintf(w, "  ❌ Open error: %v\n", err)
		return false
	}
	defer backend.Close()
	fmt.Fprintln(w, "  ✅ Opened")

	data, err := backend.Get(cfg.StoreKey)
	if errors.Is(err, kv.ErrNotFound) {
		fmt.Fprintln(w, "  ⚠️  No tasks stored yet")
		return true
	}
	if err != nil {
		fmt.Fprintf(w, "  ❌ Read error: %v\n", err)
		return false
	}

	result := todo.ValidateBlob(data)
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  ⚠️  %s\n", warning)
	}
	if !result.Valid {
		fmt.Fprintln(w, "  ❌ Validation failed:")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "     - %v\n", e)
		}
		return false
	}
	fmt.Fprintln(w, "  ✅ Valid")

	tasks, err := todo.Decode(data)
	if err != nil {
		fmt.Fprintf(w, "  ❌ Decode error: %v\n", err)
		return false
	}
	summary := view.Counts(tasks)
	fmt.Fprintf(w, "  Tasks: %d (%d open, %d done)\n", summary.Total, summary.Open(), summary.Completed)
	if verbose {
		for _, t := range view.Apply(tasks, view.All) {
			fmt.Fprintf(w, "    - [%s] %s: %s\n", doneMark(t.IsCompleted), shortID(t.ID), t.Title)
		}
	}
	return true
}

func doneMark(done bool) string {
	if done {
		return "x"
	}
	return " "
}

// configCommand prints the effective configuration and where each value came from.
func (a *app) configCommand(args []string) error {
	fs := a.newFlagSet("config")
	example := fs.Bool("example", false, "Print an example config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *example {
		fmt.Fprint(a.stdout, config.ExampleConfig())
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(a.stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Key", "Value", "Source"})
	for _, key := range config.Keys() {
		value, err := a.cfg.Config.Value(key)
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{key, value, string(a.cfg.Sources[key])})
	}
	t.Render()

	for _, path := range a.cfg.Files {
		fmt.Fprintf(a.stdout, "Read: %s\n", path)
	}
	return nil
}

// logsCommand prints the latest run log.
func (a *app) logsCommand(args []string) error {
	fs := a.newFlagSet("logs")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := a.cfg.Config
	if cfg.LogDir == "" {
		return fmt.Errorf("log_dir is not set; enable run logs with --log-dir or TODOMINI_LOG_DIR")
	}
	logDir, err := logging.FindLogDir(cfg.LogDir, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("finding log directory: %w", err)
	}
	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(a.stdout, "No log files found.")
		return nil
	}
	fmt.Fprintf(a.stderr, "Log: %s\n", logPath)
	return logging.TailLog(a.stdout, logPath, *n)
}
