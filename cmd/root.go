// Package cmd implements the CLI command structure for todomini.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todomini/internal/config"
	"github.com/nibzard/todomini/internal/kv"
	"github.com/nibzard/todomini/internal/logging"
	"github.com/nibzard/todomini/internal/store"
)

// Version is set via ldflags at build time.
var Version = "dev"

// app carries what every subcommand needs.
type app struct {
	cfg    *config.ConfigWithSources
	stdout io.Writer
	stderr io.Writer
	logger *log.Logger
	runLog *logging.RunLog
}

// Run executes the todomini CLI.
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("todomini", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("loading config: %w", err)
	}

	a := &app{cfg: cws, stdout: stdout, stderr: stderr}
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return a.versionCommand()
	}

	// Default to list when no subcommand is given
	subcommand := "list"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	// logs reads run logs, so it must not start a new one
	if err := a.setupLogging(subcommand != "logs"); err != nil {
		return err
	}
	defer a.runLog.Close()
	a.logger.Debug("running command", "command", subcommand, "storage", a.cfg.Config.Storage)

	// Execute the subcommand
	switch subcommand {
	case "add":
		return a.addCommand(remainingArgs)
	case "list", "ls":
		return a.listCommand(remainingArgs)
	case "show":
		return a.showCommand(remainingArgs)
	case "done", "toggle":
		return a.toggleCommand(remainingArgs)
	case "star":
		return a.starCommand(remainingArgs)
	case "edit":
		return a.editCommand(remainingArgs)
	case "rm", "delete":
		return a.rmCommand(remainingArgs)
	case "clear":
		return a.clearCommand(remainingArgs)
	case "export":
		return a.exportCommand(remainingArgs)
	case "import":
		return a.importCommand(remainingArgs)
	case "tui":
		return a.tuiCommand(ctx, remainingArgs)
	case "doctor":
		return a.doctorCommand(remainingArgs)
	case "config":
		return a.configCommand(remainingArgs)
	case "logs":
		return a.logsCommand(remainingArgs)
	case "version":
		return a.versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// setupLogging builds the logger. With log_dir set and runFile true, logs
// go to a per-run JSON file instead of stderr.
func (a *app) setupLogging(runFile bool) error {
	cfg := a.cfg.Config
	if cfg.LogDir == "" || !runFile {
		a.logger = logging.NewFromConfig(a.stderr, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)
		return nil
	}

	runLog, err := logging.NewRunLog(cfg.LogDir, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	a.runLog = runLog
	opts := logging.DefaultOptions()
	opts.Level = logging.ParseLevel(cfg.LogLevel)
	opts.Formatter = log.JSONFormatter
	opts.ReportTimestamp = true
	opts.ReportCaller = cfg.LogCaller
	a.logger = logging.New(runLog.Writer(), opts)
	return nil
}

// openStore opens the configured backend and loads the task store.
func (a *app) openStore() (*store.Store, func(), error) {
	cfg := a.cfg.Config
	backend, err := kv.Open(cfg.Storage, cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s storage: %w", cfg.Storage, err)
	}
	s := store.New(backend, store.WithKey(cfg.StoreKey), store.WithLogger(a.logger))
	closeFn := func() {
		if err := backend.Close(); err != nil {
			a.logger.Warn("closing storage", "err", err)
		}
	}
	return s, closeFn, nil
}

// newFlagSet creates a subcommand flag set that reports to stderr.
func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("todomini "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// versionCommand prints version information.
func (a *app) versionCommand() error {
	fmt.Fprintf(a.stdout, "todomini version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "TodoMini - a small local task list")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  todomini [global options] [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  add <title>         Add a task")
	fmt.Fprintln(w, "  list, ls [filter]   List tasks (default command)")
	fmt.Fprintln(w, "  show <id>           Show one task")
	fmt.Fprintln(w, "  done <id>...        Toggle completion")
	fmt.Fprintln(w, "  star <id>...        Toggle star")
	fmt.Fprintln(w, "  edit <id>           Change task fields")
	fmt.Fprintln(w, "  rm <id>...          Delete tasks")
	fmt.Fprintln(w, "  clear               Delete completed tasks")
	fmt.Fprintln(w, "  export              Write all tasks as JSON or YAML")
	fmt.Fprintln(w, "  import <file>       Add tasks from a JSON or YAML file")
	fmt.Fprintln(w, "  tui                 Launch terminal UI")
	fmt.Fprintln(w, "  doctor              Check config and stored data")
	fmt.Fprintln(w, "  config              Show effective configuration")
	fmt.Fprintln(w, "  logs                Print the latest run log")
	fmt.Fprintln(w, "  version             Show version information")
	fmt.Fprintln(w, "  help                Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Task ids may be shortened to any unique prefix.")
	fmt.Fprintln(w, "Dates accept 2006-01-02, \"2006-01-02 15:04\" or RFC 3339.")
	fmt.Fprintln(w, "A bare date means 23:59 local time on that day.")
	fmt.Fprintln(w, "Flags may follow positional arguments; use -- before a title that starts with -.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'todomini <command> -h' for command options.")
}

// splitAndTrim splits a string by sep and trims whitespace from each part.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
