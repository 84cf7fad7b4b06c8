package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nibzard/todomini/internal/format"
	"github.com/nibzard/todomini/internal/store"
	"github.com/nibzard/todomini/internal/todo"
	"github.com/nibzard/todomini/internal/view"
)

// now is the clock used for due labels.
var now = time.Now

// addCommand adds a task.
func (a *app) addCommand(args []string) error {
	fs := a.newFlagSet("add")
	ff := registerFieldFlags(fs, false)
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	title := strings.TrimSpace(strings.Join(rest, " "))
	if title == "" {
		return fmt.Errorf("title is required")
	}
	f := todo.Fields{Title: title}
	if err := ff.apply(fs, &f); err != nil {
		return err
	}

	s, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	task, err := s.AddFull(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Added %s %s\n", shortID(task.ID), task.Title)
	return nil
}

// listCommand prints the sorted, filtered task list as a table.
func (a *app) listCommand(args []string) error {
	fs := a.newFlagSet("list")
	filterName := fs.String("filter", a.cfg.Config.DefaultFilter, "Category filter: all, work, personal, other")
	open := fs.Bool("open", false, "Only incomplete tasks")
	done := fs.Bool("done", false, "Only completed tasks")
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")
	remaining, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	if len(remaining) > 1 {
		return fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}
	if len(remaining) == 1 {
		*filterName = remaining[0]
	}
	filter, err := view.ParseFilter(*filterName)
	if err != nil {
		return err
	}
	if *open && *done {
		return fmt.Errorf("--open and --done are mutually exclusive")
	}

	s, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	all := s.Tasks()
	tasks := view.Apply(all, filter)
	switch {
	case *open:
		tasks = view.Incomplete(tasks)
	case *done:
		tasks = view.Completed(tasks)
	}

	if *asJSON {
		data, err := todo.Encode(tasks)
		if err != nil {
			return err
		}
		_, err = a.stdout.Write(data)
		return err
	}

	if len(tasks) == 0 {
		fmt.Fprintln(a.stdout, "No tasks found.")
		return nil
	}
	a.renderTable(tasks)

	summary := view.Counts(all)
	fmt.Fprintf(a.stdout, "%s: %d shown, %d open, %d done\n", filter.Label(), len(tasks), summary.Open(), summary.Completed)
	return nil
}

func (a *app) renderTable(tasks []todo.Task) {
	at := now()
	t := table.NewWriter()
	t.SetOutputMirror(a.stdout)
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false

	t.AppendHeader(table.Row{"", "ID", "", "Title", "Due", "Priority", "Duration", "Category"})
	for _, task := range tasks {
		d := format.Decorate(task, at)
		t.AppendRow(table.Row{
			d.RenderCheck(),
			shortID(task.ID),
			d.RenderStar(),
			format.RenderTitle(task.Title, task.IsCompleted),
			d.RenderDue(),
			d.RenderPriority(),
			d.Duration,
			d.Category,
		})
	}
	t.Render()
}

// showCommand prints every field of one task.
func (a *app) showCommand(args []string) error {
	fs := a.newFlagSet("show")
	asJSON := fs.Bool("json", false, "Print JSON")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("show requires exactly one task id")
	}

	s, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	task, err := s.Resolve(rest[0])
	if err != nil {
		return err
	}
	if *asJSON {
		data, err := json.MarshalIndent(task, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, string(data))
		return nil
	}

	at := now()
	d := format.Decorate(task, at)
	fmt.Fprintf(a.stdout, "%s %s %s\n", d.RenderCheck(), d.RenderStar(), task.Title)
	fmt.Fprintf(a.stdout, "  ID:        %s\n", task.ID)
	fmt.Fprintf(a.stdout, "  Created:   %s\n", task.CreatedAt.Local().Format("2006-01-02 15:04"))
	if task.DueDate != nil {
		fmt.Fprintf(a.stdout, "  Due:       %s (%s, %s)\n", task.DueDate.Local().Format("2006-01-02 15:04"), d.RenderDue(), d.Urgency)
	}
	if task.ReminderDate != nil {
		fmt.Fprintf(a.stdout, "  Reminder:  %s\n", task.ReminderDate.Local().Format("2006-01-02 15:04"))
	}
	if d.Duration != "" {
		fmt.Fprintf(a.stdout, "  Duration:  %s\n", d.Duration)
	}
	if task.Priority != nil {
		fmt.Fprintf(a.stdout, "  Priority:  %s (%d)\n", d.RenderPriority(), *task.Priority)
	}
	if d.Category != "" {
		fmt.Fprintf(a.stdout, "  Category:  %s\n", d.Category)
	}
	if task.Notes != nil {
		fmt.Fprintf(a.stdout, "  Notes:     %s\n", *task.Notes)
	}
	return nil
}

// toggleCommand flips completion on each given task.
func (a *app) toggleCommand(args []string) error {
	return a.eachTask("done", args, func(s *store.Store, task todo.Task) error {
		if _, err := s.ToggleComplete(task.ID); err != nil {
			return err
		}
		state := "done"
		if task.IsCompleted {
			state = "open"
		}
		fmt.Fprintf(a.stdout, "%s %s: %s\n", shortID(task.ID), task.Title, state)
		return nil
	})
}

// starCommand flips the star on each given task.
func (a *app) starCommand(args []string) error {
	return a.eachTask("star", args, func(s *store.Store, task todo.Task) error {
		if _, err := s.Edit(task.ID, func(f *todo.Fields) { f.IsStarred = !f.IsStarred }); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "%s %s %s\n", format.StarIcon(!task.IsStarred), shortID(task.ID), task.Title)
		return nil
	})
}

// eachTask resolves every id argument before running fn on each task.
func (a *app) eachTask(name string, args []string, fn func(*store.Store, todo.Task) error) error {
	fs := a.newFlagSet(name)
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	ids := idArgs(rest)
	if len(ids) == 0 {
		return fmt.Errorf("%s requires at least one task id", name)
	}

	s, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	tasks := make([]todo.Task, 0, len(ids))
	for _, id := range ids {
		task, err := s.Resolve(id)
		if err != nil {
			return err
		}
		tasks = append(tasks, task)
	}
	for _, task := range tasks {
		if err := fn(s, task); err != nil {
			return err
		}
	}
	return nil
}

// editCommand changes the fields given as flags.
func (a *app) editCommand(args []string) error {
	fs := a.newFlagSet("edit")
	ff := registerFieldFlags(fs, true)
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("edit requires exactly one task id")
	}
	if fs.NFlag() == 0 {
		return fmt.Errorf("nothing to change")
	}

	s, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	task, err := s.Resolve(rest[0])
	if err != nil {
		return err
	}
	f := task.Fields()
	if err := ff.apply(fs, &f); err != nil {
		return err
	}
	if _, err := s.Update(task.ID, f); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Updated %s %s\n", shortID(task.ID), f.Title)
	return nil
}

// rmCommand deletes the given tasks.
func (a *app) rmCommand(args []string) error {
	var ids []string
	err := a.eachTask("rm", args, func(_ *store.Store, task todo.Task) error {
		ids = append(ids, task.ID)
		return nil
	})
	if err != nil {
		return err
	}

	s, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := s.Delete(ids...)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Deleted %d task(s)\n", n)
	return nil
}

// clearCommand deletes all completed tasks.
func (a *app) clearCommand(args []string) error {
	fs := a.newFlagSet("clear")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := s.DeleteCompleted()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Cleared %d completed task(s)\n", n)
	return nil
}
