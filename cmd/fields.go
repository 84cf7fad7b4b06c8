package cmd

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nibzard/todomini/internal/todo"
)

// dateLayouts are tried in order when parsing dates from the command line.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// dateOnlyLayout is a bare calendar day. It resolves to the last minute of
// that day so the task is not overdue until the day is over.
const dateOnlyLayout = "2006-01-02"

// clearValue clears an optional field in edit.
const clearValue = "none"

// fieldFlags binds the optional task fields to a flag set.
type fieldFlags struct {
	title    string
	due      string
	remind   string
	duration string
	category string
	priority string
	notes    string
	star     bool
	done     bool
}

func registerFieldFlags(fs *flag.FlagSet, withTitle bool) *fieldFlags {
	ff := &fieldFlags{}
	if withTitle {
		fs.StringVar(&ff.title, "title", "", "New title")
		fs.BoolVar(&ff.done, "done", false, "Set completion (--done=false to reopen)")
	}
	fs.StringVar(&ff.due, "due", "", "Due date (a bare date means 23:59 that day)")
	fs.StringVar(&ff.remind, "remind", "", "Reminder date (a bare date means 23:59 that day)")
	fs.StringVar(&ff.duration, "duration", "", "Duration in whole minutes or as 1h30m")
	fs.StringVar(&ff.category, "category", "", "Category: work, personal, other")
	fs.StringVar(&ff.priority, "priority", "", "Priority 1-5 (1 low, 2 medium, 3 high)")
	fs.StringVar(&ff.notes, "notes", "", "Notes")
	fs.BoolVar(&ff.star, "star", false, "Star the task")
	return ff
}

// apply writes every flag that was set on fs into f. The value "none"
// clears an optional field.
func (ff *fieldFlags) apply(fs *flag.FlagSet, f *todo.Fields) error {
	var err error
	fs.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "title":
			title := strings.TrimSpace(ff.title)
			if title == "" {
				err = fmt.Errorf("title must not be empty")
				return
			}
			f.Title = title
		case "done":
			f.IsCompleted = ff.done
		case "star":
			f.IsStarred = ff.star
		case "due":
			f.DueDate, err = parseDate(ff.due)
		case "remind":
			f.ReminderDate, err = parseDate(ff.remind)
		case "duration":
			f.DurationInMin, err = parseDuration(ff.duration)
		case "category":
			f.Category, err = parseCategory(ff.category)
		case "priority":
			f.Priority, err = parsePriority(ff.priority)
		case "notes":
			if isClear(ff.notes) {
				f.Notes = nil
			} else {
				f.Notes = todo.Ptr(ff.notes)
			}
		}
		if err != nil {
			err = fmt.Errorf("--%s: %w", fl.Name, err)
		}
	})
	return err
}

func isClear(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), clearValue)
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if isClear(s) {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, nil
		}
	}
	if day, err := time.ParseInLocation(dateOnlyLayout, s, time.Local); err == nil {
		t := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 0, 0, time.Local)
		return &t, nil
	}
	return nil, fmt.Errorf("invalid date %q (use 2006-01-02, \"2006-01-02 15:04\" or RFC 3339)", s)
}

func parseDuration(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if isClear(s) {
		return nil, nil
	}
	minutes, err := strconv.Atoi(s)
	if err != nil {
		d, derr := time.ParseDuration(s)
		if derr != nil {
			return nil, fmt.Errorf("invalid duration %q", s)
		}
		if d%time.Minute != 0 {
			return nil, fmt.Errorf("duration %q is not a whole number of minutes", s)
		}
		minutes = int(d / time.Minute)
	}
	if minutes < 0 {
		return nil, fmt.Errorf("duration must not be negative")
	}
	return &minutes, nil
}

func parseCategory(s string) (*todo.Category, error) {
	if isClear(s) {
		return nil, nil
	}
	c, err := todo.ParseCategory(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func parsePriority(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if isClear(s) {
		return nil, nil
	}
	switch strings.ToLower(s) {
	case "low":
		return todo.Ptr(1), nil
	case "medium", "med":
		return todo.Ptr(2), nil
	case "high":
		return todo.Ptr(3), nil
	}
	p, err := strconv.Atoi(s)
	if err != nil || p < todo.MinPriority || p > todo.MaxPriority {
		return nil, fmt.Errorf("priority must be %d-%d, low, medium or high", todo.MinPriority, todo.MaxPriority)
	}
	return &p, nil
}

// shortID is the id prefix shown in listings.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// parseArgs parses args with fs, allowing flags after positional arguments.
// The stdlib parser stops at the first positional, so parsing resumes after
// each one. Everything after "--" is positional.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// idArgs flattens positional and comma-separated id arguments.
func idArgs(args []string) []string {
	var ids []string
	for _, arg := range args {
		ids = append(ids, splitAndTrim(arg, ",")...)
	}
	return ids
}
