// Package format turns task fields into display labels, colors and icons.
// Every function takes the current time explicitly.
package format

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/todomini/internal/todo"
)

// Color pairs a name with the 256-color terminal code used to render it.
type Color struct {
	Name string
	Code lipgloss.Color
}

var (
	Red    = Color{"red", lipgloss.Color("196")}
	Orange = Color{"orange", lipgloss.Color("208")}
	Yellow = Color{"yellow", lipgloss.Color("226")}
	Blue   = Color{"blue", lipgloss.Color("39")}
	Green  = Color{"green", lipgloss.Color("82")}
	Gray   = Color{"gray", lipgloss.Color("245")}
)

// Style returns a foreground style in c.
func (c Color) Style() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c.Code)
}

// Render colors s.
func (c Color) Render(s string) string {
	return c.Style().Render(s)
}

// DueLabel describes due relative to now's calendar day: Today, Tomorrow,
// Yesterday, a weekday name within seven days either way, or a short date.
func DueLabel(due, now time.Time) string {
	due = due.In(now.Location())
	switch days := dayDiff(due, now); {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days == -1:
		return "Yesterday"
	case days >= -7 && days <= 7:
		return due.Weekday().String()
	}
	if due.Year() != now.Year() {
		return due.Format("Jan 2, 2006")
	}
	return due.Format("Jan 2")
}

// DueLabelPtr is DueLabel for an optional date; absent dates give "".
func DueLabelPtr(due *time.Time, now time.Time) string {
	if due == nil {
		return ""
	}
	return DueLabel(*due, now)
}

// dayDiff counts calendar days from now to t, both in now's location.
func dayDiff(t, now time.Time) int {
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	a := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	b := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}

// Urgency is a severity tier derived from the time left until a due date.
type Urgency int

const (
	UrgencyNone Urgency = iota
	UrgencyLow
	UrgencyMedium
	UrgencyHigh
	UrgencyCritical
	UrgencyOverdue
)

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyMedium:
		return "medium"
	case UrgencyHigh:
		return "high"
	case UrgencyCritical:
		return "critical"
	case UrgencyOverdue:
		return "overdue"
	default:
		return "none"
	}
}

// Color returns the display color of the tier.
func (u Urgency) Color() Color {
	switch u {
	case UrgencyOverdue:
		return Red
	case UrgencyCritical:
		return Orange
	case UrgencyHigh:
		return Yellow
	case UrgencyMedium:
		return Blue
	case UrgencyLow:
		return Green
	default:
		return Gray
	}
}

// UrgencyOf classifies the hours left until due: overdue below zero,
// critical under 2, high under 24, medium under 72, low otherwise.
// A nil due date is UrgencyNone.
func UrgencyOf(due *time.Time, now time.Time) Urgency {
	if due == nil {
		return UrgencyNone
	}
	switch hours := due.Sub(now).Hours(); {
	case hours < 0:
		return UrgencyOverdue
	case hours < 2:
		return UrgencyCritical
	case hours < 24:
		return UrgencyHigh
	case hours < 72:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// Duration formats minutes as "45min", "2h" or "1h 30m".
// Negative values are shown as 0min.
func Duration(minutes int) string {
	if minutes < 60 {
		if minutes < 0 {
			minutes = 0
		}
		return fmt.Sprintf("%dmin", minutes)
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// DurationPtr is Duration for an optional value; absent gives "".
func DurationPtr(minutes *int) string {
	if minutes == nil {
		return ""
	}
	return Duration(*minutes)
}

// Priority is a display tier for a task's priority.
type Priority struct {
	Level int
	Label string
	Color Color
}

// PriorityOf maps a priority to its tier: 3 and above High, 2 Medium,
// 1 Low, absent or lower None.
func PriorityOf(p *int) Priority {
	if p == nil {
		return Priority{Level: 0, Label: "None", Color: Gray}
	}
	switch v := *p; {
	case v >= 3:
		return Priority{Level: v, Label: "High", Color: Red}
	case v == 2:
		return Priority{Level: v, Label: "Medium", Color: Orange}
	case v == 1:
		return Priority{Level: v, Label: "Low", Color: Green}
	default:
		return Priority{Level: v, Label: "None", Color: Gray}
	}
}

// Icons.
const (
	IconDone      = "✓"
	IconOpen      = "○"
	IconStarred   = "★"
	IconUnstarred = "☆"
)

// CompletionIcon returns the checkbox icon for the completion state.
func CompletionIcon(done bool) string {
	if done {
		return IconDone
	}
	return IconOpen
}

// StarIcon returns the star icon for the starred state.
func StarIcon(starred bool) string {
	if starred {
		return IconStarred
	}
	return IconUnstarred
}

// Decoration bundles every display value for one task.
type Decoration struct {
	Check    string
	Star     string
	Due      string
	Urgency  Urgency
	Duration string
	Priority Priority
	Category string
}

// Decorate computes the display values for t at now.
func Decorate(t todo.Task, now time.Time) Decoration {
	d := Decoration{
		Check:    CompletionIcon(t.IsCompleted),
		Star:     StarIcon(t.IsStarred),
		Due:      DueLabelPtr(t.DueDate, now),
		Urgency:  UrgencyOf(t.DueDate, now),
		Duration: DurationPtr(t.DurationInMin),
		Priority: PriorityOf(t.Priority),
	}
	if t.Category != nil {
		d.Category = string(*t.Category)
	}
	return d
}
