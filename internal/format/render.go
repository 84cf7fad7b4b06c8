package format

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	doneStyle  = lipgloss.NewStyle().Foreground(Green.Code).Bold(true)
	openStyle  = lipgloss.NewStyle().Foreground(Gray.Code)
	starStyle  = lipgloss.NewStyle().Foreground(Yellow.Code)
	titleDone  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RenderCheck styles the completion icon.
func (d Decoration) RenderCheck() string {
	if d.Check == IconDone {
		return doneStyle.Render(d.Check)
	}
	return openStyle.Render(d.Check)
}

// RenderStar styles the star icon.
func (d Decoration) RenderStar() string {
	if d.Star == IconStarred {
		return starStyle.Render(d.Star)
	}
	return mutedStyle.Render(d.Star)
}

// RenderTitle dims and strikes completed titles.
func RenderTitle(title string, done bool) string {
	if done {
		return titleDone.Render(title)
	}
	return title
}

// RenderDue colors the due label by urgency. Empty labels stay empty.
func (d Decoration) RenderDue() string {
	if d.Due == "" {
		return ""
	}
	return d.Urgency.Color().Render(d.Due)
}

// RenderPriority colors the priority label. None renders as "".
func (d Decoration) RenderPriority() string {
	if d.Priority.Label == "None" {
		return ""
	}
	return d.Priority.Color.Render(d.Priority.Label)
}

// Meta joins the non-empty styled details shown after a title.
func (d Decoration) Meta() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{d.RenderDue(), d.RenderPriority(), mutedStyle.Render(d.Duration), mutedStyle.Render(d.Category)} {
		if lipgloss.Width(p) > 0 {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, mutedStyle.Render(" · "))
}

// Muted renders s in the secondary text color.
func Muted(s string) string {
	return mutedStyle.Render(s)
}
