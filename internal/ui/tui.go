// Package ui provides the interactive terminal interface.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/nibzard/todomini/internal/format"
	"github.com/nibzard/todomini/internal/logging"
	"github.com/nibzard/todomini/internal/todo"
	"github.com/nibzard/todomini/internal/view"
)

// Store is the part of the task store the TUI drives.
type Store interface {
	Tasks() []todo.Task
	AddFull(f todo.Fields) (todo.Task, error)
	ToggleComplete(id string) (bool, error)
	Edit(id string, fn func(*todo.Fields)) (bool, error)
	Delete(ids ...string) (int, error)
	DeleteCompleted() (int, error)
	Subscribe() (<-chan struct{}, func())
}

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiModel)

// WithFilter sets the initial category filter.
func WithFilter(f view.Filter) TUIOption {
	return func(m *tuiModel) {
		m.filter = f
	}
}

// WithClock replaces the clock used for due labels.
func WithClock(now func() time.Time) TUIOption {
	return func(m *tuiModel) {
		m.now = now
	}
}

// WithLogger sets the logger for failed actions.
func WithLogger(logger *log.Logger) TUIOption {
	return func(m *tuiModel) {
		m.logger = logger
	}
}

// RunTUI starts the TUI over s and blocks until the user quits.
func RunTUI(ctx context.Context, s Store, opts ...TUIOption) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	model := newTUIModel(s, opts...)
	defer model.close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type tuiModel struct {
	store        Store
	logger       *log.Logger
	now          func() time.Time
	changes      <-chan struct{}
	unsubscribe  func()
	tickInterval time.Duration

	all      []todo.Task
	visible  []todo.Task
	summary  view.Summary
	filter   view.Filter
	cursor   int
	input    textinput.Model
	adding   bool
	showHelp bool
	lastErr  error
}

type tickMsg time.Time

type changedMsg struct{}

type storeClosedMsg struct{}

func newTUIModel(s Store, opts ...TUIOption) *tuiModel {
	input := textinput.New()
	input.Placeholder = "What needs doing?"
	input.Prompt = "+ "
	input.CharLimit = 200

	m := &tuiModel{
		store:        s,
		logger:       logging.Discard(),
		now:          time.Now,
		tickInterval: time.Minute,
		filter:       view.All,
		input:        input,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.changes, m.unsubscribe = s.Subscribe()
	m.refresh()
	return m
}

func (m *tuiModel) close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.tickInterval), waitForChange(m.changes))
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.input.Width = max(msg.Width-4, 10)
		return m, nil
	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg)
		}
		return m.updateList(msg)
	case tickMsg:
		m.refresh()
		return m, tickCmd(m.tickInterval)
	case changedMsg:
		m.refresh()
		return m, waitForChange(m.changes)
	case storeClosedMsg:
		return m, nil
	}
	return m, nil
}

func (m *tuiModel) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.stopAdding()
		return m, nil
	case "enter":
		title := strings.TrimSpace(m.input.Value())
		if title == "" {
			return m, nil
		}
		f := todo.Fields{Title: title}
		if c, ok := m.filter.Category(); ok {
			f.Category = todo.Ptr(c)
		}
		task, err := m.store.AddFull(f)
		m.record(err)
		m.stopAdding()
		m.refresh()
		m.selectID(task.ID)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *tuiModel) stopAdding() {
	m.adding = false
	m.input.Reset()
	m.input.Blur()
}

func (m *tuiModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "h", "?":
		m.showHelp = !m.showHelp
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = max(len(m.visible)-1, 0)
	case "a", "n":
		m.adding = true
		m.showHelp = false
		return m, m.input.Focus()
	case " ", "enter", "x":
		m.withSelected(func(t todo.Task) error {
			_, err := m.store.ToggleComplete(t.ID)
			return err
		})
	case "s":
		m.withSelected(func(t todo.Task) error {
			_, err := m.store.Edit(t.ID, func(f *todo.Fields) { f.IsStarred = !f.IsStarred })
			return err
		})
	case "p":
		m.withSelected(func(t todo.Task) error {
			_, err := m.store.Edit(t.ID, func(f *todo.Fields) { f.Priority = nextPriority(f.Priority) })
			return err
		})
	case "t":
		m.withSelected(func(t todo.Task) error {
			_, err := m.store.Edit(t.ID, func(f *todo.Fields) { f.Category = nextCategory(f.Category) })
			return err
		})
	case "d", "delete":
		if t, ok := m.selected(); ok {
			_, err := m.store.Delete(t.ID)
			m.record(err)
			m.refresh()
		}
	case "c":
		_, err := m.store.DeleteCompleted()
		m.record(err)
		m.refresh()
	case "r", "f5":
		m.refresh()
	case "0":
		m.setFilter(view.All)
	case "1":
		m.setFilter(view.Work)
	case "2":
		m.setFilter(view.Personal)
	case "3":
		m.setFilter(view.Other)
	case "tab":
		m.setFilter(cycleFilter(m.filter))
	}
	return m, nil
}

// withSelected runs fn on the task under the cursor and keeps the cursor on
// it after the list is re-sorted.
func (m *tuiModel) withSelected(fn func(todo.Task) error) {
	t, ok := m.selected()
	if !ok {
		return
	}
	m.record(fn(t))
	m.refresh()
	m.selectID(t.ID)
}

func (m *tuiModel) record(err error) {
	m.lastErr = err
	if err != nil {
		m.logger.Error("action failed", "err", err)
	}
}

func (m *tuiModel) selected() (todo.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return todo.Task{}, false
	}
	return m.visible[m.cursor], true
}

func (m *tuiModel) selectID(id string) {
	for i, t := range m.visible {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m *tuiModel) setFilter(f view.Filter) {
	m.filter = f
	m.cursor = 0
	m.visible = nil
	m.refresh()
}

func (m *tuiModel) refresh() {
	var current string
	if t, ok := m.selected(); ok {
		current = t.ID
	}

	m.all = m.store.Tasks()
	m.summary = view.Counts(m.all)
	m.visible = view.Apply(m.all, m.filter)

	if current != "" {
		m.selectID(current)
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b, m.summary)
	writeFilters(&b, m.filter, m.summary)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b, m.lastErr)
		return b.String()
	}

	writeTasks(&b, m.visible, m.cursor, m.now())

	if m.adding {
		b.WriteString("\n" + m.input.View() + "\n")
		b.WriteString(format.Muted("enter to add, esc to cancel") + "\n")
	}
	writeFooter(&b, m.lastErr)
	return b.String()
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return storeClosedMsg{}
		}
		return changedMsg{}
	}
}

func nextPriority(p *int) *int {
	switch {
	case p == nil || *p <= 0:
		return todo.Ptr(1)
	case *p >= 3:
		return nil
	default:
		return todo.Ptr(*p + 1)
	}
}

func nextCategory(c *todo.Category) *todo.Category {
	cats := todo.Categories()
	if c == nil {
		return todo.Ptr(cats[0])
	}
	for i, cat := range cats {
		if cat == *c && i+1 < len(cats) {
			return todo.Ptr(cats[i+1])
		}
	}
	return nil
}

func cycleFilter(f view.Filter) view.Filter {
	filters := view.Filters()
	for i, cur := range filters {
		if cur == f {
			return filters[(i+1)%len(filters)]
		}
	}
	return view.All
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	activeTab   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Padding(0, 1)
	inactiveTab = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	errorStyle  = lipgloss.NewStyle().Foreground(format.Red.Code)
)

func writeTitle(b *strings.Builder, s view.Summary) {
	b.WriteString(titleStyle.Render("TodoMini"))
	b.WriteString(format.Muted(fmt.Sprintf("  %d open, %d done", s.Open(), s.Completed)))
	b.WriteString("\n\n")
}

func writeFilters(b *strings.Builder, current view.Filter, s view.Summary) {
	tabs := make([]string, 0, len(view.Filters()))
	for i, f := range view.Filters() {
		label := fmt.Sprintf("%d %s (%d)", i, f.Label(), s.ForFilter(f))
		if f == current {
			tabs = append(tabs, activeTab.Render(label))
		} else {
			tabs = append(tabs, inactiveTab.Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")
}

func writeTasks(b *strings.Builder, tasks []todo.Task, cursor int, now time.Time) {
	if len(tasks) == 0 {
		b.WriteString(format.Muted("  No tasks here. Press a to add one.") + "\n")
		return
	}
	for i, t := range tasks {
		b.WriteString(formatTask(t, i == cursor, now))
		b.WriteString("\n")
	}
}

func formatTask(t todo.Task, selected bool, now time.Time) string {
	d := format.Decorate(t, now)
	pointer := "  "
	if selected {
		pointer = cursorStyle.Render("> ")
	}
	line := fmt.Sprintf("%s%s %s %s", pointer, d.RenderCheck(), d.RenderStar(), format.RenderTitle(t.Title, t.IsCompleted))
	if meta := d.Meta(); meta != "" {
		line += "  " + meta
	}
	return line
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  q, ctrl+c       Quit\n")
	b.WriteString("  up/k, down/j    Move\n")
	b.WriteString("  a, n            Add a task\n")
	b.WriteString("  space, x        Toggle complete\n")
	b.WriteString("  s               Toggle star\n")
	b.WriteString("  p               Cycle priority (none, low, medium, high)\n")
	b.WriteString("  t               Cycle category\n")
	b.WriteString("  d               Delete task\n")
	b.WriteString("  c               Clear completed tasks\n")
	b.WriteString("  0-3, tab        Filter: all, work, personal, other\n")
	b.WriteString("  r, F5           Refresh\n")
	b.WriteString("  h, ?            Toggle this help screen\n\n")
}

func writeFooter(b *strings.Builder, err error) {
	b.WriteString("\n")
	if err != nil {
		b.WriteString(errorStyle.Render("Error: "+err.Error()) + "\n")
	}
	b.WriteString(format.Muted("Press h for help | q to quit") + "\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
