// Package ui provides the interactive terminal interface.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/nibzard/daily-go/internal/export"
	"github.com/nibzard/daily-go/internal/store"
	"github.com/nibzard/daily-go/internal/task"
	"github.com/nibzard/daily-go/internal/view"
)

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

// tuiConfig holds TUI configuration.
type tuiConfig struct {
	sort     view.Sort
	reloads  <-chan struct{}
	logger   *log.Logger
	slotName string
}

// WithSort sets the initial sort order.
func WithSort(s view.Sort) TUIOption {
	return func(c *tuiConfig) {
		c.sort = s
	}
}

// WithReloads reloads the store whenever ch receives, typically from a
// watch.Watcher on the slot file.
func WithReloads(ch <-chan struct{}) TUIOption {
	return func(c *tuiConfig) {
		c.reloads = ch
	}
}

// WithLogger sets the logger used for TUI diagnostics.
func WithLogger(logger *log.Logger) TUIOption {
	return func(c *tuiConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSlotName sets the label shown in the footer, usually the slot path.
func WithSlotName(name string) TUIOption {
	return func(c *tuiConfig) {
		c.slotName = name
	}
}

// RunTUI starts the TUI over s and blocks until the user quits or ctx is
// done.
func RunTUI(ctx context.Context, s *store.Store, opts ...TUIOption) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	model := newTUIModel(s, opts...)
	defer model.close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type inputMode int

const (
	modeList inputMode = iota
	modeAdd
	modeSearch
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	doneStyle     = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("8"))
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("10"))
	emptyStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Bold(true)
)

type tuiModel struct {
	store    *store.Store
	cfg      tuiConfig
	opts     view.Options
	view     view.View
	cursor   int
	mode     inputMode
	input    textinput.Model
	showHelp bool
	status   string
	height   int
	cancel   func()
}

// reloadMsg is sent when the slot changed outside this process.
type reloadMsg struct{}

func newTUIModel(s *store.Store, opts ...TUIOption) *tuiModel {
	cfg := tuiConfig{
		sort:   view.SortInsertion,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 500

	m := &tuiModel{
		store: s,
		cfg:   cfg,
		opts:  view.Options{Filter: view.FilterAll, Sort: cfg.sort},
		input: input,
	}
	m.cancel = s.Subscribe(func([]task.Task) {
		m.rebuild()
	})
	m.rebuild()
	return m
}

func (m *tuiModel) close() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return waitForReload(m.cfg.reloads)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil
	case reloadMsg:
		// Our own saves trigger the watcher too; only report real changes.
		before := m.store.Tasks()
		m.store.Reload()
		if !sameTasks(before, m.store.Tasks()) {
			m.cfg.logger.Debug("slot changed on disk, reloaded")
			m.status = "Reloaded."
		}
		return m, waitForReload(m.cfg.reloads)
	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateAdd(msg)
		case modeSearch:
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m *tuiModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		m.showHelp = false
		return m, nil
	}

	m.status = ""
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?", "h":
		m.showHelp = true
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.view.Len()-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(m.view.Len()-1, 0)
	case "a":
		m.mode = modeAdd
		m.input.Reset()
		m.input.Placeholder = "What needs doing?"
		return m, m.input.Focus()
	case "/":
		m.mode = modeSearch
		m.input.SetValue(m.opts.Query)
		m.input.CursorEnd()
		m.input.Placeholder = "search titles"
		return m, m.input.Focus()
	case " ", "space", "enter", "x":
		if t, ok := m.view.At(m.cursor); ok {
			if updated, ok := m.store.Toggle(t.ID); ok {
				if updated.IsCompleted {
					m.status = "Completed."
				} else {
					m.status = "Reopened."
				}
			}
		}
	case "d", "delete":
		if n := m.store.DeleteVisible(m.view, m.cursor); n > 0 {
			m.status = "Deleted."
		}
	case "0":
		m.setFilter(view.FilterAll)
	case "1":
		m.setFilter(view.FilterActive)
	case "2":
		m.setFilter(view.FilterCompleted)
	case "s":
		m.opts.Sort = view.NextSort(m.opts.Sort)
		m.rebuild()
		m.status = "Sorted by " + string(m.opts.Sort) + "."
	case "esc":
		if m.opts.Query != "" {
			m.opts.Query = ""
			m.rebuild()
		}
	case "r", "f5":
		m.store.Reload()
		m.status = "Reloaded."
	}
	return m, nil
}

func (m *tuiModel) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.endInput()
		return m, nil
	case "enter":
		title := m.input.Value()
		m.endInput()
		if created, ok := m.store.Add(title); ok {
			if idx := m.view.IndexOf(created.ID); idx >= 0 {
				m.cursor = idx
			}
			m.status = "Added."
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *tuiModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.endInput()
		m.opts.Query = ""
		m.rebuild()
		return m, nil
	case "enter":
		m.endInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.opts.Query = m.input.Value()
	m.rebuild()
	return m, cmd
}

func (m *tuiModel) endInput() {
	m.mode = modeList
	m.input.Blur()
	m.input.Reset()
}

func (m *tuiModel) setFilter(f view.Filter) {
	m.opts.Filter = f
	m.rebuild()
}

// rebuild recomputes the projection and keeps the cursor on the same task
// when it is still visible.
func (m *tuiModel) rebuild() {
	var selected string
	if t, ok := m.view.At(m.cursor); ok {
		selected = t.ID
	}
	m.view = m.store.View(m.opts)
	if selected != "" {
		if idx := m.view.IndexOf(selected); idx >= 0 {
			m.cursor = idx
		}
	}
	if m.cursor >= m.view.Len() {
		m.cursor = m.view.Len() - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		return b.String()
	}

	writeFilterLine(&b, m.opts)
	m.writeTasks(&b)
	writeCounts(&b, m.store)

	switch m.mode {
	case modeAdd:
		b.WriteString("New task: " + m.input.View() + "\n")
		b.WriteString(subtleStyle.Render("enter to add, esc to cancel") + "\n")
		return b.String()
	case modeSearch:
		b.WriteString("Search: " + m.input.View() + "\n")
		b.WriteString(subtleStyle.Render("enter to keep, esc to clear") + "\n")
		return b.String()
	}

	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}
	writeFooter(&b, m.cfg.slotName)
	return b.String()
}

func (m *tuiModel) writeTasks(b *strings.Builder) {
	if m.view.Len() == 0 {
		if m.store.Len() == 0 {
			b.WriteString(emptyStyle.Render("  Nothing to do. Press a to add a task.") + "\n\n")
		} else {
			b.WriteString(emptyStyle.Render("  No tasks match.") + "\n\n")
		}
		return
	}

	start, end := visibleWindow(m.view.Len(), m.cursor, m.listHeight())
	for i := start; i < end; i++ {
		t, _ := m.view.At(i)
		b.WriteString(renderTask(t, i == m.cursor))
		b.WriteString("\n")
	}
	if end < m.view.Len() {
		b.WriteString(subtleStyle.Render(fmt.Sprintf("  ... %d more", m.view.Len()-end)) + "\n")
	}
	b.WriteString("\n")
}

// listHeight is the number of rows available for tasks. Zero means unbounded.
func (m *tuiModel) listHeight() int {
	const chrome = 9
	if m.height <= chrome {
		return 0
	}
	return m.height - chrome
}

// visibleWindow returns the [start, end) rows to draw so the cursor stays
// on screen.
func visibleWindow(total, cursor, height int) (int, int) {
	if height <= 0 || total <= height {
		return 0, total
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > total {
		start = total - height
	}
	return start, start + height
}

func sameTasks(a, b []task.Task) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func waitForReload(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return reloadMsg{}
	}
}

func writeTitle(b *strings.Builder) {
	b.WriteString(titleStyle.Render("daily") + "\n\n")
}

func writeFilterLine(b *strings.Builder, opts view.Options) {
	line := fmt.Sprintf("Filter: %s  Sort: %s", opts.Filter, opts.Sort)
	if opts.Query != "" {
		line += fmt.Sprintf("  Search: %q", opts.Query)
	}
	b.WriteString(subtleStyle.Render(line) + "\n\n")
}

func writeCounts(b *strings.Builder, s *store.Store) {
	total := s.Len()
	done := len(s.CompletedTasks())
	b.WriteString(fmt.Sprintf("%d tasks, %d done\n", total, done))
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  a               Add a task\n")
	b.WriteString("  space, enter, x Toggle completion\n")
	b.WriteString("  d, delete       Delete selected task\n")
	b.WriteString("  /               Search titles\n")
	b.WriteString("  esc             Clear search\n")
	b.WriteString("  0               Show all\n")
	b.WriteString("  1               Show active\n")
	b.WriteString("  2               Show completed\n")
	b.WriteString("  s               Cycle sort order\n")
	b.WriteString("  j/k, arrows     Move\n")
	b.WriteString("  r, F5           Reload from storage\n")
	b.WriteString("  ?, h            Toggle this help screen\n")
	b.WriteString("  q, ctrl+c       Quit\n\n")
	b.WriteString("Press any key to return\n")
}

func writeFooter(b *strings.Builder, slotName string) {
	footer := "a add | space toggle | d delete | / search | ? help | q quit"
	if slotName != "" {
		footer += " | " + slotName
	}
	b.WriteString(subtleStyle.Render(footer) + "\n")
}

func renderTask(t task.Task, selected bool) string {
	title := export.NormalizeTitle(t.Title)
	if t.IsCompleted {
		title = doneStyle.Render(title)
	} else if selected {
		title = selectedStyle.Render(title)
	}
	pointer := "  "
	if selected {
		pointer = cursorStyle.Render(">") + " "
	}
	return pointer + export.Checkbox(t) + " " + title
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
