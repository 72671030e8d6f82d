// Package ui is the terminal view and input adapter. Key presses become
// intent events on the bus; the controller handles them synchronously and
// writes the fresh projection into State before Update returns, so every
// frame renders settled data.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/app"
	"taskdeck/internal/bus"
	"taskdeck/internal/config"
	"taskdeck/internal/query"
	"taskdeck/internal/task"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeSearch
)

type searchDebounceMsg struct{ seq int }

type noticeExpireMsg struct{ seq int }

type Model struct {
	bus   *bus.Bus
	cfg   config.Config
	state *State

	cursor     int
	mode       mode
	input      textinput.Model
	confirmDel bool
	pendingDel *task.Item

	filter query.Filter
	sort   query.Sort

	addPriority  task.Priority
	editID       string
	editPriority task.Priority

	searchSeq  int
	noticeSeen int
}

func New(b *bus.Bus, cfg config.Config, state *State) Model {
	ti := textinput.New()
	ti.Placeholder = "Task text"
	ti.CharLimit = 500
	ti.Width = 40

	filter, ok := query.ParseFilter(cfg.DefaultFilter)
	if !ok {
		filter = query.FilterAll
	}
	srt, ok := query.ParseSort(cfg.DefaultSort)
	if !ok {
		srt = query.SortNewest
	}

	return Model{
		bus:         b,
		cfg:         cfg,
		state:       state,
		input:       ti,
		mode:        modeList,
		filter:      filter,
		sort:        srt,
		addPriority: task.PriorityMedium,
	}
}

func Run(b *bus.Bus, cfg config.Config, state *State) error {
	program := tea.NewProgram(New(b, cfg, state))
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		switch m.mode {
		case modeAdd:
			return m.updateAddMode(msg)
		case modeEdit:
			return m.updateEditMode(msg)
		case modeSearch:
			return m.updateSearchMode(msg)
		}
		return m.updateListMode(msg.String())
	case searchDebounceMsg:
		if msg.seq == m.searchSeq {
			m.bus.Publish(app.EventSearchChange, app.SearchChangePayload{Query: m.input.Value()})
			m.cursor = clampCursor(m.cursor, len(m.state.items))
		}
		cmd := m.noticeCmd()
		return m, cmd
	case noticeExpireMsg:
		m.state.clearNotice(msg.seq)
		return m, nil
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		if len(m.state.items) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(m.state.items))
	case m.cfg.Keys.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(m.state.items))
		}
	case m.cfg.Keys.Add:
		m.mode = modeAdd
		m.addPriority = task.PriorityMedium
		m.input.SetValue("")
		m.input.Placeholder = "Task text"
		m.input.Focus()
	case m.cfg.Keys.Toggle:
		if it, ok := m.selected(); ok {
			m.bus.Publish(app.EventToggle, app.TogglePayload{ID: it.ID})
			m.cursor = clampCursor(m.cursor, len(m.state.items))
		}
	case m.cfg.Keys.Delete:
		if it, ok := m.selected(); ok {
			m.confirmDel = true
			m.pendingDel = it
		}
	case m.cfg.Keys.Edit:
		if it, ok := m.selected(); ok {
			m.bus.Publish(app.EventEdit, app.EditPayload{ID: it.ID})
			if pending := m.state.takePending(); pending != nil {
				m.mode = modeEdit
				m.editID = pending.ID
				m.editPriority = pending.Priority
				m.input.SetValue(pending.Text)
				m.input.Placeholder = "Task text"
				m.input.Focus()
			}
		}
	case m.cfg.Keys.Search:
		m.mode = modeSearch
		m.input.SetValue("")
		m.input.Placeholder = "Search"
		m.input.Focus()
	case m.cfg.Keys.Filter:
		m.filter = nextFilter(m.filter)
		m.bus.Publish(app.EventFilterChange, app.FilterChangePayload{Name: string(m.filter)})
		m.cursor = clampCursor(m.cursor, len(m.state.items))
	case m.cfg.Keys.Sort:
		m.sort = nextSort(m.sort)
		m.bus.Publish(app.EventSortChange, app.SortChangePayload{Name: string(m.sort)})
	case m.cfg.Keys.Yank:
		if it, ok := m.selected(); ok {
			if err := clipboard.WriteAll(it.Text); err != nil {
				m.state.Notify(app.SeverityError, "Clipboard unavailable")
			} else {
				m.state.Notify(app.SeverityInfo, "Copied to clipboard")
			}
		}
	case m.cfg.Keys.ClearDone:
		m.bus.Publish(app.EventBulkClear, nil)
		m.cursor = clampCursor(m.cursor, len(m.state.items))
	}
	cmd := m.noticeCmd()
	return m, cmd
}

func (m Model) updateAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Cancel, "esc":
		m.mode = modeList
		m.input.Blur()
		return m, nil
	case "tab":
		m.addPriority = nextPriority(m.addPriority)
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.bus.Publish(app.EventAdd, app.AddPayload{
			Text:     m.input.Value(),
			Priority: string(m.addPriority),
		})
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		m.cursor = clampCursor(m.cursor, len(m.state.items))
		cmd := m.noticeCmd()
		return m, cmd
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Cancel, "esc":
		m.mode = modeList
		m.editID = ""
		m.input.SetValue("")
		m.input.Blur()
		return m, nil
	case "tab":
		m.editPriority = nextPriority(m.editPriority)
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		text := m.input.Value()
		priority := string(m.editPriority)
		m.bus.Publish(app.EventUpdate, app.UpdatePayload{
			ID:      m.editID,
			Updates: app.Updates{Text: &text, Priority: &priority},
		})
		m.mode = modeList
		m.editID = ""
		m.input.SetValue("")
		m.input.Blur()
		cmd := m.noticeCmd()
		return m, cmd
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// updateSearchMode debounces keystrokes: each one bumps searchSeq and arms a
// tick; only the tick matching the latest seq publishes the change.
func (m Model) updateSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Cancel, "esc":
		m.mode = modeList
		m.searchSeq++
		m.input.SetValue("")
		m.input.Blur()
		m.bus.Publish(app.EventSearchChange, app.SearchChangePayload{Query: ""})
		m.cursor = clampCursor(m.cursor, len(m.state.items))
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.mode = modeList
		m.searchSeq++
		m.input.Blur()
		m.bus.Publish(app.EventSearchChange, app.SearchChangePayload{Query: m.input.Value()})
		m.cursor = clampCursor(m.cursor, len(m.state.items))
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.searchSeq++
		seq := m.searchSeq
		debounce := time.Duration(m.cfg.SearchDebounceMS) * time.Millisecond
		tick := tea.Tick(debounce, func(time.Time) tea.Msg {
			return searchDebounceMsg{seq: seq}
		})
		return m, tea.Batch(cmd, tick)
	}
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y":
		if m.pendingDel != nil {
			m.bus.Publish(app.EventDelete, app.DeletePayload{ID: m.pendingDel.ID})
		}
		m.confirmDel = false
		m.pendingDel = nil
		m.cursor = clampCursor(m.cursor, len(m.state.items))
		cmd := m.noticeCmd()
		return m, cmd
	case "n", "N", m.cfg.Keys.Cancel, "esc":
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	default:
		return m, nil
	}
}

// noticeCmd arms an auto-dismiss tick when a new notice appeared during this
// update. A later notice bumps the seq, so the stale tick is ignored.
func (m *Model) noticeCmd() tea.Cmd {
	if m.state.notice.seq == m.noticeSeen || m.state.notice.text == "" {
		return nil
	}
	m.noticeSeen = m.state.notice.seq
	seq := m.state.notice.seq
	dismiss := time.Duration(m.cfg.NoticeDismissMS) * time.Millisecond
	return tea.Tick(dismiss, func(time.Time) tea.Msg {
		return noticeExpireMsg{seq: seq}
	})
}

func (m Model) selected() (*task.Item, bool) {
	if len(m.state.items) == 0 {
		return nil, false
	}
	return m.state.items[clampCursor(m.cursor, len(m.state.items))], true
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("taskdeck"))
	b.WriteString("  ")
	b.WriteString(m.renderStatsBar())
	b.WriteString("\n\n")

	if len(m.state.items) == 0 {
		b.WriteString(mutedStyle.Render(m.emptyMessage()))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderList())
	}

	b.WriteString("\n")
	b.WriteString(m.renderSelectionBar())
	b.WriteString("\n")

	switch m.mode {
	case modeAdd:
		b.WriteString(fmt.Sprintf("Add [%s]: %s\n", renderPriority(m.addPriority), m.input.View()))
	case modeEdit:
		b.WriteString(fmt.Sprintf("Edit [%s]: %s\n", renderPriority(m.editPriority), m.input.View()))
	case modeSearch:
		b.WriteString("Search: " + m.input.View() + "\n")
	}

	if m.confirmDel && m.pendingDel != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Delete %q? y/n", m.pendingDel.Text)))
		b.WriteString("\n")
	}

	if m.state.notice.text != "" {
		b.WriteString(renderNotice(m.state.notice))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(renderHelp(m.cfg.Keys)))
	return b.String()
}

func (m Model) emptyMessage() string {
	if m.state.stats.Total == 0 {
		return "No tasks yet. Press '" + m.cfg.Keys.Add + "' to add one."
	}
	return "Nothing matches the current view."
}

func (m Model) renderList() string {
	var b strings.Builder
	for i, it := range m.state.items {
		checkbox := boxUnchecked
		if it.Done {
			checkbox = boxChecked
		}
		line := fmt.Sprintf("%s %s %s", checkbox, renderPriority(it.Priority), it.Text)
		switch {
		case m.cursor == i && m.mode == modeList:
			line = selectedStyle.Render(line)
		case it.Done:
			line = doneStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderStatsBar() string {
	st := m.state.stats
	bar := progressBar(st.Completed, st.Total, 20)
	parts := fmt.Sprintf("%d active • %d done", st.Active, st.Completed)
	if st.HighPriority > 0 {
		parts += " • " + highStyle.Render(fmt.Sprintf("%d high", st.HighPriority))
	}
	return mutedStyle.Render(bar) + "  " + parts
}

func (m Model) renderSelectionBar() string {
	s := fmt.Sprintf("filter:%s  sort:%s", m.filter, m.sort)
	if m.mode == modeList && m.input.Value() != "" {
		s += fmt.Sprintf("  search:%q", m.input.Value())
	}
	return mutedStyle.Render(s)
}

func renderNotice(n notice) string {
	switch n.severity {
	case app.SeverityError:
		return errorStyle.Render("✖ " + n.text)
	case app.SeverityInfo:
		return infoStyle.Render("• " + n.text)
	default:
		return successStyle.Render("✔ " + n.text)
	}
}

func renderPriority(p task.Priority) string {
	switch p {
	case task.PriorityHigh:
		return highStyle.Render("high")
	case task.PriorityLow:
		return lowStyle.Render("low")
	default:
		return mediumStyle.Render("med")
	}
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s toggle • %s edit • %s delete • %s search • %s filter • %s sort • %s yank • %s clear done • %s quit",
		k.Up, k.Down, k.Add, k.Toggle, k.Edit, k.Delete, k.Search, k.Filter, k.Sort, k.Yank, k.ClearDone, k.Quit)
}

func progressBar(done, total, width int) string {
	if total == 0 {
		total = 1
	}
	if width <= 0 {
		width = 20
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + fmt.Sprintf("] %d/%d", done, total)
}

func nextFilter(f query.Filter) query.Filter {
	switch f {
	case query.FilterAll:
		return query.FilterActive
	case query.FilterActive:
		return query.FilterCompleted
	default:
		return query.FilterAll
	}
}

func nextSort(s query.Sort) query.Sort {
	switch s {
	case query.SortNewest:
		return query.SortOldest
	case query.SortOldest:
		return query.SortPriority
	default:
		return query.SortNewest
	}
}

func nextPriority(p task.Priority) task.Priority {
	switch p {
	case task.PriorityHigh:
		return task.PriorityMedium
	case task.PriorityMedium:
		return task.PriorityLow
	default:
		return task.PriorityHigh
	}
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
