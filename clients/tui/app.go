package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/todoglass/clients/tui/atoms"
	"github.com/dohr-michael/todoglass/clients/tui/molecules"
	"github.com/dohr-michael/todoglass/clients/tui/organisms"
	"github.com/dohr-michael/todoglass/internal/events"
	"github.com/dohr-michael/todoglass/internal/todos"
)

const (
	fieldAdd    = "add"
	fieldSearch = "search"

	title    = "Glass Todo"
	subtitle = "Beautiful task management with glassmorphism design"
)

// Model is the root bubbletea model of the dashboard.
// Layout: HEADER | STATS | ADD | SEARCH | TABS | LIST | FOOTER
type Model struct {
	ctx    context.Context
	store  *todos.Store
	events <-chan events.Event

	loading bool
	spinner atoms.Spinner
	focus   organisms.Focus
	width   int
	height  int

	stats  organisms.StatsCards
	add    molecules.LineInput
	search molecules.LineInput
	tabs   organisms.FilterTabs
	list   organisms.TaskList
	info   organisms.InformationPanel
}

// New creates the root model. ch delivers store events; it may be nil.
func New(ctx context.Context, store *todos.Store, ch <-chan events.Event) Model {
	m := Model{
		ctx:     ctx,
		store:   store,
		events:  ch,
		loading: !store.Ready(),
		spinner: atoms.NewSpinner(ColorPrimary, "Loading tasks..."),
		focus:   organisms.FocusAdd,
		stats:   organisms.NewStatsCards(statsStyles()),
		add:     molecules.NewLineInput(fieldAdd, "+ ", "Add a new task...", false),
		search:  molecules.NewLineInput(fieldSearch, "⌕ ", "Search tasks...", true),
		tabs:    organisms.NewFilterTabs(tabStyles()),
		list:    organisms.NewTaskList(listStyles()),
		info:    organisms.NewInformationPanel(StatusBarStyle, ErrorStyle),
	}
	m.add.Focus()
	return m
}

// Init starts loading the store and listening for its events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Init(),
		loadCmd(m.ctx, m.store),
		waitForEvent(m.events),
		textinput.Blink,
	)
}

// Update processes all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case LoadedMsg:
		m.loading = false
		m.refresh()
		return m, nil

	case StoreEventMsg:
		m.refresh()
		return m, waitForEvent(m.events)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case molecules.SubmitMsg:
		return m.handleSubmit(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.loading {
			if msg.String() == "q" {
				return m, tea.Quit
			}
			return m, nil
		}
		return m.handleKey(msg)
	}

	return m.forward(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.Editing() {
		switch msg.String() {
		case "enter", "tab":
			m.saveEdit()
			return m, nil
		case "esc":
			m.list.StopEdit()
			m.syncInfo()
			return m, nil
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.UpdateEdit(msg)
		return m, cmd
	}

	if msg.String() == "tab" {
		return m, m.setFocus(m.focus.Next())
	}

	switch m.focus {
	case organisms.FocusAdd:
		var cmd tea.Cmd
		m.add, cmd = m.add.Update(msg)
		return m, cmd

	case organisms.FocusSearch:
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if term := m.search.Value(); term != m.store.View().Search {
			m.store.SetSearch(term)
			m.refresh()
		}
		return m, cmd
	}

	return m.handleListKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		m.list.MoveUp()
	case "down", "j":
		m.list.MoveDown()
	case "f", "shift+tab":
		m.store.SetFilter(m.store.View().Filter.Next())
		m.refresh()
	case " ", "x":
		if t, ok := m.list.Selected(); ok {
			m.store.Toggle(m.ctx, t.ID)
			m.refresh()
		}
	case "s":
		if t, ok := m.list.Selected(); ok {
			m.store.ToggleImportant(m.ctx, t.ID)
			m.refresh()
		}
	case "d":
		if t, ok := m.list.Selected(); ok {
			m.store.Delete(m.ctx, t.ID)
			m.refresh()
		}
	case "e":
		cmd := m.list.StartEdit()
		m.syncInfo()
		return m, cmd
	}
	return m, nil
}

func (m Model) handleSubmit(msg molecules.SubmitMsg) (tea.Model, tea.Cmd) {
	switch msg.Field {
	case fieldAdd:
		m.store.Add(m.ctx, msg.Content)
		m.refresh()
	case fieldSearch:
		return m, m.setFocus(organisms.FocusList)
	}
	return m, nil
}

// saveEdit applies the inline editor. Blank text closes it without change.
func (m *Model) saveEdit() {
	id := m.list.EditingID()
	text := m.list.EditValue()
	m.list.StopEdit()
	if strings.TrimSpace(text) != "" {
		m.store.Edit(m.ctx, id, text)
	}
	m.refresh()
}

// forward passes non-key messages (cursor blink) to the focused input.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.list.Editing():
		m.list, cmd = m.list.UpdateEdit(msg)
	case m.focus == organisms.FocusAdd:
		m.add, cmd = m.add.Update(msg)
	case m.focus == organisms.FocusSearch:
		m.search, cmd = m.search.Update(msg)
	}
	return m, cmd
}

func (m *Model) setFocus(f organisms.Focus) tea.Cmd {
	m.focus = f
	m.add.Blur()
	m.search.Blur()
	m.list.SetFocused(f == organisms.FocusList)
	m.syncInfo()

	switch f {
	case organisms.FocusAdd:
		return m.add.Focus()
	case organisms.FocusSearch:
		return m.search.Focus()
	}
	return nil
}

// refresh re-reads the projection and counters from the store.
func (m *Model) refresh() {
	view := m.store.View()
	visible := m.store.Visible()

	m.stats.SetCounts(m.store.Counts())
	m.tabs.SetActive(view.Filter)
	m.list.SetTasks(visible, view.IsDefault())
	m.info.SetFilter(view.Filter)
	m.info.SetShown(len(visible))
	m.info.SetSaveError(m.store.LastSaveError())
	m.info.SetReadOnly(nil)
	if err := m.store.Writable(); errors.Is(err, todos.ErrUnreadable) {
		m.info.SetReadOnly(err)
	}
	m.syncInfo()
}

func (m *Model) syncInfo() {
	m.info.SetFocus(m.focus, m.list.Editing())
}

// chromeHeight is the number of rows used by everything but the list:
// header(2) + gap(1) + stats(4) + add(3) + search(3) + tabs(1) + gap(1) + footer(1).
const chromeHeight = 16

func (m *Model) layout() {
	inner := m.width - 4
	if inner < 10 {
		inner = 10
	}
	m.stats.SetWidth(m.width)
	m.add.SetWidth(inner - 3)
	m.search.SetWidth(inner - 3)
	m.list.SetSize(m.width, m.height-chromeHeight)
	m.info.SetWidth(m.width)
}

// View renders the dashboard.
func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.spinner.View())
	}

	box := func(focused bool) lipgloss.Style {
		st := GlassStyle
		if focused {
			st = FocusedGlassStyle
		}
		if m.width > 2 {
			st = st.Width(m.width - 2)
		}
		return st
	}

	header := lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render(title),
		SubtitleStyle.Render(subtitle),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		m.stats.View(),
		box(m.focus == organisms.FocusAdd).Render(m.add.View()),
		box(m.focus == organisms.FocusSearch).Render(m.search.View()),
		m.tabs.View(),
		"",
		m.list.View(),
		m.info.View(),
	)
}
