package organisms

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/todoglass/clients/tui/molecules"
	"github.com/dohr-michael/todoglass/internal/todos"
)

// EditField identifies the inline edit input in SubmitMsg.
const EditField = "edit"

// TaskListStyles styles the task list and its empty states.
type TaskListStyles struct {
	Row        lipgloss.Style
	Selected   lipgloss.Style
	Done       lipgloss.Style
	Check      lipgloss.Style
	Star       lipgloss.Style
	Date       lipgloss.Style
	EmptyTitle lipgloss.Style
	EmptyHint  lipgloss.Style
}

func (s TaskListStyles) row() molecules.TaskRowStyles {
	return molecules.TaskRowStyles{
		Row:      s.Row,
		Selected: s.Selected,
		Done:     s.Done,
		Check:    s.Check,
		Star:     s.Star,
		Date:     s.Date,
	}
}

// TaskList shows the visible projection with a cursor and an inline editor.
type TaskList struct {
	tasks       []todos.Task
	defaultView bool
	cursor      int
	offset      int
	focused     bool

	editing todos.ID
	edit    molecules.LineInput

	width  int
	height int
	styles TaskListStyles
}

// NewTaskList creates an empty list.
func NewTaskList(styles TaskListStyles) TaskList {
	return TaskList{
		styles:      styles,
		defaultView: true,
		edit:        molecules.NewLineInput(EditField, "", "", false),
	}
}

// SetSize updates the rendering area. height is in rows.
func (l *TaskList) SetSize(w, h int) {
	l.width = w
	if h < 1 {
		h = 1
	}
	l.height = h
	l.edit.SetWidth(w / 2)
	l.clampOffset()
}

// SetFocused toggles the cursor highlight.
func (l *TaskList) SetFocused(f bool) { l.focused = f }

// SetTasks replaces the rows. The cursor stays on the same task when it is
// still visible. defaultView selects the "No tasks yet" empty state.
func (l *TaskList) SetTasks(tasks []todos.Task, defaultView bool) {
	var keep todos.ID
	if t, ok := l.Selected(); ok {
		keep = t.ID
	}
	l.tasks = tasks
	l.defaultView = defaultView

	for i, t := range tasks {
		if t.ID == keep {
			l.cursor = i
			l.clampOffset()
			return
		}
	}
	if l.cursor >= len(tasks) {
		l.cursor = len(tasks) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.clampOffset()
}

// Len returns the number of rows.
func (l TaskList) Len() int { return len(l.tasks) }

// Selected returns the task under the cursor.
func (l TaskList) Selected() (todos.Task, bool) {
	if l.cursor < 0 || l.cursor >= len(l.tasks) {
		return todos.Task{}, false
	}
	return l.tasks[l.cursor], true
}

// MoveUp moves the cursor up one row.
func (l *TaskList) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
		l.clampOffset()
	}
}

// MoveDown moves the cursor down one row.
func (l *TaskList) MoveDown() {
	if l.cursor < len(l.tasks)-1 {
		l.cursor++
		l.clampOffset()
	}
}

func (l *TaskList) clampOffset() {
	if l.height <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.height {
		l.offset = l.cursor - l.height + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// StartEdit opens the inline editor on the selected task.
func (l *TaskList) StartEdit() tea.Cmd {
	t, ok := l.Selected()
	if !ok {
		return nil
	}
	l.editing = t.ID
	l.edit.Reset()
	l.edit.SetValue(t.Text)
	return l.edit.Focus()
}

// Editing reports whether the inline editor is open.
func (l TaskList) Editing() bool { return l.editing != 0 }

// EditingID returns the id of the task being edited.
func (l TaskList) EditingID() todos.ID { return l.editing }

// EditValue returns the editor's current text.
func (l TaskList) EditValue() string { return l.edit.Value() }

// StopEdit closes the inline editor without applying anything.
func (l *TaskList) StopEdit() {
	l.editing = 0
	l.edit.Blur()
	l.edit.Reset()
}

// UpdateEdit forwards a message to the inline editor.
func (l TaskList) UpdateEdit(msg tea.Msg) (TaskList, tea.Cmd) {
	var cmd tea.Cmd
	l.edit, cmd = l.edit.Update(msg)
	return l, cmd
}

// View renders the visible window of rows, or the empty state.
func (l TaskList) View() string {
	if len(l.tasks) == 0 {
		if l.defaultView {
			return lipgloss.JoinVertical(lipgloss.Left,
				l.styles.EmptyTitle.Render("No tasks yet"),
				l.styles.EmptyHint.Render("Add a task to get started!"),
			)
		}
		return l.styles.EmptyTitle.Render("No tasks match your criteria")
	}

	end := len(l.tasks)
	if l.height > 0 && l.offset+l.height < end {
		end = l.offset + l.height
	}

	st := l.styles.row()
	rows := make([]string, 0, end-l.offset)
	for i := l.offset; i < end; i++ {
		t := l.tasks[i]
		editView := ""
		if t.ID == l.editing {
			editView = l.edit.View()
		}
		rows = append(rows, molecules.TaskRow(t, l.focused && i == l.cursor, editView, l.width, st))
	}
	return strings.Join(rows, "\n")
}
