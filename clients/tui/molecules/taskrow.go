package molecules

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/todoglass/clients/tui/atoms"
	"github.com/dohr-michael/todoglass/internal/todos"
)

// DateLayout formats created and completed dates in rows.
const DateLayout = "Jan 2, 2006"

// TaskRowStyles groups the styles a task row needs.
type TaskRowStyles struct {
	Row      lipgloss.Style
	Selected lipgloss.Style
	Done     lipgloss.Style
	Check    lipgloss.Style
	Star     lipgloss.Style
	Date     lipgloss.Style
}

// TaskRow renders one task as a single line: checkbox, text, date, star.
// editView replaces the text when the row is being edited.
func TaskRow(t todos.Task, selected bool, editView string, width int, st TaskRowStyles) string {
	check := atoms.Checkbox(t.Completed, st.Check)
	star := atoms.Star(t.Important, st.Star)

	date := "Created " + t.CreatedAt.Local().Format(DateLayout)
	if t.Completed && t.CompletedAt != nil {
		date = "Completed on " + t.CompletedAt.Local().Format(DateLayout)
	}
	date = st.Date.Render(date)

	text := editView
	if text == "" {
		text = t.Text
		// Leave room for checkbox, date and star.
		avail := width - lipgloss.Width(check) - lipgloss.Width(date) - lipgloss.Width(star) - 6
		if avail > 1 && lipgloss.Width(text) > avail {
			text = truncate(text, avail)
		}
		if t.Completed {
			text = st.Done.Render(text)
		}
	}

	left := check + " " + text
	right := date + "  " + star
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	line := " " + left + strings.Repeat(" ", gap) + right + " "

	if selected {
		return st.Selected.Render(line)
	}
	return st.Row.Render(line)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
