package organisms

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/todoglass/internal/todos"
)

// TabStyles styles the filter tabs.
type TabStyles struct {
	Active   lipgloss.Style
	Inactive lipgloss.Style
}

// FilterTabs renders the filter selector.
type FilterTabs struct {
	active todos.FilterMode
	styles TabStyles
}

// NewFilterTabs creates tabs with "all" selected.
func NewFilterTabs(styles TabStyles) FilterTabs {
	return FilterTabs{active: todos.FilterAll, styles: styles}
}

// SetActive selects a mode.
func (f *FilterTabs) SetActive(m todos.FilterMode) { f.active = m }

// Active returns the selected mode.
func (f FilterTabs) Active() todos.FilterMode { return f.active }

// View renders the tabs.
func (f FilterTabs) View() string {
	parts := make([]string, 0, len(todos.FilterModes))
	for _, m := range todos.FilterModes {
		label := strings.ToUpper(string(m[:1])) + string(m[1:])
		if m == f.active {
			parts = append(parts, f.styles.Active.Render(label))
		} else {
			parts = append(parts, f.styles.Inactive.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
