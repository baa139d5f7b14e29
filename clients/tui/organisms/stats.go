package organisms

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/todoglass/internal/todos"
)

// StatsStyles styles the four counter cards. Values are indexed
// Total, Active, Completed, Important.
type StatsStyles struct {
	Card   lipgloss.Style
	Label  lipgloss.Style
	Values [4]lipgloss.Style
}

var statLabels = [4]string{"Total", "Active", "Completed", "Important"}

// StatsCards renders the counters row.
type StatsCards struct {
	counts todos.Counts
	width  int
	styles StatsStyles
}

// NewStatsCards creates the counters row.
func NewStatsCards(styles StatsStyles) StatsCards {
	return StatsCards{styles: styles}
}

// SetCounts replaces the displayed counts.
func (s *StatsCards) SetCounts(c todos.Counts) { s.counts = c }

// SetWidth updates the rendering width.
func (s *StatsCards) SetWidth(w int) { s.width = w }

// View renders the cards side by side.
func (s StatsCards) View() string {
	values := [4]int{s.counts.Total, s.counts.Active, s.counts.Completed, s.counts.Important}

	cardWidth := 0
	if s.width > 0 {
		// Each card carries 2 border and 2 padding columns.
		cardWidth = s.width/4 - 4
	}
	if cardWidth < len("Important") {
		cardWidth = len("Important")
	}

	cards := make([]string, 0, 4)
	for i, label := range statLabels {
		body := lipgloss.JoinVertical(lipgloss.Center,
			s.styles.Values[i].Render(strconv.Itoa(values[i])),
			s.styles.Label.Render(label),
		)
		cards = append(cards, s.styles.Card.Width(cardWidth).Align(lipgloss.Center).Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}
