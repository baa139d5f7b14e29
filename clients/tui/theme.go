// Package tui provides the terminal dashboard for the task store.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/todoglass/clients/tui/organisms"
)

// Adaptive colors (light/dark terminal detection).
var (
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#C4B5FD"}
	ColorAccent    = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#93C5FD"}
	ColorTeal      = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#5EEAD4"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#86EFAC"}
	ColorStar      = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FDE047"}
	ColorError     = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#FCA5A5"}
	ColorText      = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#F9FAFB"}
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	ColorBorder    = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"}
	ColorSelection = lipgloss.AdaptiveColor{Light: "#EDE9FE", Dark: "#312E81"}
	ColorStatusBg  = lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#1F2937"}
	ColorStatusFg  = lipgloss.AdaptiveColor{Light: "#374151", Dark: "#D1D5DB"}
)

// Component styles.
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	// GlassStyle is the translucent-looking panel used for cards and inputs.
	GlassStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	FocusedGlassStyle = GlassStyle.
				BorderForeground(ColorPrimary)

	StatusBarStyle = lipgloss.NewStyle().
			Background(ColorStatusBg).
			Foreground(ColorStatusFg).
			Padding(0, 1)
)

func statsStyles() organisms.StatsStyles {
	return organisms.StatsStyles{
		Card:  GlassStyle,
		Label: MutedStyle,
		Values: [4]lipgloss.Style{
			lipgloss.NewStyle().Foreground(ColorText).Bold(true),
			lipgloss.NewStyle().Foreground(ColorAccent).Bold(true),
			lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
			lipgloss.NewStyle().Foreground(ColorStar).Bold(true),
		},
	}
}

func tabStyles() organisms.TabStyles {
	return organisms.TabStyles{
		Active:   lipgloss.NewStyle().Foreground(ColorText).Background(ColorSelection).Bold(true).Padding(0, 1),
		Inactive: lipgloss.NewStyle().Foreground(ColorMuted).Padding(0, 1),
	}
}

func listStyles() organisms.TaskListStyles {
	return organisms.TaskListStyles{
		Row:        lipgloss.NewStyle().Foreground(ColorText),
		Selected:   lipgloss.NewStyle().Foreground(ColorText).Background(ColorSelection),
		Done:       lipgloss.NewStyle().Foreground(ColorMuted).Strikethrough(true),
		Check:      lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
		Star:       lipgloss.NewStyle().Foreground(ColorStar),
		Date:       MutedStyle,
		EmptyTitle: lipgloss.NewStyle().Foreground(ColorMuted).Bold(true),
		EmptyHint:  MutedStyle,
	}
}
