package atoms

import "github.com/charmbracelet/lipgloss"

// Checkbox renders the completion marker of a task.
func Checkbox(done bool, style lipgloss.Style) string {
	if done {
		return style.Render("[✓]")
	}
	return "[ ]"
}

// Star renders the importance marker of a task.
func Star(on bool, style lipgloss.Style) string {
	if on {
		return style.Render("★")
	}
	return "☆"
}
