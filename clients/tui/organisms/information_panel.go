// Package organisms provides the dashboard regions of the TUI.
package organisms

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/todoglass/internal/todos"
)

// InformationPanel is the footer: key help for the focused region, the
// active filter and the persistence status.
type InformationPanel struct {
	focus    Focus
	editing  bool
	filter   todos.FilterMode
	shown    int
	saveErr  error
	readErr  error
	width    int
	style    lipgloss.Style
	errStyle lipgloss.Style
}

// NewInformationPanel creates a footer.
func NewInformationPanel(style, errStyle lipgloss.Style) InformationPanel {
	return InformationPanel{style: style, errStyle: errStyle, filter: todos.FilterAll}
}

// SetFocus updates the help shown.
func (p *InformationPanel) SetFocus(f Focus, editing bool) {
	p.focus = f
	p.editing = editing
}

// SetFilter updates the displayed filter.
func (p *InformationPanel) SetFilter(m todos.FilterMode) { p.filter = m }

// SetShown updates the number of visible tasks.
func (p *InformationPanel) SetShown(n int) { p.shown = n }

// SetSaveError records the last write-through failure (nil clears it).
func (p *InformationPanel) SetSaveError(err error) { p.saveErr = err }

// SetReadOnly records why the store refuses writes (nil clears it).
func (p *InformationPanel) SetReadOnly(err error) { p.readErr = err }

// SetWidth updates the rendering width.
func (p *InformationPanel) SetWidth(w int) { p.width = w }

// Help returns the key help for the current focus.
func (p InformationPanel) Help() string {
	switch {
	case p.editing:
		return "enter save · esc cancel"
	case p.focus == FocusAdd:
		return "enter add · tab next · ctrl+c quit"
	case p.focus == FocusSearch:
		return "type to search · tab next · ctrl+c quit"
	default:
		return "space done · s star · e edit · d delete · f filter · tab next · q quit"
	}
}

// View renders the footer.
func (p InformationPanel) View() string {
	status := "saved"
	switch {
	case p.readErr != nil:
		status = p.errStyle.Render("read-only: " + p.readErr.Error())
	case p.saveErr != nil:
		status = p.errStyle.Render("save failed: " + p.saveErr.Error())
	}
	bar := fmt.Sprintf(" %s | %s: %d | %s ", p.Help(), p.filter, p.shown, status)
	return p.style.Width(p.width).Render(bar)
}
