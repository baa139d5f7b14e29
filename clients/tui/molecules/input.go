// Package molecules provides mid-level TUI components.
package molecules

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// SubmitMsg is sent when the user presses Enter in a LineInput.
type SubmitMsg struct {
	Field   string
	Content string
}

// LineInput wraps a single-line textinput with Enter-to-submit semantics and
// Up/Down recall of previous submissions.
type LineInput struct {
	field   string
	input   textinput.Model
	history []string
	histIdx int
	draft   string
	// keep leaves the value in place after submit (search box).
	keep bool
}

// NewLineInput creates an input identified by field.
func NewLineInput(field, prompt, placeholder string, keep bool) LineInput {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = placeholder
	ti.CharLimit = 500

	return LineInput{
		field:   field,
		input:   ti,
		histIdx: -1,
		keep:    keep,
	}
}

// SetWidth sets the visible width.
func (c *LineInput) SetWidth(w int) {
	c.input.Width = w
}

// Focus gives focus to the input.
func (c *LineInput) Focus() tea.Cmd {
	return c.input.Focus()
}

// Blur removes focus from the input.
func (c *LineInput) Blur() {
	c.input.Blur()
}

// Focused reports whether the input has focus.
func (c *LineInput) Focused() bool {
	return c.input.Focused()
}

// Reset clears the input.
func (c *LineInput) Reset() {
	c.input.Reset()
	c.histIdx = -1
	c.draft = ""
}

// SetValue replaces the text and moves the cursor to the end.
func (c *LineInput) SetValue(v string) {
	c.input.SetValue(v)
	c.input.CursorEnd()
}

// Value returns the current text.
func (c *LineInput) Value() string {
	return c.input.Value()
}

// Update handles key events. Enter submits non-blank content.
func (c LineInput) Update(msg tea.Msg) (LineInput, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && c.input.Focused() {
		switch keyMsg.Type {
		case tea.KeyEnter:
			raw := c.input.Value()
			if strings.TrimSpace(raw) == "" && !c.keep {
				return c, nil
			}
			if !c.keep {
				c.history = append(c.history, strings.TrimSpace(raw))
				c.input.Reset()
			}
			c.histIdx = -1
			c.draft = ""
			field := c.field
			return c, func() tea.Msg { return SubmitMsg{Field: field, Content: raw} }

		case tea.KeyUp:
			if len(c.history) == 0 {
				break
			}
			if c.histIdx == -1 {
				c.draft = c.input.Value()
				c.histIdx = len(c.history) - 1
			} else if c.histIdx > 0 {
				c.histIdx--
			}
			c.SetValue(c.history[c.histIdx])
			return c, nil

		case tea.KeyDown:
			if c.histIdx == -1 {
				break
			}
			if c.histIdx < len(c.history)-1 {
				c.histIdx++
				c.SetValue(c.history[c.histIdx])
			} else {
				c.histIdx = -1
				c.SetValue(c.draft)
			}
			return c, nil
		}
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// View renders the input.
func (c LineInput) View() string {
	return c.input.View()
}
