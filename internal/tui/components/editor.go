package components

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui/theme"
)

// Editor is the input box for source text. It accepts pastes of any size;
// the limit is only reported so an oversized document can be trimmed
// instead of being cut off silently.
type Editor struct {
	textarea textarea.Model
	limit    int
	width    int
	height   int
}

// NewEditor creates an editor that warns above limit runes
func NewEditor(width, height, limit int) *Editor {
	ta := textarea.New()
	ta.Placeholder = "Paste text to turn into IdeaBlocks, or type /help"
	ta.Prompt = "┃ "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(theme.Current.TextMuted)
	ta.Focus()

	e := &Editor{textarea: ta, limit: limit}
	e.SetSize(width, height)
	return e
}

// SetSize updates the editor dimensions. One row is kept for the counter.
func (e *Editor) SetSize(width, height int) {
	e.width = width
	e.height = height
	e.textarea.SetWidth(max(width-6, 1))
	e.textarea.SetHeight(max(height-2, 1))
}

// Value returns the trimmed text with any terminal escape sequences removed
func (e *Editor) Value() string {
	return strings.TrimSpace(ansi.Strip(e.textarea.Value()))
}

// Count returns the number of runes that would be submitted
func (e *Editor) Count() int {
	return utf8.RuneCountInString(e.Value())
}

// OverLimit reports whether the content exceeds the input limit
func (e *Editor) OverLimit() bool {
	return e.limit > 0 && e.Count() > e.limit
}

// Reset clears the editor
func (e *Editor) Reset() {
	e.textarea.Reset()
}

// SetValue replaces the content and moves the cursor to the end
func (e *Editor) SetValue(value string) {
	e.textarea.SetValue(value)
	e.textarea.CursorEnd()
}

// Update handles textarea updates
func (e *Editor) Update(msg tea.Msg) (*Editor, tea.Cmd) {
	var cmd tea.Cmd
	e.textarea, cmd = e.textarea.Update(msg)
	return e, cmd
}

// View renders the input box with the character counter below it
func (e *Editor) View() string {
	t := theme.Current

	border := t.BorderFocus
	if e.OverLimit() {
		border = t.Error
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(max(e.width-2, 1)).
		Padding(0, 1).
		Render(e.textarea.View())

	counter := fmt.Sprintf("%d / %d", e.Count(), e.limit)
	color := t.TextMuted
	switch {
	case e.OverLimit():
		color = t.Error
		counter = fmt.Sprintf("%d over the limit · %s", e.Count()-e.limit, counter)
	case e.limit > 0 && e.Count()*10 >= e.limit*9:
		color = t.Warning
	}
	counterLine := lipgloss.NewStyle().
		Foreground(color).
		Width(max(e.width-2, 1)).
		Align(lipgloss.Right).
		Render(counter)

	return box + "\n" + counterLine
}
