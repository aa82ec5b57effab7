package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chat"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui/theme"
)

// Pane is a scrollable column of messages from one role
type Pane struct {
	viewport viewport.Model
	title    string
	role     chat.Role
	messages []chat.Message
	empty    string
	focused  bool
	width    int
	height   int
}

// NewPane creates a pane for role
func NewPane(role chat.Role, title string, width, height int) *Pane {
	p := &Pane{
		viewport: viewport.New(width, height-1),
		title:    title,
		role:     role,
		width:    width,
		height:   height,
	}
	p.updateContent()
	return p
}

// SetSize updates the pane dimensions
func (p *Pane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.viewport.Width = width
	p.viewport.Height = height - 1
	p.updateContent()
}

// SetEmpty sets the text shown while the pane has no messages
func (p *Pane) SetEmpty(text string) {
	p.empty = text
	p.updateContent()
}

// SetFocused marks the pane that receives scroll keys
func (p *Pane) SetFocused(focused bool) {
	p.focused = focused
}

// SetMessages replaces the displayed messages
func (p *Pane) SetMessages(messages []chat.Message) {
	p.messages = messages
	p.updateContent()
}

// Viewport returns the viewport for handling scroll input
func (p *Pane) Viewport() *viewport.Model {
	return &p.viewport
}

func (p *Pane) updateContent() {
	t := theme.Current
	contentWidth := p.width - 2
	if contentWidth < 1 {
		contentWidth = 1
	}

	if len(p.messages) == 0 {
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Italic(true).Width(contentWidth)
		p.viewport.SetContent(muted.Render(p.empty))
		return
	}

	var sb strings.Builder
	for _, m := range p.messages {
		sb.WriteString(p.renderMessage(m, contentWidth))
		sb.WriteString("\n\n")
	}

	p.viewport.SetContent(strings.TrimRight(sb.String(), "\n"))
	p.viewport.GotoBottom()
}

func (p *Pane) renderMessage(m chat.Message, width int) string {
	t := theme.Current
	stamp := lipgloss.NewStyle().Foreground(t.TextMuted).Render(m.Time().Format("15:04"))

	switch {
	case m.IsError:
		icon := lipgloss.NewStyle().Foreground(t.Error).Bold(true).Render("✗")
		body := lipgloss.NewStyle().Foreground(t.Error).Width(width - 2).Render(m.Content)
		return icon + " " + stamp + "\n" + body

	case m.Role == chat.RoleAssistant:
		header := lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render("◆ Blockify") + " " + stamp
		if m.InProgress() && m.ChunkInfo != nil {
			header += lipgloss.NewStyle().Foreground(t.Warning).
				Render(fmt.Sprintf("  part %d of %d", m.ChunkInfo.Current, m.ChunkInfo.Total))
		}
		return header + "\n" + RenderAssistant(m.Content, width)

	default:
		header := lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Render("◉ You") + " " + stamp
		body := lipgloss.NewStyle().Foreground(t.Text).Width(width).Render(m.Content)
		return header + "\n" + body
	}
}

// View renders the title line above the viewport
func (p *Pane) View() string {
	t := theme.Current
	color := t.TextMuted
	if p.focused {
		color = t.BorderFocus
	}
	title := lipgloss.NewStyle().Foreground(color).Bold(true).Width(p.width).
		Render(fmt.Sprintf("%s (%d)", p.title, len(p.messages)))
	return title + "\n" + p.viewport.View()
}
