package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui/theme"
)

// Header shows the open chat and where requests go
type Header struct {
	Width    int
	Version  string
	ChatName string
	Starred  bool
	Endpoint string
	Model    string
}

// NewHeader creates a new header component
func NewHeader(width int, version, endpoint, model string) *Header {
	return &Header{
		Width:    width,
		Version:  version,
		Endpoint: endpoint,
		Model:    model,
	}
}

// SetWidth updates the header width
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetChat shows name as the open chat; an empty name means a new chat
func (h *Header) SetChat(name string, starred bool) {
	h.ChatName = name
	h.Starred = starred
}

// View renders the header
func (h *Header) View() string {
	t := theme.Current

	logo := lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render("◆ Blockify")
	version := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.BackgroundSecondary).
		Padding(0, 1).
		Render("v" + h.Version)

	name := h.ChatName
	if name == "" {
		name = "New chat"
	}
	if h.Starred {
		name = "★ " + name
	}
	chatName := lipgloss.NewStyle().Foreground(t.Text).Bold(true).Render(name)

	endpoint := lipgloss.NewStyle().Foreground(t.TextMuted).Render(h.Model + " @ " + h.Endpoint)

	left := lipgloss.JoinHorizontal(lipgloss.Center, logo, "  ", version, "  ", chatName)

	spacing := h.Width - lipgloss.Width(left) - lipgloss.Width(endpoint) - 1
	if spacing < 1 {
		spacing = 1
	}

	header := lipgloss.JoinHorizontal(
		lipgloss.Center,
		left,
		lipgloss.NewStyle().Width(spacing).Render(""),
		endpoint,
	)

	separator := lipgloss.NewStyle().
		Foreground(t.Border).
		Render(strings.Repeat("─", max(h.Width, 0)))

	return header + "\n" + separator
}
