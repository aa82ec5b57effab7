package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui/theme"
)

// HelpMarkdown lists keys and slash commands
const HelpMarkdown = `# Blockify

Paste source text and press **Enter**. Long input is split into overlapping
chunks; each chunk is sent in order and the IdeaBlocks that come back are shown
as cards on the right.

| Key | Action |
|---|---|
| enter | Send message |
| tab | Switch scrolled pane |
| pgup / pgdown | Scroll |
| esc | Close dialog |
| ctrl+c | Quit |

| Command | Action |
|---|---|
| /new [template] | Start a new chat |
| /chats | List saved chats |
| /open <id> | Open a chat by id prefix |
| /star | Star or unstar this chat |
| /rename <name> | Rename this chat |
| /delete | Delete this chat |
| /templates | List templates |
| /config | Show configuration |
| /quit | Exit |
`

// Dialog shows markdown in a centered box
type Dialog struct {
	Width    int
	markdown string
	renderer *glamour.TermRenderer
}

// NewDialog creates a dialog
func NewDialog(width int) *Dialog {
	d := &Dialog{}
	d.SetWidth(width)
	return d
}

// SetWidth updates the dialog width and the markdown word wrap
func (d *Dialog) SetWidth(width int) {
	d.Width = min(max(width-8, 30), 90)
	// dark style avoids terminal color queries
	d.renderer, _ = glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(d.Width-6),
	)
}

// Show sets the markdown to display
func (d *Dialog) Show(markdown string) {
	d.markdown = markdown
}

// Hide clears the dialog
func (d *Dialog) Hide() {
	d.markdown = ""
}

// Visible reports whether the dialog has content
func (d *Dialog) Visible() bool {
	return d.markdown != ""
}

// View renders the dialog
func (d *Dialog) View() string {
	t := theme.Current

	body := d.markdown
	if d.renderer != nil {
		if r, err := d.renderer.Render(d.markdown); err == nil {
			body = strings.TrimSpace(r)
		}
	}

	footer := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Render("\nPress any key to close")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Width(d.Width)

	return box.Render(body + "\n" + footer)
}

// PlaceOverlay centers the dialog over the screen
func PlaceOverlay(overlay string, width, height int) string {
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(theme.Current.Background),
	)
}
