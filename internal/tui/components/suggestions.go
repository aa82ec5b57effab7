package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui/theme"
)

// Command represents a slash command
type Command struct {
	Name        string
	Description string
}

// BuiltinCommands lists all built-in slash commands
var BuiltinCommands = []Command{
	{Name: "/help", Description: "Show keys and commands"},
	{Name: "/new", Description: "Start a new chat"},
	{Name: "/chats", Description: "List saved chats"},
	{Name: "/open", Description: "Open a chat by id"},
	{Name: "/star", Description: "Star or unstar this chat"},
	{Name: "/rename", Description: "Rename this chat"},
	{Name: "/delete", Description: "Delete this chat"},
	{Name: "/templates", Description: "List templates"},
	{Name: "/config", Description: "Show configuration"},
	{Name: "/quit", Description: "Exit Blockify"},
}

// Suggestions shows command autocomplete suggestions
type Suggestions struct {
	visible   bool
	available []Command
	commands  []Command
	selected  int
	width     int
}

// NewSuggestions creates a new suggestions component
func NewSuggestions() *Suggestions {
	return &Suggestions{
		available: BuiltinCommands,
		commands:  BuiltinCommands,
	}
}

// AddTemplates offers "/new <template>" for every template name
func (s *Suggestions) AddTemplates(names []string) {
	s.available = append([]Command(nil), BuiltinCommands...)
	for _, n := range names {
		s.available = append(s.available, Command{Name: "/new " + n, Description: "New chat from template"})
	}
}

// SetWidth sets the component width
func (s *Suggestions) SetWidth(width int) {
	s.width = width
}

// Filter keeps the commands starting with input
func (s *Suggestions) Filter(input string) {
	if !strings.HasPrefix(input, "/") {
		s.visible = false
		return
	}

	s.visible = true
	s.commands = s.commands[:0:0]
	for _, cmd := range s.available {
		if strings.HasPrefix(cmd.Name, input) {
			s.commands = append(s.commands, cmd)
		}
	}

	if s.selected >= len(s.commands) {
		s.selected = 0
	}
}

// IsVisible returns whether suggestions are showing
func (s *Suggestions) IsVisible() bool {
	return s.visible && len(s.commands) > 0
}

// Hide hides the suggestions
func (s *Suggestions) Hide() {
	s.visible = false
}

// MoveUp moves selection up
func (s *Suggestions) MoveUp() {
	if s.selected > 0 {
		s.selected--
	}
}

// MoveDown moves selection down
func (s *Suggestions) MoveDown() {
	if s.selected < len(s.commands)-1 {
		s.selected++
	}
}

// Selected returns the currently selected command
func (s *Suggestions) Selected() string {
	if len(s.commands) > 0 && s.selected < len(s.commands) {
		return s.commands[s.selected].Name
	}
	return ""
}

// Height is the number of lines View occupies
func (s *Suggestions) Height() int {
	if !s.IsVisible() {
		return 0
	}
	return len(s.commands) + 3
}

// View renders the suggestions
func (s *Suggestions) View() string {
	if !s.IsVisible() {
		return ""
	}

	t := theme.Current
	var sb strings.Builder

	for i, cmd := range s.commands {
		icon := "  "
		if i == s.selected {
			icon = "› "
		}

		row := lipgloss.NewStyle().Foreground(t.Primary).Render(icon) +
			lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Width(20).Render(cmd.Name) +
			lipgloss.NewStyle().Foreground(t.TextMuted).Render(cmd.Description)

		if i == s.selected {
			row = lipgloss.NewStyle().
				Background(t.BackgroundSecondary).
				Foreground(t.Text).
				Width(s.width - 6).
				Render(row)
		}
		sb.WriteString(row + "\n")
	}

	sb.WriteString(lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Italic(true).
		Render("↑↓ navigate • Tab to complete • Esc to cancel"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(0, 1).
		Width(s.width - 2).
		Render(sb.String())
}
