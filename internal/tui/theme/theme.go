package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines all colors for the TUI
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	Text        lipgloss.Color
	TextMuted   lipgloss.Color
	TextInverse lipgloss.Color

	Background          lipgloss.Color
	BackgroundSecondary lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	Border      lipgloss.Color
	BorderFocus lipgloss.Color

	// IdeaBlock cards
	CardBorder   lipgloss.Color
	CardEntity   lipgloss.Color
	CardQuestion lipgloss.Color
	Pill         lipgloss.Color
	PillText     lipgloss.Color
}

// Current is the active theme
var Current = DefaultTheme()

// DefaultTheme is a dark theme with the blockify blue accent
func DefaultTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#3B82F6"),
		Secondary: lipgloss.Color("#1E3A5F"),
		Accent:    lipgloss.Color("#60A5FA"),

		Text:        lipgloss.Color("#E5E7EB"),
		TextMuted:   lipgloss.Color("#8B949E"),
		TextInverse: lipgloss.Color("#0D1117"),

		Background:          lipgloss.Color("#0D1117"),
		BackgroundSecondary: lipgloss.Color("#161B22"),

		Success: lipgloss.Color("#10B981"),
		Warning: lipgloss.Color("#F59E0B"),
		Error:   lipgloss.Color("#EF4444"),
		Info:    lipgloss.Color("#6B7280"),

		Border:      lipgloss.Color("#30363D"),
		BorderFocus: lipgloss.Color("#3B82F6"),

		CardBorder:   lipgloss.Color("#2563EB"),
		CardEntity:   lipgloss.Color("#93C5FD"),
		CardQuestion: lipgloss.Color("#FBBF24"),
		Pill:         lipgloss.Color("#1E40AF"),
		PillText:     lipgloss.Color("#DBEAFE"),
	}
}

// Light is used on light terminal backgrounds
func Light() Theme {
	return Theme{
		Primary:             lipgloss.Color("#1D4ED8"),
		Secondary:           lipgloss.Color("#DBEAFE"),
		Accent:              lipgloss.Color("#2563EB"),
		Text:                lipgloss.Color("#111827"),
		TextMuted:           lipgloss.Color("#6B7280"),
		TextInverse:         lipgloss.Color("#FFFFFF"),
		Background:          lipgloss.Color("#FFFFFF"),
		BackgroundSecondary: lipgloss.Color("#F3F4F6"),
		Success:             lipgloss.Color("#047857"),
		Warning:             lipgloss.Color("#B45309"),
		Error:               lipgloss.Color("#B91C1C"),
		Info:                lipgloss.Color("#4B5563"),
		Border:              lipgloss.Color("#D1D5DB"),
		BorderFocus:         lipgloss.Color("#1D4ED8"),
		CardBorder:          lipgloss.Color("#3B82F6"),
		CardEntity:          lipgloss.Color("#1E40AF"),
		CardQuestion:        lipgloss.Color("#92400E"),
		Pill:                lipgloss.Color("#DBEAFE"),
		PillText:            lipgloss.Color("#1E3A8A"),
	}
}

// ByName returns a theme by its config name
func ByName(name string) (Theme, bool) {
	switch name {
	case "", "dark":
		return DefaultTheme(), true
	case "light":
		return Light(), true
	}
	return Theme{}, false
}
