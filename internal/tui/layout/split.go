package layout

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui/theme"
)

// SplitPane places user input on the left and assistant output on the right
type SplitPane struct {
	Width  int
	Height int

	// LeftRatio is the share of the width given to the left column
	LeftRatio float64

	// Gutter is the number of columns between the panes
	Gutter int
}

// NewSplitPane creates a split with a narrower input column
func NewSplitPane(width, height int) *SplitPane {
	return &SplitPane{
		Width:     width,
		Height:    height,
		LeftRatio: 0.4,
		Gutter:    1,
	}
}

// SetSize updates the pane dimensions
func (s *SplitPane) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// LeftWidth returns the width of the left column
func (s *SplitPane) LeftWidth() int {
	w := int(float64(s.Width-s.Gutter) * s.LeftRatio)
	if w < 10 {
		w = 10
	}
	return w
}

// RightWidth returns the width of the right column
func (s *SplitPane) RightWidth() int {
	w := s.Width - s.Gutter - s.LeftWidth()
	if w < 10 {
		w = 10
	}
	return w
}

// Render joins the two columns at full height with a divider between them
func (s *SplitPane) Render(left, right string) string {
	leftCol := lipgloss.NewStyle().Width(s.LeftWidth()).Height(s.Height).MaxHeight(s.Height).Render(left)
	rightCol := lipgloss.NewStyle().Width(s.RightWidth()).Height(s.Height).MaxHeight(s.Height).Render(right)

	divider := lipgloss.NewStyle().
		Foreground(theme.Current.Border).
		Render(strings.TrimSuffix(strings.Repeat("│\n", s.Height), "\n"))

	return lipgloss.JoinHorizontal(lipgloss.Top, leftCol, divider, rightCol)
}
