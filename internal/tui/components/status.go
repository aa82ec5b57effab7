package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chat"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui/theme"
)

// Status is the bottom bar: chunk progress while a turn runs, the last
// error otherwise, and key hints.
type Status struct {
	Width      int
	Generating bool
	Progress   chat.Progress
	Error      string
	Spinner    string

	bar progress.Model
}

// NewStatus creates a new status bar
func NewStatus(width int) *Status {
	t := theme.Current
	return &Status{
		Width: width,
		bar: progress.New(
			progress.WithGradient(string(t.Secondary), string(t.Primary)),
			progress.WithoutPercentage(),
		),
	}
}

// SetWidth updates the status bar width
func (s *Status) SetWidth(width int) {
	s.Width = width
}

// SetState copies the turn state shown in the bar
func (s *Status) SetState(state chat.State) {
	s.Generating = state.IsGenerating
	s.Progress = state.ChunkProgress
	s.Error = state.Error
}

// SetSpinner sets the spinner frame shown while generating
func (s *Status) SetSpinner(frame string) {
	s.Spinner = frame
}

// Percent is the share of chunks dispatched so far
func (s *Status) Percent() float64 {
	if s.Progress.Total <= 0 {
		return 0
	}
	return float64(s.Progress.Current) / float64(s.Progress.Total)
}

// View renders the status bar
func (s *Status) View() string {
	t := theme.Current
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)
	hint := muted.Render("Enter send · Tab switch pane · /help · Ctrl+C quit")

	var left string
	switch {
	case s.Generating && s.Progress.Total > 1:
		label := fmt.Sprintf("%s Processing chunk %d of %d ", s.Spinner, s.Progress.Current, s.Progress.Total)
		s.bar.Width = max(s.Width-lipgloss.Width(label)-lipgloss.Width(hint)-4, 10)
		left = lipgloss.NewStyle().Foreground(t.Primary).Render(label) + s.bar.ViewAs(s.Percent())
	case s.Generating:
		left = lipgloss.NewStyle().Foreground(t.Primary).Render(s.Spinner + " Processing...")
	case s.Error != "":
		left = lipgloss.NewStyle().Foreground(t.Error).
			MaxWidth(max(s.Width-lipgloss.Width(hint)-2, 10)).
			Render("✗ " + s.Error)
	}

	spacing := s.Width - lipgloss.Width(left) - lipgloss.Width(hint) - 1
	if spacing < 1 {
		spacing = 1
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		left,
		lipgloss.NewStyle().Width(spacing).Render(""),
		hint,
	)
}
