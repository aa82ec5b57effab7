package layout

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui/theme"
)

// Container wraps content with an optional border and padding
type Container struct {
	Border      bool
	BorderStyle lipgloss.Border
	BorderColor lipgloss.Color

	PaddingX int
	PaddingY int

	Width int
}

// ContainerOption configures a container
type ContainerOption func(*Container)

// NewContainer creates a container with options
func NewContainer(opts ...ContainerOption) *Container {
	c := &Container{
		BorderStyle: lipgloss.RoundedBorder(),
		BorderColor: theme.Current.Border,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithBorder draws a border in color
func WithBorder(color lipgloss.Color) ContainerOption {
	return func(c *Container) {
		c.Border = true
		c.BorderColor = color
	}
}

// WithPadding sets horizontal and vertical padding
func WithPadding(x, y int) ContainerOption {
	return func(c *Container) {
		c.PaddingX = x
		c.PaddingY = y
	}
}

// WithWidth sets the outer width, border included
func WithWidth(width int) ContainerOption {
	return func(c *Container) {
		c.Width = width
	}
}

// InnerWidth is the width left for content
func (c *Container) InnerWidth() int {
	w := c.Width - 2*c.PaddingX
	if c.Border {
		w -= 2
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Render wraps content with the container styling
func (c *Container) Render(content string) string {
	style := lipgloss.NewStyle().Padding(c.PaddingY, c.PaddingX)
	if c.Border {
		style = style.Border(c.BorderStyle).BorderForeground(c.BorderColor)
	}
	if c.Width > 0 {
		style = style.Width(c.InnerWidth() + 2*c.PaddingX)
	}
	return style.Render(content)
}
