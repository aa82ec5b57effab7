package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/ideablock"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui/layout"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui/theme"
)

// RenderCard draws one IdeaBlock as a bordered card: entity header, name,
// critical question, trusted answer and a row of label pills.
func RenderCard(b ideablock.Block, width int) string {
	t := theme.Current
	box := layout.NewContainer(
		layout.WithBorder(t.CardBorder),
		layout.WithPadding(1, 0),
		layout.WithWidth(width),
	)
	inner := box.InnerWidth()

	entities := b.EntityList()
	if entities == "" {
		entities = ideablock.EntityPlaceholder
	}
	labels := b.Labels()
	if len(labels) == 0 {
		labels = []string{ideablock.LabelPlaceholder}
	}

	entityStyle := lipgloss.NewStyle().Foreground(t.CardEntity).Width(inner)
	nameStyle := lipgloss.NewStyle().Foreground(t.Text).Bold(true).Width(inner)
	questionStyle := lipgloss.NewStyle().Foreground(t.CardQuestion).Italic(true).Width(inner)
	answerStyle := lipgloss.NewStyle().Foreground(t.Text).Width(inner)

	parts := []string{
		entityStyle.Render("◆ " + entities),
		nameStyle.Render(b.Name),
		questionStyle.Render(b.Question),
		answerStyle.Render(b.Answer),
		renderPills(labels, inner),
	}
	return box.Render(strings.Join(parts, "\n"))
}

// renderPills lays out labels left to right, wrapping at width
func renderPills(labels []string, width int) string {
	t := theme.Current
	pill := lipgloss.NewStyle().
		Foreground(t.PillText).
		Background(t.Pill).
		Padding(0, 1)

	var (
		lines   []string
		current string
	)
	for _, l := range labels {
		p := pill.Render(l)
		switch {
		case current == "":
			current = p
		case lipgloss.Width(current)+1+lipgloss.Width(p) > width:
			lines = append(lines, current)
			current = p
		default:
			current += " " + p
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return strings.Join(lines, "\n")
}

// RenderAssistant draws assistant content: cards when it carries IdeaBlocks,
// the raw text otherwise. Parse problems are listed under the cards.
func RenderAssistant(content string, width int) string {
	doc := ideablock.Parse(content)
	if len(doc.Blocks) == 0 {
		return lipgloss.NewStyle().Foreground(theme.Current.Text).Width(width).Render(content)
	}

	cards := make([]string, 0, len(doc.Blocks)+len(doc.Issues))
	for _, b := range doc.Blocks {
		cards = append(cards, RenderCard(b, width))
	}
	warn := lipgloss.NewStyle().Foreground(theme.Current.Warning).Width(width)
	for _, issue := range doc.Issues {
		cards = append(cards, warn.Render("⚠ "+issue.Error()))
	}
	return strings.Join(cards, "\n")
}
