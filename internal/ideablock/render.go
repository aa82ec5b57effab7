package ideablock

import "strings"

// Shown on cards whose block has no entities or no labels
const (
	EntityPlaceholder = "[ENTITY NAME HERE]; [ENTITY 2 NAME HERE]"
	LabelPlaceholder  = "[Keywords / Tags Here]"
)

// Render converts assistant output to HTML. Content with at least one valid
// block becomes a sequence of cards; anything else has its newlines turned
// into <br>. The result is not sanitized.
func Render(content string) string {
	doc := Parse(content)
	if len(doc.Blocks) == 0 {
		return PlainHTML(content)
	}
	return RenderBlocks(doc.Blocks)
}

// PlainHTML preserves line breaks without any markdown processing
func PlainHTML(content string) string {
	return strings.ReplaceAll(content, "\n", "<br>")
}

// RenderBlocks renders blocks as ideablock cards on a single line
func RenderBlocks(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		writeCard(&sb, b)
	}
	return sb.String()
}

func writeCard(sb *strings.Builder, b Block) {
	entities := b.EntityList()
	if entities == "" {
		entities = EntityPlaceholder
	}

	labels := b.Labels()
	if len(labels) == 0 {
		labels = []string{LabelPlaceholder}
	}

	sb.WriteString(`<div class="ideablock-card">`)
	writeDiv(sb, "ideablock-entity-header", `<span class="ideablock-entity-icon"></span>`+entities)
	writeDiv(sb, "ideablock-name", b.Name)
	writeDiv(sb, "ideablock-question", b.Question)
	writeDiv(sb, "ideablock-answer", b.Answer)

	sb.WriteString(`<div class="ideablock-keywords-container">`)
	for _, l := range labels {
		writeDiv(sb, "ideablock-keywords-pill", l)
	}
	sb.WriteString(`</div></div>`)
}

func writeDiv(sb *strings.Builder, class, inner string) {
	sb.WriteString(`<div class="`)
	sb.WriteString(class)
	sb.WriteString(`">`)
	sb.WriteString(inner)
	sb.WriteString(`</div>`)
}
