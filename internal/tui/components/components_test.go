package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chat"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/ideablock"
)

const sampleBlock = `<ideablock><name>Refund window</name>` +
	`<critical_question>How long do customers have to request a refund?</critical_question>` +
	`<trusted_answer>30 days from delivery.</trusted_answer>` +
	`<keywords>refunds, policy</keywords>` +
	`<entity><entity_name>Returns Desk</entity_name><entity_type>ORG</entity_type></entity>` +
	`</ideablock>`

func TestRenderCard(t *testing.T) {
	doc := ideablock.Parse(sampleBlock)
	if len(doc.Blocks) != 1 {
		t.Fatalf("Parse() returned %d blocks, want 1", len(doc.Blocks))
	}

	out := ansi.Strip(RenderCard(doc.Blocks[0], 60))
	for _, want := range []string{"Returns Desk", "Refund window", "30 days from delivery.", "refunds", "policy"} {
		if !strings.Contains(out, want) {
			t.Errorf("card missing %q:\n%s", want, out)
		}
	}
	for _, line := range strings.Split(out, "\n") {
		if w := ansi.StringWidth(line); w > 60 {
			t.Errorf("card line is %d columns wide, want <= 60", w)
		}
	}
}

func TestRenderCard_Placeholders(t *testing.T) {
	b := ideablock.Block{Name: "n", Question: "q", Answer: "a"}
	out := ansi.Strip(RenderCard(b, 80))
	if !strings.Contains(out, ideablock.EntityPlaceholder) {
		t.Error("card missing entity placeholder")
	}
	if !strings.Contains(out, ideablock.LabelPlaceholder) {
		t.Error("card missing label placeholder")
	}
}

func TestRenderAssistant_PlainText(t *testing.T) {
	out := ansi.Strip(RenderAssistant("no blocks here", 40))
	if !strings.Contains(out, "no blocks here") {
		t.Errorf("RenderAssistant() = %q", out)
	}
}

func TestRenderAssistant_ListsIssues(t *testing.T) {
	out := ansi.Strip(RenderAssistant(sampleBlock+"<ideablock><name>cut off", 80))
	if !strings.Contains(out, "Refund window") {
		t.Error("valid block not rendered")
	}
	if !strings.Contains(out, "⚠") {
		t.Error("unterminated block not reported")
	}
}

func TestSuggestions_Filter(t *testing.T) {
	s := NewSuggestions()
	s.AddTemplates([]string{"ingest", "distill"})

	s.Filter("/ne")
	if !s.IsVisible() {
		t.Fatal("suggestions hidden for /ne")
	}
	if got := s.Selected(); got != "/new" {
		t.Errorf("Selected() = %q, want %q", got, "/new")
	}
	s.MoveDown()
	if got := s.Selected(); got != "/new ingest" {
		t.Errorf("Selected() after MoveDown = %q, want %q", got, "/new ingest")
	}

	s.Filter("hello")
	if s.IsVisible() {
		t.Error("suggestions visible for plain text")
	}

	s.Filter("/zzz")
	if s.IsVisible() {
		t.Error("suggestions visible with no matches")
	}
}

func TestStatus_Progress(t *testing.T) {
	s := NewStatus(100)
	s.SetState(chat.State{IsGenerating: true, ChunkProgress: chat.Progress{Current: 2, Total: 4}})

	if got := s.Percent(); got != 0.5 {
		t.Errorf("Percent() = %v, want 0.5", got)
	}
	if out := ansi.Strip(s.View()); !strings.Contains(out, "Processing chunk 2 of 4") {
		t.Errorf("View() = %q", out)
	}

	s.SetState(chat.State{Error: "boom"})
	if out := ansi.Strip(s.View()); !strings.Contains(out, "boom") {
		t.Errorf("View() with error = %q", out)
	}
}

func TestPane_Messages(t *testing.T) {
	p := NewPane(chat.RoleAssistant, "IdeaBlocks", 60, 20)
	p.SetEmpty("nothing yet")
	if out := ansi.Strip(p.View()); !strings.Contains(out, "nothing yet") {
		t.Errorf("empty pane = %q", out)
	}

	partial := chat.NewMessage(chat.RoleAssistant, "first part")
	partial.IsComplete = false
	partial.ChunkInfo = &chat.Progress{Current: 1, Total: 3}
	p.SetMessages([]chat.Message{partial})

	out := ansi.Strip(p.View())
	if !strings.Contains(out, "part 1 of 3") {
		t.Errorf("pane missing chunk info:\n%s", out)
	}
	if !strings.Contains(out, "IdeaBlocks (1)") {
		t.Errorf("pane title missing count:\n%s", out)
	}
}
