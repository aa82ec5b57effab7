package cmd

import (
	"fmt"
	"html"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/cobra"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/ideablock"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui/components"
)

var (
	renderFormat string
	renderPage   bool
	renderWidth  int
)

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render IdeaBlock markup as cards",
	Long: `Render assistant output containing <ideablock> markup. Without a file the
markup is read from stdin.

Formats:
  html      sanitized HTML cards (default)
  terminal  styled cards for the terminal

Examples:
  blockify render response.txt > cards.html
  blockify render --page response.txt > cards.html
  blockify chats show 3f2a --raw | blockify render --format terminal`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	out := cmd.OutOrStdout()
	switch renderFormat {
	case "html":
		body := sanitize(ideablock.Render(string(data)))
		if renderPage {
			body = htmlPage(body)
		}
		fmt.Fprintln(out, body)
	case "terminal":
		fmt.Fprintln(out, components.RenderAssistant(string(data), renderWidth))
	default:
		return fmt.Errorf("unknown format %q", renderFormat)
	}
	return nil
}

var cardClass = regexp.MustCompile(`^ideablock-[a-z-]+$`)

// policy allows user generated content plus the card classes
var policy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(cardClass).OnElements("div", "span")
	return p
}()

// sanitize strips anything from rendered HTML that could run script
func sanitize(s string) string {
	return policy.Sanitize(s)
}

const cardCSS = `body{font-family:system-ui,sans-serif;background:#f5f7fb;margin:2rem}
.ideablock-card{background:#fff;border:1px solid #c9d6ee;border-radius:8px;padding:1rem;margin:0 0 1rem;max-width:48rem}
.ideablock-entity-header{color:#1d4ed8;font-size:.85rem;font-weight:600}
.ideablock-entity-icon::before{content:"\25C6  "}
.ideablock-name{font-size:1.1rem;font-weight:700;margin:.4rem 0}
.ideablock-question{font-style:italic;color:#374151}
.ideablock-answer{margin:.5rem 0}
.ideablock-keywords-container{display:flex;flex-wrap:wrap;gap:.4rem}
.ideablock-keywords-pill{background:#dbeafe;color:#1e3a8a;border-radius:999px;padding:.1rem .6rem;font-size:.8rem}`

func htmlPage(body string) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	sb.WriteString(html.EscapeString("IdeaBlocks"))
	sb.WriteString("</title><style>")
	sb.WriteString(cardCSS)
	sb.WriteString("</style></head><body>\n")
	sb.WriteString(body)
	sb.WriteString("\n</body></html>")
	return sb.String()
}

func init() {
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "html", "Output format (html, terminal)")
	renderCmd.Flags().BoolVar(&renderPage, "page", false, "Wrap HTML output in a standalone page with card styles")
	renderCmd.Flags().IntVarP(&renderWidth, "width", "w", 80, "Card width for terminal output")
	rootCmd.AddCommand(renderCmd)
}
