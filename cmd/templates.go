package cmd

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/config"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/templates"
)

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"template"},
	Short:   "List chat templates",
	Long: `List the templates a chat can start from. Templates are markdown files
with YAML frontmatter, loaded from ./.blockify/templates and the global
config directory. A file template replaces a built-in one with the same name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := loadTemplates()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, t := range registry.List() {
			source := "builtin"
			if !t.IsBuiltin {
				source = t.FilePath
			}
			status := ""
			if t.Disabled {
				status = " (disabled)"
			}
			fmt.Fprintf(out, "%-16s %s%s\n    %s\n", t.Name, t.Description, status, source)
		}
		return nil
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the system prompt of a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := loadTemplates()
		if err != nil {
			return err
		}
		t, ok := registry.Get(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", templates.ErrTemplateNotFound, args[0])
		}

		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
		if err != nil {
			return err
		}
		md := fmt.Sprintf("# %s\n\n%s\n\n---\n\n%s\n", t.Name, t.Description, t.SystemPrompt())
		rendered, err := r.Render(md)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	},
}

func loadTemplates() (*templates.Registry, error) {
	registry := templates.NewRegistry(config.TemplatePaths(), logger)
	if err := registry.Refresh(); err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	return registry, nil
}

func init() {
	templatesCmd.AddCommand(templatesShowCmd)
	rootCmd.AddCommand(templatesCmd)
}
