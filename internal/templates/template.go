// Package templates provides the system prompts a new chat can start from.
package templates

import "fmt"

// Template is a named system prompt, loaded from a markdown file with YAML
// frontmatter or built in.
type Template struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Disabled    bool   `yaml:"disabled"`

	// Prompt is the markdown body after the frontmatter
	Prompt string `yaml:"-"`

	FilePath  string `yaml:"-"`
	IsBuiltin bool   `yaml:"-"`
}

// Validate checks if the template is usable
func (t *Template) Validate() error {
	if t.Name == "" {
		return ErrMissingName
	}
	return nil
}

// SystemPrompt returns the prompt, falling back to the description and
// then to a generic assistant prompt.
func (t *Template) SystemPrompt() string {
	if t.Prompt != "" {
		return t.Prompt
	}
	if t.Description != "" {
		return t.Description
	}
	return fmt.Sprintf("You are a %s assistant. Help the user with their query.", t.Name)
}

// Builtins are available without any template files
func Builtins() []*Template {
	return []*Template{
		{
			Name:        "ingest",
			Description: "Convert source text into IdeaBlocks",
			Prompt: "Convert the text you receive into IdeaBlocks. Wrap each block in <ideablock> " +
				"with <name>, <critical_question>, <trusted_answer>, <tags>, <keywords> and one " +
				"<entity> per named entity holding <entity_name> and <entity_type>.",
			IsBuiltin: true,
		},
		{
			Name:        "distill",
			Description: "Merge and deduplicate existing IdeaBlocks",
			Prompt: "You receive IdeaBlocks. Merge blocks that answer the same critical question " +
				"and return the distilled set in the same <ideablock> format.",
			IsBuiltin: true,
		},
	}
}
