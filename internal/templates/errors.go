package templates

import "errors"

var (
	// ErrMissingName is returned when a template has no name
	ErrMissingName = errors.New("template missing required 'name' field")

	// ErrTemplateNotFound is returned when a template is not in the registry
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateDisabled is returned when selecting a disabled template
	ErrTemplateDisabled = errors.New("template is disabled")

	// ErrInvalidFrontmatter is returned when YAML frontmatter parsing fails
	ErrInvalidFrontmatter = errors.New("invalid YAML frontmatter")

	// ErrNoFrontmatter is returned when a markdown file has no frontmatter
	ErrNoFrontmatter = errors.New("markdown file missing YAML frontmatter")
)
