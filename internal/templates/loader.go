package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Loader discovers template files in a list of directories
type Loader struct {
	paths  []string
	logger *zap.Logger
}

// NewLoader creates a loader with the given search paths
func NewLoader(paths []string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{paths: paths, logger: logger.With(zap.String("component", "templates"))}
}

// LoadAll loads every .md template from the search paths. Later paths do
// not override earlier ones; the registry decides precedence.
func (l *Loader) LoadAll() ([]*Template, error) {
	var templates []*Template

	for _, basePath := range l.paths {
		info, err := os.Stat(basePath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing %s: %w", basePath, err)
		}
		if !info.IsDir() {
			continue
		}

		entries, err := os.ReadDir(basePath)
		if err != nil {
			return nil, fmt.Errorf("error reading directory %s: %w", basePath, err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}

			filePath := filepath.Join(basePath, entry.Name())
			tmpl, err := l.LoadFromFile(filePath)
			if err != nil {
				l.logger.Warn("skipping template", zap.String("path", filePath), zap.Error(err))
				continue
			}
			templates = append(templates, tmpl)
		}
	}

	return templates, nil
}

// LoadFromFile parses a single markdown file with YAML frontmatter
func (l *Loader) LoadFromFile(filePath string) (*Template, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	tmpl, err := ParseMarkdown(string(content))
	if err != nil {
		return nil, err
	}

	tmpl.FilePath = filePath
	return tmpl, nil
}

// ParseMarkdown parses markdown content with YAML frontmatter into a Template
func ParseMarkdown(content string) (*Template, error) {
	frontmatter, body, err := parseFrontmatter(content)
	if err != nil {
		return nil, err
	}

	var tmpl Template
	if err := yaml.Unmarshal([]byte(frontmatter), &tmpl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
	}
	tmpl.Prompt = strings.TrimSpace(body)

	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// parseFrontmatter splits content into the YAML between the leading ---
// markers and the body after them.
func parseFrontmatter(content string) (frontmatter, body string, err error) {
	content = strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	if !strings.HasPrefix(content, "---") {
		return "", "", ErrNoFrontmatter
	}

	rest := strings.TrimLeft(content[3:], "\n")
	if strings.HasPrefix(rest, "---") {
		// empty frontmatter
		return "", strings.TrimSpace(rest[3:]), nil
	}

	end := strings.Index(rest, "\n---")
	if end == -1 {
		return "", "", ErrNoFrontmatter
	}

	return strings.TrimSpace(rest[:end]), strings.TrimSpace(rest[end+4:]), nil
}

// DefaultPaths returns the project-local and global template directories
func DefaultPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".blockify", "templates"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "blockify", "templates"))
	}
	return paths
}
