package templates

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry holds the built-in templates plus those loaded from disk. A file
// template replaces a built-in of the same name; between files the first
// search path wins.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
	loader    *Loader
}

// NewRegistry creates a registry searching paths
func NewRegistry(paths []string, logger *zap.Logger) *Registry {
	r := &Registry{loader: NewLoader(paths, logger)}
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.templates = make(map[string]*Template)
	for _, t := range Builtins() {
		r.templates[t.Name] = t
	}
}

// Refresh reloads all templates from disk
func (r *Registry) Refresh() error {
	loaded, err := r.loader.LoadAll()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.reset()
	seen := make(map[string]bool)
	for _, t := range loaded {
		if seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		r.templates[t.Name] = t
	}
	return nil
}

// Get returns a template by name
func (r *Registry) Get(name string) (*Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[name]
	return t, ok
}

// Select returns the named template if it exists and is enabled
func (r *Registry) Select(name string) (*Template, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	if t.Disabled {
		return nil, fmt.Errorf("%w: %s", ErrTemplateDisabled, name)
	}
	return t, nil
}

// List returns all templates sorted by name
func (r *Registry) List() []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Register adds a template, replacing any with the same name
func (r *Registry) Register(t *Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.Name] = t
}
