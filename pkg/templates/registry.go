package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
	"text/template"
)

//go:embed assets
var embeddedFS embed.FS

// Template is a parsed prompt template.
type Template struct {
	ID      string
	Content string

	parsed *template.Template
}

// Render executes the template with the provided data and returns the trimmed result.
func (t *Template) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.parsed.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", t.ID, err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// Registry holds loaded templates and resolves them by ID ("<dir>/<name>" without extension).
type Registry struct {
	templates map[string]*Template
	mu        sync.RWMutex
}

// NewRegistryFromFS loads every *.tmpl file of filesystem.
func NewRegistryFromFS(filesystem fs.FS) (*Registry, error) {
	r := &Registry{templates: map[string]*Template{}}

	err := fs.WalkDir(filesystem, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".tmpl" {
			return nil
		}
		return r.load(filesystem, p)
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Get returns the default registry built from the embedded prompt assets.
func Get() *Registry {
	defaultOnce.Do(func() {
		var sub fs.FS
		sub, defaultErr = fs.Sub(embeddedFS, "assets")
		if defaultErr != nil {
			return
		}
		defaultRegistry, defaultErr = NewRegistryFromFS(sub)
	})

	if defaultErr != nil {
		panic(defaultErr)
	}

	return defaultRegistry
}

// GetTemplate retrieves a template by its ID.
func (r *Registry) GetTemplate(id string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tmpl, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", id)
	}
	return tmpl, nil
}

// Render executes a template by ID using the provided data.
func (r *Registry) Render(id string, data any) (string, error) {
	tmpl, err := r.GetTemplate(id)
	if err != nil {
		return "", err
	}

	return tmpl.Render(data)
}

func (r *Registry) load(filesystem fs.FS, p string) error {
	id := strings.TrimSuffix(p, path.Ext(p))

	content, err := fs.ReadFile(filesystem, p)
	if err != nil {
		return fmt.Errorf("read template %s: %w", id, err)
	}

	parsed, err := template.New(id).Funcs(funcMap).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return fmt.Errorf("parse template %s: %w", id, err)
	}

	r.mu.Lock()
	r.templates[id] = &Template{ID: id, Content: string(content), parsed: parsed}
	r.mu.Unlock()

	return nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)
