package templates

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupported is returned by Lookup for an unknown document type.
var ErrUnsupported = errors.New("unsupported document type")

//go:embed templates.yaml
var builtin []byte

// Registry maps document type identifiers to templates.
type Registry struct {
	byID map[string]*Template
}

type file struct {
	Templates []*Template `yaml:"templates"`
}

// Parse builds a registry from a YAML document.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if len(f.Templates) == 0 {
		return nil, fmt.Errorf("parse templates: no templates defined")
	}
	r := &Registry{byID: make(map[string]*Template, len(f.Templates))}
	for _, t := range f.Templates {
		if err := t.validate(); err != nil {
			return nil, err
		}
		id := strings.ToUpper(t.ID)
		if _, dup := r.byID[id]; dup {
			return nil, fmt.Errorf("duplicate template %s", t.ID)
		}
		t.ID = id
		r.byID[id] = t
	}
	return r, nil
}

// Builtin returns the registry compiled into the binary.
func Builtin() (*Registry, error) {
	return Parse(builtin)
}

// Load reads templates from path, or the built-in set when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Builtin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates file: %w", err)
	}
	return Parse(data)
}

// Lookup returns the template for docType, compared case-insensitively.
func (r *Registry) Lookup(docType string) (*Template, error) {
	t, ok := r.byID[strings.ToUpper(strings.TrimSpace(docType))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, docType)
	}
	return t, nil
}

// All returns every template sorted by ID.
func (r *Registry) All() []*Template {
	out := make([]*Template, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns the supported document types, sorted.
func (r *Registry) IDs() []string {
	all := r.All()
	ids := make([]string, len(all))
	for i, t := range all {
		ids[i] = t.ID
	}
	return ids
}
