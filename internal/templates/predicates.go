package templates

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Novanna/doc-verifier/internal/toc"
)

// Predicate decides whether non-empty region text is acceptable. A nil
// error accepts.
type Predicate func(text string, region Region, t *Template) error

// Predicates dispatches region text to a Predicate by region kind.
type Predicates struct {
	mu       sync.RWMutex
	byKind   map[string]Predicate
	fallback Predicate
}

// NewPredicates returns a table with the built-in kinds registered.
func NewPredicates() *Predicates {
	p := &Predicates{
		byKind:   make(map[string]Predicate),
		fallback: func(string, Region, *Template) error { return nil },
	}
	p.Register(KindTitle, containsExpected)
	p.Register(KindLogo, containsExpected)
	p.Register(KindFullTOC, listsAllSections)
	return p
}

// Register sets the predicate for kind, replacing any previous one.
func (p *Predicates) Register(kind string, fn Predicate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byKind[kind] = fn
}

// Check runs the predicate registered for the region's kind.
func (p *Predicates) Check(text string, region Region, t *Template) error {
	p.mu.RLock()
	fn, ok := p.byKind[region.Kind]
	p.mu.RUnlock()
	if !ok {
		fn = p.fallback
	}
	return fn(text, region, t)
}

func containsExpected(text string, region Region, _ *Template) error {
	if region.Expect == "" {
		return nil
	}
	if !toc.Mentions(text, region.Expect) {
		return fmt.Errorf("text does not contain %q", region.Expect)
	}
	return nil
}

func listsAllSections(text string, _ Region, t *Template) error {
	if missing := toc.Missing(text, t.Sections); len(missing) > 0 {
		return fmt.Errorf("sections missing from table of contents: %s", strings.Join(missing, ", "))
	}
	return nil
}
