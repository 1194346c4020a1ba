// Package templates holds the declarative description of each document
// template family: canonical sections, region coordinates and the interval
// checks the validator runs.
package templates

import (
	"fmt"
	"strconv"

	"github.com/Novanna/doc-verifier/internal/pdfdoc"
	"github.com/Novanna/doc-verifier/internal/toc"
)

// Region kinds with built-in predicates. Any other kind only needs text.
const (
	KindLogo      = "logo"
	KindTitle     = "title"
	KindFullTOC   = "full_toc"
	KindContent   = "content"
	KindSignature = "signature"
	KindHeader    = "header"
)

// Fixed step keys. Interval checks follow from "4" in declared order.
const (
	StepCover    = "1"
	StepApproval = "2"
	StepTOC      = "3"
)

const maxSlots = 3

// Origin names the page edge a Region's y coordinate is measured from.
type Origin string

const (
	OriginTop    Origin = "top"
	OriginBottom Origin = "bottom"
)

// Region is a named rectangle on a page plus the kind of check applied to
// its text.
type Region struct {
	Name   string    `yaml:"name" json:"name"`
	Kind   string    `yaml:"kind" json:"kind"`
	Origin Origin    `yaml:"origin,omitempty" json:"origin,omitempty"`
	Box    []float64 `yaml:"box" json:"box"`
	Expect string    `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Rect converts the stored box to page space for a page of the given height.
func (r Region) Rect(pageHeight float64) pdfdoc.Rect {
	x, y, w, h := r.Box[0], r.Box[1], r.Box[2], r.Box[3]
	if r.Origin == OriginBottom {
		return pdfdoc.Rect{X: x, Y: y, Width: w, Height: h}
	}
	return pdfdoc.FromTop(x, y, w, h, pageHeight)
}

// Locator finds the page carrying a header keyword by scanning forward.
type Locator struct {
	Keyword   string `yaml:"keyword" json:"keyword"`
	StartPage int    `yaml:"start_page" json:"startPage"`
	MaxPage   int    `yaml:"max_page" json:"maxPage"`
	Probe     Region `yaml:"probe" json:"probe"`
}

type Cover struct {
	Page    int      `yaml:"page" json:"page"`
	Regions []Region `yaml:"regions" json:"regions"`
}

// Slot is one reviewer's block of the approval page.
type Slot struct {
	Name    string   `yaml:"name" json:"name"`
	Regions []Region `yaml:"regions" json:"regions"`
}

type Approval struct {
	Locator Locator `yaml:"locator" json:"locator"`
	Slots   []Slot  `yaml:"slots" json:"slots"`
}

type TOC struct {
	Style   toc.Style `yaml:"style" json:"style"`
	Locator Locator   `yaml:"locator" json:"locator"`
	Region  Region    `yaml:"region" json:"region"`
}

// Interval is a pair of section anchors. An empty End runs to the end of
// the table of contents.
type Interval struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end,omitempty" json:"end,omitempty"`
}

// Template is one document family. It is immutable once loaded.
type Template struct {
	ID        string     `yaml:"id" json:"id"`
	Name      string     `yaml:"name" json:"name"`
	Sections  []string   `yaml:"sections" json:"sections"`
	Cover     Cover      `yaml:"cover" json:"cover"`
	Approval  Approval   `yaml:"approval" json:"approval"`
	TOC       TOC        `yaml:"toc" json:"toc"`
	Intervals []Interval `yaml:"intervals" json:"intervals"`
}

// Step is a declared result key with a human-readable label.
type Step struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// IntervalKey returns the step key of the i-th interval check.
func IntervalKey(i int) string {
	return strconv.Itoa(4 + i)
}

// Steps lists every key a result for this template carries, in order.
func (t *Template) Steps() []Step {
	steps := []Step{
		{Key: StepCover, Label: "cover logo and title"},
		{Key: StepApproval, Label: "approval block"},
		{Key: StepTOC, Label: "table of contents"},
	}
	for i, iv := range t.Intervals {
		label := toc.Normalize(iv.Start)
		if iv.End != "" {
			label += " to " + toc.Normalize(iv.End)
		} else {
			label += " to end"
		}
		steps = append(steps, Step{Key: IntervalKey(i), Label: label})
	}
	return steps
}

// Keys returns the declared step keys in order.
func (t *Template) Keys() []string {
	steps := t.Steps()
	keys := make([]string, len(steps))
	for i, s := range steps {
		keys[i] = s.Key
	}
	return keys
}

func (t *Template) validate() error {
	if t.ID == "" {
		return fmt.Errorf("template without id")
	}
	if len(t.Sections) == 0 {
		return fmt.Errorf("template %s: no sections", t.ID)
	}
	if len(t.Intervals) == 0 {
		return fmt.Errorf("template %s: no intervals", t.ID)
	}
	if n := len(t.Approval.Slots); n == 0 || n > maxSlots {
		return fmt.Errorf("template %s: approval needs 1..%d slots, got %d", t.ID, maxSlots, n)
	}
	if t.Cover.Page == 0 {
		t.Cover.Page = 1
	}

	regions := append([]Region(nil), t.Cover.Regions...)
	for _, s := range t.Approval.Slots {
		regions = append(regions, s.Regions...)
	}
	regions = append(regions, t.Approval.Locator.Probe, t.TOC.Locator.Probe, t.TOC.Region)
	for _, r := range regions {
		if err := r.validate(); err != nil {
			return fmt.Errorf("template %s: %w", t.ID, err)
		}
	}
	for _, l := range []*Locator{&t.Approval.Locator, &t.TOC.Locator} {
		if l.Keyword == "" {
			return fmt.Errorf("template %s: locator without keyword", t.ID)
		}
		if l.StartPage < 1 {
			l.StartPage = 1
		}
		if l.MaxPage < l.StartPage {
			l.MaxPage = l.StartPage
		}
	}
	for i, iv := range t.Intervals {
		if iv.Start == "" {
			return fmt.Errorf("template %s: interval %d has no start", t.ID, i)
		}
	}
	return nil
}

func (r Region) validate() error {
	if len(r.Box) != 4 {
		return fmt.Errorf("region %q: box needs 4 values, got %d", r.Name, len(r.Box))
	}
	if r.Box[2] <= 0 || r.Box[3] <= 0 {
		return fmt.Errorf("region %q: box has no area", r.Name)
	}
	switch r.Origin {
	case "", OriginTop, OriginBottom:
	default:
		return fmt.Errorf("region %q: unknown origin %q", r.Name, r.Origin)
	}
	return nil
}
