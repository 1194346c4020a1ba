package validator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Novanna/doc-verifier/internal/pdfdoc"
	"github.com/Novanna/doc-verifier/internal/templates"
	"github.com/Novanna/doc-verifier/internal/toc"
)

// line is a run of text whose origin sits at X and Top points below the
// page top.
type line struct {
	X, Top float64
	Text   string
}

type fakeDoc struct {
	size  pdfdoc.Size
	pages [][]line
	fail  map[int]error

	calls    atomic.Int64
	mu       sync.Mutex
	inFlight map[int]int
	overlap  atomic.Bool
}

func newFakeDoc(pages int) *fakeDoc {
	return &fakeDoc{
		size:     pdfdoc.Letter,
		pages:    make([][]line, pages),
		fail:     map[int]error{},
		inFlight: map[int]int{},
	}
}

func (d *fakeDoc) add(page int, x, top float64, text string) {
	d.pages[page-1] = append(d.pages[page-1], line{X: x, Top: top, Text: text})
}

// place writes text in the middle of a template region.
func (d *fakeDoc) place(page int, region templates.Region, text string) {
	r := region.Rect(d.size.Height)
	d.add(page, r.X+10, r.Top(d.size.Height)+r.Height/2, text)
}

// remove drops every line on page whose text equals text.
func (d *fakeDoc) remove(page int, text string) {
	kept := d.pages[page-1][:0]
	for _, l := range d.pages[page-1] {
		if l.Text != text {
			kept = append(kept, l)
		}
	}
	d.pages[page-1] = kept
}

func (d *fakeDoc) PageCount() int { return len(d.pages) }

func (d *fakeDoc) PageSize(int) pdfdoc.Size { return d.size }

func (d *fakeDoc) ExtractRegion(page int, r pdfdoc.Rect) (string, error) {
	d.calls.Add(1)
	d.mu.Lock()
	d.inFlight[page]++
	if d.inFlight[page] > 1 {
		d.overlap.Store(true)
	}
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.inFlight[page]--
		d.mu.Unlock()
	}()

	if err := d.fail[page]; err != nil {
		return "", err
	}
	if page < 1 || page > len(d.pages) {
		return "", pdfdoc.ErrPageRange
	}
	var hits []line
	for _, l := range d.pages[page-1] {
		if r.Contains(l.X, d.size.Height-l.Top) {
			hits = append(hits, l)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Top < hits[j].Top })
	texts := make([]string, len(hits))
	for i, l := range hits {
		texts[i] = l.Text
	}
	return strings.TrimSpace(strings.Join(texts, "\n")), nil
}

// countingLocator records every content area request.
type countingLocator struct {
	inner AreaLocator
	calls atomic.Int64

	mu    sync.Mutex
	pairs []string
}

func (c *countingLocator) ContentArea(ctx context.Context, extract Extractor, size pdfdoc.Size, page int, startTitle, endTitle string, samePage bool) (pdfdoc.Rect, error) {
	c.calls.Add(1)
	c.mu.Lock()
	c.pairs = append(c.pairs, fmt.Sprintf("%s@%d->%s same=%t", startTitle, page, endTitle, samePage))
	c.mu.Unlock()
	return c.inner.ContentArea(ctx, extract, size, page, startTitle, endTitle, samePage)
}

// panicLocator fails every request by panicking.
type panicLocator struct{}

func (panicLocator) ContentArea(context.Context, Extractor, pdfdoc.Size, int, string, string, bool) (pdfdoc.Rect, error) {
	panic("locator exploded")
}

var errBrokenPage = errors.New("broken content stream")

// wellFormed lays out a document that passes every check of t:
// cover on page 1, approval on page 3, table of contents on page 5
// (page 4 when the approval and contents locators share a start page),
// then two sections per body page starting at page 6.
func wellFormed(t *templates.Template) (doc *fakeDoc, headings map[string]int) {
	return wellFormedOn(t, pdfdoc.Letter)
}

func wellFormedOn(t *templates.Template, size pdfdoc.Size) (doc *fakeDoc, headings map[string]int) {
	bodyStart := 6
	pages := bodyStart + (len(t.Sections)+1)/2 - 1
	doc = newFakeDoc(pages)
	doc.size = size
	headings = make(map[string]int)

	for _, region := range t.Cover.Regions {
		text := "ACME Corp"
		if region.Expect != "" {
			text = region.Expect
		}
		doc.place(t.Cover.Page, region, text)
	}

	approvalPage := t.Approval.Locator.StartPage
	doc.place(approvalPage, t.Approval.Locator.Probe, "APPROVAL")
	for _, slot := range t.Approval.Slots {
		for _, region := range slot.Regions {
			doc.place(approvalPage, region, region.Name+" signed")
		}
	}

	tocPage := 5
	if t.TOC.Locator.StartPage <= approvalPage {
		tocPage = approvalPage + 1
	}
	doc.place(tocPage, t.TOC.Locator.Probe, t.TOC.Locator.Keyword)
	tocRect := t.TOC.Region.Rect(doc.size.Height)
	tocTop := tocRect.Top(doc.size.Height)

	for i, name := range t.Sections {
		page := bodyStart + i/2
		title := strings.ReplaceAll(name, "_", " ")
		if t.TOC.Style == toc.Numbered {
			title = fmt.Sprintf("%d %s", i+1, title)
		}
		doc.add(tocPage, tocRect.X+10, tocTop+20+15*float64(i), fmt.Sprintf("%s .......... %d", title, page))

		top := 95.0
		if i%2 == 1 {
			top = 305
		}
		doc.add(page, 72, top, title)
		doc.add(page, 72, top+30, fmt.Sprintf("Paragraph %d.1", i+1))
		doc.add(page, 72, top+50, fmt.Sprintf("Paragraph %d.2", i+1))
		headings[title] = page
	}
	return doc, headings
}

// addSubsection lists title in the table of contents right after section i
// and lays out its heading and a body line at top on page.
func addSubsection(doc *fakeDoc, t *templates.Template, i int, title string, page int, top float64) {
	tocPage := 5
	if t.TOC.Locator.StartPage <= t.Approval.Locator.StartPage {
		tocPage = t.Approval.Locator.StartPage + 1
	}
	tocRect := t.TOC.Region.Rect(doc.size.Height)
	tocTop := tocRect.Top(doc.size.Height)
	doc.add(tocPage, tocRect.X+10, tocTop+20+15*float64(i)+7, fmt.Sprintf("%s .......... %d", title, page))

	doc.add(page, 72, top, title)
	doc.add(page, 72, top+30, title+" body")
}
