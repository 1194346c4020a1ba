package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/Novanna/doc-verifier/internal/pdfdoc"
	"github.com/Novanna/doc-verifier/internal/templates"
	"github.com/Novanna/doc-verifier/internal/toc"
)

// locatePage scans loc.StartPage..loc.MaxPage (clamped to the page count)
// for a page whose probe region contains the keyword. On a miss it returns
// the last page examined with found=false. At least one page is examined.
func (r *run) locatePage(ctx context.Context, loc templates.Locator) (page int, found bool) {
	last := min(loc.MaxPage, r.src.PageCount())
	if last < loc.StartPage {
		last = loc.StartPage
	}
	probe := loc.Probe.Rect(r.pageHeight)
	keyword := strings.ToUpper(loc.Keyword)

	for page = loc.StartPage; ; page++ {
		text, err := r.extract(ctx, page, probe, loc.Probe.Name)
		if err == nil && strings.Contains(strings.ToUpper(text), keyword) {
			return page, true
		}
		if err != nil {
			r.log.Debug("probe failed", "page", page, "keyword", loc.Keyword, "error", err)
		}
		if page >= last || ctx.Err() != nil {
			return page, false
		}
	}
}

// AreaLocator computes the rectangle holding a section's body, between the
// start title and the end title.
type AreaLocator interface {
	ContentArea(ctx context.Context, extract Extractor, size pdfdoc.Size, page int, startTitle, endTitle string, samePage bool) (pdfdoc.Rect, error)
}

// AdaptiveLocator finds titles by sliding a horizontal strip down the page.
// Offsets are measured from the page top.
type AdaptiveLocator struct {
	X             float64 // left edge of every strip
	InitialOffset float64
	Step          float64
	StripHeight   float64
	Adjacency     float64 // titles closer than this get MinHeight
	MinHeight     float64
	Margin        float64
	BottomMargin  float64 // lower bound of a section that continues on the next page
}

// DefaultLocator returns the geometry tuned for the supported templates.
func DefaultLocator() *AdaptiveLocator {
	return &AdaptiveLocator{
		X:             -68,
		InitialOffset: 30,
		Step:          10,
		StripHeight:   20,
		Adjacency:     30,
		MinHeight:     30,
		Margin:        10,
		BottomMargin:  36,
	}
}

// ContentArea implements AreaLocator. When samePage is false the area runs
// from below the start title to the bottom margin; the next page is not
// inspected.
func (l *AdaptiveLocator) ContentArea(ctx context.Context, extract Extractor, size pdfdoc.Size, page int, startTitle, endTitle string, samePage bool) (pdfdoc.Rect, error) {
	start, err := l.probe(ctx, extract, size, page, startTitle)
	if err != nil {
		return pdfdoc.Rect{}, err
	}
	// The strip after the match is where the title was last seen.
	top := start + l.Step
	height := l.StripHeight

	if samePage {
		end, err := l.probe(ctx, extract, size, page, endTitle)
		if err != nil {
			return pdfdoc.Rect{}, err
		}
		if end-start <= l.Adjacency {
			top += l.Margin
			height = l.MinHeight
		} else {
			height = end - start - l.Margin
		}
	} else {
		height = max(size.Height-l.BottomMargin-(top+l.Margin), l.MinHeight)
	}

	return pdfdoc.FromTop(l.X, top+l.Margin, size.Width, height, size.Height), nil
}

// probe returns the offset of the first strip whose text mentions title.
func (l *AdaptiveLocator) probe(ctx context.Context, extract Extractor, size pdfdoc.Size, page int, title string) (float64, error) {
	for y := l.InitialOffset; y < size.Height; y += l.Step {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		strip := pdfdoc.FromTop(l.X, y, size.Width, l.StripHeight, size.Height)
		text, err := extract(ctx, page, strip)
		if err != nil {
			return 0, err
		}
		if toc.Mentions(text, title) {
			return y, nil
		}
	}
	return 0, &CheckError{
		Kind:   KindAnchorNotFound,
		Page:   page,
		Region: title,
		Err:    fmt.Errorf("%w: %q", ErrAnchorNotFound, title),
	}
}
