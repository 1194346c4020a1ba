package validator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Novanna/doc-verifier/internal/pdfdoc"
	"github.com/Novanna/doc-verifier/internal/templates"
)

// run is the state of one document validation. Every value in it is
// scoped to the document; nothing is shared between runs.
type run struct {
	src        TextSource
	tmpl       *templates.Template
	preds      *templates.Predicates
	locator    AreaLocator
	locks      *PageLocks
	pageHeight float64
	log        *slog.Logger

	mu    sync.Mutex
	notes map[string][]string
}

func (r *run) note(step, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.mu.Lock()
	r.notes[step] = append(r.notes[step], msg)
	r.mu.Unlock()
	r.log.Debug("note", "step", step, "note", msg)
}

// extract reads a region under the page's lock.
func (r *run) extract(ctx context.Context, page int, rect pdfdoc.Rect, region string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if page < 1 || page > r.src.PageCount() {
		return "", &CheckError{
			Kind:   KindPageRange,
			Page:   page,
			Region: region,
			Err:    fmt.Errorf("%w: page %d of %d", pdfdoc.ErrPageRange, page, r.src.PageCount()),
		}
	}

	unlock := r.locks.Lock(page)
	text, err := r.src.ExtractRegion(page, rect)
	unlock()
	if err != nil {
		return "", &CheckError{Kind: KindExtraction, Page: page, Region: region, Err: err}
	}
	return text, nil
}

func (r *run) extractor() Extractor {
	return func(ctx context.Context, page int, rect pdfdoc.Rect) (string, error) {
		return r.extract(ctx, page, rect, "")
	}
}

// validateRegion extracts rect and applies the predicate for region.Kind.
func (r *run) validateRegion(ctx context.Context, page int, region templates.Region, rect pdfdoc.Rect) error {
	text, err := r.extract(ctx, page, rect, region.Name)
	if err != nil {
		return err
	}
	if text == "" {
		return &CheckError{Kind: KindEmptyRegion, Page: page, Region: region.Name, Err: ErrEmptyRegion}
	}
	if err := r.preds.Check(text, region, r.tmpl); err != nil {
		return &CheckError{
			Kind:   KindPredicate,
			Page:   page,
			Region: region.Name,
			Err:    fmt.Errorf("%w: %v", ErrPredicate, err),
		}
	}
	return nil
}

func (r *run) checkCover(ctx context.Context) error {
	for _, region := range r.tmpl.Cover.Regions {
		if err := r.validateRegion(ctx, r.tmpl.Cover.Page, region, region.Rect(r.pageHeight)); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) checkApproval(ctx context.Context) error {
	loc := r.tmpl.Approval.Locator
	page, found := r.locatePage(ctx, loc)
	if !found {
		r.note(templates.StepApproval, "keyword %q not found on pages %d-%d, using page %d", loc.Keyword, loc.StartPage, loc.MaxPage, page)
	}
	for _, slot := range r.tmpl.Approval.Slots {
		for _, region := range slot.Regions {
			if err := r.validateRegion(ctx, page, region, region.Rect(r.pageHeight)); err != nil {
				return fmt.Errorf("%s: %w", slot.Name, err)
			}
		}
	}
	return nil
}

// checkTOC locates the table of contents and validates its region. The
// page is returned even on failure.
func (r *run) checkTOC(ctx context.Context) (int, error) {
	loc := r.tmpl.TOC.Locator
	page, found := r.locatePage(ctx, loc)
	if !found {
		r.note(templates.StepTOC, "keyword %q not found on pages %d-%d, using page %d", loc.Keyword, loc.StartPage, loc.MaxPage, page)
	}
	region := r.tmpl.TOC.Region
	return page, r.validateRegion(ctx, page, region, region.Rect(r.pageHeight))
}
