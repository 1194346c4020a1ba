package validator

import (
	"context"
	"fmt"

	"github.com/Novanna/doc-verifier/internal/pdfdoc"
	"github.com/Novanna/doc-verifier/internal/templates"
	"github.com/Novanna/doc-verifier/internal/toc"
)

// selectInterval returns the run of entries from the first title mentioning
// start up to, not including, the first later title mentioning end. An
// empty end runs to the last entry.
func selectInterval(entries []toc.Entry, start, end string) []toc.Entry {
	begin := -1
	for i, e := range entries {
		if toc.Mentions(e.Title, start) {
			begin = i
			break
		}
	}
	if begin < 0 {
		return nil
	}

	selected := []toc.Entry{entries[begin]}
	for _, e := range entries[begin+1:] {
		if end != "" && toc.Mentions(e.Title, end) {
			break
		}
		selected = append(selected, e)
	}
	return selected
}

// validateInterval checks the body of every selected entry except the
// last, each bounded by the next selected entry. An open-ended interval has
// no following entry at all, so its last entry is checked against its own
// title and gets the minimum content height.
func (r *run) validateInterval(ctx context.Context, step string, entries []toc.Entry, iv templates.Interval) error {
	selected := selectInterval(entries, iv.Start, iv.End)
	if len(selected) == 0 {
		return &CheckError{
			Kind:   KindEmptyInterval,
			Region: iv.Start,
			Err:    fmt.Errorf("%w: %q", ErrEmptyInterval, iv.Start),
		}
	}

	checked := selected[:len(selected)-1]
	if iv.End == "" {
		checked = selected
	}

	extract := r.extractor()
	for i, cur := range checked {
		next := cur
		if i+1 < len(selected) {
			next = selected[i+1]
		}
		samePage := cur.Page == next.Page
		if !samePage {
			r.note(step, "%q continues past page %d; only that page is checked", cur.Title, cur.Page)
		}

		if cur.Page < 1 || cur.Page > r.src.PageCount() {
			return &CheckError{
				Kind:   KindPageRange,
				Page:   cur.Page,
				Region: cur.Title,
				Err:    fmt.Errorf("%w: table of contents points to page %d of %d", pdfdoc.ErrPageRange, cur.Page, r.src.PageCount()),
			}
		}
		rect, err := r.locator.ContentArea(ctx, extract, r.src.PageSize(cur.Page), cur.Page, cur.Title, next.Title, samePage)
		if err != nil {
			return err
		}
		region := templates.Region{Name: cur.Title, Kind: templates.KindContent}
		if err := r.validateRegion(ctx, cur.Page, region, rect); err != nil {
			return err
		}
	}
	return nil
}
