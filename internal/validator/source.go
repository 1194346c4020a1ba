// Package validator checks a document against a template: it finds anchor
// pages and content areas, extracts region text and runs the checks of a
// template as a task graph on a shared worker pool.
package validator

import (
	"context"

	"github.com/Novanna/doc-verifier/internal/pdfdoc"
)

// TextSource is a decoded document. ExtractRegion need not be safe for
// concurrent calls on the same page.
type TextSource interface {
	PageCount() int
	PageSize(page int) pdfdoc.Size
	ExtractRegion(page int, r pdfdoc.Rect) (string, error)
}

// Extractor reads the text of a rectangle on a page with the run's page
// locking applied.
type Extractor func(ctx context.Context, page int, r pdfdoc.Rect) (string, error)
