package validator

import (
	"context"
	"errors"
	"fmt"

	"github.com/Novanna/doc-verifier/internal/pdfdoc"
	"github.com/Novanna/doc-verifier/internal/workpool"
)

var (
	ErrAnchorNotFound = errors.New("anchor not found")
	ErrEmptyRegion    = errors.New("region has no text")
	ErrPredicate      = errors.New("region text rejected")
	ErrEmptyInterval  = errors.New("no table of contents entries for interval")
	ErrTOCUnavailable = errors.New("table of contents unavailable")
)

// Kind classifies why a check failed.
type Kind string

const (
	KindDecode         Kind = "decode"
	KindExtraction     Kind = "extraction"
	KindPageRange      Kind = "page_range"
	KindAnchorNotFound Kind = "anchor_not_found"
	KindEmptyRegion    Kind = "empty_region"
	KindPredicate      Kind = "predicate"
	KindEmptyInterval  Kind = "empty_interval"
	KindTOCUnavailable Kind = "toc_unavailable"
	KindTimeout        Kind = "timeout"
	KindPanic          Kind = "panic"
	KindRejected       Kind = "rejected"
	KindInternal       Kind = "internal"
)

// CheckError is a failed check on a page region.
type CheckError struct {
	Kind   Kind
	Page   int
	Region string
	Err    error
}

func (e *CheckError) Error() string {
	switch {
	case e.Page > 0 && e.Region != "":
		return fmt.Sprintf("%s: page %d region %q: %v", e.Kind, e.Page, e.Region, e.Err)
	case e.Page > 0:
		return fmt.Sprintf("%s: page %d: %v", e.Kind, e.Page, e.Err)
	case e.Region != "":
		return fmt.Sprintf("%s: region %q: %v", e.Kind, e.Region, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
}

func (e *CheckError) Unwrap() error { return e.Err }

// Diagnostic explains a failed step.
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Page    int    `json:"page,omitempty"`
	Region  string `json:"region,omitempty"`
	Message string `json:"message"`
}

// Diagnose turns an error from a check into a Diagnostic.
func Diagnose(err error) Diagnostic {
	d := Diagnostic{Kind: KindInternal, Message: err.Error()}
	var ce *CheckError
	if errors.As(err, &ce) {
		d.Kind, d.Page, d.Region = ce.Kind, ce.Page, ce.Region
		return d
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		d.Kind = KindTimeout
	case errors.Is(err, workpool.ErrPanic):
		d.Kind = KindPanic
	case errors.Is(err, workpool.ErrStopped):
		d.Kind = KindRejected
	case errors.Is(err, pdfdoc.ErrDecode):
		d.Kind = KindDecode
	case errors.Is(err, pdfdoc.ErrPageRange):
		d.Kind = KindPageRange
	}
	return d
}
