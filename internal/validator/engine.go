package validator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Novanna/doc-verifier/internal/templates"
	"github.com/Novanna/doc-verifier/internal/toc"
	"github.com/Novanna/doc-verifier/internal/workpool"
)

// Result is the outcome of one run. Steps always holds every key the
// template declares.
type Result struct {
	DocType     string                `json:"docType"`
	Steps       map[string]bool       `json:"parameters"`
	Diagnostics map[string]Diagnostic `json:"diagnostics,omitempty"`
	Notes       map[string][]string   `json:"notes,omitempty"`
	PageCount   int                   `json:"pageCount"`
	PageHeight  float64               `json:"pageHeight"`
	Duration    time.Duration         `json:"duration"`
}

// Passed returns the number of steps that passed.
func (r *Result) Passed() int {
	n := 0
	for _, ok := range r.Steps {
		if ok {
			n++
		}
	}
	return n
}

// OK reports whether every step passed.
func (r *Result) OK() bool {
	return r.Passed() == len(r.Steps)
}

// Failed returns a result with every declared step false and the same
// diagnostic on each.
func Failed(t *templates.Template, d Diagnostic) *Result {
	res := &Result{
		DocType:     t.ID,
		Steps:       make(map[string]bool),
		Diagnostics: make(map[string]Diagnostic),
	}
	for _, key := range t.Keys() {
		res.Steps[key] = false
		res.Diagnostics[key] = d
	}
	return res
}

// Engine runs template checks on a shared worker pool.
type Engine struct {
	pool    *workpool.Pool
	preds   *templates.Predicates
	locator AreaLocator
	timeout time.Duration
	log     *slog.Logger
}

type Option func(*Engine)

// WithLocator replaces the content area locator.
func WithLocator(l AreaLocator) Option {
	return func(e *Engine) { e.locator = l }
}

// WithPredicates replaces the predicate table.
func WithPredicates(p *templates.Predicates) Option {
	return func(e *Engine) { e.preds = p }
}

// WithTimeout bounds each run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func NewEngine(pool *workpool.Pool, opts ...Option) *Engine {
	e := &Engine{
		pool:    pool,
		preds:   templates.NewPredicates(),
		locator: DefaultLocator(),
		timeout: time.Minute,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run validates src against t. Failures of individual checks are reported
// in the result, never as an error.
func (e *Engine) Run(ctx context.Context, src TextSource, t *templates.Template) *Result {
	start := time.Now()
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	r := &run{
		src:        src,
		tmpl:       t,
		preds:      e.preds,
		locator:    e.locator,
		locks:      NewPageLocks(),
		pageHeight: src.PageSize(1).Height,
		log:        e.log.With("doc_type", t.ID),
		notes:      make(map[string][]string),
	}

	pass := func(err error) (bool, error) { return err == nil, err }
	futures := make(map[string]*workpool.Future[bool], len(t.Intervals)+3)

	futures[templates.StepCover] = workpool.Go(e.pool, func() (bool, error) {
		return pass(r.checkCover(ctx))
	})
	futures[templates.StepApproval] = workpool.Go(e.pool, func() (bool, error) {
		return pass(r.checkApproval(ctx))
	})
	presence := workpool.Go(e.pool, func() (int, error) {
		return r.checkTOC(ctx)
	})
	futures[templates.StepTOC] = workpool.Then(e.pool, presence, func(_ int, err error) (bool, error) {
		return pass(err)
	})

	entries := workpool.Then(e.pool, presence, func(page int, err error) ([]toc.Entry, error) {
		if err != nil {
			return nil, nil
		}
		return r.parseTOC(ctx, page)
	})

	for i, iv := range t.Intervals {
		key := templates.IntervalKey(i)
		futures[key] = workpool.Join2(e.pool, presence, entries,
			func(_ int, perr error, list []toc.Entry, lerr error) (bool, error) {
				if perr != nil {
					return false, &CheckError{Kind: KindTOCUnavailable, Err: fmt.Errorf("%w: %v", ErrTOCUnavailable, perr)}
				}
				if lerr != nil {
					return false, lerr
				}
				return pass(r.validateInterval(ctx, key, list, iv))
			})
	}

	res := &Result{
		DocType:     t.ID,
		Steps:       make(map[string]bool, len(futures)),
		Diagnostics: make(map[string]Diagnostic),
		PageCount:   src.PageCount(),
		PageHeight:  r.pageHeight,
	}
	for _, key := range t.Keys() {
		ok, err := futures[key].Wait(ctx)
		res.Steps[key] = ok && err == nil
		if err != nil {
			d := Diagnose(err)
			res.Diagnostics[key] = d
			r.log.Debug("step failed", "step", key, "kind", d.Kind, "error", err)
		}
	}

	r.mu.Lock()
	for step, notes := range r.notes {
		if res.Notes == nil {
			res.Notes = make(map[string][]string)
		}
		res.Notes[step] = append([]string(nil), notes...)
	}
	r.mu.Unlock()
	res.Duration = time.Since(start)
	return res
}

// parseTOC extracts the table of contents region and parses its entries.
func (r *run) parseTOC(ctx context.Context, page int) ([]toc.Entry, error) {
	region := r.tmpl.TOC.Region
	text, err := r.extract(ctx, page, region.Rect(r.pageHeight), region.Name)
	if err != nil {
		return nil, err
	}
	entries := toc.Parse(text, r.tmpl.TOC.Style)
	if len(entries) == 0 {
		return nil, &CheckError{
			Kind:   KindTOCUnavailable,
			Page:   page,
			Region: region.Name,
			Err:    fmt.Errorf("%w: no %s entries", ErrTOCUnavailable, r.tmpl.TOC.Style),
		}
	}
	return entries, nil
}
