package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Novanna/doc-verifier/internal/pdfdoc"
	"github.com/Novanna/doc-verifier/internal/templates"
	"github.com/Novanna/doc-verifier/internal/validator"
)

// DefaultMaxRuns bounds the verifications in flight at once.
const DefaultMaxRuns = 64

// ErrBusy is returned by Verify when every run slot is taken.
var ErrBusy = errors.New("verifier is at capacity")

// Document is a decoded upload.
type Document interface {
	validator.TextSource
	io.Closer
}

// Opener decodes raw bytes into a Document.
type Opener func(data []byte) (Document, error)

// OpenPDF is the default Opener.
func OpenPDF(data []byte) (Document, error) {
	doc, err := pdfdoc.Open(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Request is one document to verify.
type Request struct {
	RequestID string
	DocType   string
	Filename  string
	Data      []byte
}

// Verifier decodes documents, runs the template checks and keeps the results.
type Verifier struct {
	registry *templates.Registry
	engine   *validator.Engine
	results  *ResultStore
	stats    *RunStats
	open     Opener
	log      *slog.Logger
	slots    chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewVerifier(reg *templates.Registry, engine *validator.Engine, results *ResultStore, stats *RunStats, log *slog.Logger) *Verifier {
	return &Verifier{
		registry: reg,
		engine:   engine,
		results:  results,
		stats:    stats,
		open:     OpenPDF,
		log:      log,
		slots:    make(chan struct{}, DefaultMaxRuns),
	}
}

// SetMaxRuns changes how many verifications may run at once. n <= 0 keeps
// the default. Call it before the first Verify.
func (v *Verifier) SetMaxRuns(n int) {
	if n > 0 {
		v.slots = make(chan struct{}, n)
	}
}

// SetOpener replaces the document decoder.
func (v *Verifier) SetOpener(open Opener) {
	v.open = open
}

// Start launches periodic eviction of expired results.
func (v *Verifier) Start(ctx context.Context) {
	cleanupCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				v.results.Cleanup()
			}
		}
	}()
}

// Stop ends the cleanup loop.
func (v *Verifier) Stop() {
	if v.cancel != nil {
		v.cancel()
	}
	v.wg.Wait()
}

// Verify validates one document. It fails only for an unsupported document
// type or with ErrBusy when no run slot is free; every other failure is
// reported in the response.
func (v *Verifier) Verify(ctx context.Context, req Request) (*Response, error) {
	tmpl, err := v.registry.Lookup(req.DocType)
	if err != nil {
		return nil, err
	}
	select {
	case v.slots <- struct{}{}:
		defer func() { <-v.slots }()
	default:
		v.stats.RecordBusy(tmpl.ID)
		return nil, fmt.Errorf("%w (%d runs)", ErrBusy, cap(v.slots))
	}
	if strings.TrimSpace(req.RequestID) == "" {
		req.RequestID = uuid.NewString()
	}
	log := v.log.With("request_id", req.RequestID, "doc_type", tmpl.ID)

	start := time.Now()
	rec := &Record{
		Filename:    req.Filename,
		ContentHash: ContentHashHex(req.Data),
		CreatedAt:   start,
	}

	// Phase 1: Decode
	var res *validator.Result
	doc, err := v.open(req.Data)
	if err != nil {
		log.Warn("decode failed", "error", err)
		if !errors.Is(err, pdfdoc.ErrDecode) {
			err = errors.Join(pdfdoc.ErrDecode, err)
		}
		d := validator.Diagnose(err)
		d.Kind = validator.KindDecode
		res = validator.Failed(tmpl, d)
	} else {
		// Phase 2: Validate
		res = v.engine.Run(ctx, doc, tmpl)
		rec.PageCount = res.PageCount
		if cerr := doc.Close(); cerr != nil {
			log.Warn("close document", "error", cerr)
		}
	}

	elapsed := time.Since(start)
	rec.Response = Response{
		ResponseID:  req.RequestID,
		DocType:     tmpl.ID,
		Parameters:  res.Steps,
		Diagnostics: res.Diagnostics,
		Notes:       res.Notes,
	}
	rec.DurationMs = elapsed.Milliseconds()

	// Phase 3: Record
	v.results.Put(rec)
	v.stats.Record(tmpl.ID, elapsed, res)
	for key, d := range res.Diagnostics {
		log.Debug("step failed", "step", key, "kind", d.Kind, "message", d.Message)
	}
	log.Info("verification complete",
		"passed", res.Passed(),
		"steps", len(res.Steps),
		"pages", rec.PageCount,
		"duration_ms", rec.DurationMs,
	)

	resp := rec.Response
	return &resp, nil
}

// Result returns a stored verification.
func (v *Verifier) Result(id string) (Record, bool) {
	return v.results.Get(id)
}

// Stats returns run counts per template family over the stats window.
func (v *Verifier) Stats() StatsSnapshot {
	return v.stats.Snapshot()
}

// Templates returns the supported template families.
func (v *Verifier) Templates() []*templates.Template {
	return v.registry.All()
}

// Template looks up a template family.
func (v *Verifier) Template(docType string) (*templates.Template, error) {
	return v.registry.Lookup(docType)
}
