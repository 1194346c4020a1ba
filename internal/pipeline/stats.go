package pipeline

import (
	"sync"
	"time"

	"github.com/Novanna/doc-verifier/internal/validator"
)

// TemplateStats counts the runs of one template family.
type TemplateStats struct {
	Runs    int     `json:"runs"`
	Passed  int     `json:"passed"`
	Busy    int     `json:"busy"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   int64   `json:"max_ms"`
	totalMs int64
}

// StatsSnapshot aggregates the runs inside the window.
type StatsSnapshot struct {
	WindowSeconds int                      `json:"window_seconds"`
	Runs          int                      `json:"runs"`
	Passed        int                      `json:"passed"`
	Busy          int                      `json:"busy"`
	ByType        map[string]TemplateStats `json:"by_type"`
	// Failing steps by diagnostic kind.
	Failures map[validator.Kind]int `json:"failures"`
}

type bucket struct {
	start    time.Time
	byType   map[string]*TemplateStats
	failures map[validator.Kind]int
}

// RunStats counts verifications per template family over a rolling window.
// Runs are grouped into buckets of a minute (or the whole window when it is
// shorter); a bucket leaves the window once all of it is older than the
// window.
type RunStats struct {
	mu      sync.Mutex
	window  time.Duration
	width   time.Duration
	buckets []*bucket
	now     func() time.Time
}

func NewRunStats(window time.Duration) *RunStats {
	if window <= 0 {
		window = time.Hour
	}
	return &RunStats{
		window: window,
		width:  min(window, time.Minute),
		now:    time.Now,
	}
}

// Record counts one finished run of docType.
func (s *RunStats) Record(docType string, d time.Duration, res *validator.Result) {
	ms := max(d.Milliseconds(), 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.current()
	ts := b.template(docType)
	ts.Runs++
	ts.totalMs += ms
	ts.MaxMs = max(ts.MaxMs, ms)
	if res.OK() {
		ts.Passed++
	}
	for _, diag := range res.Diagnostics {
		b.failures[diag.Kind]++
	}
}

// RecordBusy counts a request for docType turned away for lack of capacity.
func (s *RunStats) RecordBusy(docType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current().template(docType).Busy++
}

func (s *RunStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(s.now())

	snap := StatsSnapshot{
		WindowSeconds: int(s.window / time.Second),
		ByType:        make(map[string]TemplateStats),
		Failures:      make(map[validator.Kind]int),
	}
	for _, b := range s.buckets {
		for id, ts := range b.byType {
			agg := snap.ByType[id]
			agg.Runs += ts.Runs
			agg.Passed += ts.Passed
			agg.Busy += ts.Busy
			agg.totalMs += ts.totalMs
			agg.MaxMs = max(agg.MaxMs, ts.MaxMs)
			snap.ByType[id] = agg
		}
		for kind, n := range b.failures {
			snap.Failures[kind] += n
		}
	}
	for id, agg := range snap.ByType {
		if agg.Runs > 0 {
			agg.AvgMs = float64(agg.totalMs) / float64(agg.Runs)
		}
		snap.ByType[id] = agg
		snap.Runs += agg.Runs
		snap.Passed += agg.Passed
		snap.Busy += agg.Busy
	}
	return snap
}

// current returns the bucket for now, opening a new one when needed.
func (s *RunStats) current() *bucket {
	now := s.now()
	s.expire(now)

	start := now.Truncate(s.width)
	if n := len(s.buckets); n > 0 && s.buckets[n-1].start.Equal(start) {
		return s.buckets[n-1]
	}
	b := &bucket{
		start:    start,
		byType:   make(map[string]*TemplateStats),
		failures: make(map[validator.Kind]int),
	}
	s.buckets = append(s.buckets, b)
	return b
}

func (s *RunStats) expire(now time.Time) {
	cutoff := now.Add(-s.window)
	drop := 0
	for _, b := range s.buckets {
		if b.start.Add(s.width).After(cutoff) {
			break
		}
		drop++
	}
	if drop > 0 {
		s.buckets = append(s.buckets[:0], s.buckets[drop:]...)
	}
}

func (b *bucket) template(id string) *TemplateStats {
	ts, ok := b.byType[id]
	if !ok {
		ts = &TemplateStats{}
		b.byType[id] = ts
	}
	return ts
}
