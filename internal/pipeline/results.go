package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/Novanna/doc-verifier/internal/validator"
)

// Response is what a caller receives for one verification.
type Response struct {
	ResponseID  string                          `json:"responseId"`
	DocType     string                          `json:"docType"`
	Parameters  map[string]bool                 `json:"parameters"`
	Diagnostics map[string]validator.Diagnostic `json:"diagnostics,omitempty"`
	Notes       map[string][]string             `json:"notes,omitempty"`
}

// Record is a stored verification with the metadata used for reports.
type Record struct {
	Response
	Filename    string    `json:"filename,omitempty"`
	ContentHash string    `json:"contentHash"`
	PageCount   int       `json:"pageCount"`
	DurationMs  int64     `json:"durationMs"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ResultStore is a thread-safe in-memory record registry with TTL eviction.
type ResultStore struct {
	mu      sync.Mutex
	records map[string]*Record
	ttl     time.Duration
}

func NewResultStore(ttl time.Duration) *ResultStore {
	return &ResultStore{
		records: make(map[string]*Record),
		ttl:     ttl,
	}
}

// Put stores rec under its response ID, replacing an earlier record.
func (s *ResultStore) Put(rec *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ResponseID] = rec
}

// Get returns a copy of the record, or false when unknown or expired.
func (s *ResultStore) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || s.expired(rec, time.Now()) {
		return Record{}, false
	}
	return *rec, true
}

// Len returns the number of stored records, expired ones included.
func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Cleanup removes expired records.
func (s *ResultStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, rec := range s.records {
		if s.expired(rec, now) {
			delete(s.records, id)
		}
	}
}

func (s *ResultStore) expired(rec *Record, now time.Time) bool {
	return s.ttl > 0 && now.Sub(rec.CreatedAt) > s.ttl
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
