package pipeline

import (
	"testing"
	"time"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestResultStore_PutGet(t *testing.T) {
	store := NewResultStore(time.Hour)
	store.Put(&Record{Response: Response{ResponseID: "req-1", DocType: "BRD"}, CreatedAt: time.Now()})

	got, ok := store.Get("req-1")
	if !ok {
		t.Fatal("expected to get record back")
	}
	if got.DocType != "BRD" {
		t.Errorf("expected doc type %q, got %q", "BRD", got.DocType)
	}
}

func TestResultStore_GetMissing(t *testing.T) {
	store := NewResultStore(time.Hour)
	if _, ok := store.Get("nonexistent"); ok {
		t.Error("expected miss for unknown id")
	}
}

func TestResultStore_ReplacesSameID(t *testing.T) {
	store := NewResultStore(time.Hour)
	store.Put(&Record{Response: Response{ResponseID: "req-1", DocType: "BRD"}, CreatedAt: time.Now()})
	store.Put(&Record{Response: Response{ResponseID: "req-1", DocType: "UAT"}, CreatedAt: time.Now()})

	got, _ := store.Get("req-1")
	if got.DocType != "UAT" {
		t.Errorf("expected latest record, got doc type %q", got.DocType)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 record, got %d", store.Len())
	}
}

func TestResultStore_TTLCleanup(t *testing.T) {
	store := NewResultStore(50 * time.Millisecond)
	store.Put(&Record{Response: Response{ResponseID: "old"}, CreatedAt: time.Now()})

	time.Sleep(100 * time.Millisecond)
	store.Put(&Record{Response: Response{ResponseID: "new"}, CreatedAt: time.Now()})

	if _, ok := store.Get("old"); ok {
		t.Error("expected expired record to be hidden before cleanup")
	}

	store.Cleanup()
	if store.Len() != 1 {
		t.Errorf("expected 1 record after cleanup, got %d", store.Len())
	}
	if _, ok := store.Get("new"); !ok {
		t.Error("expected fresh record to survive cleanup")
	}
}
