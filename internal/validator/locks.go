package validator

import "sync"

// PageLocks serializes text extraction per page. Different pages proceed in
// parallel. A table belongs to one run.
type PageLocks struct {
	mu    sync.Mutex
	pages map[int]*sync.Mutex
}

func NewPageLocks() *PageLocks {
	return &PageLocks{pages: make(map[int]*sync.Mutex)}
}

// Lock acquires the page's mutex and returns the matching unlock.
func (l *PageLocks) Lock(page int) (unlock func()) {
	l.mu.Lock()
	m, ok := l.pages[page]
	if !ok {
		m = &sync.Mutex{}
		l.pages[page] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Len returns the number of pages that have been locked at least once.
func (l *PageLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pages)
}
