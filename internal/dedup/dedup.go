// Package dedup tracks fingerprints of news items already surfaced to the
// review chat so repeated scrape cycles never post the same item twice.
package dedup

import "sync"

// Index is a set of content fingerprints. It grows for the process lifetime;
// there is no eviction, matching the in-memory, restart-resets-everything
// model of the rest of the pipeline.
//
// The scraper schedule and the chat update loop touch the index
// concurrently, so access is guarded.
type Index struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{seen: make(map[string]struct{})}
}

// Contains reports whether the fingerprint has been recorded.
func (i *Index) Contains(fingerprint string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.seen[fingerprint]
	return ok
}

// Add records a fingerprint. Callers must only do this after the item was
// successfully delivered, so a failed delivery never loses the item.
func (i *Index) Add(fingerprint string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.seen[fingerprint] = struct{}{}
}

// Size returns the number of recorded fingerprints.
func (i *Index) Size() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.seen)
}
