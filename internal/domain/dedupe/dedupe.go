// Package dedupe tracks row keys so that exact-duplicate rows collapse to their
// first occurrence.
package dedupe

import (
	"strings"
	"sync"
)

// keySep cannot appear in CSV-sourced cell values.
const keySep = "\x1f"

// Deduper records seen row keys.
type Deduper interface {
	// SeenAndRecord checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(key string) bool

	// Size returns the number of distinct keys recorded.
	Size() int
}

// inMemoryDeduper is an unbounded set. Collapsing rows must never forget a key,
// so there is no eviction.
type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	capacity int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.capacity)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Key joins cell values into a single row key, terminating each cell with the
// unit separator.
func Key(cells ...string) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteString(c)
		b.WriteString(keySep)
	}
	return b.String()
}

// FirstOccurrences returns the indexes of the first row of every distinct key,
// in input order.
func FirstOccurrences(keys []string, opts ...Option) []int {
	d := NewInMemoryDeduper(append([]Option{WithCapacityHint(len(keys))}, opts...)...)
	idx := make([]int, 0, len(keys))
	for i, k := range keys {
		if !d.SeenAndRecord(k) {
			idx = append(idx, i)
		}
	}
	return idx
}
