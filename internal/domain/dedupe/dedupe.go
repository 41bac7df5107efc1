// Package dedupe tracks submission ids so a retried submission is applied
// at most once.
package dedupe

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxSize is the number of submission ids remembered by default.
const DefaultMaxSize = 50000

// Deduper records seen submission ids.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// It returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a submission that failed after being recorded
	// can be retried with the same id.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps the most recently recorded ids in an LRU when
// bounded, or every id in a map when maxSize <= 0.
type inMemoryDeduper struct {
	maxSize int

	// mu makes the contains-then-add on the LRU atomic with Unrecord.
	mu        sync.Mutex
	recent    *lru.Cache[string, struct{}]
	unbounded map[string]struct{}
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxSize > 0 {
		// lru.New only fails for a non-positive size.
		d.recent, _ = lru.New[string, struct{}](d.maxSize)
	} else {
		d.unbounded = make(map[string]struct{})
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.recent != nil {
		seen, _ := d.recent.ContainsOrAdd(id, struct{}{})
		return seen
	}
	if _, ok := d.unbounded[id]; ok {
		return true
	}
	d.unbounded[id] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.recent != nil {
		d.recent.Remove(id)
		return
	}
	delete(d.unbounded, id)
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.recent != nil {
		return int64(d.recent.Len())
	}
	return int64(len(d.unbounded))
}
