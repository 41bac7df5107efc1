// Package cache memoizes computed results outside the scoring engine.
// Entries are keyed by a fingerprint of every input, so a changed input
// never hits a stale entry and no explicit invalidation is needed.
package cache

import (
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/appraisal/internal/adapters/repository"
	"github.com/okian/appraisal/internal/domain/model"
	"github.com/okian/appraisal/pkg/metrics"
)

// DefaultSize is the number of subjects whose results are kept.
const DefaultSize = 4096

// ResultCache is an LRU of computed results. It is safe for concurrent
// use.
type ResultCache struct {
	size    int
	entries *lru.Cache[string, repository.Results]
}

// New creates a cache.
func New(opts ...Option) (*ResultCache, error) {
	c := &ResultCache{size: DefaultSize}
	for _, opt := range opts {
		opt(c)
	}
	entries, err := lru.New[string, repository.Results](c.size)
	if err != nil {
		return nil, ErrInvalidSize
	}
	c.entries = entries
	return c, nil
}

// Get returns the results cached under key.
func (c *ResultCache) Get(key string) (repository.Results, bool) {
	r, ok := c.entries.Get(key)
	if ok {
		metrics.RecordCacheHit()
	} else {
		metrics.RecordCacheMiss()
	}
	return r, ok
}

// Add caches results under key.
func (c *ResultCache) Add(key string, r repository.Results) {
	c.entries.Add(key, r)
}

// Len returns the number of cached entries.
func (c *ResultCache) Len() int { return c.entries.Len() }

// Purge drops every entry.
func (c *ResultCache) Purge() { c.entries.Purge() }

// Fingerprint identifies the inputs of one subject's results: the
// instrument, the evaluator weights, the supervisor assignments and the
// revision of every submitted response set. Unsubmitted sets do not feed
// results and are left out.
func Fingerprint(sub model.Subject, instrumentID string, w model.EvaluatorWeights, periodID string, sets []*model.ResponseSet) string {
	var b strings.Builder
	b.WriteString(periodID)
	b.WriteByte('|')
	b.WriteString(sub.ID)
	b.WriteByte('|')
	b.WriteString(instrumentID)
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(w.Supervisor, 'g', -1, 64))
	b.WriteByte('/')
	b.WriteString(strconv.FormatFloat(w.Self, 'g', -1, 64))
	for _, a := range sub.Supervisors {
		b.WriteString("|a:")
		b.WriteString(a.EvaluatorID)
		b.WriteByte(':')
		b.WriteString(string(a.Relationship))
	}

	keys := make([]string, 0, len(sets))
	for _, rs := range sets {
		if rs == nil || !rs.Submitted {
			continue
		}
		keys = append(keys, rs.ResponseKey.String()+"@"+strconv.FormatInt(rs.Revision, 10))
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("|r:")
		b.WriteString(k)
	}
	return b.String()
}
