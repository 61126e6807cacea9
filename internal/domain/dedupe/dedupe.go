// Package dedupe collapses expert observations by identity.
package dedupe

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/ffbrank/ffbrank/internal/domain/model"
)

// Collector accumulates observations from concurrent scrape tasks and keeps
// the earliest observation per identity.
type Collector interface {
	// Record adds observations and returns how many identities were new.
	// Nothing is recorded once ctx is done.
	Record(ctx context.Context, obs ...model.ExpertIdentity) int
	// Snapshot returns the collapsed observations sorted by identity.
	Snapshot() []model.ExpertIdentity
	// Reset drops everything recorded so far.
	Reset()
	Size() int64
}

type inMemoryCollector struct {
	mu       sync.Mutex
	earliest map[model.Identity]model.ExpertIdentity
	capacity int
	size     atomic.Int64
}

// NewCollector creates an in-memory collector.
func NewCollector(opts ...Option) Collector {
	c := &inMemoryCollector{capacity: 256}
	for _, opt := range opts {
		opt(c)
	}
	c.earliest = make(map[model.Identity]model.ExpertIdentity, c.capacity)
	return c
}

func (c *inMemoryCollector) Record(ctx context.Context, obs ...model.ExpertIdentity) int {
	if ctx.Err() != nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	for _, o := range obs {
		if keep(c.earliest, o) {
			added++
		}
	}
	c.size.Store(int64(len(c.earliest)))
	return added
}

func (c *inMemoryCollector) Snapshot() []model.ExpertIdentity {
	c.mu.Lock()
	out := make([]model.ExpertIdentity, 0, len(c.earliest))
	for _, o := range c.earliest {
		out = append(out, o)
	}
	c.mu.Unlock()

	sortByIdentity(out)
	return out
}

func (c *inMemoryCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.earliest = make(map[model.Identity]model.ExpertIdentity, c.capacity)
	c.size.Store(0)
}

func (c *inMemoryCollector) Size() int64 {
	return c.size.Load()
}

// Collapse keeps one observation per identity, the one with the earliest
// ObservedAt. On equal times the first occurrence wins. The result is
// sorted by identity.
func Collapse(obs []model.ExpertIdentity) []model.ExpertIdentity {
	earliest := make(map[model.Identity]model.ExpertIdentity, len(obs))
	for _, o := range obs {
		keep(earliest, o)
	}
	out := make([]model.ExpertIdentity, 0, len(earliest))
	for _, o := range earliest {
		out = append(out, o)
	}
	sortByIdentity(out)
	return out
}

// keep stores o if its identity is new or it predates the stored one.
// Reports whether the identity was new.
func keep(earliest map[model.Identity]model.ExpertIdentity, o model.ExpertIdentity) bool {
	id := o.Identity()
	cur, ok := earliest[id]
	if !ok {
		earliest[id] = o
		return true
	}
	if o.ObservedAt.Before(cur.ObservedAt) {
		earliest[id] = o
	}
	return false
}

func sortByIdentity(obs []model.ExpertIdentity) {
	slices.SortFunc(obs, func(a, b model.ExpertIdentity) int {
		ia, ib := a.Identity(), b.Identity()
		switch {
		case ia.Less(ib):
			return -1
		case ib.Less(ia):
			return 1
		}
		return 0
	})
}
