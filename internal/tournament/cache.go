package tournament

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedLookup is a read-through cache in front of another Lookup. Tournament
// documents change rarely while a registration session re-reads them often.
type CachedLookup struct {
	next  Lookup
	cache *expirable.LRU[string, *Tournament]
}

// NewCachedLookup wraps next with an LRU of at most size entries, each
// living for ttl.
func NewCachedLookup(next Lookup, size int, ttl time.Duration) *CachedLookup {
	return &CachedLookup{
		next:  next,
		cache: expirable.NewLRU[string, *Tournament](size, nil, ttl),
	}
}

// GetByID serves from the cache when possible. Errors are never cached.
func (c *CachedLookup) GetByID(ctx context.Context, id string) (*Tournament, error) {
	if t, ok := c.cache.Get(id); ok {
		log.Debug("Tournament cache hit", "tournamentID", id)
		return clone(t), nil
	}
	t, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(id, clone(t))
	return t, nil
}

// Invalidate drops a single tournament, e.g. after its participant count
// changed.
func (c *CachedLookup) Invalidate(id string) {
	c.cache.Remove(id)
}

// Purge empties the cache.
func (c *CachedLookup) Purge() {
	c.cache.Purge()
}

// clone copies the mutable parts so callers cannot alter cached entries.
func clone(t *Tournament) *Tournament {
	cp := *t
	if t.AvailableEvents != nil {
		cp.AvailableEvents = append(cp.AvailableEvents[:0:0], t.AvailableEvents...)
	}
	if t.EventPrices != nil {
		cp.EventPrices = make(map[string]float64, len(t.EventPrices))
		for k, v := range t.EventPrices {
			cp.EventPrices[k] = v
		}
	}
	return &cp
}
