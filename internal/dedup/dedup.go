// Package dedup suppresses re-processing of inbound events that the
// transport layer redelivers.
package dedup

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Gate remembers recently seen event ids in a capacity-bounded, TTL-windowed
// cache. The bound keeps memory flat for the life of the process; the window
// only needs to cover the transport's redelivery horizon.
type Gate struct {
	mu   sync.Mutex
	seen *expirable.LRU[string, time.Time]
}

// NewGate creates a Gate holding at most maxEntries ids, each forgotten after
// the given window.
func NewGate(maxEntries int, window time.Duration) *Gate {
	return &Gate{
		seen: expirable.NewLRU[string, time.Time](maxEntries, nil, window),
	}
}

// CheckAndMark reports whether eventID is new and records it. The check and
// the mark happen under one critical section, so two concurrent deliveries of
// the same id cannot both proceed.
func (g *Gate) CheckAndMark(eventID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen.Get(eventID); ok {
		return false
	}
	g.seen.Add(eventID, time.Now())
	return true
}

// Seen reports whether eventID has already been marked, without marking it.
func (g *Gate) Seen(eventID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seen.Contains(eventID)
}

// Len returns the number of event ids currently remembered.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seen.Len()
}
