package relay

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// EdgesPerSession is the capacity of a session's Gate: one permit per
// edge.
const EdgesPerSession = 2

// Gate is the counting permit primitive a session is coordinated by.
// Each Edge takes one permit when it starts and hands it back when its
// pump exits; the session loop then takes one more permit, which blocks
// until the first edge finishes.
//
// Releasing without a matching acquire (double release, or a late edge
// releasing into a gate its session already discarded) is a no-op.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int64
	held     atomic.Int64
}

// NewGate returns a gate with n permits available.
func NewGate(n int) *Gate {
	if n < 1 {
		n = 1
	}
	return &Gate{sem: semaphore.NewWeighted(int64(n)), capacity: int64(n)}
}

// Acquire blocks until a permit is free.  There is no timeout; ctx is
// only there so that process shutdown can abandon the wait.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	g.held.Add(1)
	return nil
}

// tryAcquire takes a permit if one is free, without blocking.
func (g *Gate) tryAcquire() bool {
	if !g.sem.TryAcquire(1) {
		return false
	}
	g.held.Add(1)
	return true
}

// Release hands back one permit and wakes one waiter.  It reports false,
// and does nothing, when no permit is outstanding.
func (g *Gate) Release() bool {
	for {
		h := g.held.Load()
		if h <= 0 {
			return false
		}
		if g.held.CompareAndSwap(h, h-1) {
			g.sem.Release(1)
			return true
		}
	}
}

// Capacity is the number of permits the gate was created with.
func (g *Gate) Capacity() int { return int(g.capacity) }

// Held is the number of permits currently taken.
func (g *Gate) Held() int { return int(g.held.Load()) }
