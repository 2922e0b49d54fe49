package admission

import (
	"sync"

	tally "github.com/uber-go/tally/v4"
	"go.uber.org/fx"
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Gate is the per-chat concurrency permit. At most one acquired slot exists
// per chat id at any instant. A denied request is dropped, never queued.
type Gate interface {
	// TryAcquire takes the chat's slot. It returns false without blocking
	// when an invocation for the chat is already outstanding.
	TryAcquire(chatID int64) bool
	// Release frees the chat's slot. It is idempotent and safe to call on
	// every exit path, including after a failed acquire.
	Release(chatID int64)
}

// Params defines the dependencies of the gate.
type Params struct {
	fx.In

	Stats tally.Scope
}

type gate struct {
	mu       sync.Mutex
	inflight map[int64]struct{}
	rejected tally.Counter
	held     tally.Gauge
}

// New creates an empty Gate. The slot set is process state only; it resets
// on restart.
func New(p Params) Gate {
	scope := p.Stats.SubScope("admission")
	return &gate{
		inflight: make(map[int64]struct{}),
		rejected: scope.Counter("rejected"),
		held:     scope.Gauge("held_slots"),
	}
}

func (g *gate) TryAcquire(chatID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.inflight[chatID]; ok {
		g.rejected.Inc(1)
		return false
	}
	g.inflight[chatID] = struct{}{}
	g.held.Update(float64(len(g.inflight)))
	return true
}

func (g *gate) Release(chatID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.inflight, chatID)
	g.held.Update(float64(len(g.inflight)))
}
