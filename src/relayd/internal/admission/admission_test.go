package admission

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	tally "github.com/uber-go/tally/v4"
)

func newTestGate() Gate {
	return New(Params{Stats: tally.NewTestScope("testing", make(map[string]string, 0))})
}

func TestTryAcquire(t *testing.T) {
	t.Run("second acquire denied", func(t *testing.T) {
		g := newTestGate()
		assert.True(t, g.TryAcquire(42))
		assert.False(t, g.TryAcquire(42))
	})

	t.Run("release frees the slot", func(t *testing.T) {
		g := newTestGate()
		assert.True(t, g.TryAcquire(42))
		g.Release(42)
		assert.True(t, g.TryAcquire(42))
	})

	t.Run("chats are independent", func(t *testing.T) {
		g := newTestGate()
		assert.True(t, g.TryAcquire(42))
		assert.True(t, g.TryAcquire(43))
		assert.False(t, g.TryAcquire(42))
		assert.False(t, g.TryAcquire(43))
	})
}

func TestReleaseIdempotent(t *testing.T) {
	g := newTestGate()
	g.Release(42)
	g.Release(42)
	assert.True(t, g.TryAcquire(42))
	g.Release(42)
	g.Release(42)
	assert.True(t, g.TryAcquire(42))
}

func TestConcurrentAcquire(t *testing.T) {
	g := newTestGate()

	const attempts = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire(42) {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, granted)
}

func TestRejectedCounter(t *testing.T) {
	scope := tally.NewTestScope("testing", make(map[string]string, 0))
	g := New(Params{Stats: scope})

	g.TryAcquire(42)
	g.TryAcquire(42)
	g.TryAcquire(42)

	counters := scope.Snapshot().Counters()
	assert.Equal(t, int64(2), counters["testing.admission.rejected+"].Value())
}
