package sharedptr

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicZeroValue(t *testing.T) {
	var a Atomic[payload]

	p := a.Load()
	assert.True(t, p.IsNil())
	assert.NoError(t, a.Release())
}

func TestAtomicStoreLoad(t *testing.T) {
	v1, v2 := &payload{id: 1}, &payload{id: 2}

	p1 := New(v1)
	a := NewAtomic(&p1)
	assert.True(t, p1.IsNil())

	l := a.Load()
	assert.Same(t, v1, l.Get())
	assert.Equal(t, int64(2), l.RefCount())

	p2 := New(v2)
	require.NoError(t, a.Store(&p2))
	assert.True(t, p2.IsNil())
	// The slot gave up v1, but l still owns it.
	assert.Equal(t, int32(0), v1.closed.Load())
	assert.Equal(t, int64(1), l.RefCount())

	require.NoError(t, l.Release())
	assert.Equal(t, int32(1), v1.closed.Load())

	require.NoError(t, a.Release())
	assert.Equal(t, int32(1), v2.closed.Load())
	assert.True(t, a.Load().IsNil())
}

func TestAtomicSwap(t *testing.T) {
	v1, v2 := &payload{id: 1}, &payload{id: 2}
	p1, p2 := New(v1), New(v2)
	a := NewAtomic(&p1)

	old := a.Swap(&p2)
	assert.Same(t, v1, old.Get())
	assert.Equal(t, int64(1), old.RefCount())
	assert.Equal(t, int32(0), v1.closed.Load())

	require.NoError(t, old.Release())
	assert.Equal(t, int32(1), v1.closed.Load())
	require.NoError(t, a.Release())
	assert.Equal(t, int32(1), v2.closed.Load())
}

func TestAtomicCompareAndSwap(t *testing.T) {
	v1, v2, v3 := &payload{id: 1}, &payload{id: 2}, &payload{id: 3}
	p1 := New(v1)
	a := NewAtomic(&p1)

	cur := a.Load()
	stale := New(v3)

	next := New(v2)
	ok, err := a.CompareAndSwap(stale, &next)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, next.IsNil())

	ok, err = a.CompareAndSwap(cur, &next)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, next.IsNil())
	assert.Equal(t, int64(1), cur.RefCount())

	require.NoError(t, cur.Release())
	require.NoError(t, stale.Release())
	require.NoError(t, a.Release())
	for _, v := range []*payload{v1, v2, v3} {
		assert.Equal(t, int32(1), v.closed.Load(), "payload %d", v.id)
	}
}

// Writers keep replacing the slot while readers load from it. No reader may
// observe a closed value and every value is closed exactly once.
func TestAtomicConcurrentStoreLoad(t *testing.T) {
	const (
		writers = 4
		readers = 8
		stores  = 2_000
	)

	var (
		mu  sync.Mutex
		all []*payload
	)
	track := func(id int) *payload {
		v := &payload{id: id}
		mu.Lock()
		all = append(all, v)
		mu.Unlock()
		return v
	}

	first := New(track(-1))
	a := NewAtomic(&first)

	var stop atomic.Bool
	var rg sync.WaitGroup
	rg.Add(readers)
	for r := 0; r < readers; r++ {
		go func() {
			defer rg.Done()
			for !stop.Load() {
				p := a.Load()
				if v := p.Get(); v == nil || v.closed.Load() != 0 {
					t.Errorf("loaded unusable value %+v", v)
				}
				if err := p.Release(); err != nil {
					t.Errorf("release: %v", err)
				}
			}
		}()
	}

	var wg sync.WaitGroup
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < stores; i++ {
				p := New(track(w*stores + i))
				if err := a.Store(&p); err != nil {
					t.Errorf("store: %v", err)
				}
			}
		}(w)
	}

	wg.Wait()
	stop.Store(true)
	rg.Wait()

	require.NoError(t, a.Release())
	require.Len(t, all, writers*stores+1)
	for _, v := range all {
		require.Equal(t, int32(1), v.closed.Load(), "payload %d", v.id)
	}
}
