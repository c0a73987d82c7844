package ringmetrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aradilov/lockfree/ringbuffer"
)

func TestCollector(t *testing.T) {
	q := ringbuffer.MustBoundedQueue[int](4)
	for i := 0; i < 5; i++ {
		q.Enqueue(i) // the fifth attempt reports full
	}
	q.Dequeue()

	c := NewCollector("jobs", q)

	expected := `
# HELP lockfree_ring_capacity Fixed queue capacity
# TYPE lockfree_ring_capacity gauge
lockfree_ring_capacity{queue="jobs"} 4
# HELP lockfree_ring_dequeue_total Dequeue attempts by result (ok, empty, contended)
# TYPE lockfree_ring_dequeue_total counter
lockfree_ring_dequeue_total{queue="jobs",result="contended"} 0
lockfree_ring_dequeue_total{queue="jobs",result="empty"} 0
lockfree_ring_dequeue_total{queue="jobs",result="ok"} 1
# HELP lockfree_ring_enqueue_total Enqueue attempts by result (ok, full, contended)
# TYPE lockfree_ring_enqueue_total counter
lockfree_ring_enqueue_total{queue="jobs",result="contended"} 0
lockfree_ring_enqueue_total{queue="jobs",result="full"} 1
lockfree_ring_enqueue_total{queue="jobs",result="ok"} 4
# HELP lockfree_ring_length Number of elements in the queue at scrape time
# TYPE lockfree_ring_length gauge
lockfree_ring_length{queue="jobs"} 3
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
	assert.Equal(t, 8, testutil.CollectAndCount(c))
}

func TestRegister(t *testing.T) {
	registry := prometheus.NewRegistry()
	q := ringbuffer.MustBoundedQueue[string](8)

	_, err := Register(registry, "events", q)
	require.NoError(t, err)

	// Same queue name twice collides on identical descriptors.
	_, err = Register(registry, "events", q)
	assert.Error(t, err)

	_, err = Register(registry, "other", q)
	assert.NoError(t, err)

	q.Enqueue("a")
	n, err := testutil.GatherAndCount(registry, "lockfree_ring_length")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
