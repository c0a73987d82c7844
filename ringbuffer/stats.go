package ringbuffer

import "sync/atomic"

type counters struct {
	enqueueAttempts  atomic.Uint64
	enqueued         atomic.Uint64
	enqueueFull      atomic.Uint64
	enqueueContended atomic.Uint64

	dequeueAttempts  atomic.Uint64
	dequeued         atomic.Uint64
	dequeueEmpty     atomic.Uint64
	dequeueContended atomic.Uint64
}

// Stats is a snapshot of a queue's operation counters.
// Counters are read one by one, so a snapshot taken under load is not
// guaranteed to be internally consistent.
type Stats struct {
	EnqueueAttempts  uint64
	Enqueued         uint64
	EnqueueFull      uint64
	EnqueueContended uint64

	DequeueAttempts  uint64
	Dequeued         uint64
	DequeueEmpty     uint64
	DequeueContended uint64
}

// Stats retrieves the current statistics of the queue.
func (q *BoundedQueue[T]) Stats() Stats {
	return Stats{
		EnqueueAttempts:  q.stats.enqueueAttempts.Load(),
		Enqueued:         q.stats.enqueued.Load(),
		EnqueueFull:      q.stats.enqueueFull.Load(),
		EnqueueContended: q.stats.enqueueContended.Load(),
		DequeueAttempts:  q.stats.dequeueAttempts.Load(),
		Dequeued:         q.stats.dequeued.Load(),
		DequeueEmpty:     q.stats.dequeueEmpty.Load(),
		DequeueContended: q.stats.dequeueContended.Load(),
	}
}
