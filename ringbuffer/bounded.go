package ringbuffer

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// BoundedQueue is a fixed-capacity MPMC ring queue.
// Enqueue and Dequeue may be called concurrently from any number of goroutines.
type BoundedQueue[T any] struct {
	_        cpu.CacheLinePad
	mask     uint64
	capacity uint64
	slots    []slot[T]
	_        cpu.CacheLinePad
	tail     atomic.Uint64 // next logical position for producers
	_        cpu.CacheLinePad
	head     atomic.Uint64 // next logical position for consumers
	_        cpu.CacheLinePad

	stats counters
}

// NewBoundedQueue creates a bounded queue holding up to capacity elements.
// capacity must be a power of two (1<<k).
func NewBoundedQueue[T any](capacity uint64) (*BoundedQueue[T], error) {
	if !isPowerOfTwo(capacity) {
		return nil, fmt.Errorf("ringbuffer: capacity %d: %w", capacity, ErrInvalidCapacity)
	}

	slots := make([]slot[T], capacity)
	for i := uint64(0); i < capacity; i++ {
		// initial sequence for each slot matches its index
		slots[i].seq.Store(i)
	}

	return &BoundedQueue[T]{
		mask:     capacity - 1,
		capacity: capacity,
		slots:    slots,
	}, nil
}

// MustBoundedQueue is like NewBoundedQueue but panics on an invalid capacity.
func MustBoundedQueue[T any](capacity uint64) *BoundedQueue[T] {
	q, err := NewBoundedQueue[T](capacity)
	if err != nil {
		panic(err)
	}
	return q
}

// Enqueue pushes v into the queue.
// Returns false if the queue is full or the attempt lost a race with another
// producer; in both cases v is not stored and the caller may retry.
func (q *BoundedQueue[T]) Enqueue(v T) bool {
	return q.TryEnqueue(v) == nil
}

// TryEnqueue is like Enqueue but reports why the attempt failed:
// ErrQueueIsFull or ErrContended.
func (q *BoundedQueue[T]) TryEnqueue(v T) error {
	q.stats.enqueueAttempts.Add(1)

	pos := q.tail.Load()
	s := &q.slots[pos&q.mask]

	seq := s.seq.Load()
	diff := int64(seq) - int64(pos)

	switch {
	case diff < 0:
		// consumer has not freed this slot since the previous lap
		q.stats.enqueueFull.Add(1)
		return ErrQueueIsFull
	case diff > 0:
		// another producer already claimed pos; our view of tail is stale
		q.stats.enqueueContended.Add(1)
		return ErrContended
	}

	if !q.tail.CompareAndSwap(pos, pos+1) {
		q.stats.enqueueContended.Add(1)
		return ErrContended
	}

	// The slot is ours: nobody else can write it until seq moves.
	s.val = v
	s.seq.Store(pos + 1)

	q.stats.enqueued.Add(1)
	return nil
}

// Dequeue pops the oldest element.
// Returns (zero, false) if the queue is empty or the attempt lost a race with
// another consumer.
func (q *BoundedQueue[T]) Dequeue() (T, bool) {
	v, err := q.TryDequeue()
	return v, err == nil
}

// TryDequeue is like Dequeue but reports why the attempt failed:
// ErrQueueIsEmpty or ErrContended.
func (q *BoundedQueue[T]) TryDequeue() (T, error) {
	var zero T
	q.stats.dequeueAttempts.Add(1)

	pos := q.head.Load()
	s := &q.slots[pos&q.mask]

	seq := s.seq.Load()
	diff := int64(seq) - int64(pos+1)

	switch {
	case diff < 0:
		// nothing published at pos yet
		q.stats.dequeueEmpty.Add(1)
		return zero, ErrQueueIsEmpty
	case diff > 0:
		// another consumer already took pos
		q.stats.dequeueContended.Add(1)
		return zero, ErrContended
	}

	if !q.head.CompareAndSwap(pos, pos+1) {
		q.stats.dequeueContended.Add(1)
		return zero, ErrContended
	}

	v := s.val
	s.val = zero
	// Free the slot for the next lap: it will be used at pos+capacity.
	s.seq.Store(pos + q.capacity)

	q.stats.dequeued.Add(1)
	return v, nil
}

// Drain dequeues until the queue reports empty, passing every element to fn.
// Contended attempts are retried. It returns the number of drained elements.
func (q *BoundedQueue[T]) Drain(fn func(T)) int {
	var (
		n  int
		bo Backoff
	)
	for {
		v, err := q.TryDequeue()
		switch err {
		case nil:
			if fn != nil {
				fn(v)
			}
			n++
			bo.Reset()
		case ErrQueueIsEmpty:
			return n
		default:
			bo.Wait()
		}
	}
}

// Len returns the number of elements in the queue.
// The value is a snapshot and may be stale by the time it is used.
func (q *BoundedQueue[T]) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail <= head {
		return 0
	}
	if n := tail - head; n < q.capacity {
		return int(n)
	}
	return int(q.capacity)
}

// Capacity returns the fixed queue capacity.
func (q *BoundedQueue[T]) Capacity() uint64 {
	return q.capacity
}
