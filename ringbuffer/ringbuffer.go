// Package ringbuffer provides a bounded, lock-free, multi-producer
// multi-consumer FIFO queue with try-style (non-blocking) operations.
//
// Slot ownership follows the per-slot sequence protocol of Dmitry Vyukov's
// bounded MPMC queue:
// https://www.1024cores.net/home/lock-free-algorithms/queues/bounded-mpmc-queue
//
// A position is claimed with a CAS on the head or tail index before the slot
// payload is touched, and the slot sequence publishes the payload to the other
// side. Every operation makes exactly one attempt; callers own the retry policy
// (see Backoff).
package ringbuffer

import (
	"errors"
	"sync/atomic"
)

var (
	// ErrInvalidCapacity is returned when a capacity is zero or not a power of two.
	ErrInvalidCapacity = errors.New("capacity must be power of 2 and > 0")
	// ErrQueueIsFull means the slot at the tail has not been freed by a consumer yet.
	ErrQueueIsFull = errors.New("queue is full")
	// ErrQueueIsEmpty means no producer has published the slot at the head yet.
	ErrQueueIsEmpty = errors.New("queue is empty")
	// ErrContended means another goroutine moved the index first, or the slot
	// is in an intermediate state. Retrying may succeed.
	ErrContended = errors.New("lost race for slot")
)

type slot[T any] struct {
	seq atomic.Uint64 // sequence number (controls visibility and slot ownership)
	val T             // actual value stored in this slot
}

func isPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}
