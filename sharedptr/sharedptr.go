// Package sharedptr provides reference-counted shared ownership of a heap
// value with an atomic reference count.
//
// A Ptr is a handle: every owner holds its own Ptr obtained through New,
// Clone or Move, and gives it up with Release. When the last owner releases,
// the value is dropped and, if it implements io.Closer, closed exactly once.
//
// Two levels of thread safety are offered:
//
//   - Ptr: any number of goroutines may Clone and Release sibling handles that
//     share a value. A single Ptr variable must not be mutated (Assign,
//     MoveFrom, Release, Reset, Move) concurrently with any other access to it.
//   - Atomic: a handle slot that may be loaded and replaced in place from many
//     goroutines.
//
// The pointee itself is not synchronized.
package sharedptr

import (
	"io"
	"sync/atomic"
)

// control pairs the value with its count so the two are never copied apart.
type control[T any] struct {
	value *T
	refs  atomic.Int64
}

func (c *control[T]) acquire() {
	c.refs.Add(1)
}

// tryAcquire takes a reference unless the count already dropped to zero.
func (c *control[T]) tryAcquire() bool {
	for {
		n := c.refs.Load()
		if n <= 0 {
			return false
		}
		if c.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (c *control[T]) release() error {
	n := c.refs.Add(-1)
	if n > 0 {
		return nil
	}
	if n < 0 {
		panic("sharedptr: negative reference count (handle copied without Clone?)")
	}

	v := c.value
	c.value = nil
	if closer, ok := any(v).(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Ptr is a shared-ownership handle. The zero value is an empty handle.
// Copy a Ptr with Clone, never with plain assignment.
type Ptr[T any] struct {
	ctl *control[T]
}

// New takes ownership of v and returns the first handle to it, with a
// reference count of one. New(nil) returns an empty handle.
func New[T any](v *T) Ptr[T] {
	if v == nil {
		return Ptr[T]{}
	}
	c := &control[T]{value: v}
	c.acquire()
	return Ptr[T]{ctl: c}
}

// Clone returns a new handle sharing p's value and increments the count.
func (p Ptr[T]) Clone() Ptr[T] {
	if p.ctl != nil {
		p.ctl.acquire()
	}
	return p
}

// Move transfers p's reference to the returned handle and empties p.
// The count is unchanged.
func (p *Ptr[T]) Move() Ptr[T] {
	m := Ptr[T]{ctl: p.ctl}
	p.ctl = nil
	return m
}

// Release drops p's reference and empties p. If it was the last reference the
// value is closed and the error from Close is returned.
// Releasing an empty handle is a no-op.
func (p *Ptr[T]) Release() error {
	c := p.ctl
	if c == nil {
		return nil
	}
	p.ctl = nil
	return c.release()
}

// Assign makes p share src's value, releasing whatever p held before.
// Assigning a handle that already shares p's value changes nothing.
func (p *Ptr[T]) Assign(src Ptr[T]) error {
	if p.ctl == src.ctl {
		return nil
	}
	if src.ctl != nil {
		src.ctl.acquire()
	}
	old := p.ctl
	p.ctl = src.ctl
	if old != nil {
		return old.release()
	}
	return nil
}

// MoveFrom transfers src's reference into p and empties src, releasing
// whatever p held before. MoveFrom(p) is a no-op.
func (p *Ptr[T]) MoveFrom(src *Ptr[T]) error {
	if src == p {
		return nil
	}
	old := p.ctl
	p.ctl = src.ctl
	src.ctl = nil
	if old != nil {
		return old.release()
	}
	return nil
}

// Reset releases p's reference and takes ownership of v.
// v must not already be owned by another handle.
func (p *Ptr[T]) Reset(v *T) error {
	n := New(v)
	return p.MoveFrom(&n)
}

// Get returns the shared value without taking a reference, or nil for an
// empty handle.
func (p Ptr[T]) Get() *T {
	if p.ctl == nil {
		return nil
	}
	return p.ctl.value
}

// Deref returns the shared value. It panics on an empty handle.
func (p Ptr[T]) Deref() *T {
	if p.ctl == nil {
		panic("sharedptr: dereference of empty Ptr")
	}
	return p.ctl.value
}

// RefCount returns the number of handles sharing p's value, or 0 for an empty
// handle. Other goroutines may change the count at any time.
func (p Ptr[T]) RefCount() int64 {
	if p.ctl == nil {
		return 0
	}
	return p.ctl.refs.Load()
}

// IsNil reports whether p is empty.
func (p Ptr[T]) IsNil() bool {
	return p.ctl == nil
}

// Equal reports whether p and o refer to the same value (identity, not
// value equality). Two empty handles are equal.
func (p Ptr[T]) Equal(o Ptr[T]) bool {
	return p.Get() == o.Get()
}
