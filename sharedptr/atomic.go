package sharedptr

import "sync/atomic"

// Atomic is a handle slot that may be read and replaced concurrently.
// The slot owns one reference to the value it holds. The zero value is an
// empty slot.
type Atomic[T any] struct {
	ctl atomic.Pointer[control[T]]
}

// NewAtomic returns a slot that takes over p's reference. p is left empty.
func NewAtomic[T any](p *Ptr[T]) *Atomic[T] {
	a := &Atomic[T]{}
	a.ctl.Store(p.ctl)
	p.ctl = nil
	return a
}

// Load returns a new owning handle to the slot's current value, or an empty
// handle. The caller must Release it.
func (a *Atomic[T]) Load() Ptr[T] {
	for {
		c := a.ctl.Load()
		if c == nil {
			return Ptr[T]{}
		}
		// A failed tryAcquire means c was swapped out and fully released
		// between the two loads; the slot already holds something else.
		if c.tryAcquire() {
			return Ptr[T]{ctl: c}
		}
	}
}

// Store moves p's reference into the slot and releases the previous
// occupant. p is left empty.
func (a *Atomic[T]) Store(p *Ptr[T]) error {
	old := a.ctl.Swap(p.ctl)
	p.ctl = nil
	if old != nil {
		return old.release()
	}
	return nil
}

// Swap moves p's reference into the slot and returns the previous occupant,
// whose reference now belongs to the caller. p is left empty.
func (a *Atomic[T]) Swap(p *Ptr[T]) Ptr[T] {
	old := a.ctl.Swap(p.ctl)
	p.ctl = nil
	return Ptr[T]{ctl: old}
}

// CompareAndSwap replaces the slot's value with next's if the slot still holds
// old's value. On success next is left empty and the slot's reference to the
// previous value is released. old is never consumed.
func (a *Atomic[T]) CompareAndSwap(old Ptr[T], next *Ptr[T]) (bool, error) {
	if !a.ctl.CompareAndSwap(old.ctl, next.ctl) {
		return false, nil
	}
	next.ctl = nil
	if old.ctl != nil {
		return true, old.ctl.release()
	}
	return true, nil
}

// Release empties the slot, dropping its reference.
func (a *Atomic[T]) Release() error {
	var empty Ptr[T]
	return a.Store(&empty)
}
