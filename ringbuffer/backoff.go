package ringbuffer

import (
	"runtime"

	"github.com/valyala/fastrand"
)

const goschedEvery = 64 // reduce runtime.Gosched() frequency in hot loops

// Backoff paces a caller's retry loop around Enqueue/Dequeue.
// The zero value is ready to use. A Backoff must not be shared between goroutines.
//
//	var bo ringbuffer.Backoff
//	for !q.Enqueue(v) {
//		bo.Wait()
//	}
type Backoff struct {
	spins uint32
	next  uint32
}

// Wait burns one retry step. Every goschedEvery steps on average it yields the
// processor; the exact period is randomized so contending goroutines do not
// yield in lockstep.
func (b *Backoff) Wait() {
	if b.next == 0 {
		b.next = goschedEvery/2 + fastrand.Uint32n(goschedEvery)
	}
	b.spins++
	if b.spins >= b.next {
		b.spins = 0
		b.next = 0
		runtime.Gosched()
	}
}

// Reset forgets accumulated spins, typically after a successful attempt.
func (b *Backoff) Reset() {
	b.spins = 0
	b.next = 0
}
