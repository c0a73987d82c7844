package ringbuffer

import "testing"

func TestBackoffYieldPeriod(t *testing.T) {
	var bo Backoff

	for i := 0; i < 10_000; i++ {
		bo.Wait()
		if bo.next != 0 && (bo.next < goschedEvery/2 || bo.next >= goschedEvery/2+goschedEvery) {
			t.Fatalf("yield period %d out of range", bo.next)
		}
		if bo.spins >= goschedEvery/2+goschedEvery {
			t.Fatalf("spins %d never reset", bo.spins)
		}
	}

	bo.Reset()
	if bo.spins != 0 || bo.next != 0 {
		t.Fatalf("expected zero state after Reset, got %+v", bo)
	}
}
