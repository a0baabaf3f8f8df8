package aeon

import (
	"testing"
	"time"
)

func TestAwait_ResolvesWithinFastPollPhase(t *testing.T) {
	t.Parallel()

	got := Await[int](nil, readyFuture[int]{val: 11})
	if got != 11 {
		t.Fatalf("Await() = %d, want 11", got)
	}
}

// delayedFuture becomes Ready only after a fixed wall-clock delay. It
// hands a clone of the first Waker it is polled with to a background
// goroutine that wakes it once the delay elapses; under Await that first
// Waker is the fast-poll phase's no-op one, so with a nil runtime Await's
// bounded fallback loop finds it Ready by re-polling between its waits.
type delayedFuture struct {
	at   time.Time
	once bool
}

func (f *delayedFuture) Poll(ctx *Context) Poll[string] {
	if time.Now().After(f.at) {
		return Ready("done")
	}
	if !f.once {
		f.once = true
		w := ctx.Waker().Clone()
		go func() {
			time.Sleep(time.Until(f.at) + time.Millisecond)
			w.WakeByRef()
			w.Drop()
		}()
	}
	return Pend[string]()
}

func TestAwait_ResolvesViaNoRuntimeFallbackLoop(t *testing.T) {
	t.Parallel()

	f := &delayedFuture{at: time.Now().Add(50 * time.Millisecond)}
	got := Await[string](nil, f)
	if got != "done" {
		t.Fatalf("Await() = %q, want %q", got, "done")
	}
}

func TestAwait_NilRuntimeDoesNotPanic(t *testing.T) {
	t.Parallel()

	got := Await[int](nil, &countdownAwaitFuture{n: 3})
	if got != 0 {
		t.Fatalf("Await() = %d, want 0", got)
	}
}

type countdownAwaitFuture struct{ n int }

func (f *countdownAwaitFuture) Poll(ctx *Context) Poll[int] {
	if f.n <= 0 {
		return Ready(0)
	}
	f.n--
	w := ctx.Waker().Clone()
	go func() { w.WakeByRef(); w.Drop() }()
	return Pend[int]()
}

func TestEventCompletion_WaitOrTimeoutReturnsOnWake(t *testing.T) {
	t.Parallel()

	ec := newEventCompletion()
	start := time.Now()
	go func() {
		time.Sleep(5 * time.Millisecond)
		ec.wake()
	}()
	ec.waitOrTimeout(time.Second)
	if time.Since(start) >= time.Second {
		t.Fatal("waitOrTimeout did not return promptly on wake(), fell through to the full timeout")
	}
}

func TestEventCompletion_WaitOrTimeoutExpiresWithoutWake(t *testing.T) {
	t.Parallel()

	ec := newEventCompletion()
	start := time.Now()
	ec.waitOrTimeout(10 * time.Millisecond)
	if time.Since(start) < 10*time.Millisecond {
		t.Fatal("waitOrTimeout returned before its timeout elapsed with no wake()")
	}
}
