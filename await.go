package aeon

import (
	"runtime"
	"sync"
	"time"
)

// Await drives f to completion on the calling goroutine, per spec.md
// §4.8's three-phase await_fn: a bounded run of no-op fast polls first
// (catches a Future that completes immediately or after a couple of
// internal steps without the overhead of a full park/wake cycle), then
// either an event-driven wait with no deadline when rt is non-nil (park
// until the reactor or a waker signals progress), or, when rt is nil, a
// synchronous fallback loop bounded by a fixed 500ms deadline.
//
// Go has no native coroutines, so phase 2's mechanism (the only
// language-specific piece; the phase structure itself is not) is
// realized here as a goroutine-parking eventCompletion: a mutex-guarded
// "signalled" flag plus a condition variable, woken by a real Waker
// exactly like any other suspended task (see DESIGN.md, Open Question
// 1). Phase 3 (spec.md §4.8 step 3) only applies when rt is nil: with
// no reactor to drive the child Future's progress, waiting on its
// Waker indefinitely risks never returning, so the wait is bounded by
// a hard deadline instead, returning T's zero value on expiry.
func Await[T any](rt *Runtime, f Future[T]) T {
	const fastPollAttempts = 8
	const fallbackDeadline = 500 * time.Millisecond

	fastCtx := NewContext(NoopWaker(), 0, nil)
	for i := 0; i < fastPollAttempts; i++ {
		if p := f.Poll(fastCtx); p.IsReady() {
			v, _ := p.Value()
			return v
		}
		runtime.Gosched()
	}

	ec := newEventCompletion()
	w := newWaker(ec)
	ctx := NewContext(w, 0, nil)

	if rt != nil {
		for {
			if p := f.Poll(ctx); p.IsReady() {
				w.Drop()
				v, _ := p.Value()
				return v
			}
			// Give the shared reactor a chance to make progress while we
			// wait, covering the case where nothing else is driving it
			// (e.g. Await called from outside any worker goroutine).
			_, _ = rt.reactor.RunOnce(10 * time.Millisecond)
			ec.waitOrTimeout(10 * time.Millisecond)
		}
	}

	deadline := time.Now().Add(fallbackDeadline)
	for {
		if p := f.Poll(ctx); p.IsReady() {
			w.Drop()
			v, _ := p.Value()
			return v
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			w.Drop()
			logWarn("await: fallback deadline elapsed with no runtime installed")
			var zero T
			return zero
		}
		wait := 10 * time.Millisecond
		if remaining < wait {
			wait = remaining
		}
		ec.waitOrTimeout(wait)
	}
}

// eventCompletion is the parking primitive behind phase 2: wake() signals
// a condition variable; waitOrTimeout blocks until signalled or until
// the given duration elapses, whichever comes first, so Await's loop
// always gets a chance to re-poll even under a missed wakeup (the
// synchronous fallback's timeout bound).
type eventCompletion struct {
	mu        sync.Mutex
	cond      *sync.Cond
	signalled bool
}

func newEventCompletion() *eventCompletion {
	e := &eventCompletion{}
	e.cond = sync.NewCond(&e.mu)
	return e
}

func (e *eventCompletion) wake() {
	e.mu.Lock()
	e.signalled = true
	e.mu.Unlock()
	e.cond.Signal()
}

func (e *eventCompletion) waitOrTimeout(d time.Duration) {
	timer := time.AfterFunc(d, e.cond.Signal)
	defer timer.Stop()

	e.mu.Lock()
	if !e.signalled {
		e.cond.Wait()
	}
	e.signalled = false
	e.mu.Unlock()
}
