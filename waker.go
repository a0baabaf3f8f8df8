package aeon

import "sync/atomic"

// wakeable is the capability a Waker invokes to re-enqueue a suspended
// task. It is implemented by *Task; other components (the reactor, the
// timer wheel) hold a Waker, never a wakeable directly, keeping the
// reference direction one-way (Waker -> Task, never Task -> Waker) per
// the cyclic-reference discipline in SPEC_FULL.md's design notes.
type wakeable interface {
	wake()
}

// Waker is an opaque capability: a reference to a suspended task's wake
// target. wake/wakeByRef are safe to call concurrently and are idempotent
// within a single pending cycle (the target task transitions Waiting ->
// Runnable at most once per wake window; redundant wakes are dropped by
// the CAS in Task.wake).
type Waker struct {
	target  wakeable
	dropped *atomic.Bool
}

// newWaker returns a Waker referring to target. Every Waker obtained this
// way (including via Clone) must eventually have Drop called on it once
// it is no longer retained, releasing the task's outstanding-waker
// refcount.
func newWaker(target wakeable) Waker {
	if t, ok := target.(*Task); ok {
		t.refCount.Add(1)
	}
	var dropped atomic.Bool
	return Waker{target: target, dropped: &dropped}
}

// noopWaker is the package-level no-op Waker singleton: always
// constructible, referring to nothing, satisfying spec.md's requirement
// that a no-op Waker is always available (used by await_fn's fast-poll
// phase and by tests that don't care about being woken).
var noopWaker = Waker{}

// NoopWaker returns the shared no-op Waker. Waking it is a safe no-op.
func NoopWaker() Waker { return noopWaker }

// IsNoop reports whether w refers to no task.
func (w Waker) IsNoop() bool { return w.target == nil }

// Wake consumes w, scheduling the target task. Every call invokes the
// target; for a Task target, Task.wake's CAS makes a repeated wake within
// one pending cycle a no-op. The distinction between Wake and WakeByRef
// only matters in languages
// where Wake takes ownership and WakeByRef borrows — in Go both simply
// invoke the target.
func (w Waker) Wake() {
	if w.target != nil {
		w.target.wake()
	}
}

// WakeByRef wakes the target without implying consumption of w; w remains
// usable afterward.
func (w Waker) WakeByRef() { w.Wake() }

// Clone returns an independent Waker referring to the same task. The
// clone must be dropped independently of the original.
func (w Waker) Clone() Waker {
	if w.target == nil {
		return w
	}
	if t, ok := w.target.(*Task); ok {
		t.refCount.Add(1)
	}
	d := &atomic.Bool{}
	return Waker{target: w.target, dropped: d}
}

// Drop releases this Waker's reference to its target task. Each clone
// has its own dropped flag; a second Drop of the same Waker value (or a
// copy of it) is a no-op.
func (w Waker) Drop() {
	if w.target == nil || w.dropped == nil {
		return
	}
	if !w.dropped.CompareAndSwap(false, true) {
		return
	}
	if t, ok := w.target.(*Task); ok {
		t.refCount.Add(-1)
	}
}
