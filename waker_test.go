package aeon

import "testing"

type countingWakeable struct {
	count int
}

func (c *countingWakeable) wake() { c.count++ }

func TestWaker_NoopIsSafe(t *testing.T) {
	t.Parallel()

	w := NoopWaker()
	if !w.IsNoop() {
		t.Fatal("NoopWaker().IsNoop() == false")
	}
	w.Wake()
	w.WakeByRef()
	w.Clone().Drop()
	w.Drop()
}

func TestWaker_WakeInvokesTarget(t *testing.T) {
	t.Parallel()

	target := &countingWakeable{}
	w := newWaker(target)
	if w.IsNoop() {
		t.Fatal("Waker referring to a real target reported IsNoop() == true")
	}
	w.Wake()
	if target.count != 1 {
		t.Fatalf("target.count = %d, want 1", target.count)
	}
	w.WakeByRef()
	if target.count != 2 {
		t.Fatalf("target.count = %d, want 2", target.count)
	}
	w.Drop()
}

func TestWaker_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	target := &Task{}
	target.refCount.Store(1)
	w := newWaker(target)
	if got := target.refCount.Load(); got != 2 {
		t.Fatalf("refCount after newWaker = %d, want 2", got)
	}
	clone := w.Clone()
	if got := target.refCount.Load(); got != 3 {
		t.Fatalf("refCount after Clone = %d, want 3", got)
	}
	w.Drop()
	if got := target.refCount.Load(); got != 2 {
		t.Fatalf("refCount after original Drop = %d, want 2", got)
	}
	clone.Drop()
	if got := target.refCount.Load(); got != 1 {
		t.Fatalf("refCount after clone Drop = %d, want 1", got)
	}
}

func TestWaker_DropIsIdempotent(t *testing.T) {
	t.Parallel()

	target := &Task{}
	target.refCount.Store(1)
	w := newWaker(target)
	w.Drop()
	w.Drop()
	if got := target.refCount.Load(); got != 1 {
		t.Fatalf("refCount after double Drop = %d, want 1 (idempotent)", got)
	}
}
