package aeon

import "testing"

func TestCompletionBridge_CompleteTransitionsToReady(t *testing.T) {
	t.Parallel()

	b := &CompletionBridge{}
	waked := &countingWakeable{}
	b.SetWaker(newWaker(waked))

	b.complete(42, nil)

	if b.State() != BridgeReady {
		t.Fatalf("State() = %v, want BridgeReady", b.State())
	}
	n, err := b.Result()
	if n != 42 || err != nil {
		t.Fatalf("Result() = (%d, %v), want (42, nil)", n, err)
	}
	if waked.count != 1 {
		t.Fatalf("waker invoked %d times, want 1", waked.count)
	}
}

func TestCompletionBridge_CompleteWithErrorTransitionsToError(t *testing.T) {
	t.Parallel()

	b := &CompletionBridge{}
	b.complete(0, ErrCancelled)

	if b.State() != BridgeError {
		t.Fatalf("State() = %v, want BridgeError", b.State())
	}
	_, err := b.Result()
	if err != ErrCancelled {
		t.Fatalf("Result() err = %v, want ErrCancelled", err)
	}
}

func TestCompletionBridge_CompleteIsAtMostOnce(t *testing.T) {
	t.Parallel()

	b := &CompletionBridge{}
	waked := &countingWakeable{}
	b.SetWaker(newWaker(waked))

	b.complete(1, nil)
	b.complete(2, nil)
	b.completeTimeout()
	b.cancel()

	if b.State() != BridgeReady {
		t.Fatalf("State() = %v, want BridgeReady (first transition wins)", b.State())
	}
	n, _ := b.Result()
	if n != 1 {
		t.Fatalf("Result() n = %d, want 1 (later completes ignored)", n)
	}
	if waked.count != 1 {
		t.Fatalf("waker invoked %d times, want 1 (subsequent completes must not re-wake)", waked.count)
	}
}

func TestCompletionBridge_CompleteTimeout(t *testing.T) {
	t.Parallel()

	b := &CompletionBridge{}
	b.completeTimeout()

	if b.State() != BridgeTimeout {
		t.Fatalf("State() = %v, want BridgeTimeout", b.State())
	}
	_, err := b.Result()
	if err != ErrElapsed {
		t.Fatalf("Result() err = %v, want ErrElapsed", err)
	}
}

func TestCompletionBridge_Cancel(t *testing.T) {
	t.Parallel()

	b := &CompletionBridge{}
	b.cancel()

	if b.State() != BridgeError {
		t.Fatalf("State() = %v, want BridgeError", b.State())
	}
	_, err := b.Result()
	if err != ErrCancelled {
		t.Fatalf("Result() err = %v, want ErrCancelled", err)
	}
}

func TestCompletionBridge_SetWakerDropsPrevious(t *testing.T) {
	t.Parallel()

	b := &CompletionBridge{}
	first := &countingWakeable{}
	second := &countingWakeable{}

	b.SetWaker(newWaker(first))
	b.SetWaker(newWaker(second))
	b.complete(0, nil)

	if first.count != 0 {
		t.Fatalf("first waker invoked %d times, want 0 (replaced before completion)", first.count)
	}
	if second.count != 1 {
		t.Fatalf("second waker invoked %d times, want 1", second.count)
	}
}

func TestBridgeTable_AllocateLookupRelease(t *testing.T) {
	t.Parallel()

	tbl := newBridgeTable()
	b1 := tbl.allocate(1)
	b2 := tbl.allocate(2)

	if b1.Handle() == b2.Handle() {
		t.Fatal("allocate() returned two bridges with the same handle")
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}

	got, ok := tbl.lookup(b1.Handle())
	if !ok || got != b1 {
		t.Fatalf("lookup(%v) = (%v, %v), want (b1, true)", b1.Handle(), got, ok)
	}

	tbl.release(b1.Handle())
	if tbl.Len() != 1 {
		t.Fatalf("Len() after release = %d, want 1", tbl.Len())
	}
	if _, ok := tbl.lookup(b1.Handle()); ok {
		t.Fatal("lookup() found a released handle")
	}
}
