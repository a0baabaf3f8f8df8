package aeon

import "testing"

func TestLocalDeque_PushPopLIFO(t *testing.T) {
	t.Parallel()

	d := newLocalDeque(8)
	a, b, c := &Task{id: 1}, &Task{id: 2}, &Task{id: 3}

	if !d.pushBottom(a) || !d.pushBottom(b) || !d.pushBottom(c) {
		t.Fatal("pushBottom failed within capacity")
	}

	if got := d.popBottom(); got != c {
		t.Fatalf("popBottom() = task %d, want 3 (LIFO order)", got.id)
	}
	if got := d.popBottom(); got != b {
		t.Fatalf("popBottom() = task %d, want 2", got.id)
	}
	if got := d.popBottom(); got != a {
		t.Fatalf("popBottom() = task %d, want 1", got.id)
	}
	if got := d.popBottom(); got != nil {
		t.Fatalf("popBottom() on empty deque = %v, want nil", got)
	}
}

func TestLocalDeque_StealFIFO(t *testing.T) {
	t.Parallel()

	d := newLocalDeque(8)
	tasks := []*Task{{id: 1}, {id: 2}, {id: 3}, {id: 4}}
	for _, tk := range tasks {
		d.pushBottom(tk)
	}

	stolen := d.steal(2)
	if len(stolen) != 2 {
		t.Fatalf("steal(2) returned %d tasks, want 2", len(stolen))
	}
	if stolen[0].id != 1 || stolen[1].id != 2 {
		t.Fatalf("steal order = [%d %d], want [1 2] (oldest first)", stolen[0].id, stolen[1].id)
	}
	if got := d.len(); got != 2 {
		t.Fatalf("len() after steal = %d, want 2", got)
	}
}

func TestLocalDeque_PushBottomRejectsAtCapacity(t *testing.T) {
	t.Parallel()

	d := newLocalDeque(2)
	if !d.pushBottom(&Task{id: 1}) {
		t.Fatal("first pushBottom failed")
	}
	if !d.pushBottom(&Task{id: 2}) {
		t.Fatal("second pushBottom failed")
	}
	if d.pushBottom(&Task{id: 3}) {
		t.Fatal("pushBottom succeeded beyond capacity")
	}
}

func TestLocalDeque_NewPanicsOnNonPowerOfTwo(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("newLocalDeque(3) did not panic")
		}
	}()
	newLocalDeque(3)
}

func TestLocalDeque_StealOnEmptyReturnsNil(t *testing.T) {
	t.Parallel()

	d := newLocalDeque(8)
	if got := d.steal(4); got != nil {
		t.Fatalf("steal on empty deque = %v, want nil", got)
	}
}
