package aeon

import "testing"

func TestGlobalQueue_FIFOOrder(t *testing.T) {
	t.Parallel()

	q := newGlobalQueue(16)
	a, b, c := &Task{id: 1}, &Task{id: 2}, &Task{id: 3}
	q.push(a)
	q.push(b)
	q.push(c)

	if got := q.pop(); got != a {
		t.Fatalf("pop() = task %d, want 1", got.id)
	}
	if got := q.pop(); got != b {
		t.Fatalf("pop() = task %d, want 2", got.id)
	}
	if got := q.pop(); got != c {
		t.Fatalf("pop() = task %d, want 3", got.id)
	}
	if got := q.pop(); got != nil {
		t.Fatalf("pop() on empty queue = %v, want nil", got)
	}
}

func TestGlobalQueue_GrowsPastInitialCapacity(t *testing.T) {
	t.Parallel()

	q := newGlobalQueue(4)
	const n = 100
	for i := 0; i < n; i++ {
		q.push(&Task{id: TaskID(i)})
	}
	if got := q.Len(); got != n {
		t.Fatalf("Len() = %d, want %d", got, n)
	}
	for i := 0; i < n; i++ {
		got := q.pop()
		if got == nil || got.id != TaskID(i) {
			t.Fatalf("pop() #%d = %v, want task %d", i, got, i)
		}
	}
}

func TestGlobalQueue_PopBatch(t *testing.T) {
	t.Parallel()

	q := newGlobalQueue(16)
	for i := 0; i < 5; i++ {
		q.push(&Task{id: TaskID(i)})
	}
	batch := q.popBatch(3)
	if len(batch) != 3 {
		t.Fatalf("popBatch(3) returned %d tasks, want 3", len(batch))
	}
	if q.Len() != 2 {
		t.Fatalf("Len() after popBatch = %d, want 2", q.Len())
	}
	rest := q.popBatch(10)
	if len(rest) != 2 {
		t.Fatalf("popBatch(10) on a 2-element queue returned %d, want 2", len(rest))
	}
}
