package aeon

import "testing"

func TestBudget_ShouldYield(t *testing.T) {
	t.Parallel()

	b := NewBudget(2)
	if b.ShouldYield() {
		t.Fatal("ShouldYield() true with budget remaining")
	}
	if b.ShouldYield() {
		t.Fatal("ShouldYield() true with budget remaining")
	}
	if !b.ShouldYield() {
		t.Fatal("ShouldYield() false after budget exhausted")
	}
	if !b.ShouldYield() {
		t.Fatal("ShouldYield() should stay true once exhausted")
	}
}

func TestBudget_NilNeverYields(t *testing.T) {
	t.Parallel()

	var b *Budget
	for i := 0; i < 1000; i++ {
		if b.ShouldYield() {
			t.Fatal("nil Budget yielded")
		}
	}
}

func TestContext_Accessors(t *testing.T) {
	t.Parallel()

	w := NoopWaker()
	b := NewBudget(DefaultBudget)
	ctx := NewContext(w, TaskID(5), b)

	if ctx.TaskID() != 5 {
		t.Fatalf("TaskID() = %d, want 5", ctx.TaskID())
	}
	if !ctx.Waker().IsNoop() {
		t.Fatal("Waker() did not round-trip the no-op waker")
	}
	for i := int32(0); i < DefaultBudget; i++ {
		if ctx.ShouldYield() {
			t.Fatalf("ShouldYield() true early, at tick %d", i)
		}
	}
	if !ctx.ShouldYield() {
		t.Fatal("ShouldYield() false after the budget should be exhausted")
	}
}

func TestContext_NilShouldYield(t *testing.T) {
	t.Parallel()

	var ctx *Context
	if ctx.ShouldYield() {
		t.Fatal("nil *Context.ShouldYield() returned true")
	}
}
