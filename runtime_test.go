package aeon

import (
	"errors"
	"testing"
	"time"
)

func TestRuntime_SpawnBlockingResolves(t *testing.T) {
	t.Parallel()

	rt := New(NewConfig(WithWorkerThreads(1)))
	if err := rt.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer rt.Stop()

	h, err := SpawnBlocking(rt, func() (int, error) { return 42, nil })
	if err != nil {
		t.Fatalf("SpawnBlocking() error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		p := h.Poll(NewContext(NoopWaker(), 0, nil))
		if v, ok := p.Value(); ok {
			if v.Val != 42 || v.Err != nil {
				t.Fatalf("result = %+v, want Val=42", v)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("blocking task did not complete in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRuntime_SpawnBlockingPropagatesError(t *testing.T) {
	t.Parallel()

	rt := New(NewConfig(WithWorkerThreads(1)))
	if err := rt.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer rt.Stop()

	wantErr := errors.New("boom")
	h, err := SpawnBlocking(rt, func() (int, error) { return 0, wantErr })
	if err != nil {
		t.Fatalf("SpawnBlocking() error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		p := h.Poll(NewContext(NoopWaker(), 0, nil))
		if v, ok := p.Value(); ok {
			if v.Err != wantErr {
				t.Fatalf("result err = %v, want %v", v.Err, wantErr)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("blocking task did not complete in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRuntime_BlockOnReturnsReadyValue(t *testing.T) {
	t.Parallel()

	rt := New(NewConfig(WithWorkerThreads(1)))
	got := BlockOn[int](rt, readyFuture[int]{val: 9})
	if got != 9 {
		t.Fatalf("BlockOn() = %d, want 9", got)
	}
}

func TestRuntime_BlockOnWaitsForSelfWakingFuture(t *testing.T) {
	t.Parallel()

	rt := New(NewConfig(WithWorkerThreads(1)))
	got := BlockOn[int](rt, &blockOnCountdownFuture{n: 3})
	if got != 0 {
		t.Fatalf("BlockOn() = %d, want 0", got)
	}
}

func TestRuntime_StopDrainsOutstandingTasksAsCancelled(t *testing.T) {
	t.Parallel()

	rt := New(NewConfig(WithWorkerThreads(4)))
	if err := rt.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	const n = 100
	handles := make([]*JoinHandle[struct{}], n)
	for i := range handles {
		h, err := Spawn(rt, Sleep(rt, time.Second))
		if err != nil {
			t.Fatalf("Spawn() error: %v", err)
		}
		handles[i] = h
	}

	time.Sleep(100 * time.Millisecond)
	if err := rt.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	for i, h := range handles {
		if s := h.task.State(); s != TaskCancelled {
			t.Fatalf("task %d state = %s, want Cancelled", i, s)
		}
	}
}

type blockOnCountdownFuture struct{ n int }

func (f *blockOnCountdownFuture) Poll(ctx *Context) Poll[int] {
	if f.n <= 0 {
		return Ready(0)
	}
	f.n--
	go ctx.Waker().Clone().WakeByRef()
	return Pend[int]()
}

func TestRuntime_DeinitClearsDefaultRuntime(t *testing.T) {
	t.Parallel()

	rt := New(NewConfig(WithWorkerThreads(1)))
	if err := rt.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := rt.Deinit(); err != nil {
		t.Fatalf("Deinit() error: %v", err)
	}
	if defaultRuntime.Load() == rt {
		t.Fatal("Deinit() left rt installed as the default runtime")
	}
}

func TestCurrentRuntime_ReturnsOwningWorkerRuntime(t *testing.T) {
	rt := New(NewConfig(WithWorkerThreads(1)))
	if err := rt.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer rt.Stop()

	seen := make(chan *Runtime, 1)
	h, err := Spawn[int](rt, FutureFunc[int](func(ctx *Context) Poll[int] {
		got, _ := CurrentRuntime()
		seen <- got
		return Ready(0)
	}))
	if err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}

	select {
	case got := <-seen:
		if got != rt {
			t.Fatalf("CurrentRuntime() from inside a task = %v, want %v", got, rt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
	_ = h
}
