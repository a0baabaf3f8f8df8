package aeon

import (
	"sync/atomic"
)

// TaskID is a unique, monotonically increasing task identifier.
type TaskID uint64

var nextTaskID atomic.Uint64

func allocTaskID() TaskID {
	return TaskID(nextTaskID.Add(1))
}

// TaskState is one of the six states a Task may be in, held in the Task's
// atomic state word, grounded on the teacher's FastState (state.go),
// generalized from the event loop's 5-state machine to the task's
// 6-state machine. Wakes, Abort and finish transition it by CAS; Spawn's
// initial Runnable and the running worker's Running -> Waiting are plain
// stores.
type TaskState uint32

const (
	TaskIdle TaskState = iota
	TaskRunnable
	TaskRunning
	TaskWaiting
	TaskCompleted
	TaskCancelled
)

// String returns a human-readable representation of the state.
func (s TaskState) String() string {
	switch s {
	case TaskIdle:
		return "Idle"
	case TaskRunnable:
		return "Runnable"
	case TaskRunning:
		return "Running"
	case TaskWaiting:
		return "Waiting"
	case TaskCompleted:
		return "Completed"
	case TaskCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// taskOutcome is the terminal result stashed once a task reaches
// Completed or Cancelled.
type taskOutcome struct {
	val       any
	err       error
	cancelled bool
}

// Task owns a type-erased Future, its scheduling state, a reference
// count (one for the scheduler plus one per live Waker; a JoinHandle
// takes none), and a result
// slot. It is created by Spawn and has no meaning independent of the
// Runtime that owns it.
type Task struct {
	_         [64]byte // cache-line padding, grounded on state.go's FastState
	id        TaskID
	state     atomic.Uint32
	_         [56]byte
	refCount  atomic.Int32
	aborted   atomic.Bool
	selfWake  atomic.Bool
	rt        *Runtime
	pollFn    func(ctx *Context) (val any, err error, ready bool)
	result    atomic.Pointer[taskOutcome]
	joinWaker atomic.Pointer[Waker]
}

// newTask allocates a Task in the Idle state with one reference held by
// the scheduler.
func newTask(rt *Runtime, pollFn func(ctx *Context) (any, error, bool)) *Task {
	t := &Task{
		id:     allocTaskID(),
		rt:     rt,
		pollFn: pollFn,
	}
	t.state.Store(uint32(TaskIdle))
	t.refCount.Store(1)
	if rt != nil {
		rt.registerTask(t)
	}
	return t
}

// State loads the task's current state.
func (t *Task) State() TaskState { return TaskState(t.state.Load()) }

// ID returns the task's unique id.
func (t *Task) ID() TaskID { return t.id }

// markRunnable transitions Idle or Waiting into Runnable; used by spawn
// (from Idle) and by wake (from Waiting). Returns false if the CAS lost
// the race (another transition already happened).
func (t *Task) markRunnable(from TaskState) bool {
	return t.state.CompareAndSwap(uint32(from), uint32(TaskRunnable))
}

// wake implements wakeable. It is invoked by a Waker obtained from this
// task's Context during a prior poll. Per system invariant 2, a wake on a
// Waiting task atomically transitions it to Runnable and enqueues it
// exactly once; a wake that arrives while the task is Running is recorded
// as a self-wake (the worker handles re-enqueue once poll returns); any
// other state makes the wake an idempotent no-op (already Runnable,
// already terminal).
func (t *Task) wake() {
	for {
		s := TaskState(t.state.Load())
		switch s {
		case TaskWaiting:
			if t.markRunnable(TaskWaiting) {
				t.rt.scheduler.enqueueWoken(t)
				return
			}
			// lost the CAS race; reload and retry.
		case TaskRunning:
			t.selfWake.Store(true)
			return
		default:
			return
		}
	}
}

// Abort requests cooperative cancellation. If the task is currently
// Waiting it is force-woken so the cancellation completes promptly
// instead of waiting indefinitely on whatever source it was suspended on.
func (t *Task) Abort() {
	t.aborted.Store(true)
	for {
		s := TaskState(t.state.Load())
		if s != TaskWaiting {
			return
		}
		if t.markRunnable(TaskWaiting) {
			t.rt.scheduler.enqueueWoken(t)
			return
		}
	}
}

// Aborted reports whether Abort has been called on this task.
func (t *Task) Aborted() bool { return t.aborted.Load() }

// finish stores the terminal outcome and notifies any registered join
// waiter. It is normally called exactly once, by the worker currently
// running the task; the CAS guard below additionally makes it safe to
// call from Runtime.Stop's drain path, which may race a SpawnBlocking
// task's own background goroutine finishing concurrently (that
// goroutine is not joined by the scheduler's worker shutdown). Whichever
// caller observes the task still non-terminal wins; the other's call is
// a no-op.
func (t *Task) finish(val any, err error, cancelled bool) {
	target := TaskCompleted
	if cancelled {
		target = TaskCancelled
	}
	for {
		s := TaskState(t.state.Load())
		if s == TaskCompleted || s == TaskCancelled {
			return
		}
		if t.state.CompareAndSwap(uint32(s), uint32(target)) {
			break
		}
	}
	t.result.Store(&taskOutcome{val: val, err: err, cancelled: cancelled})
	if t.rt != nil {
		t.rt.unregisterTask(t)
		if cancelled {
			t.rt.metrics.incCancelled()
		} else {
			t.rt.metrics.incCompleted()
			if _, ok := err.(*PanicError); ok {
				t.rt.metrics.incPanicked()
			}
		}
	}
	if w := t.joinWaker.Swap(nil); w != nil {
		w.Wake()
		w.Drop()
	}
}

// registerJoinWaker stores w to be woken on completion, replacing any
// previously registered join waker (only one JoinHandle is expected to
// poll a given task, but registering again is harmless).
func (t *Task) registerJoinWaker(w Waker) {
	prev := t.joinWaker.Swap(&w)
	if prev != nil {
		prev.Drop()
	}
}
