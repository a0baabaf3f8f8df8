package aeon

// Result is the settled output of a JoinHandle: either a value, an error
// surfaced by the task's own Future, or a Cancelled marker if the task
// was aborted.
type Result[T any] struct {
	Val       T
	Err       error
	Cancelled bool
}

// JoinHandle is a Future that resolves to the task's Output once the
// task completes or is cancelled. It points at the task without adding
// to the task's reference count; dropping a JoinHandle without polling it to Ready detaches the task —
// it runs to completion regardless, and its Output is discarded.
type JoinHandle[T any] struct {
	task *Task
}

// Poll implements Future. While the task has not reached a terminal
// state, Poll registers ctx.Waker() in the task's join slot and returns
// Pending; it will be woken once the task finishes.
func (h *JoinHandle[T]) Poll(ctx *Context) Poll[Result[T]] {
	switch h.task.State() {
	case TaskCompleted:
		out := h.task.result.Load()
		var zero T
		if out == nil {
			return Ready(Result[T]{Val: zero})
		}
		if out.err != nil {
			return Ready(Result[T]{Val: zero, Err: out.err})
		}
		v, _ := out.val.(T)
		return Ready(Result[T]{Val: v})
	case TaskCancelled:
		var zero T
		return Ready(Result[T]{Val: zero, Cancelled: true, Err: ErrCancelled})
	default:
		h.task.registerJoinWaker(ctx.Waker().Clone())
		// Re-check after registering: the task may have finished between
		// the State() check above and the registration, in which case
		// the finish() that already ran found no waker to invoke.
		switch h.task.State() {
		case TaskCompleted, TaskCancelled:
			return h.Poll(ctx)
		default:
			return Pend[Result[T]]()
		}
	}
}

// Abort requests cooperative cancellation of the underlying task.
func (h *JoinHandle[T]) Abort() { h.task.Abort() }

// ID returns the underlying task's id.
func (h *JoinHandle[T]) ID() TaskID { return h.task.id }

// Detach discards this handle's reference without affecting the task,
// which continues running to completion; it exists so callers can
// document intent instead of merely letting a JoinHandle value go out of
// scope.
func (h *JoinHandle[T]) Detach() {}
