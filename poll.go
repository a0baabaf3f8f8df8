package aeon

// Poll is the result of one invocation of a [Future]'s Poll method: either
// Ready with an output value, or Pending. It is monomorphic per output type.
type Poll[T any] struct {
	val   T
	ready bool
}

// Ready constructs a Poll in the Ready state carrying v.
func Ready[T any](v T) Poll[T] {
	return Poll[T]{val: v, ready: true}
}

// Pend constructs a Poll in the Pending state.
//
// Named Pend (not Pending) to avoid colliding with the TaskState constant
// of the same name.
func Pend[T any]() Poll[T] {
	return Poll[T]{}
}

// IsReady reports whether p carries a value.
func (p Poll[T]) IsReady() bool { return p.ready }

// IsPending reports the complement of IsReady.
func (p Poll[T]) IsPending() bool { return !p.ready }

// Value returns the carried value and true if p is Ready, else the zero
// value and false.
func (p Poll[T]) Value() (T, bool) { return p.val, p.ready }

// MustValue returns the carried value, panicking if p is Pending.
//
// Polling after Ready and reading a Pending value are both contract
// violations the Future/Task layer must not commit; this is a
// debug-checked escape hatch for callers that have already verified
// IsReady.
func (p Poll[T]) MustValue() T {
	if !p.ready {
		panic("aeon: MustValue called on a Pending Poll")
	}
	return p.val
}

// MapPoll transforms the Ready value of p with f, leaving Pending as-is.
func MapPoll[T, U any](p Poll[T], f func(T) U) Poll[U] {
	if !p.ready {
		return Pend[U]()
	}
	return Ready(f(p.val))
}

// AndThenPoll chains p into a second poll-producing function, short
// circuiting on Pending.
func AndThenPoll[T, U any](p Poll[T], f func(T) Poll[U]) Poll[U] {
	if !p.ready {
		return Pend[U]()
	}
	return f(p.val)
}

// Future is any value exposing a poll-based asynchronous computation.
//
// Invariants (debug-checked, not enforced at release in release builds of
// this package): after Poll returns Ready, it must not be called again;
// after returning Pending, the Future must guarantee that ctx.Waker() (or
// a clone thereof) will eventually be invoked when progress is possible;
// Poll must not block the calling goroutine for unbounded time.
type Future[T any] interface {
	Poll(ctx *Context) Poll[T]
}

// FutureFunc adapts a plain poll function to the Future interface.
type FutureFunc[T any] func(ctx *Context) Poll[T]

// Poll implements Future.
func (f FutureFunc[T]) Poll(ctx *Context) Poll[T] { return f(ctx) }
