package aeon

import "time"

// IOResult is the settled outcome of an I/O primitive Future: a byte
// count (meaning depends on the operation; 0 for Close/Connect/Fsync)
// and an error, mirroring the (n, err) shape every OS read/write syscall
// actually returns, rather than forcing an artificial split between
// value and error channels.
type IOResult struct {
	N   int
	Err error
}

// ioFuture adapts one reactor submission to the Future interface,
// grounded on the CompletionBridge/Reactor pairing in bridge.go and
// reactor.go (§4.4-§4.5): Poll submits on first call, then registers the
// Context's Waker on the bridge and returns Pending until the bridge
// reaches a terminal state. perform carries the operation's actual
// syscall (built by the Read/Write/Accept/Connect/Send/Recv
// constructors below against the caller's buffer), so the reactor's
// IOCallback performs real data transfer once fd is ready instead of
// only observing readiness (spec.md §8 scenario 4).
type ioFuture struct {
	rt      *Runtime
	op      Op
	fd      int
	events  IOEvents
	perform func() (int, error)
	bridge  *CompletionBridge
}

func newIOFuture(rt *Runtime, op Op, fd int, events IOEvents, perform func() (int, error)) *ioFuture {
	return &ioFuture{rt: rt, op: op, fd: fd, events: events, perform: perform}
}

// Poll implements Future[IOResult].
func (f *ioFuture) Poll(ctx *Context) Poll[IOResult] {
	if f.bridge == nil {
		b, err := f.rt.reactor.Submit(f.fd, f.events, f.perform)
		if err != nil {
			if err == ErrTooManyOutstandingOps {
				// Backpressure: come back around on the next wake
				// rather than surfacing the error to the caller, per
				// spec.md §4.4's outstanding-op cap being a scheduling
				// concern, not an operation failure.
				ctx.Waker().WakeByRef()
				return Pend[IOResult]()
			}
			return Ready(IOResult{Err: err})
		}
		f.bridge = b
	}
	switch f.bridge.State() {
	case BridgePending:
		f.bridge.SetWaker(ctx.Waker().Clone())
		return Pend[IOResult]()
	default:
		n, err := f.bridge.Result()
		return Ready(IOResult{N: n, Err: err})
	}
}

// Read returns a Future that, once fd becomes readable, reads into buf
// and resolves to IOResult{N: bytes read, Err: the read's error, if
// any}, mirroring read(2)'s own (n, err) contract.
func Read(rt *Runtime, fd int, buf []byte) Future[IOResult] {
	return newIOFuture(rt, OpRead, fd, EventRead, func() (int, error) { return readFD(fd, buf) })
}

// Write returns a Future that, once fd becomes writable, writes buf and
// resolves to IOResult{N: bytes written, Err: the write's error, if
// any}.
func Write(rt *Runtime, fd int, buf []byte) Future[IOResult] {
	return newIOFuture(rt, OpWrite, fd, EventWrite, func() (int, error) { return writeFD(fd, buf) })
}

// Accept returns a Future that completes once a listening fd has an
// incoming connection ready to accept, resolving to IOResult{N: the new
// connection's fd}.
func Accept(rt *Runtime, fd int) Future[IOResult] {
	return newIOFuture(rt, OpAccept, fd, EventRead, func() (int, error) { return acceptFD(fd) })
}

// Connect returns a Future that completes once a non-blocking connect on
// fd finishes, resolving to IOResult{Err: nil on success, or the
// connect's failure (read via SO_ERROR) otherwise}. The caller is
// expected to have already issued the non-blocking connect(2) itself
// (Go has no portable async connect primitive independent of an
// already-created socket); this Future only waits for and resolves it.
func Connect(rt *Runtime, fd int) Future[IOResult] {
	return newIOFuture(rt, OpConnect, fd, EventWrite, func() (int, error) { return 0, connectCheckFD(fd) })
}

// Close returns a Future that is Ready immediately with a zero IOResult.
// It neither touches the reactor nor closes the OS descriptor; the
// reactor only tracks interest, not ownership.
func Close(rt *Runtime, fd int) Future[IOResult] {
	return FutureFunc[IOResult](func(ctx *Context) Poll[IOResult] {
		return Ready(IOResult{})
	})
}

// Fsync returns a Future that is Ready immediately with a zero IOResult.
// It performs no syscall and does not make fd's pending writes durable;
// none of the reactor's backends has a native async fsync primitive.
func Fsync(rt *Runtime, fd int) Future[IOResult] {
	return FutureFunc[IOResult](func(ctx *Context) Poll[IOResult] {
		return Ready(IOResult{})
	})
}

// Send returns a Future that completes once fd is writable for a socket
// send, resolving to IOResult{N: bytes sent}.
func Send(rt *Runtime, fd int, buf []byte) Future[IOResult] {
	return newIOFuture(rt, OpSend, fd, EventWrite, func() (int, error) { return writeFD(fd, buf) })
}

// Recv returns a Future that completes once fd is readable for a socket
// receive, resolving to IOResult{N: bytes received}.
func Recv(rt *Runtime, fd int, buf []byte) Future[IOResult] {
	return newIOFuture(rt, OpRecv, fd, EventRead, func() (int, error) { return readFD(fd, buf) })
}

// sleepFuture is a timer-wheel-backed Future that resolves once its
// deadline elapses, the building block behind both Sleep and Timeout.
// The deadline is computed once at construction, not at first poll, so
// that a Sleep created but not immediately polled still fires at the
// intended wall-clock time.
type sleepFuture struct {
	rt       *Runtime
	deadline time.Time
	entry    *TimerEntry
	elapsed  bool
}

// Sleep returns a Future that resolves after d has elapsed, scheduled on
// rt's hierarchical timer wheel (§4.6).
func Sleep(rt *Runtime, d time.Duration) Future[struct{}] {
	return &sleepFuture{rt: rt, deadline: time.Now().Add(d)}
}

// Poll implements Future[struct{}].
func (s *sleepFuture) Poll(ctx *Context) Poll[struct{}] {
	if s.elapsed {
		return Ready(struct{}{})
	}
	if s.entry == nil {
		s.entry = s.rt.timers.Schedule(s.deadline, ctx.Waker().Clone())
		return Pend[struct{}]()
	}
	if !s.deadline.After(time.Now()) {
		s.elapsed = true
		return Ready(struct{}{})
	}
	return Pend[struct{}]()
}

// Timeout races f against a d-duration deadline, resolving to f's value
// and a nil error if f wins, or the zero value and ErrElapsed if the
// timer wins first. This is a pure composition over a timer-wheel entry
// and f (Open
// Question 2's decision: timeouts are not a primitive state of every
// Future, only a composition any caller can build), grounded on the
// teacher's promise.go combinators (Promise.Race-style first-settled
// wins) generalized from promises to Futures.
func Timeout[T any](rt *Runtime, f Future[T], d time.Duration) Future[Result[T]] {
	return &timeoutFuture[T]{rt: rt, inner: f, deadline: time.Now().Add(d)}
}

type timeoutFuture[T any] struct {
	rt       *Runtime
	inner    Future[T]
	deadline time.Time
	timer    *TimerEntry
	timedOut bool
}

func (t *timeoutFuture[T]) Poll(ctx *Context) Poll[Result[T]] {
	if t.timedOut {
		var zero T
		return Ready(Result[T]{Val: zero, Err: ErrElapsed})
	}
	if p := t.inner.Poll(ctx); p.IsReady() {
		if t.timer != nil {
			t.rt.timers.Cancel(t.timer.ID())
		}
		v, _ := p.Value()
		return Ready(Result[T]{Val: v})
	}
	if t.timer == nil {
		t.timer = t.rt.timers.Schedule(t.deadline, ctx.Waker().Clone())
		return Pend[Result[T]]()
	}
	if !t.deadline.After(time.Now()) {
		t.timedOut = true
		var zero T
		return Ready(Result[T]{Val: zero, Err: ErrElapsed})
	}
	return Pend[Result[T]]()
}
