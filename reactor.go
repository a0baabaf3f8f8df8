package aeon

import (
	"sync/atomic"
	"time"
)

// Op identifies the kind of I/O operation a submission represents.
type Op int

const (
	OpRead Op = iota
	OpWrite
	OpAccept
	OpConnect
	OpClose
	OpFsync
	OpSend
	OpRecv
)

// Reactor is the single, per-runtime I/O event loop backing the core:
// one of {epoll, kqueue, IOCP} depending on platform, exposing
// submit/RunOnce/cancel per spec.md §4.4. Workers share it via
// thread-safe submission; the currently-idle worker calls RunOnce.
//
// Grounded on loop.go's poll-and-dispatch sequencing (a single event
// loop generalized here to N workers sharing one reactor instance), atop
// the platform FastPoller copied from poller_linux.go/poller_darwin.go/
// poller_windows.go.
type Reactor struct {
	backend     ReactorBackend
	poller      FastPoller
	bridges     *bridgeTable
	capacity    int
	wakeFd      int
	wakeWriteFd int
	closed      atomic.Bool
	outstanding atomic.Int64
	metrics     *Metrics
}

// NewReactor constructs (but does not yet Init) a Reactor for the
// configured backend.
func NewReactor(cfg *Config) *Reactor {
	return &Reactor{
		backend:  resolveBackend(cfg.ReactorBackend),
		bridges:  newBridgeTable(),
		capacity: cfg.ReactorEventsCapacity,
		wakeFd:   -1, wakeWriteFd: -1,
	}
}

func resolveBackend(b ReactorBackend) ReactorBackend {
	if b != BackendAuto {
		return b
	}
	return platformDefaultBackend()
}

// Start initializes the underlying OS poller and wake mechanism.
func (r *Reactor) Start() error {
	if r.backend == BackendIOUring {
		// The teacher ships no io_uring backend to adapt from; config
		// parsing accepts the option but Start rejects it explicitly
		// rather than silently falling back.
		return ErrUnsupportedBackend
	}
	if err := r.poller.Init(); err != nil {
		return err
	}
	wr, ww, err := createWakeFd(0, EFD_CLOEXEC|EFD_NONBLOCK)
	if err != nil {
		_ = r.poller.Close()
		return err
	}
	r.wakeFd, r.wakeWriteFd = wr, ww
	if wr >= 0 {
		_ = r.poller.RegisterFD(wr, EventRead, func(IOEvents) {
			_ = drainWakeUpPipe(wr)
		})
	}
	return nil
}

// Close tears down the reactor's OS resources.
func (r *Reactor) Close() error {
	r.closed.Store(true)
	if r.wakeFd >= 0 {
		_ = closeWakeFd(r.wakeFd, r.wakeWriteFd)
	}
	return r.poller.Close()
}

// Wakeup interrupts a blocked RunOnce from another goroutine, used by the
// scheduler to pull a parked worker out of the reactor when a task is
// enqueued elsewhere.
func (r *Reactor) Wakeup() {
	if r.wakeWriteFd >= 0 {
		var b [8]byte
		b[0] = 1
		_, _ = writeFD(r.wakeWriteFd, b[:])
		return
	}
	_ = submitGenericWakeup(0)
}

// Submit registers fd for the given events and allocates a
// CompletionBridge for the operation, enforcing the outstanding-op cap
// (reactor_events_capacity). Exceeding the cap returns
// ErrTooManyOutstandingOps, which the calling I/O Future surfaces as
// Pending after waking itself, so it retries the submission on its next
// poll; nothing waits for capacity to free up before that retry.
//
// perform is invoked once fd is reported ready; it must attempt the
// actual syscall (read/write/accept/connect-check) and return the OS
// result exactly as the syscall produced it. A perform that returns
// EAGAIN/EWOULDBLOCK (the poller's readiness was spurious, or another
// goroutine already claimed the only pending unit of work, e.g. a
// single incoming connection on a listening socket) leaves the bridge
// Pending so the next readiness event retries it, the standard
// level-triggered-epoll retry discipline; any other outcome completes
// the bridge and unregisters fd.
func (r *Reactor) Submit(fd int, events IOEvents, perform func() (int, error)) (*CompletionBridge, error) {
	if r.closed.Load() {
		return nil, ErrPollerClosed
	}
	if r.capacity > 0 && int(r.outstanding.Load()) >= r.capacity {
		return nil, ErrTooManyOutstandingOps
	}
	b := r.bridges.allocate(fd)
	r.outstanding.Add(1)
	err := r.poller.RegisterFD(fd, events, func(ev IOEvents) {
		if ev&EventError != 0 {
			b.complete(0, ErrCancelled)
			r.release(b)
			if r.metrics != nil {
				r.metrics.incIOCompletions()
			}
			return
		}
		n, opErr := perform()
		if isAgain(opErr) {
			return
		}
		b.complete(n, opErr)
		r.release(b)
		if r.metrics != nil {
			r.metrics.incIOCompletions()
		}
	})
	if err != nil {
		r.outstanding.Add(-1)
		r.bridges.release(b.Handle())
		return nil, err
	}
	return b, nil
}

// Complete lets a caller that already knows the syscall result (e.g. a
// Read future that got EAGAIN then later succeeded synchronously)
// directly settle a bridge without going through dispatchEvents.
func (r *Reactor) Complete(b *CompletionBridge, n int, err error) {
	b.complete(n, err)
	r.release(b)
}

// Cancel best-effort cancels the operation behind handle; the completion
// may still arrive from the kernel, but the bridge's CAS ensures it is
// dropped as a no-op once cancelled.
func (r *Reactor) Cancel(handle IoHandle) {
	if b, ok := r.bridges.lookup(handle); ok {
		b.cancel()
		r.release(b)
	}
}

// release retires b: it drops the bridge from the handle table,
// decrements the outstanding-op count, and unregisters its fd from the
// poller so the fd is free to be submitted again by a later operation
// (the reactor enforces one active registration per fd; leaving a
// completed bridge's fd registered would make any subsequent operation
// on that fd fail with ErrFDAlreadyRegistered).
func (r *Reactor) release(b *CompletionBridge) {
	r.bridges.release(b.Handle())
	r.outstanding.Add(-1)
	_ = r.poller.UnregisterFD(b.fd)
}

// RunOnce blocks up to timeout waiting for completions, dispatching each
// to its bridge. It is called by any worker that finds no task to run,
// and by Await while it waits. There is no separate driver tick: while
// every worker is busy polling tasks, the scheduler does not call it.
func (r *Reactor) RunOnce(timeout time.Duration) (int, error) {
	if r.closed.Load() {
		return 0, ErrPollerClosed
	}
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	return r.poller.PollIO(ms)
}

// Quiescent reports whether the reactor currently has no registered
// interest beyond its own wake fd — the boundary condition in which
// run_once with no timeout must not block indefinitely.
func (r *Reactor) Quiescent() bool {
	return r.outstanding.Load() == 0
}
