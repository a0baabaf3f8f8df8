package aeon

import (
	"sync"
	"sync/atomic"
)

// IoHandle is a monotonic opaque id tying a submitted I/O operation to
// its eventual completion, per spec.md's Data Model.
type IoHandle uint64

// BridgeState is one of the four terminal-or-pending states a
// CompletionBridge may occupy.
type BridgeState uint32

const (
	BridgePending BridgeState = iota
	BridgeReady
	BridgeTimeout
	BridgeError
)

// CompletionBridge is the per-operation object sitting between an async
// I/O Future and the reactor. Any transition out of Pending is terminal:
// reuse requires an explicit reset into a fresh bridge, not a transition
// back to Pending.
//
// Grounded on registry.go's weak-pointer + ring-buffer promise registry,
// simplified to a mutex-guarded map handle table since this module has no
// JS-compatible id-reuse requirement the teacher's ring/weak-pointer
// scheme was built to serve (documented in DESIGN.md).
type CompletionBridge struct {
	handle IoHandle
	fd     int
	state  atomic.Uint32
	waker  atomic.Pointer[Waker]
	result atomic.Pointer[ioResult]
}

type ioResult struct {
	n   int
	err error
}

// State loads the bridge's current state.
func (b *CompletionBridge) State() BridgeState { return BridgeState(b.state.Load()) }

// Handle returns the bridge's IoHandle.
func (b *CompletionBridge) Handle() IoHandle { return b.handle }

// SetWaker stores w to be woken on any terminal transition. Any
// previously stored waker is dropped.
func (b *CompletionBridge) SetWaker(w Waker) {
	prev := b.waker.Swap(&w)
	if prev != nil {
		prev.Drop()
	}
}

// Result returns the stored (n, err) pair once the bridge is Ready,
// Timeout or Error; zero values while it is Pending.
func (b *CompletionBridge) Result() (int, error) {
	r := b.result.Load()
	if r == nil {
		return 0, nil
	}
	return r.n, r.err
}

// complete performs the at-most-once CAS transition Pending -> Ready
// (or -> Error if err != nil), storing the result and waking any
// registered Waker exactly once. A duplicate completion (CAS already
// lost) is silently dropped, satisfying "the bridge for c transitions
// Pending -> terminal exactly once."
func (b *CompletionBridge) complete(n int, err error) {
	target := BridgeReady
	if err != nil {
		target = BridgeError
	}
	if !b.state.CompareAndSwap(uint32(BridgePending), uint32(target)) {
		return
	}
	b.result.Store(&ioResult{n: n, err: err})
	b.wake()
}

// completeTimeout performs the CAS transition Pending -> Timeout, used by
// the timer wheel when a deadline attached to this bridge elapses before
// the operation completes.
func (b *CompletionBridge) completeTimeout() {
	if !b.state.CompareAndSwap(uint32(BridgePending), uint32(BridgeTimeout)) {
		return
	}
	b.result.Store(&ioResult{err: ErrElapsed})
	b.wake()
}

// cancel performs the CAS transition Pending -> Error(cancelled), used by
// Reactor.Cancel; the underlying OS operation may still complete, but
// that later completion finds the CAS already lost and is dropped.
func (b *CompletionBridge) cancel() {
	if !b.state.CompareAndSwap(uint32(BridgePending), uint32(BridgeError)) {
		return
	}
	b.result.Store(&ioResult{err: ErrCancelled})
	b.wake()
}

func (b *CompletionBridge) wake() {
	if w := b.waker.Swap(nil); w != nil {
		w.Wake()
		w.Drop()
	}
}

// bridgeTable is the reactor's IoHandle -> *CompletionBridge registry.
type bridgeTable struct {
	mu      sync.Mutex
	m       map[IoHandle]*CompletionBridge
	nextID  uint64
}

func newBridgeTable() *bridgeTable {
	return &bridgeTable{m: make(map[IoHandle]*CompletionBridge), nextID: 1}
}

// allocate creates a new Pending bridge for the given fd and registers
// it. The fd is retained so release can unregister it from the poller
// once the bridge reaches a terminal state.
func (t *bridgeTable) allocate(fd int) *CompletionBridge {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := IoHandle(t.nextID)
	t.nextID++
	b := &CompletionBridge{handle: h, fd: fd}
	t.m[h] = b
	return b
}

// lookup finds the bridge for h, if registered.
func (t *bridgeTable) lookup(h IoHandle) (*CompletionBridge, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.m[h]
	return b, ok
}

// release removes h once its bridge is terminal and has been consumed.
func (t *bridgeTable) release(h IoHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, h)
}

// Len reports the number of outstanding (not yet released) bridges. The
// reactor enforces reactor_events_capacity with its own outstanding
// counter, not with Len.
func (t *bridgeTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.m)
}
