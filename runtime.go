package aeon

import (
	"sync"
	"sync/atomic"
	"time"
)

// Runtime is the async-runtime facade (spec.md §4.7): the owner of the
// scheduler, reactor, timer wheel, and blocking pool, and the target of
// New/Start/Spawn/SpawnBlocking/BlockOn/Stop/Deinit/CurrentRuntime.
//
// Grounded on the teacher's event-loop-as-facade shape (one object
// owning run-loop, poller, and microtask/timer bookkeeping), generalized
// from a single-loop/single-goroutine design to the multi-worker,
// multi-subsystem facade this spec requires.
type Runtime struct {
	cfg       *Config
	scheduler *Scheduler
	reactor   *Reactor
	timers    *TimerWheel
	blocking  *blockingPool
	metrics   *Metrics
	started   atomic.Bool
	stopping  atomic.Bool
	stopOnce  sync.Once
	tasks     sync.Map // TaskID -> *Task, every non-terminal task; drained by Stop
}

// defaultRuntime is the process-wide fallback consulted by
// CurrentRuntime when the calling goroutine is not a worker goroutine of
// any runtime (e.g. called from the BlockOn caller's own goroutine, or
// from application code that merely wants "the" runtime in a
// single-runtime process). Set by New the first time a runtime is
// constructed in the process and cleared by Deinit if it is the current
// default, mirroring the teacher's package-global "current loop"
// convenience without requiring goroutine-local storage for the common
// case.
var defaultRuntime atomic.Pointer[Runtime]

// New constructs a Runtime from cfg (or spec.md's defaults if cfg is
// nil) but does not start its workers; call Start to do that.
func New(cfg *Config) *Runtime {
	if cfg == nil {
		cfg = NewConfig()
	}
	rt := &Runtime{
		cfg:      cfg,
		reactor:  NewReactor(cfg),
		timers:   NewTimerWheel(cfg.TimerWheelLevels, cfg.TimerSlotsPerLevel, cfg.TimerBasePrecisionUs, time.Now()),
		blocking: newBlockingPool(cfg.BlockingPoolMax),
		metrics:  newMetrics(cfg),
	}
	rt.scheduler = NewScheduler(rt, cfg)
	rt.reactor.metrics = rt.metrics
	defaultRuntime.CompareAndSwap(nil, rt)
	return rt
}

// Start initializes the reactor's OS resources and launches the worker
// goroutines. It is an error to call Start more than once on the same
// Runtime.
func (rt *Runtime) Start() error {
	if !rt.started.CompareAndSwap(false, true) {
		return ErrRuntimeStopped
	}
	if err := rt.reactor.Start(); err != nil {
		return err
	}
	rt.scheduler.Start()
	logInfo("runtime started", "workers", rt.cfg.WorkerThreads, "backend", rt.reactor.backend.String())
	return nil
}

// Spawn schedules f as an independent task and returns a JoinHandle for
// observing its eventual Result. It is safe to call from any worker
// goroutine belonging to rt, from the BlockOn caller's goroutine, or
// from any other goroutine in the process.
func Spawn[T any](rt *Runtime, f Future[T]) (*JoinHandle[T], error) {
	if rt.stopping.Load() {
		return nil, ErrRuntimeStopped
	}
	var t *Task
	t = newTask(rt, func(ctx *Context) (any, error, bool) {
		p := f.Poll(ctx)
		v, ready := p.Value()
		if !ready {
			return nil, nil, false
		}
		return v, nil, true
	})
	t.state.Store(uint32(TaskRunnable))
	rt.scheduler.enqueueNew(t)
	rt.metrics.incSpawned()
	return &JoinHandle[T]{task: t}, nil
}

// SpawnBlocking runs fn on the bounded blocking thread pool (spec.md
// §4.2's "spawn_blocking"), returning a JoinHandle whose Result resolves
// once fn returns. Unlike Spawn, fn is an ordinary synchronous function,
// not a Future: spawn_blocking exists specifically to let blocking calls
// escape the worker pool without stalling the cooperative scheduler.
func SpawnBlocking[T any](rt *Runtime, fn func() (T, error)) (*JoinHandle[T], error) {
	if rt.stopping.Load() {
		return nil, ErrRuntimeStopped
	}
	// A blocking task never actually runs on a worker's cooperative poll
	// loop: the background goroutine below calls t.finish directly once
	// fn returns, so this pollFn only needs to exist to satisfy Task's
	// shape (it is never invoked under normal operation).
	t := newTask(rt, func(ctx *Context) (any, error, bool) { return nil, nil, false })
	t.state.Store(uint32(TaskWaiting))

	resultCh, err := rt.blocking.submit(func() (any, error) { return fn() })
	if err != nil {
		t.finish(nil, err, false)
		return &JoinHandle[T]{task: t}, nil
	}
	go func() {
		out := <-resultCh
		t.finish(out.val, out.err, false)
	}()
	return &JoinHandle[T]{task: t}, nil
}

// BlockOn drives f to completion on the calling goroutine, parking it
// (not spinning) between wake-ups, and returns f's final value. It is
// the synchronous entry point into the runtime from ordinary (non-async)
// code, per spec.md §4.7.
func BlockOn[T any](rt *Runtime, f Future[T]) T {
	var mu sync.Mutex
	cond := sync.NewCond(&mu)
	woken := false

	w := newWaker(&blockOnWaker{mu: &mu, cond: cond, woken: &woken})
	ctx := NewContext(w, 0, nil)

	for {
		p := f.Poll(ctx)
		if v, ok := p.Value(); ok {
			w.Drop()
			return v
		}
		mu.Lock()
		for !woken {
			cond.Wait()
		}
		woken = false
		mu.Unlock()
	}
}

// blockOnWaker implements wakeable for BlockOn's synchronous parking
// loop: wake() simply signals the condition variable BlockOn is waiting
// on, the Go-native equivalent of parking a single thread on a futex.
type blockOnWaker struct {
	mu    *sync.Mutex
	cond  *sync.Cond
	woken *bool
}

func (b *blockOnWaker) wake() {
	b.mu.Lock()
	*b.woken = true
	b.mu.Unlock()
	b.cond.Signal()
}

// registerTask records t as live and drainable; called by newTask for
// every Spawn/SpawnBlocking task so Stop has something concrete to walk.
func (rt *Runtime) registerTask(t *Task) { rt.tasks.Store(t.id, t) }

// unregisterTask removes t once it reaches a terminal state; called by
// Task.finish.
func (rt *Runtime) unregisterTask(t *Task) { rt.tasks.Delete(t.id) }

// Stop requests a graceful shutdown: no new tasks are accepted, all
// workers exit their main loop once drained, every task still
// outstanding at that point (local deques, global queue, or genuinely
// Waiting on I/O or a timer) is transitioned to Cancelled, and the
// blocking pool and reactor are torn down (the timer wheel is left as
// it is). Stop blocks
// until every worker goroutine has returned.
//
// The drain runs after the scheduler's workers have already exited
// (scheduler.Wait has returned), so it finishes each task directly from
// the registry rather than through Task.Abort's queue-based re-wake:
// nothing remains to dequeue a re-enqueued task at that point. Per
// spec.md §4.7's "drain remaining tasks as cancelled."
func (rt *Runtime) Stop() error {
	var stopErr error
	rt.stopOnce.Do(func() {
		rt.stopping.Store(true)
		rt.scheduler.Stop()
		rt.scheduler.Wait()

		drained := 0
		rt.tasks.Range(func(_, v any) bool {
			v.(*Task).finish(nil, ErrCancelled, true)
			drained++
			return true
		})
		if drained > 0 {
			logInfo("runtime drained outstanding tasks as cancelled", "count", drained)
		}

		var errs []error
		if err := rt.blocking.close(rt.cfg.BlockingShutdownTimeout); err != nil {
			errs = append(errs, err)
		}
		if err := rt.reactor.Close(); err != nil {
			errs = append(errs, err)
		}
		switch len(errs) {
		case 0:
		case 1:
			stopErr = errs[0]
		default:
			stopErr = &AggregateError{Message: "aeon: errors during runtime shutdown", Errors: errs}
		}
		logInfo("runtime stopped")
	})
	return stopErr
}

// Deinit releases any process-global state referring to rt (the default
// runtime slot), and calls Stop if it has not already run. Safe to call
// multiple times.
func (rt *Runtime) Deinit() error {
	defaultRuntime.CompareAndSwap(rt, nil)
	return rt.Stop()
}

// CurrentRuntime returns the Runtime owning the calling goroutine, if it
// is a worker goroutine of one, else the process's default Runtime (the
// first one constructed while no default was registered; Deinit clears
// it), else ErrNoRuntime.
//
// Grounded on the design-notes decision (SPEC_FULL.md §4.7) to realize
// the teacher's implicit "current loop" thread affinity as a
// goroutine-lookup-plus-global-fallback pair: the goroutine-keyed lookup
// (exact, via currentWorker) covers code running inside a spawned task;
// the atomic global pointer covers ordinary application code calling in
// from outside any task.
func CurrentRuntime() (*Runtime, error) {
	if w := currentWorker(); w != nil {
		return w.sched.rt, nil
	}
	if rt := defaultRuntime.Load(); rt != nil {
		return rt, nil
	}
	return nil, ErrNoRuntime
}
