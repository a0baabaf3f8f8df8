package aeon

import (
	"math/rand"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler owns the per-worker local deques, the global overflow queue,
// and the worker goroutines running the work-stealing main loop of
// spec.md §4.3.
//
// Grounded on loop.go's run-loop structure (fast-path slot check, then
// tick, then blocking poll with a computed timeout, then park),
// generalized from one event loop to N workers each owning a deque,
// sharing the global queue, reactor, and timer wheel.
type Scheduler struct {
	rt       *Runtime
	cfg      *Config
	workers  []*worker
	global   *globalQueue
	wg       sync.WaitGroup
	stopping atomic.Bool
	idle     atomic.Int32 // count of currently-parked workers
	cond     *sync.Cond
	condMu   sync.Mutex
}

type worker struct {
	id     int
	sched  *Scheduler
	deque  *localDeque
	lifo   atomic.Pointer[Task]
	popCnt uint64
}

// NewScheduler constructs (but does not start) a Scheduler for cfg.
func NewScheduler(rt *Runtime, cfg *Config) *Scheduler {
	s := &Scheduler{
		rt:     rt,
		cfg:    cfg,
		global: newGlobalQueue(cfg.LocalQueueCapacity * 4),
	}
	s.cond = sync.NewCond(&s.condMu)
	s.workers = make([]*worker, cfg.WorkerThreads)
	for i := range s.workers {
		s.workers[i] = &worker{id: i, sched: s, deque: newLocalDeque(cfg.LocalQueueCapacity)}
	}
	return s
}

// Start launches one goroutine per configured worker thread.
func (s *Scheduler) Start() {
	s.wg.Add(len(s.workers))
	for _, w := range s.workers {
		go w.run()
	}
}

// Stop signals all workers to exit their main loop once they next check
// the stopping flag, and wakes any parked worker so it observes the
// flag promptly.
func (s *Scheduler) Stop() {
	s.stopping.Store(true)
	s.condMu.Lock()
	s.cond.Broadcast()
	s.condMu.Unlock()
	s.rt.reactor.Wakeup()
}

// Wait blocks until every worker goroutine has returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

// enqueueNew pushes a freshly spawned task, preferring the calling
// worker's own local deque (LIFO) when spawn is called from inside a
// worker, and the global queue otherwise (spec.md §4.2: "must be
// callable from any worker thread and from the block_on caller").
func (s *Scheduler) enqueueNew(t *Task) {
	t.state.Store(uint32(TaskRunnable))
	if w := currentWorker(); w != nil && w.sched == s {
		if w.deque.pushBottom(t) {
			s.unparkOne()
			return
		}
	}
	s.global.push(t)
	s.unparkOne()
}

// enqueueWoken re-enqueues a task that transitioned Waiting -> Runnable
// via a wake. Per spec.md's ordering guarantees, wakes do not have
// special LIFO placement (only self-wakes do, handled in worker.runTask);
// a straightforward wake goes to the global queue so any idle worker may
// pick it up.
func (s *Scheduler) enqueueWoken(t *Task) {
	s.global.push(t)
	s.rt.metrics.incGlobalEnqueues()
	s.unparkOne()
}

func (s *Scheduler) unparkOne() {
	if s.idle.Load() > 0 {
		s.condMu.Lock()
		s.cond.Signal()
		s.condMu.Unlock()
	}
}

// setLIFO installs t as w's single-slot hot cache, evicting any
// previously resident task to the local deque (spilling to the global
// queue if the deque is full).
func (w *worker) setLIFO(t *Task) {
	if !w.sched.cfg.EnableLIFOSlot {
		w.sched.global.push(t)
		return
	}
	prev := w.lifo.Swap(t)
	if prev != nil {
		if !w.deque.pushBottom(prev) {
			w.sched.global.push(prev)
		}
	}
}

// run is the per-worker main loop: spec.md §4.3 steps 1-6.
func (w *worker) run() {
	defer w.sched.wg.Done()
	setCurrentWorker(w)
	defer setCurrentWorker(nil)

	for !w.sched.stopping.Load() {
		if t := w.lifo.Swap(nil); t != nil {
			w.runTask(t)
			continue
		}

		w.popCnt++
		if w.popCnt%uint64(w.sched.cfg.GlobalQueueInterval) == 0 {
			if t := w.sched.global.pop(); t != nil {
				w.runTask(t)
				continue
			}
		}

		if t := w.deque.popBottom(); t != nil {
			w.runTask(t)
			continue
		}

		if t := w.sched.global.pop(); t != nil {
			w.runTask(t)
			continue
		}

		if w.sched.cfg.EnableWorkStealing {
			if t := w.trySteal(); t != nil {
				w.runTask(t)
				continue
			}
		}

		// Step 5: advance timers, run the reactor with a deadline.
		fired := w.sched.rt.timers.ProcessExpired(time.Now())
		if fired > 0 {
			w.sched.rt.metrics.incTimersFired(int64(fired))
			continue
		}
		timeout := w.sched.nextPollTimeout()
		_, _ = w.sched.rt.reactor.RunOnce(timeout)
		if w.hasWork() {
			continue
		}

		// Step 6: park.
		w.park()
	}
}

func (w *worker) hasWork() bool {
	return w.lifo.Load() != nil || w.deque.len() > 0 || w.sched.global.Len() > 0
}

// trySteal attempts a bounded number of steals from random peers.
func (w *worker) trySteal() *Task {
	n := len(w.sched.workers)
	if n <= 1 {
		return nil
	}
	attempts := n * 2
	batch := w.sched.cfg.StealBatchSize
	if batch <= 0 {
		batch = w.sched.cfg.LocalQueueCapacity / 4
	}
	start := rand.Intn(n)
	for i := 0; i < attempts; i++ {
		idx := (start + i) % n
		if idx == w.id {
			continue
		}
		victim := w.sched.workers[idx]
		w.sched.rt.metrics.incStealAttempts()
		stolen := victim.deque.steal(batch)
		if len(stolen) == 0 {
			continue
		}
		w.sched.rt.metrics.incSteals(int64(len(stolen)))
		first := stolen[0]
		for _, t := range stolen[1:] {
			if !w.deque.pushBottom(t) {
				w.sched.global.push(t)
			}
		}
		return first
	}
	return nil
}

// nextPollTimeout computes the reactor's run_once timeout as
// min(idle-park-limit, next_deadline - now), per spec.md §4.6. A
// quiescent reactor (no interest, no timers) is given a bounded timeout
// rather than an infinite one, so the scheduler can re-check the
// stopping flag and the runtime's overall quiescence (spec.md §8
// boundary behavior: run_once must not block indefinitely).
func (s *Scheduler) nextPollTimeout() time.Duration {
	const idleParkLimit = 100 * time.Millisecond
	if d, ok := s.rt.timers.NextDeadline(); ok {
		until := time.Until(d)
		if until < 0 {
			return 0
		}
		if until < idleParkLimit {
			return until
		}
	}
	return idleParkLimit
}

func (w *worker) park() {
	w.sched.idle.Add(1)
	w.sched.condMu.Lock()
	if !w.sched.stopping.Load() && !w.hasWork() {
		w.sched.cond.Wait()
	}
	w.sched.condMu.Unlock()
	w.sched.idle.Add(-1)
}

// runTask executes one poll cycle of t: state transitions, budget reset,
// panic capture at the worker boundary, and self-wake handling (spec.md
// §4.3, "Task execution").
func (w *worker) runTask(t *Task) {
	if !t.state.CompareAndSwap(uint32(TaskRunnable), uint32(TaskRunning)) {
		return
	}
	t.selfWake.Store(false)

	if t.Aborted() {
		t.finish(nil, ErrCancelled, true)
		return
	}

	waker := newWaker(t)
	budget := NewBudget(w.sched.cfg.TaskBudget)
	ctx := NewContext(waker, t.id, budget)

	ready, val, err := pollTaskSafely(t, ctx)
	waker.Drop()

	if ready {
		t.finish(val, err, false)
		return
	}

	if t.Aborted() {
		t.finish(nil, ErrCancelled, true)
		return
	}

	t.state.Store(uint32(TaskWaiting))

	if t.selfWake.Load() {
		if t.markRunnable(TaskWaiting) {
			w.setLIFO(t)
		}
	}
}

// pollTaskSafely invokes t's erased poll function, recovering a panic
// into a PanicError per spec.md §4.3 ("a panic inside poll propagates to
// the JoinHandle as an error variant; the worker catches it").
func pollTaskSafely(t *Task, ctx *Context) (ready bool, val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			ready = true
			val = nil
			err = &PanicError{Value: r, Stack: debug.Stack()}
			logErr(err, "task panicked", "task", uint64(t.id))
		}
	}()
	val, err, ready = t.pollFn(ctx)
	return
}

// currentWorker/setCurrentWorker provide the per-goroutine "which worker
// am I" lookup used by Spawn to pick the fast LIFO-deque path. Go has no
// goroutine-local storage; this uses a runtime-provided goroutine id
// keyed map guarded by a mutex, which is adequate since it is only
// consulted on the (already synchronization-heavy) spawn path and by
// CurrentRuntime - see runtime.go's broader "current runtime" discussion for the same
// tradeoff at the facade layer.
var (
	workerRegistryMu sync.Mutex
	workerRegistry   = map[int64]*worker{}
)

func currentWorker() *worker {
	workerRegistryMu.Lock()
	defer workerRegistryMu.Unlock()
	return workerRegistry[goroutineID()]
}

func setCurrentWorker(w *worker) {
	id := goroutineID()
	workerRegistryMu.Lock()
	defer workerRegistryMu.Unlock()
	if w == nil {
		delete(workerRegistry, id)
		return
	}
	workerRegistry[id] = w
}
