package aeon

import "sync/atomic"

// Metrics holds in-process counters for the scheduler, reactor, and
// timer wheel, gated entirely by Config.EnableMetrics — spec.md §1
// explicitly excludes any exposition format (Prometheus, StatsD, etc.)
// as a non-goal; these counters are read through Snapshot, and nothing
// in the package logs them.
type Metrics struct {
	enabled atomic.Bool

	TasksSpawned   atomic.Int64
	TasksCompleted atomic.Int64
	TasksCancelled atomic.Int64
	TasksPanicked  atomic.Int64
	Steals         atomic.Int64
	StealAttempts  atomic.Int64
	GlobalEnqueues atomic.Int64
	TimersFired    atomic.Int64
	IOCompletions  atomic.Int64
}

// newMetrics returns a Metrics collector enabled according to cfg.
func newMetrics(cfg *Config) *Metrics {
	m := &Metrics{}
	m.enabled.Store(cfg.EnableMetrics)
	return m
}

func (m *Metrics) incSpawned() {
	if m.enabled.Load() {
		m.TasksSpawned.Add(1)
	}
}

func (m *Metrics) incCompleted() {
	if m.enabled.Load() {
		m.TasksCompleted.Add(1)
	}
}

func (m *Metrics) incCancelled() {
	if m.enabled.Load() {
		m.TasksCancelled.Add(1)
	}
}

func (m *Metrics) incPanicked() {
	if m.enabled.Load() {
		m.TasksPanicked.Add(1)
	}
}

func (m *Metrics) incSteals(n int64) {
	if m.enabled.Load() {
		m.Steals.Add(n)
	}
}

func (m *Metrics) incStealAttempts() {
	if m.enabled.Load() {
		m.StealAttempts.Add(1)
	}
}

func (m *Metrics) incGlobalEnqueues() {
	if m.enabled.Load() {
		m.GlobalEnqueues.Add(1)
	}
}

func (m *Metrics) incTimersFired(n int64) {
	if m.enabled.Load() {
		m.TimersFired.Add(n)
	}
}

func (m *Metrics) incIOCompletions() {
	if m.enabled.Load() {
		m.IOCompletions.Add(1)
	}
}

// Snapshot returns a point-in-time copy of every counter, safe to log or
// compare in tests.
type Snapshot struct {
	TasksSpawned, TasksCompleted, TasksCancelled, TasksPanicked int64
	Steals, StealAttempts, GlobalEnqueues                       int64
	TimersFired, IOCompletions                                  int64
}

// Snapshot reads every counter into a Snapshot.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		TasksSpawned:   m.TasksSpawned.Load(),
		TasksCompleted: m.TasksCompleted.Load(),
		TasksCancelled: m.TasksCancelled.Load(),
		TasksPanicked:  m.TasksPanicked.Load(),
		Steals:         m.Steals.Load(),
		StealAttempts:  m.StealAttempts.Load(),
		GlobalEnqueues: m.GlobalEnqueues.Load(),
		TimersFired:    m.TimersFired.Load(),
		IOCompletions:  m.IOCompletions.Load(),
	}
}
