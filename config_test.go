package aeon

import (
	"runtime"
	"testing"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Parallel()

	c := NewConfig()
	if c.WorkerThreads != runtime.NumCPU() {
		t.Errorf("WorkerThreads = %d, want %d", c.WorkerThreads, runtime.NumCPU())
	}
	if c.LocalQueueCapacity != 256 {
		t.Errorf("LocalQueueCapacity = %d, want 256", c.LocalQueueCapacity)
	}
	if c.StealBatchSize != 64 {
		t.Errorf("StealBatchSize = %d, want 64", c.StealBatchSize)
	}
	if c.GlobalQueueInterval != 31 {
		t.Errorf("GlobalQueueInterval = %d, want 31", c.GlobalQueueInterval)
	}
	if !c.EnableWorkStealing {
		t.Error("EnableWorkStealing = false, want true")
	}
	if !c.EnableLIFOSlot {
		t.Error("EnableLIFOSlot = false, want true")
	}
	if c.ReactorBackend != BackendAuto {
		t.Errorf("ReactorBackend = %v, want BackendAuto", c.ReactorBackend)
	}
	if c.ReactorEventsCapacity != 1024 {
		t.Errorf("ReactorEventsCapacity = %d, want 1024", c.ReactorEventsCapacity)
	}
	if c.TimerWheelLevels != 3 {
		t.Errorf("TimerWheelLevels = %d, want 3", c.TimerWheelLevels)
	}
	if c.BlockingPoolMax != 512 {
		t.Errorf("BlockingPoolMax = %d, want 512", c.BlockingPoolMax)
	}
	if c.EnableMetrics {
		t.Error("EnableMetrics = true, want false")
	}
	if c.TaskBudget != DefaultBudget {
		t.Errorf("TaskBudget = %d, want %d", c.TaskBudget, DefaultBudget)
	}
}

func TestNewConfig_OptionsOverrideDefaults(t *testing.T) {
	t.Parallel()

	c := NewConfig(
		WithWorkerThreads(4),
		WithLocalQueueCapacity(128),
		WithStealBatchSize(8),
		WithGlobalQueueInterval(10),
		WithWorkStealing(false),
		WithLIFOSlot(false),
		WithReactorBackend(BackendEpoll),
		WithReactorEventsCapacity(2048),
		WithReactorBatchSize(16),
		WithTimerWheelLevels(4),
		WithTimerSlotsPerLevel(32),
		WithTimerBasePrecisionUs(500),
		WithBlockingPoolMax(64),
		WithMetrics(true),
		WithTaskBudget(256),
	)

	if c.WorkerThreads != 4 {
		t.Errorf("WorkerThreads = %d, want 4", c.WorkerThreads)
	}
	if c.LocalQueueCapacity != 128 {
		t.Errorf("LocalQueueCapacity = %d, want 128", c.LocalQueueCapacity)
	}
	if c.EnableWorkStealing {
		t.Error("EnableWorkStealing = true, want false")
	}
	if c.EnableLIFOSlot {
		t.Error("EnableLIFOSlot = true, want false")
	}
	if c.ReactorBackend != BackendEpoll {
		t.Errorf("ReactorBackend = %v, want BackendEpoll", c.ReactorBackend)
	}
	if c.TimerWheelLevels != 4 {
		t.Errorf("TimerWheelLevels = %d, want 4", c.TimerWheelLevels)
	}
	if c.EnableMetrics != true {
		t.Error("EnableMetrics = false, want true")
	}
	if c.TaskBudget != 256 {
		t.Errorf("TaskBudget = %d, want 256", c.TaskBudget)
	}
}

func TestWithWorkerThreads_IgnoresNonPositive(t *testing.T) {
	t.Parallel()

	c := NewConfig(WithWorkerThreads(0))
	if c.WorkerThreads != runtime.NumCPU() {
		t.Errorf("WithWorkerThreads(0) overrode the default: got %d, want %d", c.WorkerThreads, runtime.NumCPU())
	}

	c = NewConfig(WithWorkerThreads(-5))
	if c.WorkerThreads != runtime.NumCPU() {
		t.Errorf("WithWorkerThreads(-5) overrode the default: got %d, want %d", c.WorkerThreads, runtime.NumCPU())
	}
}

func TestNewConfig_NilOptionIgnored(t *testing.T) {
	t.Parallel()

	c := NewConfig(nil, WithWorkerThreads(2), nil)
	if c.WorkerThreads != 2 {
		t.Errorf("WorkerThreads = %d, want 2 (nil options must be skipped, not panic)", c.WorkerThreads)
	}
}

func TestReactorBackend_String(t *testing.T) {
	t.Parallel()

	cases := map[ReactorBackend]string{
		BackendAuto:    "auto",
		BackendEpoll:   "epoll",
		BackendKqueue:  "kqueue",
		BackendIOCP:    "iocp",
		BackendIOUring: "io_uring",
	}
	for b, want := range cases {
		if got := b.String(); got != want {
			t.Errorf("ReactorBackend(%d).String() = %q, want %q", b, got, want)
		}
	}
}
