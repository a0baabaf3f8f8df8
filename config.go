package aeon

import (
	"runtime"
	"time"
)

// ReactorBackend selects the OS I/O multiplexing mechanism the reactor
// uses. Auto picks the platform default at Start time.
type ReactorBackend int

const (
	BackendAuto ReactorBackend = iota
	BackendEpoll
	BackendKqueue
	BackendIOCP
	BackendIOUring
)

// String returns a human-readable backend name.
func (b ReactorBackend) String() string {
	switch b {
	case BackendEpoll:
		return "epoll"
	case BackendKqueue:
		return "kqueue"
	case BackendIOCP:
		return "iocp"
	case BackendIOUring:
		return "io_uring"
	default:
		return "auto"
	}
}

// Config holds the full set of recognized runtime options (spec.md §6).
// Zero value is never used directly; construct one via NewConfig, which
// applies every default, then Options.
type Config struct {
	WorkerThreads           int
	LocalQueueCapacity      int
	StealBatchSize          int
	GlobalQueueInterval     int
	EnableWorkStealing      bool
	EnableLIFOSlot          bool
	ReactorBackend          ReactorBackend
	ReactorEventsCapacity   int
	ReactorBatchSize        int
	TimerWheelLevels        int
	TimerSlotsPerLevel      int
	TimerBasePrecisionUs    int
	BlockingPoolMax         int
	BlockingShutdownTimeout time.Duration
	EnableMetrics           bool
	TaskBudget              int32
}

// Option configures a Config, following the teacher's (options.go)
// functional-options shape generalized from 3 loop options to the full
// external-interfaces config surface.
type Option interface {
	apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) apply(c *Config) { f(c) }

// NewConfig returns a Config with every default from spec.md §6 applied,
// then each opt layered on top in order.
func NewConfig(opts ...Option) *Config {
	c := &Config{
		WorkerThreads:           runtime.NumCPU(),
		LocalQueueCapacity:      256,
		StealBatchSize:          64,
		GlobalQueueInterval:     31,
		EnableWorkStealing:      true,
		EnableLIFOSlot:          true,
		ReactorBackend:          BackendAuto,
		ReactorEventsCapacity:   1024,
		ReactorBatchSize:        32,
		TimerWheelLevels:        3,
		TimerSlotsPerLevel:      64,
		TimerBasePrecisionUs:    1000,
		BlockingPoolMax:         512,
		BlockingShutdownTimeout: 5 * time.Second,
		EnableMetrics:           false,
		TaskBudget:              DefaultBudget,
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o.apply(c)
	}
	return c
}

func WithWorkerThreads(n int) Option {
	return optionFunc(func(c *Config) {
		if n > 0 {
			c.WorkerThreads = n
		}
	})
}

func WithLocalQueueCapacity(n int) Option {
	return optionFunc(func(c *Config) { c.LocalQueueCapacity = n })
}

func WithStealBatchSize(n int) Option {
	return optionFunc(func(c *Config) { c.StealBatchSize = n })
}

func WithGlobalQueueInterval(n int) Option {
	return optionFunc(func(c *Config) { c.GlobalQueueInterval = n })
}

func WithWorkStealing(enabled bool) Option {
	return optionFunc(func(c *Config) { c.EnableWorkStealing = enabled })
}

func WithLIFOSlot(enabled bool) Option {
	return optionFunc(func(c *Config) { c.EnableLIFOSlot = enabled })
}

func WithReactorBackend(b ReactorBackend) Option {
	return optionFunc(func(c *Config) { c.ReactorBackend = b })
}

func WithReactorEventsCapacity(n int) Option {
	return optionFunc(func(c *Config) { c.ReactorEventsCapacity = n })
}

func WithReactorBatchSize(n int) Option {
	return optionFunc(func(c *Config) { c.ReactorBatchSize = n })
}

func WithTimerWheelLevels(n int) Option {
	return optionFunc(func(c *Config) { c.TimerWheelLevels = n })
}

func WithTimerSlotsPerLevel(n int) Option {
	return optionFunc(func(c *Config) { c.TimerSlotsPerLevel = n })
}

func WithTimerBasePrecisionUs(n int) Option {
	return optionFunc(func(c *Config) { c.TimerBasePrecisionUs = n })
}

func WithBlockingPoolMax(n int) Option {
	return optionFunc(func(c *Config) { c.BlockingPoolMax = n })
}

func WithBlockingShutdownTimeout(d time.Duration) Option {
	return optionFunc(func(c *Config) { c.BlockingShutdownTimeout = d })
}

func WithMetrics(enabled bool) Option {
	return optionFunc(func(c *Config) { c.EnableMetrics = enabled })
}

func WithTaskBudget(n int32) Option {
	return optionFunc(func(c *Config) { c.TaskBudget = n })
}
