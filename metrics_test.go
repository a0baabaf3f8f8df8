package aeon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetrics_DisabledByDefaultDropsCounts(t *testing.T) {
	t.Parallel()

	m := newMetrics(NewConfig())
	m.incSpawned()
	m.incCompleted()
	m.incSteals(5)

	snap := m.Snapshot()
	require.Zero(t, snap.TasksSpawned)
	require.Zero(t, snap.TasksCompleted)
	require.Zero(t, snap.Steals)
}

func TestMetrics_EnabledCountsAccumulate(t *testing.T) {
	t.Parallel()

	m := newMetrics(NewConfig(WithMetrics(true)))
	m.incSpawned()
	m.incSpawned()
	m.incCompleted()
	m.incCancelled()
	m.incPanicked()
	m.incSteals(3)
	m.incStealAttempts()
	m.incGlobalEnqueues()
	m.incTimersFired(2)
	m.incIOCompletions()

	snap := m.Snapshot()
	want := Snapshot{
		TasksSpawned:   2,
		TasksCompleted: 1,
		TasksCancelled: 1,
		TasksPanicked:  1,
		Steals:         3,
		StealAttempts:  1,
		GlobalEnqueues: 1,
		TimersFired:    2,
		IOCompletions:  1,
	}
	require.Equal(t, want, snap)
}
