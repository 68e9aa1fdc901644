package scheduler

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kemeter/ring/pkg/storage"
	"github.com/kemeter/ring/pkg/types"
)

func newTestScheduler(t *testing.T) (*Scheduler, storage.Store) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "ring.db"), 1)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewScheduler(store), store
}

func TestNewSchedulerDefaults(t *testing.T) {
	s, _ := newTestScheduler(t)

	assert.Equal(t, defaultInterval, s.interval)
	assert.Equal(t, defaultApplyTimeout, s.applyTimeout)
	assert.Equal(t, defaultCleanupInterval, s.cleanupInterval)
}

func TestEnvDurationFallsBackOnMissingOrInvalid(t *testing.T) {
	assert.Equal(t, 7*time.Second, envDuration("RING_SCHEDULER_TEST_UNSET", 7*time.Second))

	t.Setenv("RING_SCHEDULER_TEST_VAL", "not-a-number")
	assert.Equal(t, 7*time.Second, envDuration("RING_SCHEDULER_TEST_VAL", 7*time.Second))

	t.Setenv("RING_SCHEDULER_TEST_VAL", "42")
	assert.Equal(t, 42*time.Second, envDuration("RING_SCHEDULER_TEST_VAL", 7*time.Second))
}

func TestStopIsSafeBeforeStart(t *testing.T) {
	s, _ := newTestScheduler(t)

	assert.NotPanics(t, func() { s.Stop() })

	select {
	case <-s.stopCh:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("stopCh should be closed immediately")
	}
}

func TestTickSkipsNonDockerRuntime(t *testing.T) {
	s, store := newTestScheduler(t)

	d := &types.Deployment{
		Namespace: "default",
		Name:      "legacy",
		Image:     "nginx:latest",
		Status:    types.DeploymentPending,
		Runtime:   "other",
		Kind:      types.KindWorker,
		Replicas:  1,
	}
	require.NoError(t, store.CreateDeployment(d))

	assert.NotPanics(t, func() { s.tick() })

	got, err := store.GetDeployment(d.ID)
	require.NoError(t, err)
	assert.Equal(t, types.DeploymentPending, got.Status)
}

func TestTickHandlesDockerConnectionFailureGracefully(t *testing.T) {
	t.Setenv("DOCKER_HOST", "unix:///nonexistent/docker.sock")

	s, store := newTestScheduler(t)

	d := &types.Deployment{
		Namespace: "default",
		Name:      "web",
		Image:     "nginx:latest",
		Status:    types.DeploymentPending,
		Runtime:   "docker",
		Kind:      types.KindWorker,
		Replicas:  1,
		Labels:    map[string]string{},
		Secrets:   map[string]string{},
	}
	require.NoError(t, store.CreateDeployment(d))

	s.tick()

	got, err := store.GetDeployment(d.ID)
	require.NoError(t, err)
	assert.NotEqual(t, types.DeploymentPending, got.Status)

	events, err := store.ListEventsByDeployment(d.ID, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, events)
}

func TestLogEventPersists(t *testing.T) {
	s, store := newTestScheduler(t)

	d := &types.Deployment{Namespace: "a", Name: "web", Status: types.DeploymentRunning, Kind: types.KindWorker}
	require.NoError(t, store.CreateDeployment(d))

	s.logEvent(d.ID, "error", "boom", "ConfigLoadError")

	events, err := store.ListEventsByDeployment(d.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "boom", events[0].Message)
	require.NotNil(t, events[0].Reason)
	assert.Equal(t, "ConfigLoadError", *events[0].Reason)
}

func TestCleanupDeploymentsRemovesRows(t *testing.T) {
	s, store := newTestScheduler(t)

	d := &types.Deployment{Namespace: "a", Name: "web", Status: types.DeploymentDeleted, Kind: types.KindWorker}
	require.NoError(t, store.CreateDeployment(d))
	s.logEvent(d.ID, "info", "bye", "CleanupScheduled")

	s.cleanupDeployments([]string{d.ID})

	got, err := store.GetDeployment(d.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
