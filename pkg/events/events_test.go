package events

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kemeter/ring/pkg/storage"
	"github.com/kemeter/ring/pkg/types"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "ring.db"), 1)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewLog(store)
}

func TestEmitPersistsAndBroadcasts(t *testing.T) {
	log := newTestLog(t)
	store := log.store

	d := &types.Deployment{Namespace: "a", Name: "web", Status: types.DeploymentRunning, Kind: types.KindWorker}
	require.NoError(t, store.CreateDeployment(d))

	sub := log.Subscribe()
	defer log.Unsubscribe(sub)

	reason := "ScaleUp"
	require.NoError(t, log.Emit(&types.DeploymentEvent{
		DeploymentID: d.ID,
		Level:        "info",
		Message:      "scaled up",
		Component:    "docker",
		Reason:       &reason,
	}))

	select {
	case e := <-sub:
		require.Equal(t, "scaled up", e.Message)
	default:
		t.Fatal("expected event on subscriber channel")
	}

	events, err := log.ByDeployment(d.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestByDeploymentAndLevelFilters(t *testing.T) {
	log := newTestLog(t)
	store := log.store

	d := &types.Deployment{Namespace: "a", Name: "web", Status: types.DeploymentRunning, Kind: types.KindWorker}
	require.NoError(t, store.CreateDeployment(d))

	require.NoError(t, log.Emit(&types.DeploymentEvent{DeploymentID: d.ID, Level: "info", Message: "ok", Component: "scheduler"}))
	require.NoError(t, log.Emit(&types.DeploymentEvent{DeploymentID: d.ID, Level: "error", Message: "bad", Component: "docker"}))

	errs, err := log.ByDeploymentAndLevel(d.ID, "error", 10)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	require.Equal(t, "bad", errs[0].Message)
}

func TestDeleteByDeployment(t *testing.T) {
	log := newTestLog(t)
	store := log.store

	d := &types.Deployment{Namespace: "a", Name: "web", Status: types.DeploymentRunning, Kind: types.KindWorker}
	require.NoError(t, store.CreateDeployment(d))
	require.NoError(t, log.Emit(&types.DeploymentEvent{DeploymentID: d.ID, Level: "info", Message: "x", Component: "scheduler"}))

	n, err := log.DeleteByDeployment(d.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}
