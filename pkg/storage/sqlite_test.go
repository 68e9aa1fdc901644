package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kemeter/ring/pkg/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ring.db")
	store, err := Open(path, 1)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGetDeployment(t *testing.T) {
	store := newTestStore(t)

	d := &types.Deployment{
		Namespace: "default",
		Name:      "web",
		Image:     "nginx:latest",
		Status:    types.DeploymentPending,
		Runtime:   "docker",
		Kind:      types.KindWorker,
		Replicas:  1,
		Command:   []string{"nginx", "-g", "daemon off;"},
		Labels:    map[string]string{"env": "prod"},
		Secrets:   map[string]string{},
	}
	require.NoError(t, store.CreateDeployment(d))
	require.NotEmpty(t, d.ID)

	got, err := store.GetDeployment(d.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, d.Namespace, got.Namespace)
	require.Equal(t, d.Command, got.Command)
	require.Equal(t, "prod", got.Labels["env"])
}

func TestListDeploymentsFilter(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.CreateDeployment(&types.Deployment{Namespace: "a", Name: "one", Status: types.DeploymentRunning, Kind: types.KindWorker}))
	require.NoError(t, store.CreateDeployment(&types.Deployment{Namespace: "b", Name: "two", Status: types.DeploymentRunning, Kind: types.KindWorker}))
	require.NoError(t, store.CreateDeployment(&types.Deployment{Namespace: "a", Name: "three", Status: types.DeploymentDeleted, Kind: types.KindWorker}))

	result, err := store.ListDeployments(Filter{"namespace": {"a"}})
	require.NoError(t, err)
	require.Len(t, result, 2)

	result, err = store.ListDeployments(Filter{"namespace": {"a"}, "status": {string(types.DeploymentRunning)}})
	require.NoError(t, err)
	require.Len(t, result, 1)

	// empty value set is ignored, not "match nothing"
	result, err = store.ListDeployments(Filter{"namespace": {}})
	require.NoError(t, err)
	require.Len(t, result, 3)
}

func TestAtMostOneActivePerNamespaceName(t *testing.T) {
	store := newTestStore(t)

	d1 := &types.Deployment{Namespace: "a", Name: "web", Status: types.DeploymentDeleted, Kind: types.KindWorker}
	d2 := &types.Deployment{Namespace: "a", Name: "web", Status: types.DeploymentRunning, Kind: types.KindWorker}
	require.NoError(t, store.CreateDeployment(d1))
	require.NoError(t, store.CreateDeployment(d2))

	active, err := store.ListActiveByNamespaceName("a", "web")
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, d2.ID, active[0].ID)
}

func TestEventWriteUpdatesLastEventAt(t *testing.T) {
	store := newTestStore(t)

	d := &types.Deployment{Namespace: "a", Name: "web", Status: types.DeploymentRunning, Kind: types.KindWorker}
	require.NoError(t, store.CreateDeployment(d))

	require.NoError(t, store.CreateEvent(&types.DeploymentEvent{
		DeploymentID: d.ID,
		Level:        "info",
		Message:      "created",
		Component:    "scheduler",
	}))

	got, err := store.GetDeployment(d.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastEventAt)

	events, err := store.ListEventsByDeployment(d.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.LessOrEqual(t, events[0].Timestamp, *got.LastEventAt)
}

func TestListEventsLimitClamp(t *testing.T) {
	store := newTestStore(t)
	d := &types.Deployment{Namespace: "a", Name: "web", Status: types.DeploymentRunning, Kind: types.KindWorker}
	require.NoError(t, store.CreateDeployment(d))

	for i := 0; i < 5; i++ {
		require.NoError(t, store.CreateEvent(&types.DeploymentEvent{DeploymentID: d.ID, Level: "info", Message: "x", Component: "scheduler"}))
	}

	events, err := store.ListEventsByDeployment(d.ID, 0)
	require.NoError(t, err)
	require.Len(t, events, 5)

	events, err = store.ListEventsByDeployment(d.ID, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
}

func TestLatestHealthCheckResultsOnePerCheckType(t *testing.T) {
	store := newTestStore(t)
	d := &types.Deployment{Namespace: "a", Name: "web", Status: types.DeploymentRunning, Kind: types.KindWorker}
	require.NoError(t, store.CreateDeployment(d))

	base := time.Now().UTC()
	for i, status := range []types.HealthCheckStatus{types.HealthCheckFailed, types.HealthCheckSuccess} {
		started := base.Add(time.Duration(i) * time.Minute).Format(time.RFC3339)
		require.NoError(t, store.CreateHealthCheckResult(&types.HealthCheckResult{
			DeploymentID: d.ID,
			CheckType:    "tcp",
			Status:       status,
			StartedAt:    started,
			FinishedAt:   started,
		}))
	}
	require.NoError(t, store.CreateHealthCheckResult(&types.HealthCheckResult{
		DeploymentID: d.ID,
		CheckType:    "http",
		Status:       types.HealthCheckSuccess,
		StartedAt:    base.Format(time.RFC3339),
		FinishedAt:   base.Format(time.RFC3339),
	}))

	latest, err := store.LatestHealthCheckResultsByDeployment(d.ID)
	require.NoError(t, err)
	require.Len(t, latest, 2)

	byType := map[string]*types.HealthCheckResult{}
	for _, r := range latest {
		byType[r.CheckType] = r
	}
	require.Equal(t, types.HealthCheckSuccess, byType["tcp"].Status)
}

func TestCleanupOldHealthCheckResultsKeepsTopN(t *testing.T) {
	store := newTestStore(t)
	d := &types.Deployment{Namespace: "a", Name: "web", Status: types.DeploymentRunning, Kind: types.KindWorker}
	require.NoError(t, store.CreateDeployment(d))

	base := time.Now().UTC()
	for i := 0; i < 10; i++ {
		ts := base.Add(time.Duration(i) * time.Second).Format(time.RFC3339)
		require.NoError(t, store.CreateHealthCheckResult(&types.HealthCheckResult{
			DeploymentID: d.ID,
			CheckType:    "tcp",
			Status:       types.HealthCheckSuccess,
			StartedAt:    ts,
			FinishedAt:   ts,
		}))
	}

	deleted, err := store.CleanupOldHealthCheckResults(7*24*time.Hour, 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), deleted)

	remaining, err := store.ListHealthCheckResultsByDeployment(d.ID, 100)
	require.NoError(t, err)
	require.Len(t, remaining, 5)
}

func TestConfigCRUD(t *testing.T) {
	store := newTestStore(t)

	c := &types.Config{Namespace: "default", Name: "app-env", Data: `{"FOO":"bar"}`, Labels: `{"tier":"app"}`}
	require.NoError(t, store.CreateConfig(c))

	got, err := store.GetConfig(c.ID)
	require.NoError(t, err)
	require.Equal(t, c.Data, got.Data)

	got.Data = `{"FOO":"baz"}`
	require.NoError(t, store.UpdateConfig(got))

	updated, err := store.GetConfig(c.ID)
	require.NoError(t, err)
	require.Equal(t, `{"FOO":"baz"}`, updated.Data)
	require.NotNil(t, updated.UpdatedAt)

	require.NoError(t, store.DeleteConfig(c.ID))
	missing, err := store.GetConfig(c.ID)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestUserLoginFlow(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.CreateUser("alice", "hashed-password"))

	u, err := store.GetUserByUsername("alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Equal(t, types.UserActive, u.Status)

	u.Token = "fresh-token"
	require.NoError(t, store.Login(u))

	byToken, err := store.GetUserByToken("fresh-token")
	require.NoError(t, err)
	require.Equal(t, u.ID, byToken.ID)
}
