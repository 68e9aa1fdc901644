package metrics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kemeter/ring/pkg/deploy"
	"github.com/kemeter/ring/pkg/events"
	"github.com/kemeter/ring/pkg/storage"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "ring.db"), 1)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCollectDeploymentMetricsGroupsByNamespaceAndStatus(t *testing.T) {
	store := newTestStore(t)
	log := events.NewLog(store)

	if _, err := deploy.Create(store, log, deploy.CreateInput{
		Runtime: "docker", Namespace: "default", Name: "web", Image: "nginx",
	}); err != nil {
		t.Fatalf("creating deployment: %v", err)
	}

	c := NewCollector(store)
	c.collect()

	count := testutil.ToFloat64(DeploymentsTotal.WithLabelValues("default", "creating"))
	if count != 1 {
		t.Errorf("expected 1 creating deployment in default namespace, got %v", count)
	}
}

func TestCollectConfigAndUserMetrics(t *testing.T) {
	store := newTestStore(t)
	if err := store.CreateUser("ada", "hash"); err != nil {
		t.Fatalf("creating user: %v", err)
	}

	c := NewCollector(store)
	c.collect()

	if got := testutil.ToFloat64(UsersTotal); got != 1 {
		t.Errorf("expected UsersTotal 1, got %v", got)
	}
}

func TestCollectorStartStop(t *testing.T) {
	store := newTestStore(t)
	c := NewCollector(store)
	c.Start()
	time.Sleep(10 * time.Millisecond)
	c.Stop()
}
