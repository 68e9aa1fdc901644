package events

import (
	"sync"

	"github.com/kemeter/ring/pkg/metrics"
	"github.com/kemeter/ring/pkg/storage"
	"github.com/kemeter/ring/pkg/types"
)

// Subscriber is a channel that receives events as they are written to the
// log, for callers that want to watch a deployment live (e.g. an SSE
// handler backing `ring deployment events --follow`).
type Subscriber chan *types.DeploymentEvent

// Log is the deployment event log: every write goes through the Store
// (which also maintains deployment.last_event_at) and is then fanned out
// to any live subscribers. Reads are delegated straight to the Store.
type Log struct {
	store       storage.Store
	mu          sync.RWMutex
	subscribers map[Subscriber]bool
}

// NewLog wraps store with live-subscription fan-out.
func NewLog(store storage.Store) *Log {
	return &Log{
		store:       store,
		subscribers: make(map[Subscriber]bool),
	}
}

// Emit persists e (setting its id/timestamp/deployment_id the way
// NewDeploymentEvent does) and broadcasts it to live subscribers.
func (l *Log) Emit(e *types.DeploymentEvent) error {
	if err := l.store.CreateEvent(e); err != nil {
		return err
	}
	metrics.EventsTotal.WithLabelValues(e.Level).Inc()
	l.broadcast(e)
	return nil
}

// ByDeployment returns the deployment's events, newest first, capped at limit.
func (l *Log) ByDeployment(deploymentID string, limit int) ([]*types.DeploymentEvent, error) {
	return l.store.ListEventsByDeployment(deploymentID, limit)
}

// ByDeploymentAndLevel filters additionally by level ("info"/"warning"/"error").
func (l *Log) ByDeploymentAndLevel(deploymentID, level string, limit int) ([]*types.DeploymentEvent, error) {
	return l.store.ListEventsByDeploymentAndLevel(deploymentID, level, limit)
}

// DeleteByDeployment removes every event row for deploymentID, used by the
// scheduler's cleanup of deleted-and-empty deployments.
func (l *Log) DeleteByDeployment(deploymentID string) (int64, error) {
	return l.store.DeleteEventsByDeployment(deploymentID)
}

// Subscribe returns a channel of events for every deployment the caller can
// drain until Unsubscribe is called. The channel is buffered; a slow
// consumer drops events rather than blocking Emit.
func (l *Log) Subscribe() Subscriber {
	l.mu.Lock()
	defer l.mu.Unlock()

	sub := make(Subscriber, 50)
	l.subscribers[sub] = true
	return sub
}

// Unsubscribe removes and closes sub.
func (l *Log) Unsubscribe(sub Subscriber) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.subscribers[sub]; ok {
		delete(l.subscribers, sub)
		close(sub)
	}
}

func (l *Log) broadcast(e *types.DeploymentEvent) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for sub := range l.subscribers {
		select {
		case sub <- e:
		default:
			// subscriber buffer full, drop rather than block the writer
		}
	}
}
