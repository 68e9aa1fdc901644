package scheduler

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/kemeter/ring/pkg/health"
	"github.com/kemeter/ring/pkg/log"
	"github.com/kemeter/ring/pkg/metrics"
	"github.com/kemeter/ring/pkg/runtime"
	"github.com/kemeter/ring/pkg/storage"
	"github.com/kemeter/ring/pkg/types"
)

const (
	defaultInterval        = 5 * time.Second
	defaultApplyTimeout    = 300 * time.Second
	defaultCleanupInterval = 300 * time.Second
	healthResultRetention  = 7 * 24 * time.Hour
	healthResultKeepPerDep = 50
)

// reconcileStatuses are the deployment states the scheduler pulls into its
// working set on every tick; Pending/Completed/Failed/the error statuses
// need no further driving until the API or a user moves them.
var reconcileStatuses = []string{
	string(types.DeploymentCreating),
	string(types.DeploymentRunning),
	string(types.DeploymentDeleted),
}

// Scheduler is the single reconciliation loop: it owns the Store as the
// only writer of deployment.status, persisting whatever the Runtime Driver
// and Health Checker return each tick.
type Scheduler struct {
	store   storage.Store
	checker *health.Checker
	logger  zerolog.Logger

	interval        time.Duration
	applyTimeout    time.Duration
	cleanupInterval time.Duration
	lastCleanup     time.Time

	mu     sync.Mutex
	stopCh chan struct{}
}

// NewScheduler builds a Scheduler reading SCHEDULER_INTERVAL and
// RING_APPLY_TIMEOUT (both seconds) from the environment, falling back to
// 5s and 300s respectively.
func NewScheduler(store storage.Store) *Scheduler {
	return &Scheduler{
		store:           store,
		checker:         health.NewChecker(),
		logger:          log.WithComponent("scheduler"),
		interval:        envDuration("SCHEDULER_INTERVAL", defaultInterval),
		applyTimeout:    envDuration("RING_APPLY_TIMEOUT", defaultApplyTimeout),
		cleanupInterval: defaultCleanupInterval,
		lastCleanup:     time.Now(),
		stopCh:          make(chan struct{}),
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Start begins the scheduler loop in its own goroutine.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop signals the loop to exit; it does not wait for the current tick.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) run() {
	s.logger.Info().Dur("interval", s.interval).Dur("apply_timeout", s.applyTimeout).Msg("scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.stopCh:
			return
		}
	}
}

// tick runs exactly one reconciliation cycle over the current working set.
func (s *Scheduler) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	deployments, err := s.store.ListDeployments(storage.Filter{"status": reconcileStatuses})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list deployments")
		return
	}

	s.logger.Debug().Int("count", len(deployments)).Msg("processing deployments")

	var toDelete []string
	for _, d := range deployments {
		if d.Runtime != "docker" {
			continue
		}
		if s.reconcileOne(d) {
			toDelete = append(toDelete, d.ID)
		}
	}

	if len(toDelete) > 0 {
		s.cleanupDeployments(toDelete)
	}

	if time.Since(s.lastCleanup) >= s.cleanupInterval {
		s.lastCleanup = time.Now()
		if n, err := s.store.CleanupOldHealthCheckResults(healthResultRetention, healthResultKeepPerDep); err != nil {
			s.logger.Error().Err(err).Msg("failed to clean up old health check results")
		} else if n > 0 {
			s.logger.Debug().Int64("removed", n).Msg("cleaned up old health check results")
		}
	}
}

// reconcileOne drives one deployment through apply, auto-transitions and
// health checks, persisting the result. It returns true if the deployment
// is now eligible for the cleanup queue.
func (s *Scheduler) reconcileOne(d *types.Deployment) bool {
	configsByName, err := s.loadConfigs(d.Namespace)
	if err != nil {
		s.logger.Error().Err(err).Str("deployment_id", d.ID).Msg("failed to load configs")
		s.logEvent(d.ID, "error", "failed to load configs: "+err.Error(), "ConfigLoadError")
		return false
	}

	updated, ok := s.apply(d, configsByName)
	if !ok {
		return false
	}

	s.drainEvents(updated)

	cleanup := false
	if updated.Status == types.DeploymentDeleted && len(updated.Instances) == 0 {
		s.logEvent(updated.ID, "info", "deployment marked for cleanup - all containers stopped", "CleanupScheduled")
		cleanup = true
	}

	if updated.Status == types.DeploymentCreating && len(updated.Instances) > 0 {
		s.logEvent(updated.ID, "info", fmt.Sprintf("status changed from creating to running (%d containers)", len(updated.Instances)), "StateTransition")
		updated.Status = types.DeploymentRunning
	}

	if updated.Status == types.DeploymentRunning && len(updated.HealthChecks) > 0 {
		s.runHealthChecks(updated)
	}

	if err := s.store.UpdateDeploymentStatus(updated); err != nil {
		s.logger.Error().Err(err).Str("deployment_id", updated.ID).Msg("failed to update deployment")
	}

	return cleanup
}

func (s *Scheduler) loadConfigs(namespace string) (map[string]*types.Config, error) {
	configs, err := s.store.ListConfigsByNamespace(namespace)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*types.Config, len(configs))
	for _, c := range configs {
		byName[c.Name] = c
	}
	return byName, nil
}

// apply runs the Runtime Driver under applyTimeout. If the deadline is
// reached before it returns, it emits an ApplyTimeout event directly
// (the deployment's own PendingEvents may never be drained) and reports
// ok=false so the caller skips the rest of this deployment's tick.
func (s *Scheduler) apply(d *types.Deployment, configs map[string]*types.Config) (*types.Deployment, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.applyTimeout)
	defer cancel()

	resultCh := make(chan *types.Deployment, 1)
	go func() { resultCh <- runtime.Apply(ctx, d, configs) }()

	select {
	case updated := <-resultCh:
		return updated, true
	case <-ctx.Done():
		s.logger.Error().Str("deployment_id", d.ID).Msg("apply timed out")
		s.logEvent(d.ID, "error", fmt.Sprintf("scheduler apply timed out after %s", s.applyTimeout), "ApplyTimeout")
		return nil, false
	}
}

func (s *Scheduler) runHealthChecks(d *types.Deployment) {
	cli, err := runtime.Connect()
	if err != nil {
		s.logger.Error().Err(err).Str("deployment_id", d.ID).Msg("failed to connect to docker for health checks")
		return
	}
	defer cli.Close()

	ctx := context.Background()
	outcome := s.checker.Execute(ctx, cli, d)

	for _, r := range outcome.Results {
		r := r
		if err := s.store.CreateHealthCheckResult(&r); err != nil {
			s.logger.Error().Err(err).Str("deployment_id", d.ID).Msg("failed to store health check result")
			continue
		}
		metrics.HealthCheckResultsTotal.WithLabelValues(string(r.Status)).Inc()
	}

	for _, e := range outcome.Events {
		e := e
		if err := s.store.CreateEvent(&e); err != nil {
			s.logger.Error().Err(err).Str("deployment_id", d.ID).Msg("failed to store health check event")
		}
	}

	if outcome.ProposedStatus != nil {
		d.Status = *outcome.ProposedStatus
	}

	if len(outcome.InstancesToRemove) == 0 {
		return
	}

	remove := make(map[string]bool, len(outcome.InstancesToRemove))
	for _, id := range outcome.InstancesToRemove {
		runtime.RemoveInstance(ctx, cli, id)
		remove[id] = true
	}

	kept := d.Instances[:0]
	for _, id := range d.Instances {
		if !remove[id] {
			kept = append(kept, id)
		}
	}
	d.Instances = kept
}

// drainEvents persists every event the Runtime Driver queued on d and
// clears the in-memory slice.
func (s *Scheduler) drainEvents(d *types.Deployment) {
	for _, e := range d.PendingEvents {
		e := e
		if err := s.store.CreateEvent(&e); err != nil {
			s.logger.Error().Err(err).Str("deployment_id", d.ID).Msg("failed to persist event")
		}
	}
	d.PendingEvents = nil
}

func (s *Scheduler) logEvent(deploymentID, level, message, reason string) {
	e := &types.DeploymentEvent{
		DeploymentID: deploymentID,
		Level:        level,
		Message:      message,
		Component:    "scheduler",
		Reason:       &reason,
	}
	if err := s.store.CreateEvent(e); err != nil {
		s.logger.Error().Err(err).Str("deployment_id", deploymentID).Msg("failed to persist scheduler event")
	}
}

// cleanupDeployments deletes each deployment's events and health results,
// then batch-deletes the deployment rows themselves.
func (s *Scheduler) cleanupDeployments(ids []string) {
	s.logger.Info().Int("count", len(ids)).Msg("cleaning up deployments")

	var errs *multierror.Error
	for _, id := range ids {
		if _, err := s.store.DeleteEventsByDeployment(id); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("deleting events for %s: %w", id, err))
		}
		if _, err := s.store.DeleteHealthCheckResultsByDeployment(id); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("deleting health results for %s: %w", id, err))
		}
	}

	if err := s.store.DeleteDeployments(ids); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("deleting deployments: %w", err))
	}

	if errs.ErrorOrNil() != nil {
		s.logger.Error().Err(errs).Msg("cleanup encountered errors")
	}
}
