package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docker/docker/client"

	"github.com/kemeter/ring/pkg/types"
)

// Outcome is everything a single Execute call wants the scheduler to do:
// persist Results, log Events, move the deployment to ProposedStatus (if
// set), and remove InstancesToRemove before the next reconcile tick.
type Outcome struct {
	Results           []types.HealthCheckResult
	Events            []types.DeploymentEvent
	ProposedStatus    *types.DeploymentStatus
	InstancesToRemove []string
}

// Checker runs probes and tracks consecutive failures per
// "<deployment_id>:<instance_id>:<probe_index>" key.
type Checker struct {
	mu       sync.Mutex
	failures map[string]int
}

// NewChecker returns a Checker with an empty failure-counter map.
func NewChecker() *Checker {
	return &Checker{failures: make(map[string]int)}
}

// Execute runs every health check probe against every running instance of
// d and returns the resulting Outcome. d.Status must be Running and
// d.HealthChecks non-empty, else Execute returns a zero Outcome.
func (c *Checker) Execute(ctx context.Context, cli *client.Client, d *types.Deployment) Outcome {
	var out Outcome
	if d.Status != types.DeploymentRunning || len(d.HealthChecks) == 0 {
		return out
	}

	for _, instanceID := range d.Instances {
		for index, probe := range d.HealthChecks {
			result := c.executeOne(ctx, cli, d.ID, instanceID, probe)
			out.Results = append(out.Results, result)

			key := fmt.Sprintf("%s:%s:%d", d.ID, instanceID, index)
			switch result.Status {
			case types.HealthCheckFailed, types.HealthCheckTimeout:
				if c.increment(key, probe.Threshold) {
					c.applyFailureAction(&out, d, probe, result, instanceID)
					c.reset(key)
				}
			default:
				c.reset(key)
			}
		}
	}

	return out
}

func (c *Checker) executeOne(ctx context.Context, cli *client.Client, deploymentID, instanceID string, probe types.HealthCheck) types.HealthCheckResult {
	created := time.Now()

	timeout, err := types.ParseDuration(probe.Timeout)
	if err != nil {
		return newResult(deploymentID, probe, types.HealthCheckFailed, strp("invalid timeout: "+err.Error()), created, created)
	}

	started := time.Now()
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, message := runProbe(checkCtx, cli, instanceID, probe)
	return newResult(deploymentID, probe, status, message, created, started)
}

func newResult(deploymentID string, probe types.HealthCheck, status types.HealthCheckStatus, message *string, created, started time.Time) types.HealthCheckResult {
	return types.HealthCheckResult{
		ID:           uuid.NewString(),
		DeploymentID: deploymentID,
		CheckType:    string(probe.Type),
		Status:       status,
		Message:      message,
		CreatedAt:    created.UTC().Format(time.RFC3339),
		StartedAt:    started.UTC().Format(time.RFC3339),
		FinishedAt:   time.Now().UTC().Format(time.RFC3339),
	}
}

func runProbe(ctx context.Context, cli *client.Client, instanceID string, probe types.HealthCheck) (types.HealthCheckStatus, *string) {
	switch probe.Type {
	case types.HealthCheckTcp:
		return checkTCP(ctx, cli, instanceID, probe.Port)
	case types.HealthCheckHttp:
		return checkHTTP(ctx, cli, instanceID, probe.URL)
	case types.HealthCheckCommand:
		return checkCommand(ctx, cli, instanceID, probe.Command)
	default:
		return types.HealthCheckFailed, strp("unknown probe type: " + string(probe.Type))
	}
}

// increment bumps the failure counter for key and reports whether it has
// reached threshold.
func (c *Checker) increment(key string, threshold int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failures[key]++
	return c.failures[key] >= threshold
}

func (c *Checker) reset(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.failures, key)
}

func (c *Checker) applyFailureAction(out *Outcome, d *types.Deployment, probe types.HealthCheck, result types.HealthCheckResult, instanceID string) {
	reason := "unknown error"
	if result.Message != nil {
		reason = *result.Message
	}

	switch probe.OnFailure {
	case types.FailureActionRestart:
		out.InstancesToRemove = append(out.InstancesToRemove, instanceID)
		out.Events = append(out.Events, event(d.ID, "warning",
			fmt.Sprintf("health check failed for instance %s (%s), triggering instance restart", instanceID, reason),
			"HealthCheckInstanceRestart"))

	case types.FailureActionStop:
		status := types.DeploymentDeleted
		out.ProposedStatus = &status
		out.Events = append(out.Events, event(d.ID, "warning",
			fmt.Sprintf("health check failed for instance %s (%s), triggering deployment stop", instanceID, reason),
			"HealthCheckStop"))

	case types.FailureActionAlert:
		out.Events = append(out.Events, event(d.ID, "error",
			fmt.Sprintf("health check failed for instance %s: %s", instanceID, reason),
			"HealthCheckAlert"))
	}
}

func event(deploymentID, level, message, reason string) types.DeploymentEvent {
	return types.NewDeploymentEvent(deploymentID, level, message, "health_checker", &reason, uuid.NewString(), time.Now())
}

func strp(s string) *string { return &s }
