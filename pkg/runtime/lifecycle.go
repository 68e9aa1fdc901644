package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/client"
	"github.com/google/uuid"

	"github.com/kemeter/ring/pkg/log"
	"github.com/kemeter/ring/pkg/metrics"
	"github.com/kemeter/ring/pkg/types"
)

func emit(d *types.Deployment, level, message, component string, reason *string) {
	d.EmitEvent(uuid.NewString(), time.Now(), level, message, component, reason)
}

// Apply reconciles one deployment's desired state against its actual Docker
// instances and returns the (possibly mutated) deployment. It is the only
// entry point this package exposes for the scheduler's reconcile tick; it
// never touches storage, it only mutates the Deployment it is given and
// queues events onto its PendingEvents.
func Apply(ctx context.Context, d *types.Deployment, configs map[string]*types.Config) *types.Deployment {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconciliationDuration)
		metrics.ReconciliationCyclesTotal.Inc()
	}()

	cli, err := Connect()
	if err != nil {
		d.Status = types.DeploymentError
		emit(d, "error", "failed to connect to docker: "+err.Error(), "docker", nil)
		return d
	}
	defer cli.Close()

	instances, err := listActiveInstances(ctx, cli, d.ID)
	if err != nil {
		d.Status = types.DeploymentError
		emit(d, "error", "failed to list instances: "+err.Error(), "docker", nil)
		return d
	}
	d.Instances = instances

	switch d.Kind {
	case types.KindJob:
		return handleJobDeployment(ctx, cli, d, configs)
	default:
		return handleWorkerDeployment(ctx, cli, d, configs)
	}
}

// handleCreateError classifies a container-creation failure onto a terminal
// DeploymentStatus + reason, optionally incrementing the restart counter,
// and queues an error-level event describing it.
func handleCreateError(d *types.Deployment, err error, incrementRestart bool) {
	rerr, ok := err.(*Error)
	if !ok {
		rerr = newError(Other, err.Error())
	}

	var status types.DeploymentStatus
	var reason string
	switch rerr.Kind {
	case ImageNotFound, ImagePullFailed:
		status, reason = types.DeploymentImagePullBackOff, "ImagePullBackOff"
	case InstanceCreationFailed:
		status, reason = types.DeploymentCreateContainerError, "InstanceCreationFailed"
	case NetworkCreationFailed:
		status, reason = types.DeploymentNetworkError, "NetworkCreationFailed"
	case ConfigNotFound, ConfigKeyNotFound:
		status, reason = types.DeploymentConfigError, "ConfigError"
	case FileSystemError:
		status, reason = types.DeploymentFileSystemError, "FileSystemError"
	default:
		status, reason = types.DeploymentError, "RuntimeError"
	}

	d.Status = status
	if incrementRestart {
		d.RestartCount++
	}
	emit(d, "error", rerr.Message, "docker", &reason)
	log.WithDeploymentID(d.ID).Error().Str("reason", reason).Msg(rerr.Message)
}

// removeAllInstances removes every currently-known instance of d and emits
// one aggregate event if any were removed.
func removeAllInstances(ctx context.Context, cli *client.Client, d *types.Deployment) {
	if len(d.Instances) == 0 {
		return
	}
	for _, id := range d.Instances {
		removeContainer(ctx, cli, id)
	}
	reason := "ContainerDeletion"
	emit(d, "info", fmt.Sprintf("Deleted %d container(s) for worker marked as deleted", len(d.Instances)), "docker", &reason)
	d.Instances = nil
}

func handleJobDeployment(ctx context.Context, cli *client.Client, d *types.Deployment, configs map[string]*types.Config) *types.Deployment {
	if d.Status == types.DeploymentDeleted {
		removeAllInstances(ctx, cli, d)
		return d
	}

	if len(d.Instances) > 0 {
		status := types.DeploymentFailed
		for _, id := range d.Instances {
			switch checkInstanceStatus(ctx, cli, id) {
			case InstanceRunning:
				status = types.DeploymentRunning
			case InstanceCompleted:
				if status != types.DeploymentRunning {
					status = types.DeploymentCompleted
				}
			}
		}
		d.Status = status
		return d
	}

	if d.Status == types.DeploymentPending || d.Status == types.DeploymentCreating {
		if err := createContainer(ctx, cli, d, configs); err != nil {
			handleCreateError(d, err, false)
			return d
		}
		d.Status = types.DeploymentRunning
		emit(d, "info", "job container created", "docker", nil)
	}

	return d
}

func handleWorkerDeployment(ctx context.Context, cli *client.Client, d *types.Deployment, configs map[string]*types.Config) *types.Deployment {
	if d.AtRestartBudget() && d.Status != types.DeploymentDeleted {
		if d.Status != types.DeploymentCrashLoopBackOff {
			d.Status = types.DeploymentCrashLoopBackOff
			emit(d, "error", "deployment exhausted its restart budget", "docker", nil)
		}
		return d
	}

	if d.Status == types.DeploymentCrashLoopBackOff {
		return d
	}

	if d.Status == types.DeploymentDeleted {
		removeAllInstances(ctx, cli, d)
		return d
	}

	current := len(d.Instances)
	switch {
	case current < d.Replicas:
		if err := createContainer(ctx, cli, d, configs); err != nil {
			handleCreateError(d, err, true)
			return d
		}
		scaleUpReason := "ScaleUp"
		emit(d, "info", fmt.Sprintf("scaled up from %d to %d replicas", current, current+1), "docker", &scaleUpReason)
		if d.Status == types.DeploymentPending || d.Status == types.DeploymentCreating {
			d.Status = types.DeploymentRunning
		}

	case current > d.Replicas:
		removed := d.Instances[0]
		removeContainer(ctx, cli, removed)
		d.Instances = d.Instances[1:]
		scaleDownReason := "ScaleDown"
		emit(d, "info", fmt.Sprintf("scaled down from %d to %d replicas (removed container %s)", current, current-1, removed), "docker", &scaleDownReason)
	}

	return d
}
