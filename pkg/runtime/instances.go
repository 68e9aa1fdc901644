package runtime

import (
	"context"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

// InstanceStatus is the settled state of one container instance, as
// observed by inspecting it.
type InstanceStatus string

const (
	InstanceRunning   InstanceStatus = "running"
	InstanceCompleted InstanceStatus = "completed"
	InstanceFailed    InstanceStatus = "failed"
)

// activeStates are the container states Apply treats as "still present"
// when deciding whether a deployment needs more or fewer instances.
var activeStates = []string{"running", "created", "restarting"}

// listActiveInstances returns the ids of containers labeled with
// deploymentID that are running, freshly created, or restarting.
func listActiveInstances(ctx context.Context, cli *client.Client, deploymentID string) ([]string, error) {
	args := filters.NewArgs()
	args.Add("label", "ring_deployment="+deploymentID)
	for _, s := range activeStates {
		args.Add("status", s)
	}

	containers, err := cli.ContainerList(ctx, container.ListOptions{All: true, Filters: args})
	if err != nil {
		return nil, newError(Other, err.Error())
	}

	ids := make([]string, 0, len(containers))
	for _, c := range containers {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// instanceName trims the leading slash Docker puts on container names, or
// falls back to a 12-character id prefix if no name is set.
func instanceName(id string, names []string) string {
	if len(names) > 0 {
		return strings.TrimPrefix(names[0], "/")
	}
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// checkInstanceStatus inspects a single instance and classifies it as
// Running, Completed (clean exit) or Failed (inspect error or nonzero exit).
func checkInstanceStatus(ctx context.Context, cli *client.Client, instanceID string) InstanceStatus {
	inspect, err := cli.ContainerInspect(ctx, instanceID)
	if err != nil {
		return InstanceFailed
	}
	if inspect.State == nil {
		return InstanceFailed
	}
	if inspect.State.Running {
		return InstanceRunning
	}
	if inspect.State.ExitCode == 0 {
		return InstanceCompleted
	}
	return InstanceFailed
}

// Instance is the live view of one container backing a deployment, as
// surfaced to API clients fetching GET /deployments/{id}.
type Instance struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Status InstanceStatus `json:"status"`
}

// ListInstances returns the deployment's active instances as Docker
// reports them right now, for callers that want a live view rather than
// the last-reconciled snapshot in storage.
func ListInstances(ctx context.Context, cli *client.Client, deploymentID string) ([]Instance, error) {
	ids, err := listActiveInstances(ctx, cli, deploymentID)
	if err != nil {
		return nil, err
	}

	instances := make([]Instance, 0, len(ids))
	for _, id := range ids {
		name := id
		if inspect, err := cli.ContainerInspect(ctx, id); err == nil {
			name = instanceName(id, []string{inspect.Name})
		}
		instances = append(instances, Instance{
			ID:     id,
			Name:   name,
			Status: checkInstanceStatus(ctx, cli, id),
		})
	}
	return instances, nil
}
