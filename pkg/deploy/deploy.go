package deploy

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kemeter/ring/pkg/events"
	"github.com/kemeter/ring/pkg/metrics"
	"github.com/kemeter/ring/pkg/storage"
	"github.com/kemeter/ring/pkg/types"
)

// CreateInput is the decoded request body for POST /deployments.
type CreateInput struct {
	Kind         types.DeploymentKind
	Name         string
	Runtime      string
	Namespace    string
	Image        string
	Config       *types.DeploymentConfig
	Replicas     int
	Labels       map[string]string
	Secrets      map[string]string
	Volumes      []types.Volume
	Command      []string
	HealthChecks []types.HealthCheck
	Resources    *types.ResourceLimits
}

// Validate enforces the same rules the original DeploymentInput validator
// did: a supported runtime and, for every volume, the fields its type
// requires.
func (in CreateInput) Validate() error {
	if in.Runtime != "docker" {
		return fmt.Errorf("invalid runtime values use [docker]")
	}
	for _, v := range in.Volumes {
		if err := validateVolume(v); err != nil {
			return err
		}
	}
	return nil
}

func validateVolume(v types.Volume) error {
	if v.Destination == "" {
		return fmt.Errorf("destination cannot be empty")
	}

	switch v.Type {
	case types.VolumeBind:
		if v.Source == nil {
			return fmt.Errorf("source is required for bind volumes")
		}
		if *v.Source == "" {
			return fmt.Errorf("source cannot be empty")
		}
	case types.VolumeVolume:
		if v.Source == nil {
			return fmt.Errorf("source is required for named volumes")
		}
		if *v.Source == "" {
			return fmt.Errorf("source cannot be empty")
		}
	case types.VolumeConfig:
		if v.Source == nil {
			return fmt.Errorf("source is required for config volumes")
		}
		if *v.Source == "" {
			return fmt.Errorf("source cannot be empty")
		}
		if v.Key == nil {
			return fmt.Errorf("key is required for config volumes")
		}
		if *v.Key == "" {
			return fmt.Errorf("key cannot be empty")
		}
		if v.Permission != "ro" {
			return fmt.Errorf("config volumes must be read-only (ro)")
		}
	default:
		return fmt.Errorf("unknown volume type: %s", v.Type)
	}
	return nil
}

// Create validates input, marks every existing active deployment sharing
// its namespace and name as Deleted, then inserts the new deployment in
// Creating status and logs a DeploymentCreated event.
func Create(store storage.Store, log *events.Log, in CreateInput) (*types.Deployment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	active, err := store.ListActiveByNamespaceName(in.Namespace, in.Name)
	if err != nil {
		return nil, fmt.Errorf("checking for existing deployments: %w", err)
	}
	for _, prev := range active {
		prev.Status = types.DeploymentDeleted
		if err := store.UpdateDeploymentStatus(prev); err != nil {
			return nil, fmt.Errorf("superseding deployment %s: %w", prev.ID, err)
		}
	}

	kind := in.Kind
	if kind == "" {
		kind = types.KindWorker
	}
	replicas := in.Replicas
	if replicas == 0 {
		replicas = 1
	}

	volumes := in.Volumes
	if volumes == nil {
		volumes = []types.Volume{}
	}
	volumesJSON, err := json.Marshal(volumes)
	if err != nil {
		return nil, fmt.Errorf("volume serialization error: %w", err)
	}

	d := &types.Deployment{
		Name:         in.Name,
		Runtime:      in.Runtime,
		Namespace:    in.Namespace,
		Kind:         kind,
		Image:        in.Image,
		Config:       in.Config,
		Status:       types.DeploymentCreating,
		Labels:       in.Labels,
		Secrets:      in.Secrets,
		Replicas:     replicas,
		Command:      in.Command,
		Volumes:      string(volumesJSON),
		HealthChecks: in.HealthChecks,
		Resources:    in.Resources,
	}

	if err := store.CreateDeployment(d); err != nil {
		return nil, fmt.Errorf("a deployment with name '%s' already exists in namespace '%s': %w", in.Name, in.Namespace, err)
	}

	reason := "DeploymentCreated"
	event := types.NewDeploymentEvent(d.ID, "info", fmt.Sprintf("Deployment '%s' created successfully", d.Name), "api", &reason, uuid.NewString(), time.Now())
	if err := log.Emit(&event); err != nil {
		return nil, fmt.Errorf("logging create event: %w", err)
	}

	metrics.DeploymentsCreatedTotal.WithLabelValues(d.Namespace).Inc()

	return d, nil
}

// Rollback finds the most recently superseded (Deleted) deployment sharing
// the given deployment's namespace and name, reactivates it, marks the
// given deployment Deleted, and appends a DeploymentRollback event to the
// predecessor. It returns the predecessor's id, or "" if none exists.
func Rollback(store storage.Store, log *events.Log, deploymentID string) (string, error) {
	current, err := store.GetDeployment(deploymentID)
	if err != nil {
		return "", fmt.Errorf("loading deployment: %w", err)
	}
	if current == nil {
		return "", fmt.Errorf("deployment %s not found", deploymentID)
	}

	candidates, err := store.ListDeployments(storage.Filter{
		"namespace": {current.Namespace},
		"name":      {current.Name},
		"status":    {string(types.DeploymentDeleted)},
	})
	if err != nil {
		return "", fmt.Errorf("finding predecessor: %w", err)
	}

	var predecessor *types.Deployment
	for _, c := range candidates {
		if c.ID == current.ID {
			continue
		}
		if predecessor == nil || c.CreatedAt > predecessor.CreatedAt {
			predecessor = c
		}
	}
	if predecessor == nil {
		return "", nil
	}

	predecessor.Status = types.DeploymentRunning
	if err := store.UpdateDeploymentStatus(predecessor); err != nil {
		return "", fmt.Errorf("reactivating predecessor: %w", err)
	}

	current.Status = types.DeploymentDeleted
	if err := store.UpdateDeploymentStatus(current); err != nil {
		return "", fmt.Errorf("marking current deleted: %w", err)
	}

	reason := "DeploymentRollback"
	event := types.NewDeploymentEvent(
		predecessor.ID, "info",
		fmt.Sprintf("Deployment rolled back from failed deployment %s", current.ID),
		"api", &reason, uuid.NewString(), time.Now(),
	)
	if err := log.Emit(&event); err != nil {
		return "", fmt.Errorf("logging rollback event: %w", err)
	}

	metrics.DeploymentsRolledBackTotal.WithLabelValues(predecessor.Namespace).Inc()

	return predecessor.ID, nil
}
