package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxRestartCount is the restart budget before a deployment is pushed into
// CrashLoopBackOff and stops being retried automatically.
const MaxRestartCount = 5

// DeploymentStatus is the lifecycle state of a Deployment.
type DeploymentStatus string

const (
	DeploymentPending             DeploymentStatus = "pending"
	DeploymentCreating            DeploymentStatus = "creating"
	DeploymentRunning             DeploymentStatus = "running"
	DeploymentCompleted           DeploymentStatus = "completed"
	DeploymentFailed              DeploymentStatus = "failed"
	DeploymentDeleted             DeploymentStatus = "deleted"
	DeploymentCrashLoopBackOff    DeploymentStatus = "CrashLoopBackOff"
	DeploymentImagePullBackOff    DeploymentStatus = "ImagePullBackOff"
	DeploymentCreateContainerError DeploymentStatus = "CreateContainerError"
	DeploymentNetworkError        DeploymentStatus = "NetworkError"
	DeploymentConfigError         DeploymentStatus = "ConfigError"
	DeploymentFileSystemError     DeploymentStatus = "FileSystemError"
	DeploymentError               DeploymentStatus = "Error"
)

// ParseDeploymentStatus validates a status string, matching the
// Display/FromStr pairing in the original model.
func ParseDeploymentStatus(s string) (DeploymentStatus, error) {
	switch DeploymentStatus(s) {
	case DeploymentPending, DeploymentCreating, DeploymentRunning, DeploymentCompleted,
		DeploymentFailed, DeploymentDeleted, DeploymentCrashLoopBackOff, DeploymentImagePullBackOff,
		DeploymentCreateContainerError, DeploymentNetworkError, DeploymentConfigError,
		DeploymentFileSystemError, DeploymentError:
		return DeploymentStatus(s), nil
	default:
		return "", fmt.Errorf("unknown deployment status: %s", s)
	}
}

// IsTerminalError reports whether the status is one of the error statuses
// that the scheduler maps a runtime failure onto.
func (s DeploymentStatus) IsTerminalError() bool {
	switch s {
	case DeploymentCrashLoopBackOff, DeploymentImagePullBackOff, DeploymentCreateContainerError,
		DeploymentNetworkError, DeploymentConfigError, DeploymentFileSystemError, DeploymentError:
		return true
	}
	return false
}

// DeploymentKind distinguishes replica-maintained workers from run-to-completion jobs.
type DeploymentKind string

const (
	KindWorker DeploymentKind = "worker"
	KindJob    DeploymentKind = "job"
)

// UserConfig describes the container process identity.
type UserConfig struct {
	ID         *int64 `json:"id,omitempty"`
	Group      *int64 `json:"group,omitempty"`
	Privileged *bool  `json:"privileged,omitempty"`
}

// DeploymentConfig holds registry credentials and image pull policy.
type DeploymentConfig struct {
	ImagePullPolicy string      `json:"image_pull_policy"`
	Server          string      `json:"server,omitempty"`
	Username        string      `json:"username,omitempty"`
	Password        string      `json:"password,omitempty"`
	User            *UserConfig `json:"user,omitempty"`
}

// DefaultImagePullPolicy mirrors the original model's serde default.
const DefaultImagePullPolicy = "Always"

// NewDeploymentConfig returns a DeploymentConfig with the default pull policy applied.
func NewDeploymentConfig() DeploymentConfig {
	return DeploymentConfig{ImagePullPolicy: DefaultImagePullPolicy}
}

// ResourceLimits bounds CPU/memory for a deployment's containers.
type ResourceLimits struct {
	CPULimit          *float64 `json:"cpu_limit,omitempty"`
	MemoryLimit       *string  `json:"memory_limit,omitempty"`
	MemoryReservation *string  `json:"memory_reservation,omitempty"`
	CPUShares         *int64   `json:"cpu_shares,omitempty"`
}

// ParseMemory parses a human memory string into bytes. Accepts raw integer
// byte counts, decimal suffixes (K, M, G, T = powers of 1000) and binary
// suffixes (Ki, Mi, Gi, Ti = powers of 1024), with fractional values.
func ParseMemory(s string) (int64, error) {
	s = strings.TrimSpace(s)

	if bytes, err := strconv.ParseInt(s, 10, 64); err == nil {
		return bytes, nil
	}

	var suffix string
	var multiplier float64
	switch {
	case strings.HasSuffix(s, "Ti"):
		suffix, multiplier = "Ti", 1024*1024*1024*1024
	case strings.HasSuffix(s, "Gi"):
		suffix, multiplier = "Gi", 1024*1024*1024
	case strings.HasSuffix(s, "Mi"):
		suffix, multiplier = "Mi", 1024*1024
	case strings.HasSuffix(s, "Ki"):
		suffix, multiplier = "Ki", 1024
	case strings.HasSuffix(s, "T"):
		suffix, multiplier = "T", 1_000_000_000_000
	case strings.HasSuffix(s, "G"):
		suffix, multiplier = "G", 1_000_000_000
	case strings.HasSuffix(s, "M"):
		suffix, multiplier = "M", 1_000_000
	case strings.HasSuffix(s, "K"):
		suffix, multiplier = "K", 1_000
	default:
		return 0, fmt.Errorf("invalid memory format: %s", s)
	}

	numStr := s[:len(s)-len(suffix)]
	value, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value in memory string: %s", s)
	}

	return int64(value * multiplier), nil
}

// ParseDuration parses the "<int>s" / "<int>ms" durations used by health
// check intervals and timeouts. No other unit is accepted.
func ParseDuration(s string) (time.Duration, error) {
	switch {
	case strings.HasSuffix(s, "ms"):
		n, err := strconv.ParseUint(s[:len(s)-2], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration format: %s", s)
		}
		return time.Duration(n) * time.Millisecond, nil
	case strings.HasSuffix(s, "s"):
		n, err := strconv.ParseUint(s[:len(s)-1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration format: %s", s)
		}
		return time.Duration(n) * time.Second, nil
	default:
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}
}

// HealthCheckType discriminates the probe kind.
type HealthCheckType string

const (
	HealthCheckTcp     HealthCheckType = "tcp"
	HealthCheckHttp    HealthCheckType = "http"
	HealthCheckCommand HealthCheckType = "command"
)

// FailureAction is what the scheduler does when a probe crosses its threshold.
type FailureAction string

const (
	FailureActionRestart FailureAction = "restart"
	FailureActionStop    FailureAction = "stop"
	FailureActionAlert   FailureAction = "alert"
)

// HealthCheck is a tagged union over the three probe kinds, flattened into a
// single JSON-tagged struct the way the rest of the Deployment model
// round-trips through a single JSON column.
type HealthCheck struct {
	Type      HealthCheckType `json:"type"`
	Port      int             `json:"port,omitempty"`
	URL       string          `json:"url,omitempty"`
	Command   string          `json:"command,omitempty"`
	Interval  string          `json:"interval"`
	Timeout   string          `json:"timeout"`
	Threshold int             `json:"threshold"`
	OnFailure FailureAction   `json:"on_failure"`
}

// DefaultThreshold mirrors the original model's serde default for threshold.
const DefaultThreshold = 3

// DefaultHealthCheck mirrors the Rust Default impl: a tcp probe on 8080.
func DefaultHealthCheck() HealthCheck {
	return HealthCheck{
		Type:      HealthCheckTcp,
		Port:      8080,
		Interval:  "30s",
		Timeout:   "5s",
		Threshold: DefaultThreshold,
		OnFailure: FailureActionRestart,
	}
}

// HealthCheckStatus is the outcome of a single probe execution.
type HealthCheckStatus string

const (
	HealthCheckSuccess HealthCheckStatus = "success"
	HealthCheckFailed  HealthCheckStatus = "failed"
	HealthCheckTimeout HealthCheckStatus = "timeout"
)

// HealthCheckResult is a single persisted probe execution record.
type HealthCheckResult struct {
	ID           string            `json:"id"`
	DeploymentID string            `json:"deployment_id"`
	CheckType    string            `json:"check_type"`
	Status       HealthCheckStatus `json:"status"`
	Message      *string           `json:"message,omitempty"`
	CreatedAt    string            `json:"created_at"`
	StartedAt    string            `json:"started_at"`
	FinishedAt   string            `json:"finished_at"`
}

// DeploymentEvent is a single entry in a deployment's event log.
type DeploymentEvent struct {
	ID           string  `json:"id"`
	DeploymentID string  `json:"deployment_id"`
	Timestamp    string  `json:"timestamp"`
	Level        string  `json:"level"`
	Message      string  `json:"message"`
	Component    string  `json:"component"`
	Reason       *string `json:"reason,omitempty"`
}

// NewDeploymentEvent builds an event with a fresh id and an RFC3339 timestamp.
func NewDeploymentEvent(deploymentID, level, message, component string, reason *string, id string, now time.Time) DeploymentEvent {
	return DeploymentEvent{
		ID:           id,
		DeploymentID: deploymentID,
		Timestamp:    now.UTC().Format(time.RFC3339),
		Level:        level,
		Message:      message,
		Component:    component,
		Reason:       reason,
	}
}

// VolumeType discriminates how a Volume's source is resolved into a mount.
type VolumeType string

const (
	VolumeBind   VolumeType = "bind"
	VolumeVolume VolumeType = "volume"
	VolumeConfig VolumeType = "config"
)

// Volume describes one entry of a deployment's Volumes JSON column: a bind
// mount, a named Docker volume, or a file materialized from a Config's data.
type Volume struct {
	Type        VolumeType `json:"type"`
	Source      *string    `json:"source,omitempty"`
	Destination string     `json:"destination"`
	Driver      string     `json:"driver,omitempty"`
	Permission  string     `json:"permission"`
	Key         *string    `json:"key,omitempty"`
}

// Deployment is the central unit of work: a declared workload the Scheduler
// reconciles against the Docker daemon.
type Deployment struct {
	ID           string            `json:"id"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    *string           `json:"updated_at,omitempty"`
	LastEventAt  *string           `json:"last_event_at,omitempty"`
	Status       DeploymentStatus  `json:"status"`
	RestartCount int               `json:"restart_count"`
	Namespace    string            `json:"namespace"`
	Name         string            `json:"name"`
	Image        string            `json:"image"`
	Config       *DeploymentConfig `json:"config,omitempty"`
	Runtime      string            `json:"runtime"`
	Kind         DeploymentKind    `json:"kind"`
	Replicas     int               `json:"replicas"`
	Command      []string          `json:"command"`
	Instances    []string          `json:"instances,omitempty"`
	Labels       map[string]string `json:"labels"`
	Secrets      map[string]string `json:"secrets"`
	Volumes      string            `json:"volumes"`
	HealthChecks []HealthCheck     `json:"health_checks,omitempty"`
	Resources    *ResourceLimits   `json:"resources,omitempty"`

	// PendingEvents accumulates events emitted while reconciling this
	// deployment; the Scheduler is the only writer that persists them,
	// so this field is never serialized into the Store.
	PendingEvents []DeploymentEvent `json:"-"`
}

// EmitEvent queues an event for the Scheduler to persist after reconciliation.
func (d *Deployment) EmitEvent(id string, now time.Time, level, message, component string, reason *string) {
	d.PendingEvents = append(d.PendingEvents, NewDeploymentEvent(d.ID, level, message, component, reason, id, now))
}

// AtRestartBudget reports whether the deployment has exhausted its restart budget.
func (d *Deployment) AtRestartBudget() bool {
	return d.RestartCount >= MaxRestartCount
}

// Config is a named, namespaced blob of configuration data that deployments
// can mount as a volume or reference by label.
type Config struct {
	ID        string  `json:"id"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt *string `json:"updated_at,omitempty"`
	Namespace string  `json:"namespace"`
	Name      string  `json:"name"`
	Data      string  `json:"data"`
	Labels    string  `json:"labels"`
}

// UserStatus gates whether a user may authenticate.
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserDisabled UserStatus = "disabled"
)

// User is an API/CLI principal authenticated by bearer token.
type User struct {
	ID        string     `json:"id"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt *string    `json:"updated_at,omitempty"`
	Status    UserStatus `json:"status"`
	Username  string     `json:"username"`
	Password  string     `json:"-"`
	Token     string     `json:"token,omitempty"`
	LoginAt   *string    `json:"-"`
}
