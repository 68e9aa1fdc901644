package storage

import (
	"time"

	"github.com/kemeter/ring/pkg/types"
)

// Filter is an AND-joined, IN-valued filter over a table's columns. An
// empty value slice for a column is ignored rather than treated as "match
// nothing", matching the filter semantics the original find_all functions
// implement.
type Filter map[string][]string

// Store is the persistence interface for everything ring tracks: the
// single writer discipline described in SPEC_FULL.md §5 means the
// Scheduler is the sole writer of Deployment.Status during reconciliation
// and the API is the sole writer of user-driven Deleted transitions; this
// interface itself does not enforce that, callers must respect it.
type Store interface {
	// Deployments
	CreateDeployment(d *types.Deployment) error
	GetDeployment(id string) (*types.Deployment, error)
	ListDeployments(filter Filter) ([]*types.Deployment, error)
	ListActiveByNamespaceName(namespace, name string) ([]*types.Deployment, error)
	UpdateDeploymentStatus(d *types.Deployment) error
	DeleteDeployments(ids []string) error

	// Deployment events
	CreateEvent(e *types.DeploymentEvent) error
	ListEventsByDeployment(deploymentID string, limit int) ([]*types.DeploymentEvent, error)
	ListEventsByDeploymentAndLevel(deploymentID, level string, limit int) ([]*types.DeploymentEvent, error)
	DeleteEventsByDeployment(deploymentID string) (int64, error)

	// Health check results
	CreateHealthCheckResult(r *types.HealthCheckResult) error
	ListHealthCheckResultsByDeployment(deploymentID string, limit int) ([]*types.HealthCheckResult, error)
	LatestHealthCheckResultsByDeployment(deploymentID string) ([]*types.HealthCheckResult, error)
	DeleteHealthCheckResultsByDeployment(deploymentID string) (int64, error)
	CleanupOldHealthCheckResults(olderThan time.Duration, keepPerDeployment int) (int64, error)

	// Configs
	CreateConfig(c *types.Config) error
	GetConfig(id string) (*types.Config, error)
	ListConfigs(filter Filter) ([]*types.Config, error)
	ListConfigsByNamespace(namespace string) ([]*types.Config, error)
	UpdateConfig(c *types.Config) error
	DeleteConfig(id string) error

	// Users
	CreateUser(username, password string) error
	GetUser(id string) (*types.User, error)
	GetUserByUsername(username string) (*types.User, error)
	GetUserByToken(token string) (*types.User, error)
	ListUsers() ([]*types.User, error)
	Login(u *types.User) error
	UpdateUser(u *types.User) error
	DeleteUser(u *types.User) error

	Close() error
}
