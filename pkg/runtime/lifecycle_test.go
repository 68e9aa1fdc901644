package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kemeter/ring/pkg/types"
)

func TestHandleCreateErrorMapsKindToStatus(t *testing.T) {
	tests := []struct {
		kind           ErrorKind
		wantStatus     types.DeploymentStatus
		wantReason     string
		wantRestartInc bool
	}{
		{ImageNotFound, types.DeploymentImagePullBackOff, "ImagePullBackOff", true},
		{ImagePullFailed, types.DeploymentImagePullBackOff, "ImagePullBackOff", true},
		{InstanceCreationFailed, types.DeploymentCreateContainerError, "InstanceCreationFailed", true},
		{NetworkCreationFailed, types.DeploymentNetworkError, "NetworkCreationFailed", true},
		{ConfigNotFound, types.DeploymentConfigError, "ConfigError", true},
		{ConfigKeyNotFound, types.DeploymentConfigError, "ConfigError", true},
		{FileSystemError, types.DeploymentFileSystemError, "FileSystemError", true},
		{Other, types.DeploymentError, "RuntimeError", true},
	}

	for _, tt := range tests {
		d := &types.Deployment{ID: "d1", RestartCount: 0}
		handleCreateError(d, newError(tt.kind, "boom"), tt.wantRestartInc)
		assert.Equal(t, tt.wantStatus, d.Status, tt.kind)
		if tt.wantRestartInc {
			assert.Equal(t, 1, d.RestartCount, tt.kind)
		}
		assert.Len(t, d.PendingEvents, 1)
		assert.Equal(t, "error", d.PendingEvents[0].Level)
		require.NotNil(t, d.PendingEvents[0].Reason)
		assert.Equal(t, tt.wantReason, *d.PendingEvents[0].Reason, tt.kind)
	}
}

func TestHandleCreateErrorNoRestartIncrement(t *testing.T) {
	d := &types.Deployment{ID: "d1", RestartCount: 2}
	handleCreateError(d, newError(InstanceCreationFailed, "boom"), false)
	assert.Equal(t, 2, d.RestartCount)
}

func TestWorkerDeploymentAtRestartBudgetGoesCrashLoopBackOff(t *testing.T) {
	d := &types.Deployment{
		ID:           "d1",
		Kind:         types.KindWorker,
		Status:       types.DeploymentRunning,
		RestartCount: types.MaxRestartCount,
		Replicas:     1,
	}
	result := handleWorkerDeployment(nil, nil, d, nil)
	assert.Equal(t, types.DeploymentCrashLoopBackOff, result.Status)
	assert.Len(t, d.PendingEvents, 1)
}

func TestWorkerDeploymentAlreadyCrashLoopBackOffIsNoop(t *testing.T) {
	d := &types.Deployment{
		ID:           "d1",
		Kind:         types.KindWorker,
		Status:       types.DeploymentCrashLoopBackOff,
		RestartCount: types.MaxRestartCount,
		Replicas:     1,
	}
	result := handleWorkerDeployment(nil, nil, d, nil)
	assert.Equal(t, types.DeploymentCrashLoopBackOff, result.Status)
	assert.Empty(t, result.PendingEvents)
}
