package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kemeter/ring/pkg/types"
)

func TestExecuteReturnsEmptyOutcomeWhenNotRunning(t *testing.T) {
	c := NewChecker()
	d := &types.Deployment{
		ID:           "d1",
		Status:       types.DeploymentPending,
		HealthChecks: []types.HealthCheck{types.DefaultHealthCheck()},
		Instances:    []string{"i1"},
	}

	out := c.Execute(context.Background(), nil, d)

	assert.Empty(t, out.Results)
	assert.Empty(t, out.Events)
	assert.Nil(t, out.ProposedStatus)
	assert.Empty(t, out.InstancesToRemove)
}

func TestExecuteReturnsEmptyOutcomeWhenNoHealthChecks(t *testing.T) {
	c := NewChecker()
	d := &types.Deployment{ID: "d1", Status: types.DeploymentRunning, Instances: []string{"i1"}}

	out := c.Execute(context.Background(), nil, d)

	assert.Empty(t, out.Results)
}

func TestExecuteOneInvalidTimeoutDoesNotTouchDocker(t *testing.T) {
	c := NewChecker()
	probe := types.HealthCheck{Type: types.HealthCheckTcp, Port: 8080, Timeout: "not-a-duration", Threshold: 3, OnFailure: types.FailureActionRestart}

	result := c.executeOne(context.Background(), nil, "d1", "i1", probe)

	require.Equal(t, types.HealthCheckFailed, result.Status)
	require.NotNil(t, result.Message)
	assert.Contains(t, *result.Message, "invalid timeout")
}

func TestIncrementReachesThreshold(t *testing.T) {
	c := NewChecker()

	assert.False(t, c.increment("k", 3))
	assert.False(t, c.increment("k", 3))
	assert.True(t, c.increment("k", 3))
}

func TestResetClearsCounter(t *testing.T) {
	c := NewChecker()
	c.increment("k", 5)
	c.increment("k", 5)

	c.reset("k")

	assert.False(t, c.increment("k", 5))
}

func TestApplyFailureActionRestart(t *testing.T) {
	c := NewChecker()
	d := &types.Deployment{ID: "d1"}
	probe := types.HealthCheck{OnFailure: types.FailureActionRestart}
	msg := "connection refused"
	result := types.HealthCheckResult{Message: &msg}

	var out Outcome
	c.applyFailureAction(&out, d, probe, result, "instance-1")

	require.Equal(t, []string{"instance-1"}, out.InstancesToRemove)
	require.Len(t, out.Events, 1)
	require.NotNil(t, out.Events[0].Reason)
	assert.Equal(t, "HealthCheckInstanceRestart", *out.Events[0].Reason)
	assert.Equal(t, "warning", out.Events[0].Level)
	assert.Nil(t, out.ProposedStatus)
}

func TestApplyFailureActionStop(t *testing.T) {
	c := NewChecker()
	d := &types.Deployment{ID: "d1"}
	probe := types.HealthCheck{OnFailure: types.FailureActionStop}
	result := types.HealthCheckResult{}

	var out Outcome
	c.applyFailureAction(&out, d, probe, result, "instance-1")

	require.NotNil(t, out.ProposedStatus)
	assert.Equal(t, types.DeploymentDeleted, *out.ProposedStatus)
	require.Len(t, out.Events, 1)
	assert.Equal(t, "HealthCheckStop", *out.Events[0].Reason)
	assert.Empty(t, out.InstancesToRemove)
}

func TestApplyFailureActionAlert(t *testing.T) {
	c := NewChecker()
	d := &types.Deployment{ID: "d1"}
	probe := types.HealthCheck{OnFailure: types.FailureActionAlert}
	result := types.HealthCheckResult{}

	var out Outcome
	c.applyFailureAction(&out, d, probe, result, "instance-1")

	require.Len(t, out.Events, 1)
	assert.Equal(t, "error", out.Events[0].Level)
	assert.Equal(t, "HealthCheckAlert", *out.Events[0].Reason)
	assert.Nil(t, out.ProposedStatus)
	assert.Empty(t, out.InstancesToRemove)
}
