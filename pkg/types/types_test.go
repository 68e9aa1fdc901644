package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMemoryBinarySuffixes(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1Ki", 1024},
		{"1Mi", 1024 * 1024},
		{"512Mi", 512 * 1024 * 1024},
		{"1Gi", 1024 * 1024 * 1024},
		{"2Gi", 2 * 1024 * 1024 * 1024},
		{"1Ti", 1024 * 1024 * 1024 * 1024},
	}
	for _, tt := range tests {
		got, err := ParseMemory(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseMemoryDecimalSuffixes(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1K", 1_000},
		{"1M", 1_000_000},
		{"1G", 1_000_000_000},
		{"1T", 1_000_000_000_000},
	}
	for _, tt := range tests {
		got, err := ParseMemory(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseMemoryRawBytes(t *testing.T) {
	got, err := ParseMemory("536870912")
	require.NoError(t, err)
	assert.Equal(t, int64(536870912), got)

	got, err = ParseMemory("0")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)
}

func TestParseMemoryFractional(t *testing.T) {
	got, err := ParseMemory("0.5Gi")
	require.NoError(t, err)
	assert.Equal(t, int64(536870912), got)

	got, err = ParseMemory("1.5Mi")
	require.NoError(t, err)
	assert.Equal(t, int64(1.5*1024*1024), got)
}

func TestParseMemoryInvalid(t *testing.T) {
	for _, in := range []string{"abc", "Mi", ""} {
		_, err := ParseMemory(in)
		assert.Error(t, err, in)
	}
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("30s")
	require.NoError(t, err)
	assert.Equal(t, 30, int(d.Seconds()))

	d, err = ParseDuration("500ms")
	require.NoError(t, err)
	assert.Equal(t, 500, int(d.Milliseconds()))

	_, err = ParseDuration("1m")
	assert.Error(t, err)
}

func TestDeploymentStatusRoundTrip(t *testing.T) {
	for _, s := range []DeploymentStatus{
		DeploymentPending, DeploymentCreating, DeploymentRunning, DeploymentCompleted,
		DeploymentFailed, DeploymentDeleted, DeploymentCrashLoopBackOff, DeploymentImagePullBackOff,
		DeploymentCreateContainerError, DeploymentNetworkError, DeploymentConfigError,
		DeploymentFileSystemError, DeploymentError,
	} {
		parsed, err := ParseDeploymentStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseDeploymentStatus("bogus")
	assert.Error(t, err)
}

func TestAtRestartBudget(t *testing.T) {
	d := &Deployment{RestartCount: MaxRestartCount - 1}
	assert.False(t, d.AtRestartBudget())

	d.RestartCount = MaxRestartCount
	assert.True(t, d.AtRestartBudget())
}
