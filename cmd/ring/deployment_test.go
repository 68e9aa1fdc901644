package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/kemeter/ring/pkg/types"
)

func TestPrintEventsTableRendersReasonAndMessage(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	reason := "HealthCheckFailed"
	events := []types.DeploymentEvent{
		{Timestamp: "2026-07-30T00:00:00Z", Level: "error", Component: "scheduler", Reason: &reason, Message: "probe failed"},
		{Timestamp: "2026-07-30T00:00:05Z", Level: "info", Component: "scheduler", Message: "restarted"},
	}

	printEventsTable(cmd, events)

	output := out.String()
	assert.Contains(t, output, "probe failed")
	assert.Contains(t, output, "HealthCheckFailed")
	assert.Contains(t, output, "restarted")
}
