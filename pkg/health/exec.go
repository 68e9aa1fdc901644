package health

import (
	"context"
	"io"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/kemeter/ring/pkg/types"
)

// checkCommand shell-splits probe.command and execs it inside the
// instance, succeeding iff the exec completes without a transport error.
// Exit-code inspection is not required by the contract this implements.
func checkCommand(ctx context.Context, cli *client.Client, instanceID, command string) (types.HealthCheckStatus, *string) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return types.HealthCheckFailed, strp("empty command")
	}

	created, err := cli.ContainerExecCreate(ctx, instanceID, container.ExecOptions{
		Cmd:          parts,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return execErrStatus(ctx, "failed to create exec: "+err.Error())
	}

	attach, err := cli.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{})
	if err != nil {
		return execErrStatus(ctx, "failed to attach exec: "+err.Error())
	}
	defer attach.Close()

	if _, err := io.Copy(io.Discard, attach.Reader); err != nil {
		return execErrStatus(ctx, "exec failed: "+err.Error())
	}

	return types.HealthCheckSuccess, nil
}

func execErrStatus(ctx context.Context, message string) (types.HealthCheckStatus, *string) {
	if ctx.Err() != nil {
		return types.HealthCheckTimeout, strp(message)
	}
	return types.HealthCheckFailed, strp(message)
}
