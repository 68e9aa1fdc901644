package health

import (
	"context"
	"fmt"
	"net"

	"github.com/docker/docker/client"

	"github.com/kemeter/ring/pkg/types"
)

// checkTCP dials the instance's primary IP on port, succeeding on connect.
func checkTCP(ctx context.Context, cli *client.Client, instanceID string, port int) (types.HealthCheckStatus, *string) {
	ip, err := containerIP(ctx, cli, instanceID)
	if err != nil {
		return types.HealthCheckFailed, strp("failed to resolve instance address: " + err.Error())
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", ip, port))
	if err != nil {
		if ctx.Err() != nil {
			return types.HealthCheckTimeout, strp("tcp check timed out: " + err.Error())
		}
		return types.HealthCheckFailed, strp("connection failed: " + err.Error())
	}
	defer conn.Close()

	return types.HealthCheckSuccess, nil
}
