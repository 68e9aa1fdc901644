package health

import (
	"context"
	"errors"

	"github.com/docker/docker/client"
)

// containerIP returns the instance's primary IP: the default bridge
// network's address if present, else the first non-empty address among
// its attached networks.
func containerIP(ctx context.Context, cli *client.Client, containerID string) (string, error) {
	inspect, err := cli.ContainerInspect(ctx, containerID)
	if err != nil {
		return "", err
	}
	if inspect.NetworkSettings == nil {
		return "", errors.New("container has no network settings")
	}

	if bridge, ok := inspect.NetworkSettings.Networks["bridge"]; ok && bridge.IPAddress != "" {
		return bridge.IPAddress, nil
	}
	for _, n := range inspect.NetworkSettings.Networks {
		if n.IPAddress != "" {
			return n.IPAddress, nil
		}
	}

	return "", errors.New("container has no IP address on any network")
}
