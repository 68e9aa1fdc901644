package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"

	"github.com/kemeter/ring/pkg/log"
	"github.com/kemeter/ring/pkg/metrics"
	"github.com/kemeter/ring/pkg/types"
)

func buildUserConfig(cfg *types.DeploymentConfig) string {
	if cfg == nil || cfg.User == nil {
		return ""
	}
	u := cfg.User
	switch {
	case u.ID != nil && u.Group != nil:
		return fmt.Sprintf("%d:%d", *u.ID, *u.Group)
	case u.ID != nil:
		return strconv.FormatInt(*u.ID, 10)
	default:
		return ""
	}
}

func privilegedConfig(cfg *types.DeploymentConfig) bool {
	if cfg == nil || cfg.User == nil || cfg.User.Privileged == nil {
		return false
	}
	return *cfg.User.Privileged
}

// createContainer creates, networks and starts a single container instance
// for deployment, appending its id to deployment.Instances on success.
func createContainer(ctx context.Context, cli *client.Client, d *types.Deployment, configs map[string]*types.Config) (err error) {
	log.WithDeploymentID(d.ID).Debug().Msg("creating container")

	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ContainerCreateDuration)
		if err != nil {
			metrics.ContainersFailed.Inc()
		} else {
			metrics.ContainersScheduled.Inc()
		}
	}()

	name, tag, found := strings.Cut(d.Image, ":")
	if !found {
		tag = "latest"
	}
	img := dockerImage{name: name, tag: tag}

	if d.Config != nil && d.Config.Server != "" && d.Config.Username != "" && d.Config.Password != "" {
		img.server, img.username, img.password = d.Config.Server, d.Config.Username, d.Config.Password
		img.hasAuth = true
	}

	shouldPull := d.Config == nil || d.Config.ImagePullPolicy != "Never"
	if shouldPull {
		if err := pullImage(ctx, cli, img); err != nil {
			return err
		}
	}

	networkName := "ring_" + d.Namespace
	if err := createNetwork(ctx, cli, networkName); err != nil {
		return err
	}

	suffix := tinyID()
	containerName := fmt.Sprintf("%s_%s_%s", d.Namespace, d.Name, suffix)

	labels := map[string]string{"ring_deployment": d.ID}
	for k, v := range d.Labels {
		labels[k] = v
	}

	envs := make([]string, 0, len(d.Secrets))
	for k, v := range d.Secrets {
		envs = append(envs, k+"="+v)
	}

	var volumes []types.Volume
	if d.Volumes != "" {
		if err := json.Unmarshal([]byte(d.Volumes), &volumes); err != nil {
			return newError(InstanceCreationFailed, "failed to parse volumes: "+err.Error())
		}
	}

	mounts := make([]mount.Mount, 0, len(volumes))
	for _, v := range volumes {
		m, err := mountFromVolume(v, configs, d.ID)
		if err != nil {
			return err
		}
		mounts = append(mounts, m)
	}

	hostConfig := &container.HostConfig{
		Mounts:     mounts,
		Privileged: privilegedConfig(d.Config),
	}
	if d.Resources != nil {
		if d.Resources.CPULimit != nil {
			hostConfig.NanoCPUs = int64(*d.Resources.CPULimit * 1_000_000_000)
		}
		if d.Resources.MemoryLimit != nil {
			if bytes, err := types.ParseMemory(*d.Resources.MemoryLimit); err == nil {
				hostConfig.Memory = bytes
			}
		}
		if d.Resources.MemoryReservation != nil {
			if bytes, err := types.ParseMemory(*d.Resources.MemoryReservation); err == nil {
				hostConfig.MemoryReservation = bytes
			}
		}
		if d.Resources.CPUShares != nil {
			hostConfig.CPUShares = *d.Resources.CPUShares
		}
	}

	containerConfig := &container.Config{
		Image:  d.Image,
		Cmd:    d.Command,
		Env:    envs,
		Labels: labels,
		User:   buildUserConfig(d.Config),
	}

	resp, err := cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, containerName)
	if err != nil {
		return classifyDockerErr(err)
	}

	d.Instances = append(d.Instances, resp.ID)

	connectCfg := &network.EndpointSettings{
		Aliases: []string{d.Name, containerName},
	}
	if err := cli.NetworkConnect(ctx, networkName, resp.ID, connectCfg); err != nil {
		return newError(InstanceCreationFailed, "failed to connect to network: "+err.Error())
	}

	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return newError(InstanceCreationFailed, "failed to start container: "+err.Error())
	}

	log.WithDeploymentID(d.ID).Info().Str("container", containerName).Msg("container created and started")
	return nil
}

// mountFromVolume resolves one declared volume into a Docker mount.
func mountFromVolume(v types.Volume, configs map[string]*types.Config, deploymentID string) (mount.Mount, error) {
	readOnly := v.Permission == "ro"

	switch v.Type {
	case types.VolumeBind:
		if v.Source == nil || *v.Source == "" {
			return mount.Mount{}, newError(InstanceCreationFailed, "bind volume requires a source")
		}
		typ := mount.TypeBind
		if !strings.HasPrefix(*v.Source, "/") {
			typ = mount.TypeVolume
		}
		return mount.Mount{Type: typ, Source: *v.Source, Target: v.Destination, ReadOnly: readOnly}, nil

	case types.VolumeVolume:
		if v.Source == nil || *v.Source == "" {
			return mount.Mount{}, newError(InstanceCreationFailed, "named volume requires a source")
		}
		return mount.Mount{Type: mount.TypeVolume, Source: *v.Source, Target: v.Destination, ReadOnly: readOnly}, nil

	default: // types.VolumeConfig
		if v.Source == nil || *v.Source == "" {
			return mount.Mount{}, newError(InstanceCreationFailed, "config volume requires a source")
		}
		cfg, ok := configs[*v.Source]
		if !ok {
			return mount.Mount{}, newError(ConfigNotFound, fmt.Sprintf("config '%s' not found", *v.Source))
		}
		var data map[string]string
		if err := json.Unmarshal([]byte(cfg.Data), &data); err != nil {
			return mount.Mount{}, newError(Other, err.Error())
		}
		if v.Key == nil || *v.Key == "" {
			return mount.Mount{}, newError(ConfigKeyNotFound, "missing 'key' field for config volume")
		}
		content, ok := data[*v.Key]
		if !ok {
			return mount.Mount{}, newError(ConfigKeyNotFound, fmt.Sprintf("key '%s' not found in config '%s'", *v.Key, *v.Source))
		}

		dir := filepath.Join("/tmp/ring_configs", deploymentID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return mount.Mount{}, newError(FileSystemError, err.Error())
		}
		tempFile := filepath.Join(dir, tinyID())
		if err := os.WriteFile(tempFile, []byte(content), 0o644); err != nil {
			return mount.Mount{}, newError(FileSystemError, err.Error())
		}

		return mount.Mount{Type: mount.TypeBind, Source: tempFile, Target: v.Destination, ReadOnly: readOnly}, nil
	}
}

// RemoveInstance stops and removes a single container instance. It is the
// entry point the scheduler uses to act on health.Outcome.InstancesToRemove;
// callers are responsible for dropping the id from deployment.Instances.
func RemoveInstance(ctx context.Context, cli *client.Client, containerID string) {
	removeContainer(ctx, cli, containerID)
}

// removeContainer stops then removes a container, logging but never
// propagating failure — matching the original's best-effort cleanup.
func removeContainer(ctx context.Context, cli *client.Client, containerID string) {
	timeout := 10
	if err := cli.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		log.Logger.Debug().Str("container", containerID).Err(err).Msg("error stopping container")
	} else {
		log.Logger.Debug().Str("container", containerID).Msg("container stopped")
	}

	if err := cli.ContainerRemove(ctx, containerID, container.RemoveOptions{}); err != nil {
		log.Logger.Error().Str("container", containerID).Err(err).Msg("error removing container")
	} else {
		log.Logger.Info().Str("container", containerID).Msg("container removed")
	}
}
