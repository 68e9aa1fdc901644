package runtime

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"

	"github.com/kemeter/ring/pkg/log"
)

// dockerImage names the image to pull and any registry credentials to pull
// it with, mirroring the original DockerImage carrier type.
type dockerImage struct {
	name     string
	tag      string
	server   string
	username string
	password string
	hasAuth  bool
}

// Connect dials the local Docker daemon using the standard environment
// (DOCKER_HOST, DOCKER_CERT_PATH, DOCKER_TLS_VERIFY), negotiating the API
// version against whatever the daemon speaks.
func Connect() (*client.Client, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}

// tinyID returns an 8-hex-character suffix used to disambiguate container
// names for the same deployment/instance pair.
func tinyID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(buf)
}

func pullImage(ctx context.Context, cli *client.Client, img dockerImage) error {
	ref := img.name + ":" + img.tag
	logger := log.Logger.With().Str("image", ref).Logger()

	if _, _, err := cli.ImageInspectWithRaw(ctx, ref); err == nil {
		logger.Debug().Msg("image already present locally")
		return nil
	}

	var authStr string
	if img.hasAuth {
		cfg := registry.AuthConfig{
			Username:      img.username,
			Password:      img.password,
			ServerAddress: img.server,
		}
		b, err := json.Marshal(cfg)
		if err != nil {
			return newError(Other, err.Error())
		}
		authStr = base64.URLEncoding.EncodeToString(b)
	}

	out, err := cli.ImagePull(ctx, ref, image.PullOptions{RegistryAuth: authStr})
	if err != nil {
		return classifyDockerErr(err)
	}
	defer out.Close()

	if _, err := io.Copy(io.Discard, out); err != nil {
		return newError(ImagePullFailed, err.Error())
	}

	if _, _, err := cli.ImageInspectWithRaw(ctx, ref); err != nil {
		return newError(ImageNotFound, "image "+ref+" not available after pull")
	}

	logger.Info().Msg("image pulled")
	return nil
}

func createNetwork(ctx context.Context, cli *client.Client, name string) error {
	networks, err := cli.NetworkList(ctx, network.ListOptions{})
	if err != nil {
		return newError(NetworkCreationFailed, "failed to list networks: "+err.Error())
	}
	for _, n := range networks {
		if n.Name == name {
			return nil
		}
	}

	if _, err := cli.NetworkCreate(ctx, name, network.CreateOptions{Driver: "bridge"}); err != nil {
		return newError(NetworkCreationFailed, "failed to create network "+name+": "+err.Error())
	}
	return nil
}
