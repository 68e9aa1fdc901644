package runtime

import (
	"bufio"
	"context"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// Logs returns the tail of stdout/stderr for a container, one entry per
// line, with trailing newlines and empty lines dropped. An instance that no
// longer exists yields an empty slice rather than an error.
func Logs(ctx context.Context, cli *client.Client, containerID string, tail string, since string) ([]string, error) {
	if _, err := cli.ContainerInspect(ctx, containerID); err != nil {
		return nil, nil
	}

	opts := container.LogsOptions{ShowStdout: true, ShowStderr: true}
	if tail != "" {
		opts.Tail = tail
	}
	if since != "" {
		opts.Since = since
	}

	out, err := cli.ContainerLogs(ctx, containerID, opts)
	if err != nil {
		return nil, newError(Other, err.Error())
	}
	defer out.Close()

	return collectLogLines(out), nil
}

// LogsStream follows a container's combined stdout/stderr, delivering
// already-trimmed lines on the returned channel until ctx is canceled or
// the stream ends.
func LogsStream(ctx context.Context, cli *client.Client, containerID string) (<-chan string, error) {
	opts := container.LogsOptions{ShowStdout: true, ShowStderr: true, Follow: true}

	out, err := cli.ContainerLogs(ctx, containerID, opts)
	if err != nil {
		return nil, newError(Other, err.Error())
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		defer out.Close()

		scanner := bufio.NewScanner(out)
		for scanner.Scan() {
			if line := processLogChunk(scanner.Bytes()); line != "" {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return lines, nil
}

// InstanceLog tags a log line with the instance it came from, for
// aggregated logs across every instance backing a deployment.
type InstanceLog struct {
	InstanceID string `json:"instance_id"`
	Line       string `json:"line"`
}

// AggregateLogs concatenates Logs across every instance Docker currently
// reports for deploymentID. An instance whose logs fail to fetch is
// skipped rather than failing the whole aggregation.
func AggregateLogs(ctx context.Context, cli *client.Client, deploymentID, tail, since string) ([]InstanceLog, error) {
	ids, err := listActiveInstances(ctx, cli, deploymentID)
	if err != nil {
		return nil, err
	}

	var out []InstanceLog
	for _, id := range ids {
		lines, err := Logs(ctx, cli, id, tail, since)
		if err != nil {
			continue
		}
		for _, line := range lines {
			out = append(out, InstanceLog{InstanceID: id, Line: line})
		}
	}
	return out, nil
}

func collectLogLines(r io.Reader) []string {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := processLogChunk(scanner.Bytes()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// processLogChunk strips the 8-byte Docker multiplexed-stream header when
// present and discards blank lines.
func processLogChunk(b []byte) string {
	if len(b) >= 8 && (b[0] == 1 || b[0] == 2) {
		b = b[8:]
	}
	line := string(b)
	if len(line) == 0 {
		return ""
	}
	return line
}
