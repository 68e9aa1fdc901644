package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/docker/docker/client"

	"github.com/kemeter/ring/pkg/types"
)

// checkHTTP substitutes the instance's primary IP for the literal
// "localhost" in probe.url and issues a GET, succeeding on any 2xx status.
func checkHTTP(ctx context.Context, cli *client.Client, instanceID, probeURL string) (types.HealthCheckStatus, *string) {
	ip, err := containerIP(ctx, cli, instanceID)
	if err != nil {
		return types.HealthCheckFailed, strp("failed to resolve instance address: " + err.Error())
	}

	url := strings.Replace(probeURL, "localhost", ip, 1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.HealthCheckFailed, strp("failed to build request: " + err.Error())
	}

	httpClient := &http.Client{Timeout: 5 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return types.HealthCheckTimeout, strp("http check timed out: " + err.Error())
		}
		return types.HealthCheckFailed, strp("request failed: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return types.HealthCheckSuccess, nil
	}

	return types.HealthCheckFailed, strp(fmt.Sprintf("unexpected status %d", resp.StatusCode))
}
