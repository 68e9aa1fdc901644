package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kemeter/ring/pkg/config"
	"github.com/kemeter/ring/pkg/deploy"
	"github.com/kemeter/ring/pkg/runtime"
	"github.com/kemeter/ring/pkg/types"
)

// defaultTimeout bounds every request issued through Client. Log streaming
// aside, ring's API calls are all short reads/writes against sqlite or a
// handful of Docker calls, so one timeout for the whole client is enough.
const defaultTimeout = 10 * time.Second

// Client is a thin HTTP wrapper around ring's API, authenticating with a
// bearer token resolved from the CLI's cached auth.json.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a Client for the named context, reading its base URL
// from config.toml and its bearer token from auth.json. Pass "" as token to
// build an unauthenticated client, suitable only for Login.
func NewClient(ctx config.Context, token string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(ctx.URL(), "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// NewClientForContext resolves contextName's URL and cached token from the
// on-disk configuration, the shape every CLI command other than `ring
// login` and `ring init` needs.
func NewClientForContext(contextName string) (*Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	ctx, ok := cfg.Contexts[contextName]
	if !ok {
		return nil, fmt.Errorf("unknown context %q", contextName)
	}
	token, err := config.TokenFor(contextName)
	if err != nil {
		return nil, err
	}
	return NewClient(ctx, token), nil
}

// APIError is returned when the server responds with a non-2xx status. It
// carries the decoded error message when the body parsed as JSON, or the
// raw body otherwise.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ring api: %s (status %d)", e.Message, e.StatusCode)
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		var eb errorBody
		message := string(data)
		if json.Unmarshal(data, &eb) == nil && eb.Error != "" {
			message = eb.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// Healthz reports whether the API process is up.
func (c *Client) Healthz(ctx context.Context) (string, error) {
	var out struct {
		State string `json:"state"`
	}
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, &out); err != nil {
		return "", err
	}
	return out.State, nil
}

// Login exchanges a username/password for a bearer token. The caller is
// responsible for persisting it with config.SetToken.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	in := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{username, password}

	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/login", nil, in, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Deployment mirrors the API's deployment response: the stored record plus
// a live view of its instances.
type Deployment struct {
	types.Deployment
	LiveInstances []runtime.Instance `json:"live_instances,omitempty"`
}

// NodeInfo is a snapshot of the host the server is running on.
type NodeInfo struct {
	Hostname           string  `json:"hostname"`
	OS                 string  `json:"os"`
	Arch               string  `json:"arch"`
	UptimeSeconds      uint64  `json:"uptime_seconds"`
	CPUCount           int     `json:"cpu_count"`
	MemoryTotalGiB     float64 `json:"memory_total_gib"`
	MemoryAvailGiB     float64 `json:"memory_available_gib"`
	LoadAverageOne     float64 `json:"load_average_one"`
	LoadAverageFive    float64 `json:"load_average_five"`
	LoadAverageFifteen float64 `json:"load_average_fifteen"`
}

// NodeGet reports a resource snapshot of the host running the server.
func (c *Client) NodeGet(ctx context.Context) (*NodeInfo, error) {
	var out NodeInfo
	if err := c.do(ctx, http.MethodGet, "/node/get", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateDeployment submits a new deployment.
func (c *Client) CreateDeployment(ctx context.Context, in deploy.CreateInput) (*Deployment, error) {
	var out Deployment
	if err := c.do(ctx, http.MethodPost, "/deployments/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeploymentFilter narrows ListDeployments by namespace and/or status. Both
// fields accept multiple values, matched the same way the server's
// storage.Filter does: an IN match, ANDed across fields.
type DeploymentFilter struct {
	Namespace []string
	Status    []string
}

// ListDeployments returns every deployment matching filter. An empty filter
// returns everything.
func (c *Client) ListDeployments(ctx context.Context, filter DeploymentFilter) ([]types.Deployment, error) {
	q := url.Values{}
	for _, ns := range filter.Namespace {
		q.Add("namespace", ns)
	}
	for _, st := range filter.Status {
		q.Add("status", st)
	}

	var out []types.Deployment
	if err := c.do(ctx, http.MethodGet, "/deployments/", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDeployment fetches one deployment by id, including its live instances.
func (c *Client) GetDeployment(ctx context.Context, id string) (*Deployment, error) {
	var out Deployment
	if err := c.do(ctx, http.MethodGet, "/deployments/"+id, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDeployment marks a deployment deleted.
func (c *Client) DeleteDeployment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/deployments/"+id, nil, nil, nil)
}

// RollbackDeployment reactivates the most recently superseded deployment
// sharing id's namespace and name, returning the reactivated deployment.
func (c *Client) RollbackDeployment(ctx context.Context, id string) (*Deployment, error) {
	var out Deployment
	if err := c.do(ctx, http.MethodPost, "/deployments/"+id+"/rollback", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeploymentLogs returns the aggregated, per-instance log lines for a
// deployment. tail and since are passed through to Docker's log API
// unmodified; pass "" to omit either.
func (c *Client) DeploymentLogs(ctx context.Context, id, tail, since string) ([]runtime.InstanceLog, error) {
	q := url.Values{}
	if tail != "" {
		q.Set("tail", tail)
	}
	if since != "" {
		q.Set("since", since)
	}

	var out []runtime.InstanceLog
	if err := c.do(ctx, http.MethodGet, "/deployments/"+id+"/logs", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeploymentEvents returns a deployment's events, most recent first. level
// restricts to a single severity ("info", "warning", "error"); pass "" for
// every level. limit <= 0 uses the server's default of 50.
func (c *Client) DeploymentEvents(ctx context.Context, id, level string, limit int) ([]types.DeploymentEvent, error) {
	q := url.Values{}
	if level != "" {
		q.Set("level", level)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var out []types.DeploymentEvent
	if err := c.do(ctx, http.MethodGet, "/deployments/"+id+"/events", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeploymentHealthChecks returns recorded health check results for a
// deployment. When latest is true, only the most recent result per check is
// returned and limit is ignored.
func (c *Client) DeploymentHealthChecks(ctx context.Context, id string, latest bool, limit int) ([]types.HealthCheckResult, error) {
	q := url.Values{}
	if latest {
		q.Set("latest", "true")
	} else if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var out []types.HealthCheckResult
	if err := c.do(ctx, http.MethodGet, "/deployments/"+id+"/health_checks", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ConfigInput is the request body for creating or replacing a config.
type ConfigInput struct {
	Namespace string            `json:"namespace"`
	Name      string            `json:"name"`
	Data      string            `json:"data"`
	Labels    map[string]string `json:"labels"`
}

// CreateConfig submits a new config.
func (c *Client) CreateConfig(ctx context.Context, in ConfigInput) (*types.Config, error) {
	var out types.Config
	if err := c.do(ctx, http.MethodPost, "/configs/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListConfigs returns every config in namespace, or every config across
// namespaces when namespace is empty.
func (c *Client) ListConfigs(ctx context.Context, namespace []string) ([]types.Config, error) {
	q := url.Values{}
	for _, ns := range namespace {
		q.Add("namespace", ns)
	}

	var out []types.Config
	if err := c.do(ctx, http.MethodGet, "/configs/", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetConfig fetches one config by id.
func (c *Client) GetConfig(ctx context.Context, id string) (*types.Config, error) {
	var out types.Config
	if err := c.do(ctx, http.MethodGet, "/configs/"+id, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateConfig replaces a config's name, data and labels in place.
func (c *Client) UpdateConfig(ctx context.Context, id string, in ConfigInput) (*types.Config, error) {
	var out types.Config
	if err := c.do(ctx, http.MethodPut, "/configs/"+id, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConfig removes a config.
func (c *Client) DeleteConfig(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/configs/"+id, nil, nil, nil)
}

// UserInput is the request body for creating a user.
type UserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateUser registers a new user.
func (c *Client) CreateUser(ctx context.Context, in UserInput) (*types.User, error) {
	var out types.User
	if err := c.do(ctx, http.MethodPost, "/users/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers returns every registered user.
func (c *Client) ListUsers(ctx context.Context) ([]types.User, error) {
	var out []types.User
	if err := c.do(ctx, http.MethodGet, "/users/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Me returns the user the client's bearer token authenticates as.
func (c *Client) Me(ctx context.Context) (*types.User, error) {
	var out types.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserUpdate is a partial update: nil fields are left unchanged.
type UserUpdate struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// UpdateUser applies a partial update to a user.
func (c *Client) UpdateUser(ctx context.Context, id string, in UserUpdate) (*types.User, error) {
	var out types.User
	if err := c.do(ctx, http.MethodPut, "/users/"+id, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+id, nil, nil, nil)
}
