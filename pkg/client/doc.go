// Package client provides a Go client for ring's HTTP API.
//
// It wraps net/http with bearer-token authentication and JSON
// marshaling/unmarshaling, giving ring's CLI commands one method per route:
// login, deployments (create/list/get/delete/rollback/logs/events/health
// checks), configs, users and node info. Errors carry the server's decoded
// message and status code rather than a bare "unexpected status" string.
package client
