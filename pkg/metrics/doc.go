/*
Package metrics provides Prometheus metrics collection and exposition for ring.

Metrics are registered at package init and exposed over HTTP for scraping by
Prometheus servers via Handler(), mounted at /metrics by pkg/api.

# Metrics Catalog

Deployment Metrics:

ring_deployments_total{namespace, status}:
  - Type: Gauge, refreshed by Collector every 15s
  - Total deployments grouped by namespace and status (creating/running/deleted/failed)

ring_deployments_created_total{namespace}:
  - Type: Counter, incremented by pkg/deploy on every successful Create

ring_deployments_rolled_back_total{namespace}:
  - Type: Counter, incremented by pkg/deploy on every successful Rollback

Config and User Metrics:

ring_configs_total / ring_users_total:
  - Type: Gauge, refreshed by Collector every 15s

Event and Health Check Metrics:

ring_events_total{level}:
  - Type: Counter, incremented by pkg/events on every Emit

ring_health_check_results_total{status}:
  - Type: Counter, incremented by pkg/scheduler after each health check run

Runtime Metrics:

ring_containers_scheduled_total / ring_containers_failed_total:
  - Type: Counter, incremented by pkg/runtime around container create/start

ring_container_create_duration_seconds:
  - Type: Histogram, observed by pkg/runtime around container create/start

ring_reconciliation_duration_seconds / ring_reconciliation_cycles_total:
  - Type: Histogram / Counter, observed by pkg/runtime per Apply call

API Metrics:

ring_api_requests_total{method, status}:
  - Type: Counter, incremented by pkg/api's request logging middleware

ring_api_request_duration_seconds{method}:
  - Type: Histogram, observed by the same middleware

# Usage

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDuration(metrics.ContainerCreateDuration)

	metrics.DeploymentsCreatedTotal.WithLabelValues(namespace).Inc()

# Collector

Collector polls storage.Store every 15 seconds to refresh the gauges that
reflect current state (deployments by namespace/status, config and user
counts). Everything else is a counter or histogram updated directly by the
package that observes the event, so it needs no polling.

# Health

health.go tracks readiness/liveness independently of the Prometheus catalog:
components register themselves with RegisterComponent and report status
through UpdateComponent; HealthHandler, ReadyHandler and LivenessHandler
expose /healthz, /readyz and /livez.
*/
package metrics
