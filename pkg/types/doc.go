/*
Package types defines ring's domain model: deployments, health checks,
events, configs, and users. These are the structures persisted by
pkg/storage, reconciled by pkg/runtime and pkg/scheduler, and served by
pkg/api.

# Deployment lifecycle

	Pending -> Creating -> Running -> Completed (job) | Deleted
	                          |
	                          v
	        CrashLoopBackOff / ImagePullBackOff / CreateContainerError /
	        NetworkError / ConfigError / FileSystemError / Error

A worker deployment is replica-maintained; a job deployment runs to
completion. Deployment.RestartCount is bounded by MaxRestartCount: once it
reaches the budget the deployment is pushed into CrashLoopBackOff and the
scheduler stops retrying it automatically.

# Memory and duration strings

ParseMemory accepts raw byte counts, decimal suffixes (K/M/G/T, powers of
1000) and binary suffixes (Ki/Mi/Gi/Ti, powers of 1024), including
fractional values such as "0.5Gi". ParseDuration accepts only "<n>s" and
"<n>ms".
*/
package types
