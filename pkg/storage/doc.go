/*
Package storage provides SQLite-backed state persistence for ring.

The Store interface covers deployments, deployment events, health check
results, configs, and users. Nested structures (command, labels, secrets,
health checks, resource limits) round-trip through JSON-string columns;
filtered listing compiles an AND-joined, IN-valued WHERE clause from a
Filter, dropping any column whose value set is empty.

Database location and pool size come from RING_DATABASE_PATH and
RING_DB_POOL_SIZE (see pkg/config).
*/
package storage
