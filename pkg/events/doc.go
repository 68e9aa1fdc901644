/*
Package events is the deployment event log: every structured fact the
Runtime Driver, Health Checker, Scheduler and API record about a
deployment's lifecycle (state transitions, errors with a machine-readable
reason, scale and health-check actions).

Log wraps storage.Store so writing an event and bumping the parent
deployment's last_event_at stay atomic, and additionally fans each
written event out to any live Subscriber — the mechanism a future
"follow" flag on `ring deployment events` reads from.
*/
package events
