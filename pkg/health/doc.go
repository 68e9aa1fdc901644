/*
Package health runs a deployment's TCP/HTTP/command probes and turns their
results into a pure Outcome: probe results to persist, events to log, and
the status change or instance removals the scheduler should apply.

Checker never touches storage. Its only mutable state is an in-process
consecutive-failure counter keyed by deployment, instance and probe index,
which lives for as long as the scheduler process does.
*/
package health
