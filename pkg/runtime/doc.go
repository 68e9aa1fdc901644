/*
Package runtime drives deployments onto the Docker Engine API.

Apply reconciles one Deployment against its actual container instances:
it connects to the daemon, lists the instances currently labeled with the
deployment's id, and dispatches on Kind. Job deployments run an instance
to completion and record whichever of Running/Completed/Failed it settles
into. Worker deployments are scaled one instance at a time toward
Replicas, subject to the restart budget in types.Deployment.AtRestartBudget
— once exhausted the deployment is pinned at CrashLoopBackOff and Apply
stops touching it.

Apply never writes to storage. It returns the mutated Deployment, including
any events queued on its PendingEvents slice; the scheduler is the one that
persists both.
*/
package runtime
