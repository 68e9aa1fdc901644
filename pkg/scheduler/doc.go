/*
Package scheduler runs the single reconciliation loop that drives every
docker-runtime deployment toward its desired state: load the working set
from storage, hand each one to the Runtime Driver under a bounded timeout,
run the Health Checker against Running deployments, persist whatever comes
back, and sweep deployments that reached Deleted with no instances left.
*/
package scheduler
