/*
Package api implements the HTTP surface described in the project's
deployment contract: login, deployments (create/list/get/delete/rollback,
plus their logs/events/health_checks sub-resources), configs, users and a
node info snapshot.

Every route but /healthz and /login requires a bearer token validated
against storage.Store.GetUserByToken. Handlers are intentionally thin:
they decode the request, call into pkg/deploy, pkg/events or storage.Store,
and translate the result to a status code and a JSON body. None of the
domain logic lives here.
*/
package api
