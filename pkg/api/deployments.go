package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kemeter/ring/pkg/deploy"
	"github.com/kemeter/ring/pkg/runtime"
	"github.com/kemeter/ring/pkg/storage"
	"github.com/kemeter/ring/pkg/types"
)

// deploymentOutput is what deployment endpoints return: the stored
// deployment plus a live view of its instances, fetched from Docker
// rather than the last-reconciled snapshot in storage.
type deploymentOutput struct {
	*types.Deployment
	LiveInstances []runtime.Instance `json:"live_instances,omitempty"`
}

func (s *Server) withLiveInstances(d *types.Deployment) deploymentOutput {
	out := deploymentOutput{Deployment: d}

	cli, err := runtime.Connect()
	if err != nil {
		s.logger.Warn().Err(err).Msg("connect to runtime for live instances")
		return out
	}
	defer cli.Close()

	instances, err := runtime.ListInstances(context.Background(), cli, d.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("deployment_id", d.ID).Msg("list live instances")
		return out
	}
	out.LiveInstances = instances
	return out
}

func (s *Server) handleDeploymentCreate(w http.ResponseWriter, r *http.Request) {
	var in deploy.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := deploy.Create(s.store, s.events, in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, s.withLiveInstances(d))
}

func (s *Server) handleDeploymentList(w http.ResponseWriter, r *http.Request) {
	filter := storage.Filter{}
	if namespaces := repeatedQueryParam(r.URL.Query(), "namespace"); len(namespaces) > 0 {
		filter["namespace"] = namespaces
	}
	if statuses := repeatedQueryParam(r.URL.Query(), "status"); len(statuses) > 0 {
		filter["status"] = statuses
	}

	deployments, err := s.store.ListDeployments(filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("list deployments")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, deployments)
}

func (s *Server) handleDeploymentGet(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookupDeployment(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.withLiveInstances(d))
}

func (s *Server) handleDeploymentDelete(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookupDeployment(w, r)
	if !ok {
		return
	}

	d.Status = types.DeploymentDeleted
	if err := s.store.UpdateDeploymentStatus(d); err != nil {
		s.logger.Error().Err(err).Str("deployment_id", d.ID).Msg("delete deployment")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeploymentRollback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	predecessorID, err := deploy.Rollback(s.store, s.events, id)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if predecessorID == "" {
		writeError(w, http.StatusNotFound, "no previous deployment to roll back to")
		return
	}

	predecessor, err := s.store.GetDeployment(predecessorID)
	if err != nil || predecessor == nil {
		s.logger.Error().Err(err).Str("deployment_id", predecessorID).Msg("load rollback predecessor")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, s.withLiveInstances(predecessor))
}

func (s *Server) handleDeploymentLogs(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookupDeployment(w, r)
	if !ok {
		return
	}

	cli, err := runtime.Connect()
	if err != nil {
		s.logger.Error().Err(err).Msg("connect to runtime")
		writeError(w, http.StatusInternalServerError, "runtime unavailable")
		return
	}
	defer cli.Close()

	q := r.URL.Query()
	logs, err := runtime.AggregateLogs(r.Context(), cli, d.ID, q.Get("tail"), q.Get("since"))
	if err != nil {
		s.logger.Error().Err(err).Str("deployment_id", d.ID).Msg("aggregate logs")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, logs)
}

const defaultEventLimit = 50

func (s *Server) handleDeploymentEvents(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookupDeployment(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit := parseLimit(q.Get("limit"), defaultEventLimit)

	var (
		evts []*types.DeploymentEvent
		err  error
	)
	if level := q.Get("level"); level != "" {
		evts, err = s.events.ByDeploymentAndLevel(d.ID, level, limit)
	} else {
		evts, err = s.events.ByDeployment(d.ID, limit)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("deployment_id", d.ID).Msg("list events")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, evts)
}

func (s *Server) handleDeploymentHealthChecks(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookupDeployment(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()

	var (
		results []*types.HealthCheckResult
		err     error
	)
	if q.Get("latest") == "true" {
		results, err = s.store.LatestHealthCheckResultsByDeployment(d.ID)
	} else {
		limit := parseLimit(q.Get("limit"), 0)
		results, err = s.store.ListHealthCheckResultsByDeployment(d.ID, limit)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("deployment_id", d.ID).Msg("list health checks")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// lookupDeployment resolves the {id} path param, writing a 404 response
// and returning ok=false if it doesn't exist.
func (s *Server) lookupDeployment(w http.ResponseWriter, r *http.Request) (*types.Deployment, bool) {
	id := chi.URLParam(r, "id")

	d, err := s.store.GetDeployment(id)
	if err != nil {
		s.logger.Error().Err(err).Str("deployment_id", id).Msg("get deployment")
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "deployment not found")
		return nil, false
	}
	return d, true
}

// repeatedQueryParam collects every value for key and key[] from a query
// string, matching form inputs like ?namespace=a&namespace[]=b.
func repeatedQueryParam(q url.Values, key string) []string {
	var out []string
	out = append(out, q[key]...)
	out = append(out, q[key+"[]"]...)
	return out
}

func parseLimit(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

