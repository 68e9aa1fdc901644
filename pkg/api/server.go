package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/kemeter/ring/pkg/events"
	"github.com/kemeter/ring/pkg/log"
	"github.com/kemeter/ring/pkg/metrics"
	"github.com/kemeter/ring/pkg/storage"
)

// Server holds the dependencies every handler needs and owns the chi
// router and the underlying http.Server.
type Server struct {
	store  storage.Store
	events *events.Log
	logger zerolog.Logger
	http   *http.Server
}

// NewServer builds a Server and wires every route in the contract table.
// /healthz and /login are the only unauthenticated routes; everything
// else goes through requireAuth.
func NewServer(store storage.Store, eventLog *events.Log) *Server {
	s := &Server{
		store:  store,
		events: eventLog,
		logger: log.WithComponent("api"),
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(s.requestLogger)

	router.Get("/healthz", s.handleHealthz)
	router.Post("/login", s.handleLogin)
	router.Handle("/metrics", metrics.Handler())
	router.Get("/readyz", metrics.ReadyHandler())
	router.Get("/livez", metrics.LivenessHandler())

	router.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/node/get", s.handleNodeGet)

		r.Route("/deployments", func(r chi.Router) {
			r.Post("/", s.handleDeploymentCreate)
			r.Get("/", s.handleDeploymentList)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleDeploymentGet)
				r.Delete("/", s.handleDeploymentDelete)
				r.Get("/logs", s.handleDeploymentLogs)
				r.Get("/events", s.handleDeploymentEvents)
				r.Post("/rollback", s.handleDeploymentRollback)
				r.Get("/health_checks", s.handleDeploymentHealthChecks)
			})
		})

		r.Route("/configs", func(r chi.Router) {
			r.Post("/", s.handleConfigCreate)
			r.Get("/", s.handleConfigList)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleConfigGet)
				r.Put("/", s.handleConfigUpdate)
				r.Delete("/", s.handleConfigDelete)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", s.handleUserCreate)
			r.Get("/", s.handleUserList)
			r.Get("/me", s.handleUserMe)
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", s.handleUserUpdate)
				r.Delete("/", s.handleUserDelete)
			})
		})
	})

	s.http = &http.Server{
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the server's root http.Handler, for tests and for
// embedding behind an httptest.Server.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start listens on addr and blocks serving HTTP until the server is shut
// down or fails.
func (s *Server) Start(addr string) error {
	s.http.Addr = addr
	s.logger.Info().Str("addr", addr).Msg("api server listening")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server, waiting for in-flight
// requests to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		timer.ObserveDurationVec(metrics.APIRequestDuration, r.Method)
		metrics.APIRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", timer.Duration()).
			Msg("request")
	})
}
