package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thajpo/ceo-dashboard/internal/dashboard"
	"github.com/thajpo/ceo-dashboard/internal/router"
)

// Runtime is the subset of the runtime HTTP client the API needs.
type Runtime interface {
	ListProjects(ctx context.Context) ([]string, error)
	CreateSession(ctx context.Context, project, mode string) (dashboard.CreatedSession, error)
	DeleteSession(ctx context.Context, id string) error
	FetchDiff(ctx context.Context, id string) (dashboard.Diff, error)
	ExecutePlan(ctx context.Context, id string) error
}

type Options struct {
	Loop           *router.Loop
	Runtime        Runtime
	Hub            *Hub
	Gatherer       prometheus.Gatherer
	Connected      func() bool
	AllowedOrigins []string
}

// Server holds the dependencies shared by all handlers.
type Server struct {
	loop      *router.Loop
	runtime   Runtime
	hub       *Hub
	gatherer  prometheus.Gatherer
	connected func() bool
	origins   []string
}

func NewServer(opts Options) *Server {
	hub := opts.Hub
	if hub == nil {
		hub = NewHub()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		loop:      opts.Loop,
		runtime:   opts.Runtime,
		hub:       hub,
		gatherer:  gatherer,
		connected: opts.Connected,
		origins:   opts.AllowedOrigins,
	}
}

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(srv *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(RecovererMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: srv.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/status", srv.handleStatus)

	r.Get("/api/projects", srv.handleListProjects)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", srv.handleListSessions)
		r.Post("/", srv.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", srv.handleGetSession)
			r.Delete("/", srv.handleDeleteSession)
			r.Post("/messages", srv.handleSendMessage)
			r.Post("/stop", srv.handleStopSession)
			r.Post("/execute", srv.handleExecutePlan)
			r.Post("/leave", srv.handleLeaveSession)
			r.Get("/diff", srv.handleGetDiff)
			r.Get("/diff/file", srv.handleGetDiffFile)
		})
	})

	r.Get("/api/inbox", srv.handleListInbox)
	r.Post("/api/inbox/{id}/open", srv.handleOpenInboxItem)

	r.Get("/api/approvals", srv.handleListApprovals)
	r.Post("/api/approvals/{id}", srv.handleDecideApproval)

	r.Get("/api/autonomy", srv.handleGetAutonomy)
	r.Post("/api/autonomy/confirm", srv.handleConfirmAutonomy)

	r.Get("/api/events", srv.handleEvents)
	r.Handle("/metrics", promhttp.HandlerFor(srv.gatherer, promhttp.HandlerOpts{}))

	return r
}

// Hub returns the change hub so the caller can subscribe it to the router.
func (s *Server) Hub() *Hub {
	return s.hub
}

// do runs fn on the router loop, writing a 503 if the loop is gone.
func (s *Server) do(w http.ResponseWriter, r *http.Request, fn func(*router.Router)) bool {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.loop.Do(ctx, fn); err != nil {
		if errors.Is(err, router.ErrStopped) {
			writeError(w, http.StatusServiceUnavailable, "router stopped")
		} else {
			writeError(w, http.StatusServiceUnavailable, err.Error())
		}
		return false
	}
	return true
}

// run is do for follow-up work whose failure does not change the response.
func (s *Server) run(r *http.Request, fn func(*router.Router)) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.loop.Do(ctx, fn); err != nil {
		log.Printf("Router call for %s %s failed: %v", r.Method, r.URL.Path, err)
	}
}
