// Package server exposes pages over HTTP: the REST API, the published page
// view, the template palette and websocket editing sessions.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/livetemplate/pageforge/internal/config"
	"github.com/livetemplate/pageforge/internal/pages"
	"github.com/livetemplate/pageforge/internal/render"
)

// Server routes HTTP requests to the page service.
type Server struct {
	cfg      *config.Config
	pages    *pages.Service
	renderer *render.Renderer
	log      zerolog.Logger
	hub      *hub
	handler  http.Handler

	stopLimiter context.CancelFunc
	limiterDone <-chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithRenderer sets the renderer used for websocket previews.
func WithRenderer(r *render.Renderer) Option {
	return func(s *Server) { s.renderer = r }
}

// New creates a Server for svc. Call Close to stop its background work.
func New(cfg *config.Config, svc *pages.Service, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		cfg:      cfg,
		pages:    svc,
		renderer: render.New(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = newHub(s)

	ctx, cancel := context.WithCancel(context.Background())
	s.stopLimiter = cancel
	limit, done := RateLimitMiddleware(ctx,
		cfg.API.GetRateLimitRPS(), cfg.API.GetRateLimitBurst(), cfg.API.GetMaxTrackedIPs(), s.log)
	s.limiterDone = done

	var h http.Handler = s.routes()
	h = CompressionMiddleware(h)
	h = limit(h)
	h = CORSMiddleware(cfg.API.GetCORSOrigins(), authHeader(cfg.API))(h)
	h = SecurityHeadersMiddleware()(h)
	h = LoggingMiddleware(s.log)(h)
	s.handler = h
	return s
}

func authHeader(api *config.APIConfig) string {
	if api == nil {
		return ""
	}
	return api.Auth.GetHeaderName()
}

// routes builds the router.
//
//	GET    /healthz
//	GET    /p/{slug}                     published HTML page
//	GET    /api/pages/view/{slug}        published page JSON
//	GET    /api/templates                element palette with property schemas
//	POST   /api/render                   preview HTML for posted content
//	GET    /api/pages                    list the caller's pages
//	POST   /api/pages                    create
//	GET    /api/pages/{id}               read
//	PUT    /api/pages/{id}               partial update
//	DELETE /api/pages/{id}               delete
//	POST   /api/pages/{id}/publish
//	POST   /api/pages/{id}/unpublish
//	GET    /ws/pages/{id}                websocket editing session
func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/p/{slug}", s.handleView).Methods(http.MethodGet, http.MethodHead)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/pages/view/{slug}", s.handleViewJSON).Methods(http.MethodGet)
	api.HandleFunc("/templates", s.handleTemplates).Methods(http.MethodGet)
	api.HandleFunc("/render", s.handleRender).Methods(http.MethodPost)

	auth := AuthMiddleware(s.cfg.API)
	owned := api.PathPrefix("/pages").Subrouter()
	owned.Use(auth)
	owned.HandleFunc("", s.handleList).Methods(http.MethodGet)
	owned.HandleFunc("", s.handleCreate).Methods(http.MethodPost)
	owned.HandleFunc("/{id}", s.handleGet).Methods(http.MethodGet)
	owned.HandleFunc("/{id}", s.handleUpdate).Methods(http.MethodPut)
	owned.HandleFunc("/{id}", s.handleDelete).Methods(http.MethodDelete)
	owned.HandleFunc("/{id}/publish", s.handlePublish).Methods(http.MethodPost)
	owned.HandleFunc("/{id}/unpublish", s.handleUnpublish).Methods(http.MethodPost)

	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(auth)
	ws.HandleFunc("/pages/{id}", s.hub.serve).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", httpServer.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.GetShutdownTimeout())
	defer cancel()
	s.hub.closeAll()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close stops background goroutines and closes editing sessions.
func (s *Server) Close() {
	s.hub.closeAll()
	s.stopLimiter()
	<-s.limiterDone
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
