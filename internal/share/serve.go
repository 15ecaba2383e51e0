package share

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/harshithareddy1810/SmartDocQ/internal/api"
)

// Server is a small read-only viewer for shared conversations. It
// proxies share lookups to the API and renders them as HTML, so a
// recipient without the CLI can read a link in a browser.
type Server struct {
	svc        *Service
	port       int
	router     chi.Router
	httpServer *http.Server
}

// NewServer creates a viewer listening on the given port.
func NewServer(svc *Service, port int) *Server {
	s := &Server{svc: svc, port: port}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/share/{shareID}", s.handleShare)

	return r
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	shareID := chi.URLParam(r, "shareID")

	sc, err := s.svc.Fetch(r.Context(), shareID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			http.Error(w, "This share link does not exist or has been revoked.", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load the shared conversation.", http.StatusBadGateway)
		return
	}

	page, err := RenderHTML(sc)
	if err != nil {
		http.Error(w, "Failed to render the shared conversation.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("share viewer listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }
