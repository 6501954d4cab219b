// Package server exposes the HTTP API: feedback and memory endpoints, the
// experience log, the inspection report and the live audit event stream.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/12Rushikesh/damage-agent/internal/config"
	"github.com/12Rushikesh/damage-agent/internal/experience"
	"github.com/12Rushikesh/damage-agent/internal/feedback"
	"github.com/12Rushikesh/damage-agent/internal/memory"
)

// Deps are the stores the API serves from.
type Deps struct {
	Memory     *memory.Store
	Experience *experience.Logger
	Feedback   *feedback.Archive
	AuditDir   string
}

// Server is the HTTP front of the agent. The inspection loop itself runs
// elsewhere; the server only reads state and accepts human feedback.
type Server struct {
	cfg        config.ServerConfig
	deps       Deps
	hub        *Hub
	router     chi.Router
	httpServer *http.Server
}

// New creates the server and wires all routes.
func New(cfg config.ServerConfig, deps Deps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		hub:  NewHub(),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	memory.RegisterRoutes(r, s.deps.Memory)
	experience.RegisterRoutes(r, s.deps.Experience)
	feedback.RegisterRoutes(r, s.deps.Feedback)

	r.Get("/api/events", s.hub.handleEvents)
	r.Get("/api/report", s.handleReport)

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Hub returns the event hub; the inspection loop publishes finished audit
// records through it.
func (s *Server) Hub() *Hub { return s.hub }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("server: listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
