// Package server exposes an HTTP admin API over the RFQ workflow: start
// a negotiation, signal a client response, query its current status
// and pricing, stream status changes over a websocket, and report
// process health.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"go.temporal.io/sdk/client"
)

// Server wires Temporal client calls into an HTTP router.
type Server struct {
	log       zerolog.Logger
	temporal  client.Client
	taskQueue string
	router    chi.Router
}

// New builds a Server ready to mount routes.
func New(temporal client.Client, taskQueue string, log zerolog.Logger) *Server {
	s := &Server{log: log, temporal: temporal, taskQueue: taskQueue}
	s.router = s.buildRouter()
	return s
}

// ServeHTTP implements http.Handler by delegating to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}))

	r.Route("/rfqs", func(r chi.Router) {
		r.Post("/", s.handleCreateRFQ)
		r.Post("/{rfqID}/respond", s.handleRespond)
		r.Get("/{rfqID}/status", s.handleGetStatus)
		r.Get("/{rfqID}/pricing", s.handleGetPricing)
		r.Get("/{rfqID}/term-sheet", s.handleGetTermSheet)
		r.Get("/{rfqID}/stream", s.handleStream)
	})

	r.Route("/system", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
	})

	return r
}
