// Package api exposes the core operations over HTTP. It carries no
// domain logic: handlers translate between transport and the app
// services.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"neurosense/app"
	"neurosense/internal"
	"neurosense/ports"
)

// Server is the HTTP surface of the backend.
type Server struct {
	router         *chi.Mux
	prediction     *app.PredictionService
	stability      *app.StabilityService
	recommendation *app.RecommendationService
	store          ports.Store
	logger         *internal.Logger
}

// NewServer wires the services into a router.
func NewServer(
	prediction *app.PredictionService,
	stability *app.StabilityService,
	recommendation *app.RecommendationService,
	store ports.Store,
	logger *internal.Logger,
) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		prediction:     prediction,
		stability:      stability,
		recommendation: recommendation,
		store:          store,
		logger:         logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metricsMiddleware)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/subjects", s.handleListSubjects)
	s.router.Get("/subjects/{subjectID}/sessions", s.handleListSessions)

	s.router.Get("/predict/session/{subjectID}/{sessionID}", s.handlePredictSession)
	s.router.Post("/predict/session/{subjectID}/{sessionID}/score", s.handleRescoreSession)

	s.router.Get("/nsi/{subjectID}", s.handleNSI)
	s.router.Get("/recommend/next/{subjectID}", s.handleRecommend)
	s.router.Post("/games/log", s.handleLogGame)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}
