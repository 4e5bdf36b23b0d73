package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/mimir-aip/credit-decision/pkg/mlmodel"
	"github.com/mimir-aip/credit-decision/pkg/models"
)

// maxBodyBytes caps prediction request bodies.
const maxBodyBytes = 4 << 20

// ModelLister exposes registry records for the /models route.
type ModelLister interface {
	ListModels() ([]*models.MLModel, error)
}

// Server serves loan decisions from one loaded predictor
type Server struct {
	predictor *mlmodel.Predictor
	registry  ModelLister
	router    *mux.Router
	http      *http.Server
	logger    *slog.Logger
}

// NewServer creates a new API server. registry may be nil, in which case
// /models is not served.
func NewServer(predictor *mlmodel.Predictor, registry ModelLister, port string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		predictor: predictor,
		registry:  registry,
		router:    mux.NewRouter(),
		logger:    logger,
	}
	s.setupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	s.http = &http.Server{
		Addr:         ":" + port,
		Handler:      c.Handler(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.recoveryMiddleware, s.loggingMiddleware)

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/prediction_api", s.handlePredictOne).Methods(http.MethodPost)
	s.router.HandleFunc("/predict", s.handlePredictBatch).Methods(http.MethodPost)
	if s.registry != nil {
		s.router.HandleFunc("/models", s.handleListModels).Methods(http.MethodGet)
	}
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.http.Addr, "model", s.predictor.Key())
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.http.Shutdown(ctx)
}
