// Package httpserver provides the HTTP REST API for LitXplore.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/litxplore/litxplore/internal/chat"
	"github.com/litxplore/litxplore/internal/domain"
	"github.com/litxplore/litxplore/internal/observability"
	"github.com/litxplore/litxplore/internal/repository"
)

// defaultMaxBodyBytes caps JSON request bodies. Uploads get their own,
// larger cap on the multipart endpoint.
const defaultMaxBodyBytes = 1 << 20

// PaperService is the paper search and upload surface.
type PaperService interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.Paper, error)
	ProcessUpload(ctx context.Context, filename string, content []byte) (*domain.Paper, error)
}

// AnalysisService is the paper analysis surface.
type AnalysisService interface {
	AnalyzePaper(ctx context.Context, id domain.PaperID, forceRefresh bool) (*domain.PaperAnalysis, error)
	GetAnalysis(ctx context.Context, id domain.PaperID) (*domain.PaperAnalysis, error)
	ComputeInDepth(ctx context.Context, id domain.PaperID) (*domain.PaperAnalysis, error)
}

// ChatService streams answers about a single paper.
type ChatService interface {
	ChatStream(ctx context.Context, id domain.PaperID, message string) <-chan chat.Chunk
}

// TaskService is the review task tracker surface.
type TaskService interface {
	CreateTask(ctx context.Context, user *domain.User) (*domain.Task, error)
	StartReviewGeneration(userID, taskID uuid.UUID, paperIDs []domain.PaperID, topic string, maxPapers int)
	GetStatus(ctx context.Context, user *domain.User, taskID uuid.UUID) (*domain.Task, error)
	ListTasks(ctx context.Context, user *domain.User, status domain.TaskStatus, limit int) ([]*domain.Task, error)
	Cancel(ctx context.Context, user *domain.User, taskID uuid.UUID) bool
}

// ReviewGenerator produces a literature review synchronously; the
// tracker uses the same generator asynchronously.
type ReviewGenerator interface {
	Generate(ctx context.Context, papers []domain.Paper, topic string) (string, error)
}

// HealthChecker reports database connectivity for readiness probes.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Config holds HTTP server settings.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	MaxUploadBytes  int64
}

func (c *Config) applyDefaults() {
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 15 << 20
	}
}

// Server is the LitXplore HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server

	papers     PaperService
	analysis   AnalysisService
	chat       ChatService
	tasks      TaskService
	reviews    repository.ReviewRepository
	health     HealthChecker
	validate   *validator.Validate
	metrics    *observability.Metrics
	authChain  func(http.Handler) http.Handler
	logger     zerolog.Logger
}

// NewServer wires the API router. authChain is the bearer-token
// middleware applied to every route except health probes.
func NewServer(
	cfg Config,
	papers PaperService,
	analysis AnalysisService,
	chatService ChatService,
	tasks TaskService,
	reviews repository.ReviewRepository,
	health HealthChecker,
	authChain func(http.Handler) http.Handler,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	cfg.applyDefaults()
	s := &Server{
		config:    cfg,
		papers:    papers,
		analysis:  analysis,
		chat:      chatService,
		tasks:     tasks,
		reviews:   reviews,
		health:    health,
		validate:  validator.New(),
		metrics:   metrics,
		authChain: authChain,
		logger:    logger.With().Str("component", "http").Logger(),
	}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authChain)

		r.Route("/papers", func(r chi.Router) {
			r.With(s.limitBody(s.config.MaxBodyBytes)).Get("/search", s.handleSearchPapers)
			r.With(s.limitBody(s.config.MaxUploadBytes)).Post("/upload", s.handleUploadPaper)
			r.Route("/{paperID}", func(r chi.Router) {
				r.Use(s.limitBody(s.config.MaxBodyBytes))
				r.Post("/analyze", s.handleAnalyzePaper)
				r.Get("/analysis", s.handleGetAnalysis)
				r.Post("/in-depth", s.handleInDepthAnalysis)
				r.Post("/chat", s.handleChat)
			})
		})

		r.Route("/review", func(r chi.Router) {
			r.Use(s.limitBody(s.config.MaxBodyBytes))
			r.Post("/generate-review", s.handleGenerateReview)
			r.Post("/save", s.handleSaveReview)
			r.Get("/history", s.handleReviewHistory)
			r.Delete("/{reviewID}", s.handleDeleteReview)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(s.limitBody(s.config.MaxBodyBytes))
			r.Get("/", s.handleListTasks)
			r.Get("/{taskID}", s.handleGetTask)
			r.Delete("/{taskID}", s.handleCancelTask)
		})

		r.With(s.limitBody(s.config.MaxBodyBytes)).Post("/documents/generate", s.handleGenerateDocument)
		r.With(s.limitBody(s.config.MaxBodyBytes)).Get("/users/me", s.handleCurrentUser)
	})

	return r
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins serving and blocks until the listener fails or closes.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.config.Address).Msg("HTTP server starting")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Info().Msg("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// parsePaperIDParam validates the {paperID} route parameter.
func parsePaperIDParam(r *http.Request) (domain.PaperID, error) {
	return domain.ParsePaperID(chi.URLParam(r, "paperID"))
}

// validationMessage flattens validator errors to one client message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return fmt.Sprintf("field %q failed validation rule %q", first.Field(), first.Tag())
	}
	return "invalid request"
}
