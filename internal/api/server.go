package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Bisp1999/grading-app/internal/config"
	"github.com/Bisp1999/grading-app/internal/health"
	"github.com/Bisp1999/grading-app/internal/pagecontext"
	"github.com/Bisp1999/grading-app/internal/storage"
)

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	repo           storage.Repository
	lastUsed       storage.LastUsedStore
	setups         *pagecontext.Loader
	health         *health.Registry
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server. lastUsed may be nil, in which case
// the last-used selection is derived from the newest stored test.
func NewServer(
	cfg config.ServerConfig,
	repo storage.Repository,
	lastUsed storage.LastUsedStore,
	setups *pagecontext.Loader,
	checks *health.Registry,
) *Server {
	s := &Server{
		config:         cfg,
		repo:           repo,
		lastUsed:       lastUsed,
		setups:         setups,
		health:         checks,
		authMiddleware: NewAuthMiddleware(repo),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)

		r.Get("/page_context", s.handlePageContext)
		r.Get("/tests", s.handleListTests)
		r.Post("/save_test", s.handleSaveTest)
		r.Get("/get_test/{id}", s.handleGetTest)
		r.Delete("/delete_test/{id}", s.handleDeleteTest)
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
