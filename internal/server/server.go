package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jjudge-oj/authsvc/config"
	"github.com/jjudge-oj/authsvc/internal/db"
	"github.com/jjudge-oj/authsvc/internal/handlers"
	"github.com/jjudge-oj/authsvc/internal/logger"
	"github.com/jjudge-oj/authsvc/internal/mq"
	"github.com/jjudge-oj/authsvc/internal/password"
	"github.com/jjudge-oj/authsvc/internal/services"
	"github.com/jjudge-oj/authsvc/internal/store"
	"github.com/jjudge-oj/authsvc/internal/token"
	"github.com/rs/zerolog/log"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     mq.Backend
}

// Deps are the collaborators a Server is built from. Events may be nil.
type Deps struct {
	Users  services.UserRepository
	Events mq.Backend
}

// New constructs a Server from configuration, opening the directory and
// event backends it selects.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	users, dbConn, err := OpenDirectory(ctx, cfg)
	if err != nil {
		return nil, err
	}

	events, err := mq.Open(ctx, cfg)
	if err != nil {
		if dbConn != nil {
			_ = dbConn.Close()
		}
		return nil, fmt.Errorf("open events backend: %w", err)
	}

	srv := NewWithDeps(cfg, Deps{Users: users, Events: events})
	srv.db = dbConn
	return srv, nil
}

// OpenDirectory returns the user directory selected by cfg. The returned
// *sql.DB is nil for the in-memory directory.
func OpenDirectory(ctx context.Context, cfg config.Config) (services.UserRepository, *sql.DB, error) {
	switch cfg.DirectoryBackend {
	case config.DirectoryPostgres:
		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return store.NewUserRepository(dbConn), dbConn, nil
	case config.DirectoryMemory, "":
		return store.NewMemoryUserRepository(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown directory backend %q", cfg.DirectoryBackend)
	}
}

// NewWithDeps builds the router and HTTP server around existing backends.
func NewWithDeps(cfg config.Config, deps Deps) *Server {
	hasher := password.NewHasher(cfg.Auth.BcryptCost)
	tokens := token.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	var publisher services.EventPublisher
	if deps.Events != nil {
		publisher = mq.New(deps.Events, cfg.EventsChannel)
	}

	authService := services.NewAuthService(deps.Users, hasher, tokens, publisher)
	userService := services.NewUserService(deps.Users, hasher, publisher)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logger.RequestLogger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{cfg.Auth.AllowedOrigin},
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService, tokens)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, tokens)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		events:     deps.Events,
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("Server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.events != nil {
		err = errors.Join(err, s.events.Close())
	}
	if s.db != nil {
		err = errors.Join(err, s.db.Close())
	}
	return err
}
