// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: main.go hands over a Config, and New
// wires the whole dependency chain in one place —
//
//	sqlite.DB → UserService → UserHandler
//	marvel.Client → CatalogHandler
//	imagehost.Client ↗ (signup avatar uploads)
//
// Handlers never touch the database, services never touch HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authpkg "github.com/avernhe/marvel-backend/internal/auth"
	"github.com/avernhe/marvel-backend/internal/handler"
	"github.com/avernhe/marvel-backend/internal/imagehost"
	"github.com/avernhe/marvel-backend/internal/marvel"
	"github.com/avernhe/marvel-backend/internal/middleware"
	sqliteRepo "github.com/avernhe/marvel-backend/internal/repository/sqlite"
	"github.com/avernhe/marvel-backend/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port   int
	DBPath string

	// Upstream catalog API
	MarvelAPIURL string
	MarvelAPIKey string

	// Image host (avatar uploads)
	ImageHostUploadURL string
	ImageHostAPIKey    string
	ImageHostAPISecret string
	DefaultAvatarURL   string
}

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server, opening the database and wiring all routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes configures middleware and the route table.
//
// ROUTE STRUCTURE:
//
//	GET /characters              → upstream character list (name/limit/skip filters)
//	GET /character/{characterId} → upstream character details
//	GET /comics                  → upstream comic list (title/limit/skip filters)
//	GET /comics/{characterId}    → upstream comics featuring a character
//	GET /comic/{comicId}         → upstream comic details
//	POST /user/signup            → create account (multipart or JSON)
//	PUT  /user/login             → authenticate, return token + profile
//	GET  /user/fav               → read favorites (bearer token)
//	PUT  /user/fav               → replace favorites (bearer token)
//	*   /                        → welcome message
//	*   anything else            → 404 "Page not found"
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// The API serves a browser frontend from another origin, so CORS is
	// wide open — same policy as the express cors() default.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// === Collaborator clients ===
	catalog := marvel.NewClient(s.config.MarvelAPIURL, s.config.MarvelAPIKey)
	images := imagehost.NewClient(
		s.config.ImageHostUploadURL,
		s.config.ImageHostAPIKey,
		s.config.ImageHostAPISecret,
	)

	// === Services and handlers ===
	userService := service.NewUserService(
		s.db,
		authpkg.NewCredentialService(),
		images,
		s.config.DefaultAvatarURL,
		s.logger,
	)
	userHandler := handler.NewUserHandler(userService, s.logger)
	catalogHandler := handler.NewCatalogHandler(catalog, s.logger)

	// === Catalog routes (public) ===
	s.router.Get("/characters", catalogHandler.HandleListCharacters)
	s.router.Get("/character/{characterId}", catalogHandler.HandleCharacterByID)
	s.router.Get("/comics", catalogHandler.HandleListComics)
	s.router.Get("/comics/{characterId}", catalogHandler.HandleComicsByCharacter)
	s.router.Get("/comic/{comicId}", catalogHandler.HandleComicByID)

	// === User routes ===
	s.router.Post("/user/signup", userHandler.HandleSignup)
	s.router.Put("/user/login", userHandler.HandleLogin)
	s.router.Route("/user/fav", func(r chi.Router) {
		r.Use(authpkg.RequireToken(s.db))
		r.Get("/", userHandler.HandleReadFav)
		r.Put("/", userHandler.HandleUpdateFav)
	})

	// === Welcome and fallback ===
	// HandleFunc matches every method, like the original app.all("/").
	s.router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"Bienvenue sur l'API Marvel ! Tout sur Marvel !"}`))
	})
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Page not found"}`))
	})
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds to finish, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // upstream relay + avatar upload fit well within this
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("upstream", s.config.MarvelAPIURL),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
