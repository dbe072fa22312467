// Package server is the composition root: it wires the database, the
// repositories, the services, and the handlers together, mounts every
// route, and owns the listen/shutdown lifecycle. main.go only loads
// config and calls New + Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/adlane/eventhub/internal/auth"
	"github.com/adlane/eventhub/internal/handler"
	"github.com/adlane/eventhub/internal/middleware"
	sqliteRepo "github.com/adlane/eventhub/internal/repository/sqlite"
	"github.com/adlane/eventhub/internal/scrape"
	"github.com/adlane/eventhub/internal/service"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
	TokenTTL  time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	N8NWebhookURL string
	FrontendURL   string
	StaticDir     string
}

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain. Each layer receives only the
// interfaces it consumes: services get repositories, handlers get
// services, nothing reaches past its neighbor.
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

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()
	google := auth.NewGoogleProvider(
		s.config.GoogleClientID,
		s.config.GoogleClientSecret,
		s.config.GoogleCallbackURL,
	)
	scraper := scrape.NewClient(s.config.N8NWebhookURL, s.logger)

	users := sqliteRepo.NewUserRepo(s.db)
	events := sqliteRepo.NewEventRepo(s.db)
	favorites := sqliteRepo.NewFavoriteRepo(s.db)
	venues := sqliteRepo.NewVenueRepo(s.db)

	authSvc := service.NewAuthService(users, tokens, passwords, s.logger)
	eventSvc := service.NewEventService(events, favorites, s.logger)
	favoriteSvc := service.NewFavoriteService(favorites, s.logger)
	venueSvc := service.NewVenueService(venues, scraper, s.logger)

	authHandler := handler.NewAuthHandler(authSvc, google, tokens, s.config.FrontendURL, s.logger)
	eventHandler := handler.NewEventHandler(eventSvc, s.logger)
	favoriteHandler := handler.NewFavoriteHandler(favoriteSvc, s.logger)
	venueHandler := handler.NewVenueHandler(venueSvc, s.logger)

	requireAuth := auth.RequireAuth(tokens, users)
	optionalAuth := auth.OptionalAuth(tokens, users)

	// Global middleware, in execution order.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(s.corsOptions()))

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.Get("/google", authHandler.HandleGoogleLogin)
			r.Get("/google/callback", authHandler.HandleGoogleCallback)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
		})

		r.Route("/events", func(r chi.Router) {
			r.With(optionalAuth).Get("/", eventHandler.HandleList)
			r.With(optionalAuth).Get("/{id}", eventHandler.HandleGet)
			r.With(requireAuth).Post("/", eventHandler.HandleCreate)
			r.With(requireAuth).Put("/{id}", eventHandler.HandleUpdate)
			r.With(requireAuth).Delete("/{id}", eventHandler.HandleDelete)
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/my-favorites", favoriteHandler.HandleListMine)
			r.Post("/{id}", favoriteHandler.HandleAdd)
			r.Delete("/{id}", favoriteHandler.HandleRemove)
		})

		r.Route("/scraping", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/trigger", venueHandler.HandleTriggerScrape)
			r.Get("/venues", venueHandler.HandleListVenues)
		})

		// Unknown /api paths get a JSON 404, never the SPA fallback.
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"not_found","message":"route not found"}`))
		})
	})

	if s.config.StaticDir != "" {
		s.router.NotFound(s.spaHandler())
	}

	return nil
}

// corsOptions allows the configured frontend origin plus the usual local
// dev origins, with credentials so the session cookie crosses origins.
func (s *Server) corsOptions() cors.Options {
	origins := []string{"http://localhost:5173", "http://localhost:3000"}
	if s.config.FrontendURL != "" {
		origins = append(origins, strings.TrimSuffix(s.config.FrontendURL, "/"))
	}

	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// spaHandler serves the built frontend: real files as is, everything else
// falls back to index.html so client-side routing works on deep links.
func (s *Server) spaHandler() http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	index := filepath.Join(s.config.StaticDir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(s.config.StaticDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}

// Start runs the server until SIGINT/SIGTERM, then drains in-flight
// requests and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // scrape triggers wait on the webhook
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
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
