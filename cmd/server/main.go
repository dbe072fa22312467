// Package main is the entry point for the eventhub server. It loads
// configuration from the environment, builds the logger, and hands off to
// internal/server; no application logic lives here.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/adlane/eventhub/internal/server"
)

func main() {
	// Local development keeps its settings in a .env file; a missing file
	// is fine, real deployments set the variables directly.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := envOr("DB_PATH", "data/eventhub.db")
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", filepath.Dir(dbPath)),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// JWT_SECRET has no default on purpose: a guessable secret means
	// forgeable sessions. Generate one with `openssl rand -hex 32`.
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	tokenTTL := time.Duration(0) // 0 selects the 7-day default
	if raw := os.Getenv("JWT_EXPIRES_IN"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			logger.Error("invalid JWT_EXPIRES_IN value (want a Go duration, e.g. 168h)",
				slog.String("value", raw),
			)
			os.Exit(1)
		}
		tokenTTL = parsed
	}

	googleCallback := envOr("GOOGLE_CALLBACK_URL",
		fmt.Sprintf("http://localhost:%d/api/auth/google/callback", port))

	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		JWTSecret:          jwtSecret,
		TokenTTL:           tokenTTL,
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  googleCallback,
		N8NWebhookURL:      os.Getenv("N8N_WEBHOOK_URL"),
		FrontendURL:        os.Getenv("FRONTEND_URL"),
		StaticDir:          os.Getenv("STATIC_DIR"),
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
