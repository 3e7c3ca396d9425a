// Package main is the entry point for the Marvel backend server.
//
// main stays minimal: load configuration, build the logger, hand
// everything to internal/server. All actual logic lives in the internal
// packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/avernhe/marvel-backend/internal/server"
)

func main() {
	// .env is a development convenience — in production the variables
	// come from the environment and the file simply doesn't exist.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
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

	dbPath := "data/marvel.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		MarvelAPIURL:       os.Getenv("MARVEL_API_URL"),
		MarvelAPIKey:       os.Getenv("MARVEL_API_KEY"),
		ImageHostUploadURL: os.Getenv("IMAGEHOST_UPLOAD_URL"),
		ImageHostAPIKey:    os.Getenv("IMAGEHOST_API_KEY"),
		ImageHostAPISecret: os.Getenv("IMAGEHOST_API_SECRET"),
		DefaultAvatarURL:   os.Getenv("DEFAULT_AVATAR_URL"),
	}

	// The catalog key is the one credential nothing works without —
	// every catalog route would just relay upstream 401s.
	if cfg.MarvelAPIURL == "" || cfg.MarvelAPIKey == "" {
		logger.Error("MARVEL_API_URL and MARVEL_API_KEY must be set")
		os.Exit(1)
	}
	if cfg.DefaultAvatarURL == "" {
		// Served to every account that signs up without a picture.
		cfg.DefaultAvatarURL = "https://upload.wikimedia.org/wikipedia/commons/8/89/Portrait_Placeholder.png"
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
