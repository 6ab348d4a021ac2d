package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vox/internal/api"
	"vox/internal/auth"
	"vox/internal/config"
	"vox/internal/db"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting server", "name", cfg.Server.Name)

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.Info("database opened", "path", cfg.Database.Path)

	if err := seedCreator(cfg, database); err != nil {
		slog.Error("failed to seed creator account", "error", err)
		os.Exit(1)
	}

	server := api.NewServer(cfg, database, logger)

	addr := cfg.Addr()
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server,
	}

	go func() {
		slog.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down")

	server.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

// seedCreator makes sure a fresh database has an account that can run
// privileged operations. Without it no admin verb is ever reachable.
func seedCreator(cfg *config.Config, database *db.DB) error {
	if cfg.Bootstrap.CreatorPassword == "" {
		slog.Warn("bootstrap.creator_password not set, skipping creator seed")
		return nil
	}

	hash, err := auth.HashPassword(cfg.Bootstrap.CreatorPassword)
	if err != nil {
		return err
	}
	created, err := db.NewUserRepository(database).EnsureCreator(cfg.Bootstrap.CreatorUsername, hash)
	if err != nil {
		return err
	}
	if created {
		slog.Info("creator account seeded", "username", cfg.Bootstrap.CreatorUsername)
	}
	return nil
}
