package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/actionculture/heritage/internal/auth"
	"github.com/actionculture/heritage/internal/config"
	"github.com/actionculture/heritage/internal/event"
	"github.com/actionculture/heritage/internal/service"
	"github.com/actionculture/heritage/internal/storage"
	"github.com/actionculture/heritage/internal/storage/files"
	"github.com/actionculture/heritage/internal/storage/memory"
	"github.com/actionculture/heritage/internal/storage/postgres"
	grpcTransport "github.com/actionculture/heritage/internal/transport/grpc"
	httpTransport "github.com/actionculture/heritage/internal/transport/http"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// Run the application
	if err := run(cfg, logger); err != nil {
		logger.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var repos *storage.Repositories
	switch cfg.Storage {
	case "memory":
		logger.Warn("using in-memory storage, data is lost on shutdown")
		repos = memory.New().Repositories()
	case "postgres":
		logger.Info("connecting to database")
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		version, err := db.Migrate()
		if err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		logger.Info("database connected", "schema_version", version)
		repos = db.Repositories()
	default:
		return fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	mediaStore, err := files.NewLocalStore(cfg.MediaDir, cfg.MaxUploadBytes)
	if err != nil {
		return fmt.Errorf("open media directory: %w", err)
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		SecretKey:      cfg.JWTSecretKey,
		AccessTokenTTL: cfg.AccessTokenTTL,
		Issuer:         "action-culture",
		Audience:       []string{"action-culture"},
	})

	// Initialize event publisher
	publisher := event.NewLoggingPublisher(logger)
	defer publisher.Close()

	authService := service.NewAuthService(repos.Users, jwtManager, publisher)
	siteService := service.NewSiteService(repos, mediaStore, httpTransport.MediaPrefix, publisher)

	if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, logger); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	errChan := make(chan error, 2)

	httpServer := httpTransport.NewServer(cfg, siteService, authService, logger)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		logger.Info("starting HTTP server", "addr", addr)
		if err := httpServer.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	// Start gRPC server
	grpcServer := grpcTransport.NewServer(siteService, logger)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.GRPCPort)
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			errChan <- fmt.Errorf("gRPC listen: %w", err)
			return
		}
		logger.Info("starting gRPC server", "addr", addr)
		if err := grpcServer.Serve(listener); err != nil && err != grpc.ErrServerStopped {
			errChan <- fmt.Errorf("gRPC server: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errChan:
		logger.Error("server error", "error", err)
		return err
	}

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	grpcServer.GracefulStop()

	cancel()

	logger.Info("shutdown complete")
	return nil
}
