// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"

	"codeberg.org/brewlog/brewlog/internal/config"
	"codeberg.org/brewlog/brewlog/internal/database"
	"codeberg.org/brewlog/brewlog/internal/handlers"
	"codeberg.org/brewlog/brewlog/internal/repository"
	authsvc "codeberg.org/brewlog/brewlog/internal/services/auth"
	"codeberg.org/brewlog/brewlog/internal/services/email"
	"codeberg.org/brewlog/brewlog/internal/services/session"
	"codeberg.org/brewlog/brewlog/internal/services/storage"
	"codeberg.org/brewlog/brewlog/internal/services/token"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// Migrations
	if migrateErr := database.RunMigrations(db.DB); migrateErr != nil {
		return fmt.Errorf("failed to migrate database: %w", migrateErr)
	}

	// Repository and services
	repo := repository.New(db)
	tokens := token.NewService(repo)

	emails, err := email.NewService(&cfg.Email, cfg.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to build email service: %w", err)
	}

	auth := authsvc.NewService(repo, tokens, emails)

	sessions, err := session.NewManager(&cfg.Session, cfg.CookieSecure())
	if err != nil {
		return fmt.Errorf("failed to build session manager: %w", err)
	}

	var store *storage.Service
	if cfg.Storage.StorageEnabled() {
		store, err = storage.NewService(ctx, &cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to build storage service: %w", err)
		}
	} else {
		slog.Info("object storage not configured, avatar upload disabled")
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	setupMiddleware(e, cfg, sessions, repo)

	// Routes
	setupRoutes(e, repo, auth, sessions, store)

	// Start server
	return startWithGracefulShutdown(e, cfg)
}

func setupRoutes(e *echo.Echo, repo *repository.Repository, auth *authsvc.Service, sessions *session.Manager, store *storage.Service) {
	h := handlers.New(repo)
	authH := handlers.NewAuth(auth, sessions)
	coffeeH := handlers.NewCoffee(repo)
	statsH := handlers.NewStats(repo)
	profileH := handlers.NewProfile(repo, store)

	e.GET("/health", h.Health)

	ag := e.Group("/auth")
	ag.POST("/register", authH.Register)
	ag.POST("/login", authH.Login)
	ag.POST("/logout", authH.Logout)
	ag.POST("/forgot-password", authH.ForgotPassword)
	ag.POST("/reset-password", authH.ResetPassword)
	ag.POST("/verify-email", authH.VerifyEmail)
	ag.POST("/resend-confirmation", authH.ResendConfirmation)
	ag.POST("/change-password", authH.ChangePassword, requireAuth)

	api := e.Group("/api", requireAuth)
	api.GET("/profile", profileH.Me)
	api.POST("/profile/avatar", profileH.UploadAvatar)
	api.POST("/profile/avatar/presign", profileH.PresignAvatar)
	api.GET("/coffees", coffeeH.List)
	api.POST("/coffees", coffeeH.Create)
	api.GET("/coffees/names", coffeeH.Names)
	api.GET("/coffees/:id", coffeeH.Get)
	api.PUT("/coffees/:id", coffeeH.Update)
	api.DELETE("/coffees/:id", coffeeH.Delete)
	api.GET("/stats", statsH.Summary)
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
