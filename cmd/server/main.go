package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/norar1/fireportal/internal/analytics"
	"github.com/norar1/fireportal/internal/config"
	"github.com/norar1/fireportal/internal/database"
	"github.com/norar1/fireportal/internal/handlers"
	"github.com/norar1/fireportal/internal/logger"
	"github.com/norar1/fireportal/internal/middleware"
	"github.com/norar1/fireportal/internal/notify"
	"github.com/norar1/fireportal/internal/repository"
	"github.com/norar1/fireportal/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from .env and environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting Fire Station Permit API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Apply schema migrations before the pool starts serving queries
	if cfg.Database.Migrate {
		version, err := database.Migrate(cfg.Database)
		if err != nil {
			log.Fatal("Failed to migrate database", err, map[string]interface{}{
				"host": cfg.Database.Host,
				"name": cfg.Database.Name,
			})
		}
		log.Info("Database schema up to date", map[string]interface{}{
			"version": version,
		})
	}

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	sender := notify.New(cfg.SMTP, log)
	log.Info("Status notifications configured", map[string]interface{}{
		"smtp_enabled": cfg.SMTP.Enabled(),
		"smtp_host":    cfg.SMTP.Host,
	})

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	if err := handlers.RegisterValidators(); err != nil {
		log.Fatal("Failed to register request validators", err, nil)
	}

	// Initialize repository and service layers
	permitService := services.NewPermitService(repository.NewPermitRepository(db), sender, log)
	fireService := services.NewFireIncidentService(
		repository.NewFireIncidentRepository(db),
		analytics.NewAnalyzer(log),
		log,
	)

	// Register routes
	handlers.RegisterRoutes(router, handlers.Handlers{
		Health:    handlers.NewHealthHandler(db, cfg.Server.Env),
		Permits:   handlers.NewPermitHandler(permitService),
		Fires:     handlers.NewFireHandler(fireService),
		Dashboard: handlers.NewDashboardHandler(permitService),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
