package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gridpulse-systems/gridpulse-relay/internal/config"
	"github.com/gridpulse-systems/gridpulse-relay/internal/handlers"
	"github.com/gridpulse-systems/gridpulse-relay/internal/logging"
	"github.com/gridpulse-systems/gridpulse-relay/internal/middleware"
	"github.com/gridpulse-systems/gridpulse-relay/internal/ratelimit"
	"github.com/gridpulse-systems/gridpulse-relay/internal/relay"
	"github.com/gridpulse-systems/gridpulse-relay/internal/server"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("relay"))
	logging.SetDefault(logger)

	slog.Info("Starting GridPulse relay",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("log_format", cfg.Logging.Format),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}
	slog.Info("Forwarding policy configured",
		slog.Int("allowed_origins", len(cfg.Relay.AllowedOrigins)),
		slog.Int("allowed_targets", len(cfg.Relay.AllowedTargets)),
		slog.Duration("forward_timeout", cfg.Relay.ForwardTimeout),
	)
	if len(cfg.Relay.AllowedTargets) == 0 {
		slog.Warn("Target allow-list is empty; every forward will be rejected")
	}

	// Initialize rate limiter
	var rateLimiter ratelimit.RateLimiter
	if cfg.Redis.Enabled && cfg.RateLimit.Enabled {
		log.Printf("Initializing Redis rate limiter: %s", cfg.Redis.URL)
		limiter, err := ratelimit.NewRedisRateLimiter(
			cfg.Redis.URL,
			cfg.RateLimit.Requests,
			cfg.RateLimit.Window,
		)
		if err != nil {
			log.Printf("WARNING: Failed to initialize Redis rate limiter: %v", err)
			log.Println("Continuing without rate limiting")
			rateLimiter = &ratelimit.NoOpRateLimiter{}
		} else {
			rateLimiter = limiter
			log.Printf("Rate limiting enabled: %d requests per %s", cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
	} else {
		rateLimiter = &ratelimit.NoOpRateLimiter{}
		if !cfg.Redis.Enabled {
			log.Println("Redis disabled - rate limiting not available")
		}
		if !cfg.RateLimit.Enabled {
			log.Println("Rate limiting disabled in configuration")
		}
	}
	defer rateLimiter.Close()

	// Initialize forwarder and HTTP handlers
	forwarder := relay.NewForwarder(relay.Config{
		AllowedTargets:   cfg.Relay.AllowedTargets,
		Timeout:          cfg.Relay.ForwardTimeout,
		MaxResponseBytes: cfg.Relay.MaxResponseBytes,
	})

	handler := handlers.NewProxyHandler(forwarder, rateLimiter, logger, cfg.Relay.MaxBodyBytes)
	router := server.NewRouter(handler, middleware.CORSConfig{
		AllowedOrigins: cfg.Relay.AllowedOrigins,
		AllowedMethods: []string{"POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         cfg.Relay.CORSMaxAge,
	})

	// Create server with config values
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Relay listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
