// Package main is the entrypoint for the MineOS landing API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/mineos/landing/internal/auth"
	"github.com/mineos/landing/internal/cache"
	"github.com/mineos/landing/internal/config"
	"github.com/mineos/landing/internal/handler"
	"github.com/mineos/landing/internal/metrics"
	"github.com/mineos/landing/internal/repository"
	"github.com/mineos/landing/internal/server"
	"github.com/mineos/landing/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// run wires every component and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.AdminEnabled() {
		if err := auth.CheckHash(cfg.AdminTokenHash); err != nil {
			return fmt.Errorf("ADMIN_TOKEN_HASH: %w", err)
		}
	}

	store, err := repository.Open(ctx, repository.OpenOptions{
		Driver:      cfg.StoreDriver,
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
	})
	if err != nil {
		logger.Error(
			"failed to open subscriber store",
			slog.String("driver", cfg.StoreDriver),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return fmt.Errorf("open store: %w", err)
	}
	logger.Info("subscriber store ready", "driver", cfg.StoreDriver)

	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			// Signup throttling is optional; run without it.
			logger.Warn(
				"failed to connect to Redis, signup rate limiting disabled",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
		} else {
			logger.Info("connected to Redis")
		}
	}

	recorder := metrics.NewPrometheus()
	subscriberService := service.NewSubscriberService(store, recorder)

	deps := routerDeps{
		cfg:         cfg,
		logger:      logger,
		base:        handler.New(),
		health:      handler.NewHealthHandler(store, healthCheckerOrNil(cacheClient), logger),
		subscribers: handler.NewSubscriberHandler(subscriberService, logger, recorder),
		referrals:   handler.NewReferralHandler(cfg.AppScheme, logger, recorder),
		metrics:     recorder.Handler(),
		limiter:     signupLimiterOrNil(cacheClient),
	}

	srv := server.New(newRouter(deps), server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Registered first so it closes last.
	srv.OnShutdown("store", func(context.Context) error {
		store.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", cfg.StoreDriver,
		"admin_enabled", cfg.AdminEnabled(),
		"rate_limit_enabled", cfg.RateLimitSignupEnabled && cacheClient != nil,
	)

	return srv.Run(ctx)
}

// healthCheckerOrNil avoids wrapping a nil *cache.Cache in a non-nil interface.
func healthCheckerOrNil(c *cache.Cache) handler.HealthChecker {
	if c == nil {
		return nil
	}
	return c
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "landing-api")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
