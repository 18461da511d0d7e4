// Package main is the entrypoint for the groupspend API server.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/groupspend/groupspend/internal/auth"
	"github.com/groupspend/groupspend/internal/cache"
	"github.com/groupspend/groupspend/internal/config"
	"github.com/groupspend/groupspend/internal/exchange"
	"github.com/groupspend/groupspend/internal/handler"
	"github.com/groupspend/groupspend/internal/metrics"
	"github.com/groupspend/groupspend/internal/repository"
	"github.com/groupspend/groupspend/internal/server"
	"github.com/groupspend/groupspend/internal/service"
)

func main() {
	ctx := context.Background()

	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg, os.Stdout)

	if cfg.RunMigrations {
		if err := repository.Migrate(cfg.DatabaseURL); err != nil {
			logger.Error("failed to run migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		logger.Info("database migrations applied")
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", config.RedactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		repo.Close()
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", config.RedactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	recorder := metrics.NewPrometheus()

	var rates service.RateSource
	if cfg.ExchangeRatesEnabled() {
		rates = exchange.NewClient(exchange.Config{
			AppID:   cfg.OERAppID,
			BaseURL: cfg.OERBaseURL,
			TTL:     cfg.ExchangeRateTTL,
		}, nil, cacheClient, logger, recorder)
	} else {
		logger.Warn("OER_APP_ID not set; currency conversion disabled")
	}

	hasher := auth.NewPasswordHasher(auth.DefaultParams)
	tokens := auth.NewTokenManager(cfg.ServiceKey, cfg.SessionTTL)

	identityService := service.NewIdentityService(repo, cacheClient, hasher, tokens, logger, recorder)
	groupService := service.NewGroupService(repo, repo, logger, recorder)
	expenseService := service.NewExpenseService(repo, repo, rates, logger, recorder)

	r := handler.NewRouter(handler.RouterConfig{
		Logger:             logger,
		Verifier:           identityService,
		PublicKey:          cfg.PublicKey,
		IsDevelopment:      cfg.IsDevelopment(),
		CORSAllowedOrigins: cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Root:               handler.New(),
		Health: handler.NewHealthHandler(
			handler.Dependency{Name: "postgres", Checker: repo},
			handler.Dependency{Name: "redis", Checker: cacheClient},
		),
		Metrics:  handler.NewMetricsHandler(recorder),
		Auth:     handler.NewAuthHandler(identityService, logger),
		Groups:   handler.NewGroupHandler(groupService, logger),
		Expenses: handler.NewExpenseHandler(expenseService, logger),
	})

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"exchange_rates", cfg.ExchangeRatesEnabled(),
		"public_key_required", cfg.PublicKey != "",
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)

	var h slog.Handler
	switch cfg.LogFormat {
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "pretty":
		h = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// sanitizeError strips connection secrets from driver errors.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, secret, config.RedactURL(secret))
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
