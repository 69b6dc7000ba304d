// Package main is the entrypoint for the snip API server.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"

	"github.com/snipurl/snip/internal/cache"
	"github.com/snipurl/snip/internal/config"
	"github.com/snipurl/snip/internal/expiry"
	"github.com/snipurl/snip/internal/handler"
	"github.com/snipurl/snip/internal/metrics"
	"github.com/snipurl/snip/internal/password"
	"github.com/snipurl/snip/internal/qrcode"
	"github.com/snipurl/snip/internal/ratelimit"
	"github.com/snipurl/snip/internal/repository"
	"github.com/snipurl/snip/internal/repository/memory"
	"github.com/snipurl/snip/internal/server"
	"github.com/snipurl/snip/internal/service"
	"github.com/snipurl/snip/internal/shortcode"
)

// linkStore is what the service and the sweeper need from a record store.
type linkStore interface {
	service.LinkStore
	expiry.Store
	handler.HealthChecker
}

func main() {
	ctx := context.Background()

	// A local .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	srvCfg := server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}

	var (
		store      linkStore
		shutdowns  []namedShutdown
		readyCheck = map[string]handler.HealthChecker{}
	)

	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		repo, err := repository.New(ctx, cfg.DatabaseURL, repository.PoolConfig{MaxConns: cfg.DBMaxConns})
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		if cfg.AutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				logger.Error("failed to apply schema", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
				repo.Close()
				os.Exit(1)
			}
			logger.Info("schema applied")
		}
		logger.Info("connected to database")
		store = repo
		readyCheck["database"] = repo
		shutdowns = append(shutdowns, namedShutdown{"database", func(context.Context) error {
			repo.Close()
			return nil
		}})
	default:
		logger.Warn("using in-memory store; links are lost on restart")
		store = memory.New()
		readyCheck["store"] = store
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimitEnabled {
		switch cfg.RateLimitBackend {
		case config.RateLimitBackendRedis:
			cacheClient, err := cache.New(ctx, cfg.RedisURL, cache.Options{KeyPrefix: cfg.RedisKeyPrefix})
			if err != nil {
				logger.Error(
					"failed to connect to Redis",
					slog.String("error", sanitizeError(err, cfg.RedisURL)),
					slog.String("redis_url", redactURL(cfg.RedisURL)),
				)
				closeAll(ctx, shutdowns)
				os.Exit(1)
			}
			logger.Info("connected to Redis")
			limiter = cacheClient
			readyCheck["redis"] = cacheClient
			shutdowns = append(shutdowns, namedShutdown{"redis", func(context.Context) error {
				return cacheClient.Close()
			}})
		default:
			limiter = ratelimit.NewMemory()
		}
	} else {
		logger.Warn("rate limiting disabled")
	}

	recorder := metrics.NewInMemory()

	linkService := service.NewLinkService(store, service.Options{
		BaseURL:   cfg.BaseURL,
		Generator: shortcode.NewGenerator(),
		Hasher:    password.NewHasher(password.DefaultParams),
		QR:        qrcode.New(cfg.QRSize),
		Metrics:   recorder,
		Logger:    logger,
	})

	dev := cfg.IsDevelopment()
	router := handler.NewRouter(handler.RouterConfig{
		Logger:             logger,
		IsDevelopment:      dev,
		TrustProxy:         cfg.TrustProxy,
		CORSAllowedOrigins: cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Limiter:            limiter,
		Metrics:            recorder,
	}, handler.Routes{
		Fallback:  handler.New(),
		Health:    handler.NewHealthHandler(readyCheck),
		Links:     handler.NewLinkHandler(linkService, logger, dev),
		Admin:     handler.NewAdminHandler(linkService, logger, dev),
		Analytics: handler.NewAnalyticsHandler(linkService, logger, dev),
		Redirect:  handler.NewRedirectHandler(linkService, logger, dev),
		Metrics:   handler.NewMetricsHandler(recorder),
	})

	srv := server.New(router, srvCfg, logger)

	// Stores close last: register them before the sweeper.
	for _, s := range shutdowns {
		srv.OnShutdown(s.name, s.fn)
	}

	sweeper := expiry.NewSweeper(store, cfg.ExpirySweepInterval, logger, recorder)
	go func() {
		if err := sweeper.Run(ctx); err != nil {
			logger.Error("expiry sweeper stopped", "error", err)
		}
	}()
	srv.OnShutdown("expiry-sweeper", sweeper.Shutdown)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
		"store", cfg.StoreBackend,
		"rate_limit", limiterName(cfg),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

type namedShutdown struct {
	name string
	fn   server.ShutdownFunc
}

func closeAll(ctx context.Context, shutdowns []namedShutdown) {
	for i := len(shutdowns) - 1; i >= 0; i-- {
		_ = shutdowns[i].fn(ctx)
	}
}

func limiterName(cfg *config.Config) string {
	if !cfg.RateLimitEnabled {
		return "disabled"
	}
	return cfg.RateLimitBackend
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
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
