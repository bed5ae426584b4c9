package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/blog-api/api/openapi"
	"github.com/benvon/blog-api/internal/auth"
	"github.com/benvon/blog-api/internal/cache"
	"github.com/benvon/blog-api/internal/config"
	"github.com/benvon/blog-api/internal/database"
	"github.com/benvon/blog-api/internal/handlers"
	"github.com/benvon/blog-api/internal/logger"
	"github.com/benvon/blog-api/internal/middleware"
	"github.com/benvon/blog-api/internal/queue"
	"github.com/benvon/blog-api/internal/services/accounts"
	"github.com/benvon/blog-api/internal/services/blog"
	"github.com/benvon/blog-api/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(telemetry.ServerServiceName, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Duration("token_ttl", cfg.TokenTTL),
		zap.Bool("cache_enabled", cfg.CacheEnabled()),
		zap.Bool("events_enabled", cfg.EventsEnabled()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTELEnabled, telemetry.ServerServiceName, cfg.OTELEndpoint)
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	if cfg.RunMigrations {
		if err := database.Migrate(ctx, db); err != nil {
			zapLogger.Fatal("failed_to_run_migrations", zap.Error(err))
		}
		zapLogger.Info("migrations_applied")
	}

	checks := []handlers.Check{{Name: "database", Probe: db.PingContext}}

	var feedCache cache.FeedCache = cache.NoopFeedCache{}
	if cfg.CacheEnabled() {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zapLogger.Warn("redis_unavailable_feed_cache_disabled", zap.Error(err))
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
				}
			}()
			redisCache := cache.NewRedisFeedCache(redisClient, cfg.FeedCacheTTL)
			feedCache = redisCache
			checks = append(checks, handlers.Check{Name: "redis", Probe: redisCache.Ping})
			zapLogger.Info("connected_to_redis")
		}
	}

	var publisher queue.Publisher = queue.NoopPublisher{}
	if cfg.EventsEnabled() {
		eventQueue, err := connectRabbitMQ(ctx, cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Warn("rabbitmq_unavailable_events_disabled", zap.Error(err))
		} else {
			defer func() {
				if err := eventQueue.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
			publisher = eventQueue
			checks = append(checks, handlers.Check{Name: "rabbitmq", Probe: eventQueue.HealthCheck})
		}
	}

	codec, err := auth.NewCodec(cfg.JWTSecret, auth.WithTTL(cfg.TokenTTL))
	if err != nil {
		zapLogger.Fatal("failed_to_create_token_codec", zap.Error(err))
	}

	userRepo := database.NewUserRepository(db)
	postRepo := database.NewPostRepository(db)
	corsRepo := database.NewCorsConfigRepository(db)

	blogService := blog.NewService(postRepo, zapLogger,
		blog.WithFeedCache(feedCache),
		blog.WithPublisher(publisher),
		blog.WithMaxLimit(cfg.FeedMaxLimit),
	)
	accountService := accounts.NewService(userRepo, codec, zapLogger)

	openAPIHandler, err := handlers.NewOpenAPIHandler(openapi.Spec)
	if err != nil {
		zapLogger.Fatal("failed_to_load_openapi_spec", zap.Error(err))
	}

	var (
		metrics  *middleware.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = middleware.NewMetrics(registry)
		gatherer = registry
	}

	requireAuth := middleware.Auth(codec, zapLogger,
		middleware.WithSubjectResolver(userRepo),
		middleware.WithAuthMetrics(metrics),
	)

	corsReloader := middleware.NewCORSReloader(corsRepo, cfg.FrontendURL, zapLogger, cfg.CORSReloadInterval)

	handler := newRouter(routerDeps{
		logger:      zapLogger,
		auth:        handlers.NewAuthHandler(accountService, zapLogger),
		blog:        handlers.NewBlogHandler(blogService, zapLogger),
		health:      handlers.NewHealthChecker(checks...),
		openAPI:     openAPIHandler,
		requireAuth: requireAuth,
		metrics:     metrics,
		gatherer:    gatherer,
		cors:        corsReloader,
		enableHSTS:  cfg.EnableHSTS,
		tracing:     cfg.OTELEnabled,
	})

	go corsReloader.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      middleware.DefaultRequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server_listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		zapLogger.Info("server_shutting_down")
	case err := <-serveErr:
		if err != nil {
			zapLogger.Error("server_failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectRabbitMQ dials the broker with capped exponential backoff.
func connectRabbitMQ(ctx context.Context, url string, zapLogger *zap.Logger) (*queue.RabbitMQQueue, error) {
	const (
		maxRetries   = 10
		initialDelay = 2 * time.Second
		maxDelay     = 30 * time.Second
	)

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(url)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return q, nil
		}
		lastErr = err

		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > maxDelay {
			delay = maxDelay
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}
