package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ecomdash/backend/internal/application/dashboard"
	"github.com/ecomdash/backend/internal/infrastructure/cache"
	"github.com/ecomdash/backend/internal/infrastructure/config"
	"github.com/ecomdash/backend/internal/infrastructure/dataset"
	"github.com/ecomdash/backend/internal/infrastructure/logger"
	"github.com/ecomdash/backend/internal/infrastructure/scheduler"
	"github.com/ecomdash/backend/internal/infrastructure/storage"
	"github.com/ecomdash/backend/internal/infrastructure/telemetry"
	"github.com/ecomdash/backend/internal/interfaces/http/handler"
	"github.com/ecomdash/backend/internal/interfaces/http/middleware"
	"github.com/ecomdash/backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Unset log settings fall back to the environment defaults
	logCfg := logger.ConfigFor(cfg.App.Env)
	if cfg.Log.Level != "" {
		logCfg.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		logCfg.Format = cfg.Log.Format
	}
	if cfg.Log.Output != "" {
		logCfg.Output = cfg.Log.Output
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry falls back to no-op providers when disabled
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsInterval:   cfg.Telemetry.MetricsExportInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	// Application logger writes to the configured output and, when enabled, the collector
	log, err := logger.New(logCfg, providers.LogCore(logger.ParseLevel(logCfg.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting dashboard backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	pipelineMetrics, err := telemetry.NewPipelineMetrics(providers.Meter(telemetry.MeterName))
	if err != nil {
		log.Fatal("Failed to create pipeline metrics", zap.Error(err))
	}

	// Shared raw dataset cache, degrading to none when Redis is unreachable
	store, err := cache.NewDatasetStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create dataset store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing dataset store", zap.Error(err))
		}
	}()

	readerOpts := []dataset.SourceReaderOption{
		dataset.WithMaxBytes(cfg.Dataset.MaxBytes),
		dataset.WithSourceLogger(log),
	}
	if dataset.OriginOf(cfg.Dataset.Source) == dataset.OriginS3 {
		objects, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		readerOpts = append(readerOpts, dataset.WithObjectStorage(objects))
	}

	loader := dataset.NewCachedLoader(
		dataset.NewLoader(
			dataset.NewSourceReader(readerOpts...),
			dataset.WithFetchTimeout(cfg.Dataset.FetchTimeout),
			dataset.WithLogger(log),
			dataset.WithMetrics(pipelineMetrics),
		),
		dataset.WithSharedStore(store, cfg.Dataset.CacheTTL),
		dataset.WithCacheLogger(log),
		dataset.WithCacheMetrics(pipelineMetrics),
	)

	dashboardService := dashboard.NewDashboardService(loader, cfg.Dataset.Source,
		dashboard.WithServiceLogger(log),
		dashboard.WithServiceMetrics(pipelineMetrics),
	)

	if cfg.Dataset.WarmOnStart {
		warmCtx, cancel := context.WithTimeout(ctx, cfg.Dataset.FetchTimeout)
		if _, err := loader.Load(warmCtx, cfg.Dataset.Source); err != nil {
			// Views answer DATA_UNAVAILABLE until a later load succeeds
			log.Warn("Dataset warm-up failed", zap.Error(err))
		}
		cancel()
	}

	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version)
	systemHandler.SetReadiness(func() bool {
		return dashboardService.Status().Loaded
	})

	// Scheduled refresh (if configured)
	if cfg.Dataset.RefreshSchedule != "" {
		refreshScheduler := scheduler.NewDatasetRefreshScheduler(scheduler.DatasetRefreshConfig{
			Schedule: cfg.Dataset.RefreshSchedule,
			Source:   cfg.Dataset.Source,
			Timeout:  cfg.Dataset.FetchTimeout,
		}, loader, log)
		if err := refreshScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start refresh scheduler", zap.Error(err))
		}
		defer func() {
			if err := refreshScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping refresh scheduler", zap.Error(err))
			}
		}()
		dashboardHandler.SetRefreshSchedule(refreshScheduler)
		log.Info("Refresh scheduler started", zap.String("schedule", cfg.Dataset.RefreshSchedule))
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Tracing - Server spans, request attributes and handler errors
	// 4. AccessLog - Log requests with trace and request IDs
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. HTTPMetrics - Request counters and latency
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     providers.TracingEnabled(),
	}))
	engine.Use(middleware.SpanDecorator())
	engine.Use(logger.AccessLog(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	httpMetrics, err := middleware.HTTPMetrics(providers.Meter("ecomdash-backend/http"))
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}
	engine.Use(httpMetrics)

	// Refresh is the only endpoint that reaches the dataset source on demand
	var refreshGuard []gin.HandlerFunc
	if cfg.HTTP.RefreshRateLimit > 0 {
		refreshLimiter := middleware.NewRateLimiter(cfg.HTTP.RefreshRateLimit, cfg.HTTP.RefreshRateWindow)
		defer refreshLimiter.Stop()
		refreshGuard = append(refreshGuard, middleware.RateLimit(refreshLimiter))
		log.Info("Refresh rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RefreshRateLimit),
			zap.Duration("window", cfg.HTTP.RefreshRateWindow),
		)
	}

	router.RegisterProbes(engine, systemHandler)
	dashboardRoutes := router.DashboardRoutes(dashboardHandler, refreshGuard...)
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(dashboardRoutes).
		Register(router.SystemRoutes(systemHandler)).
		Setup()
	log.Debug("Dashboard routes registered", zap.Strings("routes", dashboardRoutes.Routes()))

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	_ = providers.Shutdown(context.Background())
	log.Info("Server exited gracefully")
}
