package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	financeapp "github.com/propertyhub/backend/internal/application/finance"
	payoutapp "github.com/propertyhub/backend/internal/application/payout"
	"github.com/propertyhub/backend/internal/domain/shared/valueobject"
	"github.com/propertyhub/backend/internal/infrastructure/auth"
	"github.com/propertyhub/backend/internal/infrastructure/config"
	"github.com/propertyhub/backend/internal/infrastructure/event"
	"github.com/propertyhub/backend/internal/infrastructure/logger"
	"github.com/propertyhub/backend/internal/infrastructure/telemetry"
	"github.com/propertyhub/backend/internal/interfaces/http/handler"
	"github.com/propertyhub/backend/internal/interfaces/http/middleware"
	"github.com/propertyhub/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting payout service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database", cfg.Database.Driver),
		zap.String("lock", cfg.Lock.Backend),
	)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	otelProviders, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		TracingEnabled:    cfg.Telemetry.Enabled,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	meter := otelProviders.Meter(cfg.Telemetry.ServiceName)

	store, err := openStorage(cfg, log)
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}
	defer store.close(log)

	redisClient, err := openRedis(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient != nil {
		defer func() {
			_ = redisClient.Close()
		}()
	}

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	if cfg.Notification.Enabled {
		notifier := event.NewRedisStreamNotifier(redisClient, event.RedisStreamNotifierConfig{
			Stream: cfg.Notification.Stream,
			MaxLen: cfg.Notification.StreamMaxLen,
		}, log)
		eventBus.Subscribe(notifier)
		log.Info("Payout notifications enabled", zap.String("stream", cfg.Notification.Stream))
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	currency, err := valueobject.ParseCurrency(cfg.Finance.DefaultCurrency)
	if err != nil {
		log.Fatal("Invalid settlement currency", zap.Error(err))
	}

	balanceService := financeapp.NewBalanceService(financeapp.BalanceServiceConfig{
		Owners:   store.owners,
		Entries:  store.entries,
		Payouts:  store.payouts,
		Currency: currency,
		Logger:   log,
	})
	workflowService := payoutapp.NewWorkflowService(payoutapp.WorkflowServiceConfig{
		Repository:     store.payouts,
		Balances:       balanceService,
		Locker:         newOwnerLocker(cfg, redisClient, log),
		EventPublisher: eventBus,
		Logger:         log,
	})

	payoutMetrics, err := telemetry.NewPayoutMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create payout metrics", zap.Error(err))
	}
	workflowService.SetPayoutMetrics(payoutMetrics)

	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
			AllowMethods:     cfg.HTTP.CORSAllowMethods,
			AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		httpMetrics,
	)

	health := handler.NewHealthHandler(cfg.App.Version, log, healthChecks(store, redisClient)...)
	engine.GET("/health", health.Health)

	var verifier middleware.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		verifier = auth.NewTokenVerifier(cfg.Auth)
	}
	if cfg.Auth.DevHeaderFallback {
		log.Warn("Development actor headers are accepted; do not enable outside development")
	}

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithMiddleware(
			middleware.ActorMiddleware(middleware.ActorConfig{
				Verifier:          verifier,
				DevHeaderFallback: cfg.Auth.DevHeaderFallback,
				Logger:            log,
			}),
			middleware.SpanAttributes(),
		),
	)
	r.Register(handler.NewBalanceHandler(balanceService))
	r.Register(handler.NewPayoutHandler(workflowService))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := otelProviders.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
