package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"raffle-bff/cart"
	"raffle-bff/clients"
	"raffle-bff/config"
	"raffle-bff/controllers"
	"raffle-bff/logger"
	"raffle-bff/middleware"
	awspkg "raffle-bff/pkg/aws"
	"raffle-bff/reconcile"
	"raffle-bff/routes"
	"raffle-bff/services"
	"raffle-bff/session"
	"raffle-bff/store"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const serviceName = "raffle-bff"

func main() {
	decimal.MarshalJSONWithoutQuotes = true
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("[BFF] config load failed: %v", err)
	}

	// ── AWS (only when something needs it) ──
	var awsCfg sdkaws.Config
	awsReady := false
	if cfg.CloudWatchEnabled || cfg.OrderEventsTopicARN != "" {
		awsCfg, err = awspkg.LoadAWSConfig(ctx, awspkg.Options{Region: cfg.AWSRegion, Endpoint: cfg.AWSEndpoint})
		if err != nil {
			log.Printf("[BFF] AWS config load failed, continuing without AWS: %v", err)
		} else {
			awsReady = true
		}
	}

	// ── Logging ──
	var cwWriter io.Writer
	if cfg.CloudWatchEnabled && awsReady {
		cwLogs, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.CloudWatchLogGroup, serviceName)
		if err != nil {
			log.Printf("[BFF] CloudWatch Logs init failed: %v", err)
		} else {
			cwWriter = cwLogs
		}
	}
	zapLogger := logger.InitializeWithWriter(cfg.Env, cwWriter)
	defer func() { _ = zapLogger.Sync() }()

	metricsClient := awspkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, cfg.CloudWatchEnabled && awsReady)

	// ── Device store ──
	var kv store.Store
	if cfg.RedisURL != "" {
		redisClient, err := store.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("Redis connection failed", zap.Error(err))
		}
		defer redisClient.Close()
		kv = store.NewRedisStore(redisClient, cfg.RedisPrefix, cfg.StoreTTL)
		zapLogger.Info("Connected to Redis")
	} else {
		kv = store.NewMemoryStore()
		zapLogger.Warn("REDIS_URL not set, device state is kept in memory")
	}

	// ── Dependency injection ──
	raffleClient := clients.NewRaffleClient(cfg.APIBaseURL, cfg.RequestTimeout)
	sessions := session.NewManager([]byte(cfg.JWTSecret), zapLogger)

	policyOpts := []reconcile.Option{reconcile.WithMetrics(metricsClient)}
	if cfg.OrderEventsTopicARN != "" && awsReady {
		policyOpts = append(policyOpts, reconcile.WithEvents(awspkg.NewSNSClient(awsCfg), cfg.OrderEventsTopicARN))
	}
	policy := reconcile.New(raffleClient, kv, cart.NewHub(), zapLogger, policyOpts...)

	ctrl := routes.Controllers{
		Auth:   controllers.NewAuthController(services.NewAuthService(raffleClient, sessions, policy, zapLogger), sessions, zapLogger),
		Gifts:  controllers.NewGiftController(services.NewCatalogService(raffleClient, zapLogger), zapLogger),
		Cart:   controllers.NewCartController(services.NewCartService(policy, raffleClient, zapLogger), zapLogger),
		Orders: controllers.NewOrderController(services.NewOrderService(raffleClient), zapLogger),
		Admin:  controllers.NewAdminController(services.NewAdminService(raffleClient, zapLogger), zapLogger),
	}

	// ── HTTP router ──
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(zapLogger))
	r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	r.Use(middleware.SecurityHeaders())
	r.Use(routes.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst))
	r.Use(middleware.RequestTimeout(30*time.Second, "/bff/cart/events"))
	r.Use(middleware.DeviceSession(kv, cfg.SecureCookie))

	routes.RegisterRoutes(r, ctrl, sessions, zapLogger)

	// Event streams hold their connection open; cancelling the base context
	// on shutdown ends them.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelBase)

	go func() {
		zapLogger.Info("Raffle BFF started", zap.String("port", cfg.Port), zap.String("api", cfg.APIBaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown error", zap.Error(err))
	}
	zapLogger.Info("Raffle BFF stopped")
}
