package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/careconnect/careconnect-api/api/swagger"
	"github.com/careconnect/careconnect-api/internal/handler"
	"github.com/careconnect/careconnect-api/internal/middleware"
	"github.com/careconnect/careconnect-api/internal/repository"
	"github.com/careconnect/careconnect-api/internal/service"
	"github.com/careconnect/careconnect-api/pkg/cache"
	"github.com/careconnect/careconnect-api/pkg/config"
	"github.com/careconnect/careconnect-api/pkg/database"
	"github.com/careconnect/careconnect-api/pkg/keylock"
	"github.com/careconnect/careconnect-api/pkg/logger"
	corsmiddleware "github.com/careconnect/careconnect-api/pkg/middleware/cors"
	reqidmiddleware "github.com/careconnect/careconnect-api/pkg/middleware/requestid"
)

// @title CareConnect API
// @version 1.0.0
// @description Donation and request lifecycle service for community clubs
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledgerRepo := repository.NewLedgerRepository(db)
	donationRepo := repository.NewDonationRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()
	locks := keylock.New()
	stateStore := service.NewRedisStateStore(redisClient)
	txm := database.NewTxManager(db)

	ledgerSvc := service.NewLedgerService(ledgerRepo, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, subscriptionRepo, userRepo, cfg.Notifications, logr)
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	shortageSvc := service.NewShortageService(ledgerSvc, stateStore, notificationSvc, metricsSvc, cfg.Allocation.ShortageThreshold, logr)
	allocationSvc := service.NewAllocationService(requestRepo, ledgerSvc, locks, metricsSvc, logr)
	donationSvc := service.NewDonationService(donationRepo, ledgerSvc, allocationSvc, txm, locks, notificationSvc, shortageSvc, logr)
	requestSvc := service.NewRequestService(requestRepo, ledgerSvc, allocationSvc, txm, locks, notificationSvc, shortageSvc, logr)
	inventorySvc := service.NewInventoryService(ledgerRepo, requestRepo, donationRepo, shortageSvc, stateStore, cfg.Allocation.ShortageThreshold, cfg.Markers, logr)
	exportSvc := service.NewExportService(inventorySvc)
	authSvc := service.NewAuthService(userRepo, cfg.JWT, logr)

	if cfg.Sweeper.Enabled {
		sweeperSvc := service.NewSweeperService(requestRepo, donationRepo, ledgerSvc, allocationSvc, txm, locks, notificationSvc, shortageSvc, cfg.Sweeper, logr)
		go sweeperSvc.Run(ctx)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Dependencies{
		Auth:          authSvc,
		AuthHandler:   handler.NewAuthHandler(authSvc),
		Donations:     handler.NewDonationHandler(donationSvc),
		Requests:      handler.NewRequestHandler(requestSvc),
		Inventory:     handler.NewInventoryHandler(inventorySvc, exportSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": "postgres"})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": "redis"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("server stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}
