package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"alphabit/internal/client/neynar"
	"alphabit/internal/client/thetanuts"
	"alphabit/internal/config"
	"alphabit/internal/db"
	"alphabit/internal/handler"
	"alphabit/internal/logger"
	gormrepository "alphabit/internal/repository/gorm"
	"alphabit/internal/scheduler"
	"alphabit/internal/service"
)

func main() {
	cfgPath := os.Getenv("AB_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("AB_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(context.Background(), dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	indexerHTTP := &http.Client{Timeout: cfg.Indexer.Timeout}
	indexerClient := thetanuts.NewClient(indexerHTTP, cfg.Indexer.BaseURL)
	notifierHTTP := &http.Client{Timeout: cfg.Notifier.Timeout}
	notifierClient := neynar.NewClient(notifierHTTP, cfg.Notifier.BaseURL, cfg.Notifier.APIKey)
	if !notifierClient.Configured() {
		logger.Warn("notifier api key missing, push notifications disabled")
	}

	configSvc := &service.ConfigStoreService{
		Repo:   store,
		TTL:    cfg.Scheduler.ConfigCacheTTL,
		Logger: logger,
		Fallback: map[string]string{
			service.KeyReferrerAddress: cfg.Scheduler.ReferrerAddress,
			service.KeyIndexerURL:      cfg.Indexer.BaseURL,
			service.KeyNotifierURL:     cfg.Notifier.BaseURL,
		},
	}
	statsSvc := &service.StatsService{Repo: store, Logger: logger}
	syncSvc := &service.TradeSyncService{
		Repo:    store,
		Indexer: indexerClient,
		Config:  configSvc,
		Stats:   statsSvc,
		Logger:  logger,
	}
	leaderboardSvc := &service.LeaderboardService{Repo: store, Logger: logger}
	notifySvc := &service.NotificationService{
		Repo:   store,
		Client: notifierClient,
		Config: configSvc,
		Logger: logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := &scheduler.Scheduler{
		Sync:     syncSvc,
		Config:   configSvc,
		Notifier: notifySvc,
		Logger:   logger,
		Conf:     cfg.Scheduler,
	}
	if err := sched.Start(ctx); err != nil {
		logger.Fatal("scheduler start failed", zap.Error(err))
	}
	defer sched.Stop()

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm, Scheduler: sched}
	healthHandler.Register(engine)
	tradeHandler := &handler.TradeHandler{Sync: syncSvc, Repo: store}
	tradeHandler.Register(engine)
	leaderboardHandler := &handler.LeaderboardHandler{Leaderboard: leaderboardSvc}
	leaderboardHandler.Register(engine)
	payoffHandler := &handler.PayoffHandler{}
	payoffHandler.Register(engine)
	systemHandler := &handler.SystemHandler{Scheduler: sched, Config: configSvc}
	systemHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
