package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/lorenzocolitta/brotherhood-kos/api/swagger"
	"github.com/lorenzocolitta/brotherhood-kos/internal/bot"
	"github.com/lorenzocolitta/brotherhood-kos/internal/handler"
	"github.com/lorenzocolitta/brotherhood-kos/internal/middleware"
	"github.com/lorenzocolitta/brotherhood-kos/internal/repository"
	"github.com/lorenzocolitta/brotherhood-kos/internal/roblox"
	"github.com/lorenzocolitta/brotherhood-kos/internal/service"
	"github.com/lorenzocolitta/brotherhood-kos/internal/sweeper"
	"github.com/lorenzocolitta/brotherhood-kos/internal/telegram"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/cache"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/config"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/database"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/logger"
	corsmiddleware "github.com/lorenzocolitta/brotherhood-kos/pkg/middleware/cors"
	reqidmiddleware "github.com/lorenzocolitta/brotherhood-kos/pkg/middleware/requestid"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/signature"
)

// @title Brotherhood KOS API
// @version 1.0.0
// @description Moderation API backing the kill-on-sight Discord bot
// @BasePath /api/v1
// @schemes http https

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching and rate limiting degrade to no-ops", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// repositories
	entryRepo := repository.NewEntryRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	logRepo := repository.NewLogRepository(db)
	configRepo := repository.NewConfigRepository(db)
	authRepo := repository.NewAuthRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// external collaborators
	robloxClient := roblox.NewClient(roblox.Config{
		UsersBaseURL:      cfg.Roblox.BaseURL,
		ThumbnailsBaseURL: cfg.Roblox.ThumbnailsURL,
		Timeout:           cfg.Roblox.Timeout,
	}, logr)

	notifier := telegram.NewNotifier(telegram.Config{
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
	}, logr)
	dispatcher := telegram.NewDispatcher(notifier, logr)

	// services
	adminService := service.NewAdminService(configRepo, logRepo, logr)
	kosService := service.NewKosService(entryRepo, historyRepo, logRepo, cacheRepo, robloxClient, dispatcher, adminService, logr, service.KosServiceConfig{
		StatsCacheTTL: cfg.API.StatsCacheTTL,
	})
	authService := service.NewAuthService(authRepo, logRepo, logr, service.AuthServiceConfig{
		JWTSecret:  cfg.Auth.JWTSecret,
		CodeTTL:    cfg.Auth.CodeTTL,
		SessionTTL: cfg.Auth.SessionTTL,
	})
	exportService := service.NewExportService(entryRepo)
	metricsService := service.NewMetricsService()

	signer := signature.NewSigner(cfg.API.SigningSecret, cfg.API.SignatureMaxAge)

	router := buildRouter(cfg, logr, db, kosService, authService, adminService, exportService, metricsService, cacheRepo, signer)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	dispatcher.Start(rootCtx)
	defer dispatcher.Stop()

	sweep := sweeper.New(kosService, authService, metricsService, cfg.Sweeper.Interval, logr)
	sweep.Start(rootCtx)
	defer sweep.Stop()

	discordBot, err := bot.New(bot.Config{
		Token:    cfg.Discord.Token,
		ClientID: cfg.Discord.ClientID,
		GuildID:  cfg.Discord.GuildID,
	}, kosService, authService, adminService, logr)
	if err != nil {
		logr.Fatal("failed to build discord bot", zap.Error(err))
	}
	if err := discordBot.Run(rootCtx); err != nil {
		logr.Fatal("failed to start discord bot", zap.Error(err))
	}
	defer discordBot.Close() //nolint:errcheck

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("http shutdown failed", zap.Error(err))
	}
}

func buildRouter(
	cfg *config.Config,
	logr *zap.Logger,
	db *sqlx.DB,
	kosService *service.KosService,
	authService *service.AuthService,
	adminService *service.AdminService,
	exportService *service.ExportService,
	metricsService *service.MetricsService,
	cacheRepo *repository.CacheRepository,
	signer *signature.Signer,
) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	kosHandler := handler.NewKosHandler(kosService)
	authHandler := handler.NewAuthHandler(authService)
	historyHandler := handler.NewHistoryHandler(kosService)
	statusHandler := handler.NewStatusHandler(kosService, adminService, db, logr)
	exportHandler := handler.NewExportHandler(exportService)
	rosterHandler := handler.NewRosterHandler(kosService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r.GET("/health", statusHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.RateLimit(cacheRepo, cfg.API.RateLimit, cfg.API.RateWindow, logr))

	api.POST("/auth/login", authHandler.Login)

	// machine surface, HMAC signed
	api.GET("/roster", middleware.Signature(signer), rosterHandler.Roster)

	// moderator surface, session tokens
	protected := api.Group("")
	protected.Use(middleware.Auth(authService))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/kos", kosHandler.List)
		protected.POST("/kos", kosHandler.Create)
		protected.GET("/kos/export", exportHandler.Export)
		protected.GET("/kos/:id", kosHandler.Get)
		protected.DELETE("/kos/:id", kosHandler.Remove)
		protected.GET("/history", historyHandler.List)
		protected.GET("/logs", historyHandler.Logs)
		protected.GET("/stats", statusHandler.Stats)
		protected.GET("/status", statusHandler.Status)
	}

	return r
}
