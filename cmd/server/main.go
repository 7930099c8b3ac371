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
	"golang.org/x/time/rate"

	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/api"
	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/models"
	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/repository"
	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/service"
	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/cache"
	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/config"
	apperrors "github.com/fbmoulin/2avaracivel-cariacica-website/pkg/errors"
	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/health"
	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/logger"
	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/middleware"
	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/observability"
	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/resilience"
)

func main() {
	cfg := config.New()

	log := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		JSON:      cfg.Logging.Format == "json",
		Output:    os.Stdout,
		AddSource: false,
	})
	logger.SetGlobal(log)
	log.Info("starting chatbot server", "port", cfg.Server.Port, "env", cfg.Server.Env)

	shutdownTracing := observability.SetupTracing("2vara-chatbot", log)
	defer shutdownTracing()
	meterProvider := observability.SetupMetrics(log)
	if meterProvider != nil {
		defer func() { _ = meterProvider.Shutdown(context.Background()) }()
	}
	chatMetrics, err := observability.NewChatMetrics()
	if err != nil {
		log.LogError(err, "failed to create chat metrics, continuing without them")
	}

	checker := health.NewChecker(log, 30*time.Second)

	// The knowledge base answers the common questions without any
	// backing store, so a down database degrades instead of failing
	// startup.
	var repo repository.ChatRepository
	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "database unavailable, conversation history disabled")
	} else {
		if err := db.AutoMigrate(&models.ChatRecord{}); err != nil {
			log.LogError(err, "database migration failed")
		} else {
			repo = repository.NewGormChatRepository(db)
		}
		checker.RegisterDatabaseCheck(func() error { return config.TestConnection(db) })
	}

	var responseCache service.ResponseCache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisCache(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("redis unavailable, falling back to in-memory cache", "error", err)
			responseCache = service.NewMemoryResponseCache(
				cache.New(cfg.Cache.TTL, cfg.Cache.PurgeWindow, cfg.Cache.MaxSize))
		} else {
			responseCache = service.NewRedisResponseCache(redisCache, cfg.Cache.TTL)
			checker.RegisterRedisCheck(func() error { return redisCache.Ping(context.Background()) })
		}
	}

	assistant := service.NewAssistantClient(cfg.AI.ServiceURL, cfg.AI.APIKey, cfg.AI.Timeout, log)
	breaker := resilience.New(resilience.DefaultConfig("assistant"), log)
	chatbot := service.NewChatbotService(responseCache, assistant, breaker, repo,
		service.Options{ContextMessages: cfg.Chatbot.ContextMessages}, log)

	checker.Start()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(apperrors.Recovery())
	router.Use(logger.Middleware(log))
	router.Use(middleware.CORS(cfg.Security.AllowedOrigins))

	router.GET("/health", gin.WrapF(checker.HTTPHandler()))
	router.GET("/metrics", observability.MetricsHandler())

	rateLimiter := middleware.NewRateLimiter(log, middleware.RateLimiterOptions{
		Limit:          rate.Limit(cfg.Security.RateLimit),
		Burst:          cfg.Security.RateLimitBurst,
		ExpiryDuration: time.Hour,
		KeyFunc:        func(c *gin.Context) string { return c.ClientIP() },
	})

	handler := api.NewChatbotHandler(chatbot, chatMetrics, cfg.Chatbot.MaxMessageLength, log)
	api.RegisterChatbotRoutes(router, handler, rateLimiter.Middleware(), chatMetrics.Middleware())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogError(err, "server error")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "forced shutdown")
	}
	log.Info("server stopped")
}
