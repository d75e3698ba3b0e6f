package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pairchat/pairchat/internal/cache"
	"github.com/pairchat/pairchat/internal/config"
	"github.com/pairchat/pairchat/internal/domain"
	"github.com/pairchat/pairchat/internal/handler"
	"github.com/pairchat/pairchat/internal/hub"
	"github.com/pairchat/pairchat/internal/middleware"
	"github.com/pairchat/pairchat/internal/repository"
	"github.com/pairchat/pairchat/internal/service"
	"github.com/pairchat/pairchat/internal/storage"
	"github.com/pairchat/pairchat/internal/token"
	"github.com/pairchat/pairchat/pkg/database"
	"github.com/pairchat/pairchat/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.L().Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Init(cfg.Log)
	logger := log.L()
	logger.Info().Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).Msg("starting pairchat")

	// Database
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, &domain.UserModel{}, &domain.MessageModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")

	userRepo := repository.NewGormUserRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	// Contact cache is optional: a missing Redis downgrades to direct reads.
	var contactCache cache.ContactCache
	if redisCache, err := cache.NewRedisContactCache(cfg.Redis, cfg.Cache.Prefix); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, contact cache disabled")
	} else {
		contactCache = redisCache
		defer redisCache.Close()
	}

	// Object storage for images
	var store storage.Storage
	var localStore *storage.LocalStorage
	switch cfg.Storage.Backend {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), cfg.Storage.S3)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialise S3 storage")
		}
		logger.Info().Str("bucket", cfg.Storage.S3.Bucket).Msg("using S3 storage")
	default:
		localStore, err = storage.NewLocalStorage(cfg.Storage.Local)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialise local storage")
		}
		store = localStore
		logger.Info().Str("path", localStore.BasePath()).Msg("using local storage")
	}

	// Session tokens
	tokens, err := token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Lifetime)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise token manager")
	}
	authMw := middleware.NewAuthMiddleware(tokens)

	// Realtime gateway
	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	// Services
	authSvc := service.NewAuthService(userRepo, tokens, store, contactCache)
	messageSvc := service.NewMessageService(messageRepo, userRepo, store, wsHub, contactCache, cfg.Cache.TTL)

	// Router
	r := gin.New()
	r.Use(log.GinMiddleware(logger), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if localStore != nil {
		r.Static("/uploads", localStore.BasePath())
	}

	cookieMaxAge := int(cfg.JWT.Lifetime / time.Second)
	handler.NewAuthHandler(authSvc, authMw, cookieMaxAge, cfg.JWT.CookieSecure).RegisterRoutes(r)
	handler.NewMessageHandler(messageSvc, authMw).RegisterRoutes(r)
	handler.NewWSHandler(wsHub).RegisterRoutes(r)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("pairchat listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("stopped")
}
