package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"campus-teranga/internal/config"
	"campus-teranga/internal/db"
	apihttp "campus-teranga/internal/http"
	"campus-teranga/internal/repository"
	"campus-teranga/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	// A missing JWT_SECRET or DATABASE_URL fails here, before any request
	// is served.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()
	if err := db.Ping(ctx, pool); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}

	var (
		loginLimiter service.LoginRateLimiter
		revokedStore service.RevokedTokenStore
	)
	loginWindow := time.Duration(cfg.LoginRateWindowMinutes) * time.Minute
	loginLimiter = service.NewLoginRateLimiter(loginWindow, cfg.LoginRateMax)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			loginLimiter = service.NewRedisLoginRateLimiter(redisClient, loginWindow, cfg.LoginRateMax)
			revokedStore = service.NewRedisRevokedTokenStore(redisClient)
		}
		cancel()
	}

	jwtSvc, err := service.NewJWTService(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour, revokedStore)
	if err != nil {
		logger.Fatal("jwt service", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	userSvc := service.NewUserService(logger, userRepo, loginLimiter)

	authHandler := apihttp.NewAuthHandler(logger, userSvc, jwtSvc)
	adminHandler := apihttp.NewAdminHandler(logger, userSvc)
	router := apihttp.NewRouter(logger, pool, jwtSvc, userSvc, authHandler, adminHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
