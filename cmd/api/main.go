package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"circlerate/internal/config"
	"circlerate/internal/db"
	apihttp "circlerate/internal/http"
	"circlerate/internal/repository"
	"circlerate/internal/service"
	"circlerate/internal/sms"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	circleRepo := repository.NewPgCircleRepository(pool)
	contactRepo := repository.NewPgContactRepository(pool)
	traitRepo := repository.NewPgTraitRepository(pool)
	tokenRepo := repository.NewPgTokenRepository(pool)
	ratingRepo := repository.NewPgRatingRepository(pool)
	notificationRepo := repository.NewPgNotificationRepository(pool)

	smsSender := sms.NewDisabledSender("sms sender not configured")
	if cfg.SMTPHost != "" {
		gateway, err := sms.NewSMTPGateway(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMSGatewayDomain, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("sms gateway init failed", zap.Error(err))
		} else {
			smsSender = gateway
		}
	}

	var (
		codeLimiter service.CodeRateLimiter
		tokenStore  service.RefreshTokenStore
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			codeLimiter = service.NewRedisCodeRateLimiter(redisClient, 10*time.Minute, 3)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	userSvc := service.NewUserService(logger, userRepo, smsSender, codeLimiter)
	reputationSvc := service.NewReputationService(logger, traitRepo, ratingRepo, circleRepo)

	cache := service.NewAggregateCache()
	sessionSvc := service.NewSessionService(logger, tokenRepo, traitRepo, ratingRepo, userRepo, circleRepo, notificationRepo, service.NewMemorySessionStore(), cache)
	invitationSvc := service.NewInvitationService(logger, contactRepo, tokenRepo, userRepo, notificationRepo, smsSender, cfg.InviteBaseURL)

	authHandler := apihttp.NewAuthHandler(logger, userSvc, jwtSvc)
	contactHandler := apihttp.NewContactHandler(logger, circleRepo, contactRepo, userRepo, invitationSvc)
	ratingHandler := apihttp.NewRatingHandler(logger, traitRepo, sessionSvc, reputationSvc)
	notificationHandler := apihttp.NewNotificationHandler(logger, notificationRepo)
	router := apihttp.NewRouter(logger, jwtSvc, authHandler, contactHandler, ratingHandler, notificationHandler)

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
