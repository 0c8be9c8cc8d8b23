package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"framefeed/pkg/cache"
	"framefeed/pkg/config"
	"framefeed/pkg/database"
	"framefeed/pkg/jwt"
	"framefeed/pkg/logger"
	"framefeed/pkg/mediaurl"
	"framefeed/pkg/middleware"
	"framefeed/pkg/queue"
	"framefeed/pkg/s3"
	apiHTTP "framefeed/services/api/internal/controller/http"
	feedcache "framefeed/services/api/internal/repo/cache"
	"framefeed/services/api/internal/repo/persistent"
	"framefeed/services/api/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	_ "framefeed/services/api/docs" // Swagger docs
)

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *gorm.DB
	redisClient *redis.Client
	s3Client    *s3.Client
	jwtService  *jwt.Service
	queueClient *queue.Client
	httpServer  *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.NewWithEnv(cfg.IsProduction())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		return nil, err
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Warn("Failed to connect to redis: %v (feed cache and shared rate limit disabled)", err)
		redisClient = nil
	}

	s3Client, err := s3.NewClient(cfg, log)
	if err != nil {
		log.Error("Failed to create S3 client: %v", err)
		return nil, err
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Warn("Failed to connect to RabbitMQ: %v (continuing without queue)", err)
		queueClient = nil
	}

	jwtService, err := newTokenService(cfg)
	if err != nil {
		log.Error("Failed to set up token verification: %v", err)
		return nil, err
	}

	return &App{
		cfg:         cfg,
		log:         log,
		db:          db,
		redisClient: redisClient,
		s3Client:    s3Client,
		jwtService:  jwtService,
		queueClient: queueClient,
	}, nil
}

// newTokenService prefers the identity provider's key set and falls back to a
// shared HMAC secret.
func newTokenService(cfg *config.Config) (*jwt.Service, error) {
	if url := cfg.JWKSURL(); url != "" {
		return jwt.NewJWKSService(context.Background(), url)
	}
	if cfg.JWTSecret == "" && cfg.IsProduction() {
		return nil, errors.New("AUTH_JWKS_URL or JWT_SECRET is required in production")
	}
	return jwt.NewService(cfg.JWTSecret), nil
}

func (a *App) Run() error {
	// Repositories
	postRepo := persistent.NewPostRepository(a.db)
	userRepo := persistent.NewUserRepository(a.db)
	feedCache := feedcache.NewFeedCache(a.redisClient, a.cfg.FeedCacheTTL, a.log)

	var events usecase.EventPublisher
	if a.queueClient != nil {
		events = a.queueClient
	}
	urls := mediaurl.New(a.cfg.S3Endpoint, a.s3Client.Bucket())

	// Use cases
	postUseCase := usecase.NewPostUseCase(postRepo, userRepo, feedCache, events, urls, a.log)
	uploadUseCase := usecase.NewUploadUseCase(postRepo, userRepo, a.s3Client, feedCache, events, urls, a.cfg.MaxFilesPerPost, a.log)
	userUseCase := usecase.NewUserUseCase(userRepo, postRepo, urls, a.log)
	mediaUseCase := usecase.NewMediaUseCase(a.s3Client)

	// HTTP
	maxUpload := a.cfg.MaxUploadBytes()
	r := NewRouter(Handlers{
		Posts: apiHTTP.NewPostHandler(postUseCase, uploadUseCase, maxUpload, a.log),
		Users: apiHTTP.NewUserHandler(userUseCase, uploadUseCase, maxUpload, a.log),
		Media: apiHTTP.NewMediaHandler(mediaUseCase, a.log),
		Auth: middleware.AuthMiddleware(a.jwtService, middleware.AuthOptions{
			DevToken:   a.cfg.DevToken,
			DevUserID:  a.cfg.DevUserID,
			Production: a.cfg.IsProduction(),
		}),
		UploadLimit: middleware.RateLimitMiddleware(a.redisClient, a.cfg.RateLimitPerMinute, time.Minute, a.log),
	})

	a.httpServer = &http.Server{
		Addr:    ":" + a.cfg.ServerPort,
		Handler: r,
	}

	go func() {
		a.log.Info("API service starting on port %s", a.cfg.ServerPort)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	return nil
}

func (a *App) Wait() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.log.Info("Shutting down API service...")
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Stop accepting requests before the backends go away.
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.log.Error("Server forced to shutdown: %v", err)
			return err
		}
	}

	sqlDB, err := a.db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Error("Error closing database: %v", err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Error closing Redis: %v", err)
		}
	}

	if a.queueClient != nil {
		if err := a.queueClient.Close(); err != nil {
			a.log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	a.log.Info("API service exited")
	a.log.Sync()
	return nil
}
