package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"edupro/internal/auth"
	"edupro/internal/cache"
	"edupro/internal/config"
	"edupro/internal/data"
	"edupro/internal/db"
	"edupro/internal/events"
	"edupro/internal/handler"
	"edupro/internal/health"
	"edupro/internal/live"
	"edupro/internal/metrics"
	"edupro/internal/realtime"
	"edupro/internal/service"
	"edupro/pkg/logging"
)

func newZapLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		panic(err)
	}

	zapLogger, err := newZapLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	logger := logging.New(zapLogger)
	defer logger.Sync()

	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "cannot create db", zap.Error(err))
	}
	defer pool.Close()

	redisConn := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})
	defer redisConn.Close()
	redisCache := cache.NewRedisCache(redisConn)

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaSubmissionsTopic, cfg.KafkaMessagesTopic)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error(ctx, "failed to close event publisher", zap.Error(err))
		}
	}()

	userRepo := data.NewUserRepository(pool)
	assessmentRepo := data.NewAssessmentRepository(pool)
	submissionRepo := data.NewSubmissionRepository(pool)
	conversationRepo := data.NewConversationRepository(pool)
	messageRepo := data.NewMessageRepository(pool)

	userService := service.NewUserService(
		userRepo,
		auth.NewManager(cfg.JWTSecret, cfg.JWTTTL),
		cache.NewRevocations(redisCache),
		cache.NewProfileCache(redisCache, cfg.ProfileCacheTTL),
		cfg.JWTTTL,
		logger,
	)
	assessmentService := service.NewAssessmentService(
		assessmentRepo,
		submissionRepo,
		cache.NewAttemptStore(redisCache, cfg.AttemptTTL),
		publisher,
		service.AssessmentConfig{PassPercentage: cfg.PassPercentage, DefaultMaxScore: cfg.DefaultMaxScore},
		logger,
	)
	chatService := service.NewChatService(conversationRepo, messageRepo, userService, publisher, logger)

	hub := realtime.NewHub(realtime.DefaultBuffer)
	metrics.RegisterSubscribers(prometheus.DefaultRegisterer, hub.Len)
	listener := realtime.NewListener(cfg.PostgresURL, hub, logger)
	go func() {
		if err := listener.Run(ctx); err != nil {
			logger.Error(ctx, "realtime listener stopped", zap.Error(err))
		}
	}()

	healthServer := health.NewServer(map[string]health.Checker{
		"postgres": health.CheckerFunc(pool.Ping),
		"redis":    redisCache,
	}, health.DefaultInterval, logger)
	go healthServer.Watch(ctx)

	grpcServer := healthServer.NewGRPCServer()
	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HealthGRPCPort))
	if err != nil {
		logger.Fatal(ctx, "cannot create listener", zap.Error(err))
	}
	go func() {
		if err := grpcServer.Serve(grpcListener); err != nil {
			logger.Error(ctx, "health server stopped", zap.Error(err))
		}
	}()

	router := handler.NewRouter(handler.RouterConfig{
		Users:         userService,
		Assessments:   assessmentService,
		Chat:          chatService,
		Authenticator: userService,
		Hub:           hub,
		Inbox: live.InboxConfig{
			InitialGuard:  cfg.InboxInitialGuard,
			RealtimeGuard: cfg.InboxRealtimeGuard,
		},
		Database:  pool,
		Logger:    logger,
		BodyLimit: cfg.HTTPBodyLimit,
	})

	port := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info(ctx, "Starting server", zap.String("port", port), zap.Int("health_grpc_port", cfg.HealthGRPCPort))

	srv := &http.Server{
		Addr:              port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "cannot start http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info(ctx, "Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server forced to shutdown", zap.Error(err))
	}

	shutdownDone := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(shutdownDone)
	}()
	select {
	case <-shutdownDone:
	case <-time.After(5 * time.Second):
		logger.Info(ctx, "GracefulStop timed out, forcing Stop")
		grpcServer.Stop()
	}
	logger.Info(ctx, "Server stopped")
}
