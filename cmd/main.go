package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beeline-social/engagement-core/internal/config"
	"github.com/beeline-social/engagement-core/internal/handler"
	"github.com/beeline-social/engagement-core/internal/ratelimit"
	"github.com/beeline-social/engagement-core/internal/reconciler"
	"github.com/beeline-social/engagement-core/internal/repository"
	"github.com/beeline-social/engagement-core/internal/service"
	"github.com/beeline-social/engagement-core/internal/store"
	pkgjwt "github.com/beeline-social/engagement-core/pkg/jwt"
	pkglog "github.com/beeline-social/engagement-core/pkg/log"
	"github.com/beeline-social/engagement-core/pkg/middleware"
	"github.com/beeline-social/engagement-core/pkg/pubsub"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// 2. Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: cfg.Log.ServiceName,
	})
	logger := pkglog.L()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Init DynamoDB client
	ddb, err := repository.NewClient(ctx, cfg.DynamoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create dynamodb client")
	}
	logger.Info().Str("table", cfg.DynamoDB.TableName).Msg("dynamodb client ready")

	// 4. Init Redis store
	redisStore, err := store.NewRedisEngagementStore(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisStore.Close()
	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")

	// 5. Init pub/sub: Redis for live pushes, Kafka for the event topic
	livePubSub, err := pubsub.NewRedisPubSub(pubsub.RedisConfig{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create redis pubsub")
	}
	defer livePubSub.Close()

	var bus pubsub.Publisher = noopPublisher{}
	if cfg.Kafka.Brokers != "" {
		kafkaProducer, err := pubsub.NewKafkaProducer(cfg.Kafka)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to create kafka producer, event topic disabled")
		} else {
			defer kafkaProducer.Close()
			bus = kafkaProducer
			logger.Info().Str("brokers", cfg.Kafka.Brokers).Msg("kafka producer ready")
		}
	} else {
		logger.Warn().Msg("KAFKA_BROKERS not configured; event topic disabled")
	}

	// 6. Repositories
	graphRepo := repository.NewDynamoGraphRepository(ddb, cfg.DynamoDB)
	contentRepo := repository.NewDynamoContentRepository(ddb, cfg.DynamoDB)
	interactionRepo := repository.NewDynamoInteractionRepository(ddb, cfg.DynamoDB)
	notificationRepo := repository.NewDynamoNotificationRepository(ddb, cfg.DynamoDB)
	rateStore := repository.NewDynamoRateWindowStore(ddb, cfg.DynamoDB)

	// 7. Services
	notifier := service.NewNotifierService(notificationRepo, redisStore, livePubSub, bus)
	graphSvc := service.NewGraphService(graphRepo, redisStore, notifier)
	contentSvc := service.NewContentService(contentRepo)
	ledgerSvc := service.NewLedgerService(interactionRepo, contentRepo, notifier)
	timelineSvc := service.NewTimelineService(graphRepo, contentRepo, cfg.Timeline.FanoutWidth)

	// 8. Auth middleware and rate limiter
	authMiddleware := middleware.NewAuthMiddleware(pkgjwt.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer))
	limiter := ratelimit.NewLimiter(rateStore)

	// 9. Reconciler
	rec := reconciler.New(redisStore, graphRepo, cfg.Reconciler)
	rec.Start(ctx)
	logger.Info().
		Dur("interval", cfg.Reconciler.Interval).
		Int("batch_size", cfg.Reconciler.BatchSize).
		Msg("reconciler started")

	// 10. Router and HTTP server
	httpHandler := handler.NewHandler(graphSvc, contentSvc, ledgerSvc, timelineSvc, notifier, livePubSub, authMiddleware, limiter, cfg.RateLimit)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))
	httpHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logger.Info().Str("addr", addr).Msg("engagement-core starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// 11. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		cancel()

		rec.Stop()
		<-rec.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("HTTP server forced to shutdown")
		}
	}()

	select {
	case <-shutdownDone:
		logger.Info().Msg("engagement-core stopped")
	case <-time.After(30 * time.Second):
		logger.Warn().Msg("shutdown timed out after 30s")
	}
}

// noopPublisher stands in for Kafka when no brokers are configured.
type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, *pubsub.Event) error { return nil }
