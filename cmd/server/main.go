package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveyforge/internal/cache"
	"surveyforge/internal/config"
	"surveyforge/internal/generative"
	"surveyforge/internal/logger"
	"surveyforge/internal/repository"
	"surveyforge/internal/result"
	"surveyforge/internal/service"
	"surveyforge/internal/transport/rest"
	"surveyforge/internal/transport/ws"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("provider", cfg.AI.Provider).
		Str("textModel", cfg.AI.Models.Text).
		Str("imageModel", cfg.AI.Models.Image).
		Bool("apiKey", cfg.AI.IsEnabled()).
		Str("policy", cfg.Result.Policy).
		Msg("generation config")

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal().Err(err).Msg("failed to ping MongoDB")
	}
	log.Info().Str("db", cfg.MongoDB).Msg("connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping Redis")
	}
	log.Info().Str("addr", cfg.RedisURI).Msg("connected to Redis")

	// Generated images go to object storage when it is configured
	var images generative.ImageStore
	if cfg.Storage.Enabled() {
		store, err := generative.NewMinioImageStore(ctx, cfg.Storage)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init image storage")
		}
		images = store
		log.Info().Str("bucket", cfg.Storage.Bucket).Msg("image storage ready")
	}

	gen, err := generative.New(ctx, cfg.AI, images)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init generative client")
	}
	defer gen.Close()
	log.Info().Str("backend", gen.Name()).Msg("generative client ready")

	wsHub := ws.NewHub()

	// Initialize repositories
	surveyRepo := repository.NewSurveyRepo(db)
	responseRepo := repository.NewResponseRepository(db)

	// Initialize caches
	resultCache, err := cache.NewResultCache(rdb, cfg.Result.SessionTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init result cache")
	}

	// Initialize services
	registry := result.DefaultRegistry()
	orch := result.NewOrchestrator(
		result.Capabilities{Images: gen, Text: gen},
		result.WithPolicy(result.ParsePolicy(cfg.Result.Policy)),
		result.WithMaxParallel(cfg.Result.MaxParallel),
		result.WithCallTimeout(cfg.Result.CallTimeout),
	)

	authSvc := service.NewAuthService(cfg)
	surveySvc := service.NewSurveyService(surveyRepo, registry)
	resultSvc := service.NewResultService(registry, orch, resultCache, cfg.Result.SessionTTL)
	responseSvc := service.NewResponseService(responseRepo, surveySvc, resultSvc, authSvc)

	// wsHub implements service.Broadcaster
	resultSvc.SetBroadcaster(wsHub)

	go resultSvc.RunJanitor(ctx, time.Minute)
	go func() {
		err := resultCache.RelayUpdates(ctx, resultSvc.RelayRemote)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("result update relay stopped")
		}
	}()

	router := rest.NewRouter(&rest.Container{
		AuthService:     authSvc,
		SurveyService:   surveySvc,
		ResponseService: responseSvc,
		ResultService:   resultSvc,
		WSHub:           wsHub,
		CORSOrigins:     cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("hostUser", cfg.HostUsername).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	resultSvc.Shutdown(shutdownCtx)
	wsHub.Close()

	log.Info().Msg("server exited")
}
