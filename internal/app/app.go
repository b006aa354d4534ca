// Package app wires configuration, infrastructure and the HTTP layer into a
// running service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/inkframe/cms-api/internal/api"
	"github.com/inkframe/cms-api/internal/api/handler"
	"github.com/inkframe/cms-api/internal/api/middleware"
	"github.com/inkframe/cms-api/internal/core/ports"
	"github.com/inkframe/cms-api/internal/core/service"
	mongodb "github.com/inkframe/cms-api/internal/infrastructure/db/mongo"
	redisdb "github.com/inkframe/cms-api/internal/infrastructure/db/redis"
	"github.com/inkframe/cms-api/internal/infrastructure/queue"
	"github.com/inkframe/cms-api/internal/infrastructure/storage"
	"github.com/inkframe/cms-api/internal/pkg/config"
	"github.com/inkframe/cms-api/internal/realtime"
	"github.com/inkframe/cms-api/internal/security"
	"github.com/inkframe/cms-api/pkg/logger"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
	hubSendBuffer     = 64
)

// Serve runs the API until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer disconnectMongo(mongoClient, log)
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	userRepo := mongodb.NewUserRepository(db)
	contentRepo := mongodb.NewContentRepository(db)
	if err := mongodb.EnsureIndexes(ctx, userRepo, contentRepo); err != nil {
		return err
	}

	objects, err := storage.NewS3Storage(ctx, storage.Config{
		Bucket:          cfg.S3.Bucket,
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		PublicBaseURL:   cfg.S3.PublicBaseURL,
		UsePathStyle:    cfg.S3.UsePathStyle,
	})
	if err != nil {
		return err
	}

	readiness := map[string]handler.Pinger{
		"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) },
	}

	// Workers and the relay outlive request contexts; they stop after the
	// HTTP server has drained.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	hub := realtime.NewHub(hubSendBuffer, logger.Component(log, "realtime"))

	var publisher ports.ContentPublisher = hub
	if cfg.Redis.Addr != "" {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer closeRedis(rdb, log)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

		relay := redisdb.NewRelay(rdb, cfg.Redis.Channel, logger.Component(log, "relay"))
		publisher = relay
		readiness["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

		go relay.RunForever(workerCtx, hub)
	}

	dispatcher := queue.NewDispatcher(cfg.Realtime.Workers, cfg.Realtime.QueueSize, publisher, logger.Component(log, "dispatcher"))
	dispatcher.Start(workerCtx)

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := service.NewAuthService(userRepo, tokens, logger.Component(log, "auth"))
	userSvc := service.NewUserService(userRepo, cfg.BcryptCost, logger.Component(log, "users"))
	contentSvc := service.NewContentService(contentRepo, objects, dispatcher, security.NewContentSanitizer(), logger.Component(log, "contents"))
	uploadSvc := service.NewUploadService(objects, cfg.Upload.MaxBytes, logger.Component(log, "uploads"))

	limiter := middleware.NewLoginLimiter(cfg.Login.PerMinute, cfg.Login.Burst)
	defer limiter.Stop()

	router := api.NewRouter(api.Deps{
		Log:            logger.Component(log, "http"),
		Tokens:         tokens,
		Auth:           authSvc,
		Users:          userSvc,
		Contents:       contentSvc,
		Uploads:        uploadSvc,
		UploadMaxBytes: uploadSvc.MaxBytes(),
		CORSOrigins:    cfg.CORSOrigins,
		Hub:            hub,
		LoginLimiter:   limiter,
		Readiness:      readiness,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	stopWorkers()
	log.Info().Msg("server exited cleanly")
	return nil
}

// SeedUsers creates the default accounts that are missing and returns how
// many were created.
func SeedUsers(ctx context.Context, cfg *config.Config, password string, log zerolog.Logger) (int, error) {
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return 0, err
	}
	defer disconnectMongo(mongoClient, log)

	userRepo := mongodb.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return 0, err
	}

	users := service.NewUserService(userRepo, cfg.BcryptCost, logger.Component(log, "users"))
	return service.Seed(ctx, userRepo, users, service.DefaultSeedUsers(password), logger.Component(log, "seed"))
}

func disconnectMongo(client *mongo.Client, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("mongodb disconnect")
	}
}

func closeRedis(client *goredis.Client, log zerolog.Logger) {
	if err := client.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
}
