package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tubely/backend/internal/api"
	"tubely/backend/internal/config"
	"tubely/backend/internal/logging"
	"tubely/backend/internal/media"
	"tubely/backend/internal/metrics"
	"tubely/backend/internal/repository/mongo"
	"tubely/backend/internal/service"
	"tubely/backend/internal/staging"
	"tubely/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// @title Tubely API
// @version 1.0
// @description Video hosting backend: video drafts, MP4 uploads remuxed for streaming, thumbnails.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		bootLogger := logging.New(config.LogConfig{Level: "info"})
		bootLogger.Fatal().Err(err).Msg("could not load config")
	}
	logger := logging.New(cfg.Log)
	logger.Info().Str("address", cfg.Server.Address).Msg("starting tubely server")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not connect to MongoDB")
	}
	defer func() {
		logger.Info().Msg("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	// --- Ensure Indexes ---
	go func() { // Run index creation in background
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(ctx, appDB); err != nil {
			logger.Error().Err(err).Msg("index creation failed")
			return
		}
		logger.Info().Msg("index creation completed")
	}()

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// --- Storage and media tools ---
	fileStorage, err := storage.NewS3Storage(context.Background(), cfg.S3, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize S3 storage")
	}

	stager, err := staging.NewManager(cfg.Media.TempDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize staging directory")
	}
	stager.OnReleaseFailure = func(string, error) { m.CleanupFailures.Inc() }

	runner := media.NewExecRunner()
	prober := media.NewProber(runner, cfg.Media.FFprobePath, cfg.Media.ProbeTimeout)
	rewriter := media.NewRewriter(runner, cfg.Media.FFmpegPath, cfg.Media.RemuxTimeout)

	// --- Repositories and services ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	videoRepo := mongo.NewMongoVideoRepository(appDB)
	thumbnailRepo := mongo.NewMongoThumbnailRepository(appDB)

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	videoService := service.NewVideoService(service.VideoServiceDeps{
		Videos:     videoRepo,
		Thumbnails: thumbnailRepo,
		Files:      fileStorage,
		Stager:     stager,
		Prober:     prober,
		Rewriter:   rewriter,
		Metrics:    m,
		Logger:     logger,
	}, service.VideoServiceConfig{
		MaxVideoBytes:     cfg.Media.MaxVideoBytes,
		MaxThumbnailBytes: cfg.Media.MaxThumbnailBytes,
		MaxConcurrent:     cfg.Media.MaxConcurrent,
		VerifyRemux:       cfg.Media.VerifyRemux,
		ThumbnailBaseURL:  cfg.Server.PublicURL,
	})

	// --- Initialize Gin Engine ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))

	videoHandler := api.NewVideoHandler(videoService, cfg.Media.MaxVideoBytes, cfg.Media.MaxThumbnailBytes, logger)
	api.SetupRoutes(router, authService, videoHandler, registry)

	// --- Start HTTP Server ---
	// No read/write timeout: uploads are large and remuxing holds the
	// response; the media tools carry their own deadlines.
	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("ListenAndServe error")
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	// In-flight pipelines get a while to finish and clean up their files.
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exiting")
}
