// Command server runs the review wall HTTP API.
//
// @title                     Review Wall API
// @version                   1.0
// @description               Collects testimonials with optional media, keeps them in a single JSON collection, and serves the public wall.
// @BasePath                  /api
// @schemes                   http https
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-review-wall/docs"
	"github.com/tbourn/go-review-wall/internal/ai"
	"github.com/tbourn/go-review-wall/internal/config"
	httpapi "github.com/tbourn/go-review-wall/internal/http"
	"github.com/tbourn/go-review-wall/internal/media"
	"github.com/tbourn/go-review-wall/internal/observability"
	"github.com/tbourn/go-review-wall/internal/repo"
	"github.com/tbourn/go-review-wall/internal/services"
	"github.com/tbourn/go-review-wall/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg(".env not loaded")
	}
	cfg := config.MustLoad()

	// Logging
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	sysutil.SetLogLevel(cfg.LogLevel)
	logger := log.With().Str("service", cfg.OTEL.ServiceName).Str("version", version).Logger()

	// Tracing
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("otel setup failed")
	}

	// Storage
	store, err := repo.OpenReviewStore(cfg.Storage.ReviewsFile, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Storage.ReviewsFile).Msg("review store unavailable")
	}
	if err := os.MkdirAll(cfg.Storage.UploadDir, 0o750); err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.Storage.UploadDir).Msg("upload dir unavailable")
	}

	ids := services.NewIDAllocator()
	rel := media.NewRelocator(cfg.Storage.UploadDir, cfg.Storage.UploadsURLPrefix, ids.Next, logger)

	var sweeper *media.Sweeper
	if cfg.Storage.TempSweepEvery > 0 {
		sweeper = media.NewSweeper(rel, cfg.Storage.TempSweepEvery, cfg.Storage.TempMaxAge, logger)
		sweeper.Start(ctx)
	}

	aiClient := ai.New(ai.Config{
		APIKey:          cfg.AI.APIKey,
		BaseURL:         cfg.AI.BaseURL,
		Model:           cfg.AI.Model,
		TranscribeModel: cfg.AI.TranscribeModel,
		Timeout:         cfg.AI.Timeout,
	}, logger)
	if !aiClient.Configured() {
		logger.Warn().Msg("OPENAI_API_KEY not set; /summarize and /assist will answer 503")
	}

	// HTTP
	gin.SetMode(cfg.GinMode)
	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	docs.SwaggerInfo.Version = version

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Store: store,
		Media: rel,
		IDs:   ids,
		Idem:  repo.NewIdempotencyCache(cfg.IdempotencySize, cfg.IdempotencyTTL),
		AI:    aiClient,
		Log:   logger,
	}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("0.0.0.0", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("api", cfg.APIBasePath).
			Str("store", store.Path()).
			Bool("swagger", cfg.SwaggerEnabled).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	if sweeper != nil {
		sweeper.Stop()
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("otel shutdown")
	}
	logger.Info().Msg("bye")
}
