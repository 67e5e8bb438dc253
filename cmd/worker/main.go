package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"composer/internal/adapter/repo"
	"composer/internal/compose"
	"composer/internal/infra"
	"composer/internal/orchestrator"
	"composer/internal/providers/engine"
	"composer/internal/providers/genai"
	"composer/internal/storage"
)

const jobPollInterval = 2 * time.Second

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	store, err := buildStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	fetcher := compose.NewFetcher(cfg.FetchTimeout)
	compositor := compose.NewCompositor(fetcher)

	var ai engine.Engine
	if cfg.GeminiAPIKey != "" {
		client, err := genai.NewClient(genai.Options{
			APIKey:            cfg.GeminiAPIKey,
			BaseURL:           cfg.GeminiBaseURL,
			Model:             cfg.GeminiModel,
			HTTPClient:        &http.Client{Timeout: cfg.EngineTimeout},
			Logger:            &logger,
			RequestsPerMinute: cfg.EngineRequestsPerMin,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: failed to configure gemini client")
		}
		ai = engine.NewGemini(client, fetcher, compositor, logger)
		logger.Info().Str("model", client.Model()).Msg("worker: generative engine enabled")
	} else {
		logger.Warn().Msg("worker: gemini api key missing, every job uses the local compositor")
	}

	orch := orchestrator.New(orchestrator.Deps{
		Jobs:         repo.NewJobStore(runner),
		Assets:       repo.NewAssetStore(runner),
		Styles:       repo.NewStyleStore(runner),
		Renders:      repo.NewRenderStore(runner),
		Store:        store,
		AI:           ai,
		Local:        engine.NewLocal(compositor),
		RenderBucket: cfg.RenderBucket,
		Logger:       logger,
	})

	if err := run(ctx, orch, logger, jobPollInterval); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func buildStore(cfg *infra.Config) (storage.ObjectStore, error) {
	if cfg.StorageDriver == infra.StorageDriverS3 {
		return storage.NewMinioStore(storage.MinioOptions{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		})
	}
	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	return storage.NewFileStore(storagePath, cfg.StorageBaseURL)
}

// runner is the single pipeline operation the loop drives.
type runner interface {
	RunOnce(ctx context.Context) (orchestrator.Result, error)
}

// run drains the queue, sleeping when no work was found and after a failed
// pass, so a persistent fault (database down, storage unreachable) does not
// hammer the backends. Failed jobs are already flipped to a terminal status
// by the pipeline, so the loop just logs and keeps going.
func run(ctx context.Context, orch runner, logger infra.Logger, interval time.Duration) error {
	logger.Info().Msg("worker: started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := orch.RunOnce(ctx)
		switch {
		case err != nil:
			logger.Error().Err(err).Str("job_id", result.JobID).Msg("worker: job failed")
		case !result.OK:
		default:
			logger.Info().Str("job_id", result.JobID).Int("variants", len(result.Variants)).Msg("worker: job done")
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
