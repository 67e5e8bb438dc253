package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"composer/internal/adapter/repo"
	"composer/internal/compose"
	"composer/internal/http/handlers"
	"composer/internal/http/httpapi"
	"composer/internal/infra"
	"composer/internal/orchestrator"
	"composer/internal/providers/engine"
	"composer/internal/providers/genai"
	"composer/internal/storage"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	store, staticDir, err := buildStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure storage")
	}

	orch := buildOrchestrator(cfg, runner, store, logger)

	app := handlers.NewApp(orch, logger)
	router := httpapi.NewRouter(app, staticDir)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: failed to shutdown server")
	}
	logger.Info().Msg("api: stopped")
}

// buildStore selects the object store backend. The second return value is the
// local directory to serve under /static, empty for remote backends.
func buildStore(cfg *infra.Config) (storage.ObjectStore, string, error) {
	if cfg.StorageDriver == infra.StorageDriverS3 {
		store, err := storage.NewMinioStore(storage.MinioOptions{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		})
		return store, "", err
	}
	store, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		return nil, "", err
	}
	return store, cfg.StoragePath, nil
}

func buildOrchestrator(cfg *infra.Config, runner *infra.SQLRunner, store storage.ObjectStore, logger infra.Logger) *orchestrator.Orchestrator {
	fetcher := compose.NewFetcher(cfg.FetchTimeout)
	compositor := compose.NewCompositor(fetcher)
	local := engine.NewLocal(compositor)

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
			logger.Fatal().Err(err).Msg("api: failed to configure gemini client")
		}
		ai = engine.NewGemini(client, fetcher, compositor, logger)
		logger.Info().Str("model", client.Model()).Msg("api: generative engine enabled")
	} else {
		logger.Warn().Msg("api: gemini api key missing, every job uses the local compositor")
	}

	return orchestrator.New(orchestrator.Deps{
		Jobs:         repo.NewJobStore(runner),
		Assets:       repo.NewAssetStore(runner),
		Styles:       repo.NewStyleStore(runner),
		Renders:      repo.NewRenderStore(runner),
		Store:        store,
		AI:           ai,
		Local:        local,
		RenderBucket: cfg.RenderBucket,
		Logger:       logger,
	})
}
