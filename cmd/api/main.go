package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"siteclone/internal/adapter/repo"
	"siteclone/internal/browser"
	"siteclone/internal/clonestore"
	"siteclone/internal/domain"
	"siteclone/internal/fetcher"
	"siteclone/internal/generator"
	"siteclone/internal/http/handlers"
	"siteclone/internal/http/httpapi"
	"siteclone/internal/infra"
	"siteclone/internal/providers/completion"
	"siteclone/internal/service"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// Job ledger: Postgres when configured, in-memory otherwise.
	var jobs domain.CloneJobRepository
	if cfg.DatabaseURL != "" {
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()

		pgRepo := repo.NewCloneJobRepository(dbpool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare clone_jobs schema")
		}
		jobs = pgRepo
		logger.Info().Msg("job ledger backed by postgres")
	} else {
		jobs = repo.NewMemoryCloneJobRepository()
		logger.Info().Msg("job ledger backed by memory; set DATABASE_URL to persist jobs")
	}

	browserClient, err := browser.NewClient(browser.ClientOptions{
		BaseURL: cfg.BrowserAPIURL,
		APIKey:  cfg.BrowserAPIKey,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid browser service configuration")
	}
	pool := browser.NewPool(cfg.BrowserPoolSize, cfg.BrowserAcquireTimeout)

	pageFetcher := fetcher.New(fetcher.Options{
		Client:         browserClient,
		Pool:           pool,
		Logger:         logger,
		Timeout:        cfg.FetchTimeout,
		MaxRedirects:   cfg.FetchMaxRedirects,
		MaxStylesheets: cfg.FetchMaxStylesheets,
	})

	var completer completion.Completer
	switch cfg.CompletionProvider {
	case "anthropic":
		completer, err = completion.NewAnthropicClient(completion.AnthropicOptions{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			BaseURL: cfg.AnthropicBaseURL,
		})
	case "openai":
		completer, err = completion.NewOpenAIClient(completion.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid completion provider configuration")
	}

	gen := generator.New(generator.Options{
		Completer:      completer,
		ProviderName:   cfg.CompletionProvider,
		Logger:         logger,
		Timeout:        cfg.GenerationTimeout,
		MaxPromptBytes: cfg.MaxPromptBytes,
	})

	store, err := clonestore.NewStore(cfg.ClonesDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare clones directory")
	}

	pipeline := service.NewPipeline(service.PipelineOptions{
		Fetcher:   pageFetcher,
		Generator: gen,
		Clones:    store,
		Jobs:      jobs,
		Logger:    logger,
	})

	app := handlers.NewApp(logger, pipeline, store, jobs)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
