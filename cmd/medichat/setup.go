package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/medichat/internal/config"
	"github.com/sandevgo/medichat/internal/providers/llm"
	"github.com/sandevgo/medichat/internal/providers/rag"
	"github.com/sandevgo/medichat/internal/service/answer"
	"github.com/sandevgo/medichat/internal/service/assistant"
	"github.com/sandevgo/medichat/internal/service/command"
	"github.com/sandevgo/medichat/internal/service/index"
	"github.com/sandevgo/medichat/internal/service/library"
	"github.com/sandevgo/medichat/internal/storage/sqlite"
	"github.com/sandevgo/medichat/pkg/log"
	"github.com/sandevgo/medichat/pkg/srv"
)

// App holds the wired services shared by every subcommand.
type App struct {
	Config   *config.AppConfig
	LLM      *config.LLMConfig
	Library  *library.Library
	Fetcher  *library.Fetcher
	Sessions *assistant.Manager
	Router   *command.Router

	// expires idle API sessions, the other transports keep theirs
	HTTPSessions *assistant.Manager

	// closed last, after transports
	cleanup []srv.Service
}

type appOptions struct {
	allowUpload bool
}

func NewApp(ctx context.Context, opts appOptions) *App {
	logger := log.FromCtx(ctx)

	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	llmCfg := config.NewLLMConfig(ctx)
	embCfg := config.NewEmbeddingConfig(ctx)

	app := &App{Config: appCfg, LLM: llmCfg}

	// 2. Storage
	sessionOpts := assistant.Options{
		MaxHistory:      appCfg.MaxHistory,
		ContextMessages: appCfg.ContextMessages,
	}
	if appCfg.PersistTranscripts {
		db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize storage")
		}
		app.cleanup = append(app.cleanup, srv.NewCleanup(db.Close))
		sessionOpts.Transcripts = sqlite.NewTranscripts(db)
	}

	// 3. Retrieval
	embedder, err := rag.NewEmbedder(ctx, embCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize embedder")
	}
	idx := index.New(embedder)
	app.Library = library.New(idx, library.Config{
		Chunker: rag.ChunkerConfig{
			MaxTokens:     appCfg.ChunkMaxTokens,
			OverlapTokens: appCfg.ChunkOverlapTokens,
		},
		MaxFileBytes: appCfg.GetMaxUploadBytes(),
	})
	app.Fetcher = library.NewFetcher(app.Library, nil)

	// 4. LLM
	models, err := llm.NewDynamicProvider(ctx, llmCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	// 5. Answering
	orchestrator := answer.NewOrchestrator(idx, models,
		answer.WithTopK(appCfg.TopK),
		answer.WithPicker(answer.NewRandomPicker(appCfg.Seed)),
		answer.WithTimeout(llmCfg.GetTimeout()),
	)
	app.Sessions = assistant.NewManager(orchestrator, sessionOpts)
	httpOpts := sessionOpts
	httpOpts.IdleTTL = appCfg.HTTPSessionTTL
	app.HTTPSessions = assistant.NewManager(orchestrator, httpOpts)

	// 6. Commands
	app.Router = command.New(command.NewCommands(command.Deps{
		Config:      llmCfg,
		Models:      models,
		Sessions:    app.Sessions,
		Library:     app.Library,
		Fetcher:     app.Fetcher,
		AllowUpload: opts.allowUpload,
	}))

	return app
}

// Preload indexes the given files. A file that fails is logged and skipped.
func (a *App) Preload(ctx context.Context, paths []string) {
	logger := log.FromCtx(ctx)
	for _, p := range paths {
		doc, err := a.Library.IngestFile(ctx, p)
		if err != nil {
			logger.Error().Err(err).Str("path", p).Msg("failed to index document")
			continue
		}
		logger.Info().
			Str("document", doc.Name).
			Int("chunks", doc.Chunks).
			Msg("document indexed")
	}
}

// Services puts the cleanup hooks first. Shutdown runs in reverse, so
// storage closes after the transports.
func (a *App) Services(extra ...srv.Service) []srv.Service {
	return append(append([]srv.Service{}, a.cleanup...), extra...)
}

// shutdownNow stops services without waiting for a signal.
func shutdownNow(ctx context.Context, services []srv.Service) {
	ctx, cancel := context.WithCancel(ctx)
	cancel()
	srv.ShutdownServices(ctx, services)
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
