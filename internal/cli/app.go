package cli

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/cloo-solutions/stylechat/internal/config"
	"github.com/cloo-solutions/stylechat/internal/database"
	"github.com/cloo-solutions/stylechat/internal/domain"
	"github.com/cloo-solutions/stylechat/internal/gemini"
	"github.com/cloo-solutions/stylechat/internal/loader"
	"github.com/cloo-solutions/stylechat/internal/openai"
	"github.com/cloo-solutions/stylechat/internal/repository"
	"github.com/cloo-solutions/stylechat/internal/retry"
	"github.com/cloo-solutions/stylechat/internal/service"
	"github.com/cloo-solutions/stylechat/internal/storage"
	"github.com/cloo-solutions/stylechat/internal/telemetry"
)

type storeCloser interface {
	service.VectorStore
	io.Closer
}

// App holds the components every command is built from.
type App struct {
	Config    *config.Config
	Embedder  service.EmbeddingProvider
	Chat      service.ChatProvider
	Store     service.VectorStore
	Knowledge *loader.Loader
	Indexer   *service.Indexer
	Retriever *service.Retriever

	knowledgeRoot string
	closers       []func()
}

// NewApp wires providers, store and loader from cfg. Callers must Close it.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}
	if err := app.init(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	if cfg.HasSentry() {
		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:         cfg.SentryDSN,
			Environment: cfg.SentryEnvironment,
			Debug:       cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			a.closers = append(a.closers, shutdownTelemetry)
		}
	}

	if err := a.initProviders(ctx); err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	a.Store = store
	a.closers = append(a.closers, func() { store.Close() })

	source, err := knowledgeSource(ctx, cfg)
	if err != nil {
		return err
	}
	a.knowledgeRoot = source.Root()
	a.Knowledge = loader.New(source)

	a.Indexer = service.NewIndexer(
		a.Knowledge,
		service.NewChunker(cfg.ChunkConfig()),
		a.Embedder,
		a.Store,
		service.WithBatchSize(cfg.BatchSize),
		service.WithVerboseLogging(cfg.Debug),
	)
	a.Retriever = service.NewRetriever(a.Embedder, a.Store, cfg.TopK)

	return nil
}

func (a *App) initProviders(ctx context.Context) error {
	cfg := a.Config

	switch cfg.Provider {
	case config.ProviderOpenAI:
		oc := openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			BaseURL:             cfg.OpenAIBaseURL,
			EmbeddingModel:      cfg.EmbeddingModel,
			ChatModel:           cfg.ChatModel,
			EmbeddingDimensions: cfg.EmbeddingDimensions,
		}
		embedder, err := openai.NewEmbedder(oc)
		if err != nil {
			return domain.ErrProviderConfig.WithCause(err)
		}
		chat, err := openai.NewChat(oc)
		if err != nil {
			return domain.ErrProviderConfig.WithCause(err)
		}
		a.Embedder, a.Chat = embedder, chat

	case config.ProviderGemini:
		adapter, err := gemini.NewSDKAdapter(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return domain.ErrProviderConfig.WithCause(err)
		}
		a.closers = append(a.closers, func() { adapter.Close() })
		a.Embedder = gemini.NewEmbedder(adapter, cfg.EmbeddingModel)
		a.Chat = gemini.NewChat(adapter, cfg.ChatModel)

	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownProvider, cfg.Provider)
	}

	if policy := cfg.RetryPolicy(); policy.Enabled() {
		a.Embedder = retry.NewEmbedder(a.Embedder, policy)
		a.Chat = retry.NewChat(a.Chat, policy)
	}

	log.Printf("using %s provider (chat: %s, embeddings: %s)", cfg.Provider, a.Chat.ModelName(), a.Embedder.ModelName())
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (storeCloser, error) {
	switch {
	case cfg.VectorStore == config.StoreSQLite:
		return repository.OpenSQLite(ctx, cfg.IndexPath, cfg.Collection)

	case cfg.UsesPostgres():
		if err := repository.MigratePostgres(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL, MaxConns: 4})
		if err != nil {
			return nil, err
		}
		log.Println("connected to database")
		return repository.NewPostgresStore(pool, cfg.Collection), nil
	}

	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownVectorStore, cfg.VectorStore)
}

func knowledgeSource(ctx context.Context, cfg *config.Config) (loader.Source, error) {
	if !cfg.HasS3() {
		return loader.NewFSSource(cfg.KnowledgeDir), nil
	}

	src, err := storage.NewS3Source(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		Prefix:          cfg.S3Prefix,
		UsePathStyle:    cfg.S3Endpoint != "",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	log.Printf("reading knowledge from %s", src.Root())
	return src, nil
}

// KnowledgeRoot names the directory or bucket documents are read from.
func (a *App) KnowledgeRoot() string {
	return a.knowledgeRoot
}

// SentryTags labels request events with the index and models in use.
func (a *App) SentryTags() map[string]string {
	return map[string]string{
		"collection":      a.Store.Collection(),
		"provider":        a.Config.Provider,
		"chat_model":      a.Chat.ModelName(),
		"embedding_model": a.Embedder.ModelName(),
	}
}

// ChatService builds the turn service around a loaded style profile.
func (a *App) ChatService(style domain.StyleProfile) *service.ChatService {
	return service.NewChatService(a.Retriever, a.Chat, style, a.Config.MaxTurns)
}

// Persona returns the configured persona or the built-in one.
func (a *App) Persona() string {
	if a.Config.Persona != "" {
		return a.Config.Persona
	}
	return domain.DefaultPersona
}

// Close releases everything in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
