package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/cloo-solutions/stylechat/internal/api/handlers"
	"github.com/cloo-solutions/stylechat/internal/jobs"
	"github.com/cloo-solutions/stylechat/internal/server"
	"github.com/cloo-solutions/stylechat/internal/service"
	"github.com/spf13/cobra"
)

func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  "Serves /search, /chat and /index/rebuild over HTTP. Conversation history travels with each /chat request.",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides STYLECHAT_PORT)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetString("port")
	}

	style, err := service.LoadStyleProfile(cfg.StyleProfilePath)
	if err != nil {
		return err
	}

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, built, err := app.Indexer.EnsureIndexed(ctx); err != nil {
		log.Printf("initial index failed (serving without it): %v", err)
	} else if built {
		log.Println("initial index built")
	}

	var mu sync.RWMutex

	var reindexWorker *jobs.Worker
	if cfg.ReindexInterval > 0 {
		reindexWorker = jobs.NewWorker("reindex", jobs.NewReindexProcessor(app.Indexer, &mu), cfg.ReindexInterval)
		go reindexWorker.Start(ctx)
	}

	router := server.NewRouter(server.RouterConfig{
		APIToken:     cfg.APIToken,
		SentryTags:   app.SentryTags(),
		ChatHandler:  handlers.NewChatHandler(app.Retriever, app.ChatService(style), app.Persona(), app.Retriever.TopK(), &mu),
		IndexHandler: handlers.NewIndexHandler(app.Indexer, &mu),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	log.Println("shutting down...")

	if reindexWorker != nil {
		reindexWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}
