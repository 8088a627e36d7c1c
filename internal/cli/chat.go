package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/cloo-solutions/stylechat/internal/domain"
	"github.com/cloo-solutions/stylechat/internal/repl"
	"github.com/cloo-solutions/stylechat/internal/service"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func ChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive chat",
		Long: `Loads the style profile, makes sure the index exists and starts the chat loop.

Commands inside the chat:
  exit, quit   leave
  /reset       clear the conversation history
  /update      rebuild the index from the knowledge directory`,
		Args: cobra.NoArgs,
		RunE: runChat,
	}

	cmd.Flags().Bool("reindex", false, "Rebuild the index before chatting")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
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

	paths, err := app.Knowledge.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list knowledge files: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("%w in %s", domain.ErrNoDocuments, app.KnowledgeRoot())
	}

	reindex, _ := cmd.Flags().GetBool("reindex")
	if reindex {
		stats, err := app.Indexer.Rebuild(ctx)
		if err != nil {
			return err
		}
		log.Printf("index rebuilt: %d files, %d chunks", stats.Files, stats.Chunks)
	} else {
		stats, built, err := app.Indexer.EnsureIndexed(ctx)
		if err != nil {
			return err
		}
		if built {
			log.Printf("index built: %d files, %d chunks", stats.Files, stats.Chunks)
		}
	}

	in := cmd.InOrStdin()
	driver := repl.NewDriver(in, cmd.OutOrStdout(), app.ChatService(style), app.Indexer,
		repl.WithInteractive(isTerminal(in)))
	_, err = driver.Run(ctx, domain.NewConversation(app.Persona()))
	return err
}

// isTerminal reports whether r is an interactive terminal. Anything that is
// not an *os.File, like a pipe in tests, is not.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
