package cli

import (
	"fmt"
	"log"

	"github.com/cloo-solutions/stylechat/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewRootCmd builds the stylechat command tree. Running it without a
// subcommand starts the chat.
func NewRootCmd(version string) *cobra.Command {
	chat := ChatCmd()

	rootCmd := &cobra.Command{
		Use:   "stylechat",
		Short: "Retrieval-augmented chat in a learned writing style",
		Long: `stylechat indexes a folder of .txt and .pdf files and answers questions
about them in the voice described by a style profile.

Configuration is read from STYLECHAT_* environment variables and .env.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          chat.RunE,
	}

	rootCmd.PersistentFlags().String("knowledge-dir", "", "Directory with knowledge files (overrides STYLECHAT_KNOWLEDGE_DIR)")
	rootCmd.PersistentFlags().String("index-path", "", "SQLite index file (overrides STYLECHAT_INDEX_PATH)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log indexing progress")
	rootCmd.Flags().AddFlagSet(chat.LocalFlags())
	AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(chat)
	rootCmd.AddCommand(IndexCmd())
	rootCmd.AddCommand(SearchCmd())
	rootCmd.AddCommand(ProfileCmd())
	rootCmd.AddCommand(ServeCmd())

	return rootCmd
}

// loadConfig reads the environment and applies any persistent flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cfg, cmd.Flags())
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log.SetFlags(log.LstdFlags)
	log.SetPrefix("stylechat: ")
	return cfg, nil
}

func applyFlags(cfg *config.Config, flags *pflag.FlagSet) {
	if flags.Changed("knowledge-dir") {
		cfg.KnowledgeDir, _ = flags.GetString("knowledge-dir")
	}
	if flags.Changed("index-path") {
		cfg.IndexPath, _ = flags.GetString("index-path")
	}
	if flags.Changed("verbose") {
		cfg.Debug, _ = flags.GetBool("verbose")
	}
}
