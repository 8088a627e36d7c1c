package cli

import (
	"fmt"
	"log"

	"github.com/cloo-solutions/stylechat/internal/loader"
	"github.com/cloo-solutions/stylechat/internal/service"
	"github.com/spf13/cobra"
)

func ProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Derive the style profile from sample texts",
		Long: `Reads up to six sample texts from the style directory, asks the chat model
to describe their tone and structure, and writes the resulting profile.
Run this once before chatting.`,
		Args: cobra.NoArgs,
		RunE: runProfile,
	}

	cmd.Flags().String("style-dir", "", "Directory with style samples (overrides STYLECHAT_STYLE_DIR)")
	cmd.Flags().StringP("out", "o", "", "Profile output path (overrides STYLECHAT_STYLE_PROFILE)")

	return cmd
}

func runProfile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("style-dir") {
		cfg.StyleDir, _ = cmd.Flags().GetString("style-dir")
	}
	if cmd.Flags().Changed("out") {
		cfg.StyleProfilePath, _ = cmd.Flags().GetString("out")
	}

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	profiler := service.NewStyleProfiler(loader.New(loader.NewFSSource(cfg.StyleDir)), app.Chat)
	profile, err := profiler.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build style profile from %s: %w", cfg.StyleDir, err)
	}

	if err := service.SaveStyleProfile(cfg.StyleProfilePath, profile); err != nil {
		return err
	}

	log.Printf("style profile written to %s", cfg.StyleProfilePath)
	fmt.Fprintln(cmd.OutOrStdout(), profile.Text)
	return nil
}
