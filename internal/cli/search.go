package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloo-solutions/stylechat/internal/service"
	"github.com/spf13/cobra"
)

type searchResult struct {
	Tag   string  `json:"tag"`
	ID    string  `json:"id"`
	Score float32 `json:"score"`
	Text  string  `json:"text"`
}

type searchOutput struct {
	Query   string         `json:"query"`
	Context string         `json:"context"`
	Results []searchResult `json:"results"`
}

func SearchCmd() *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Show the context retrieved for a query",
		Long:  "Embeds the query and prints the top-K chunks exactly as they would be sent to the model.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			return runSearch(cmd, strings.Join(args, " "), k, asJSON)
		},
	}

	cmd.Flags().IntVarP(&k, "top-k", "k", service.DefaultTopK, "Number of chunks to retrieve")
	cmd.Flags().Bool("json", false, "Output as JSON")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, k int, asJSON bool) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	retrieval, err := app.Retriever.RetrieveK(ctx, query, k)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		res := searchOutput{Query: query, Context: retrieval.Context, Results: []searchResult{}}
		for _, c := range retrieval.Chunks {
			res.Results = append(res.Results, searchResult{Tag: c.Tag(), ID: c.ID, Score: c.Score, Text: c.Content})
		}
		output, _ := json.MarshalIndent(res, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	if len(retrieval.Chunks) == 0 {
		fmt.Fprintln(out, "No results found. Run `stylechat index` first.")
		return nil
	}

	for i, c := range retrieval.Chunks {
		fmt.Fprintf(out, "%d. %s (%.3f)\n", i+1, c.Tag(), c.Score)
	}
	fmt.Fprintf(out, "\n%s\n", strings.Repeat("-", 40))
	fmt.Fprintln(out, retrieval.Context)
	return nil
}
