package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"ragmcp/internal/domain"
	"ragmcp/internal/service"
)

var (
	queryTopK          int
	queryMinSimilarity float64
	queryJSON          bool
	queryRaw           bool
)

var queryCmd = &cobra.Command{
	Use:   "query <question...>",
	Short: "Ask a question against the indexed documents",
	Long: `Embeds the question, retrieves the most similar chunks from the vector
store and generates an answer with the configured generator.

Use --raw to print the retrieved chunks without generating an answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks to retrieve (0 = config default)")
	queryCmd.Flags().Float64Var(&queryMinSimilarity, "min-similarity", 0, "minimum cosine similarity between 0 and 1")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryRaw, "raw", false, "print retrieved chunks only")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck
	a.requireIndex()

	req := service.QueryRequest{
		Query:         strings.Join(args, " "),
		TopK:          queryTopK,
		MinSimilarity: queryMinSimilarity,
	}
	if a.cfg.Query.MinSimilarity > 0 && !cmd.Flags().Changed("min-similarity") {
		req.MinSimilarity = a.cfg.Query.MinSimilarity
	}

	if queryRaw {
		results, err := a.svc.Retrieve(cmd.Context(), req)
		if err != nil {
			return err
		}
		hits := service.Hits(results)
		if queryJSON {
			return printJSON(cmd, hits)
		}
		cmd.Print(service.FormatHits(hits))
		return nil
	}

	resp, err := a.svc.Query(cmd.Context(), req)
	if err != nil {
		return err
	}
	if queryJSON {
		return printJSON(cmd, resp)
	}
	printResponse(cmd, resp)
	return nil
}

func printResponse(cmd *cobra.Command, resp domain.RagResponse) {
	rule := strings.Repeat("=", 80)
	cmd.Println(rule)
	cmd.Printf("%s %s\n", boldCyan("Query:"), resp.Query)
	cmd.Println(rule)
	cmd.Println()
	cmd.Println(boldGreen("Answer:"))
	cmd.Println(resp.Answer)
	cmd.Println()
	cmd.Printf("Sources (%d chunks retrieved):\n", resp.RetrievedCount)
	for i, s := range resp.Sources {
		cmd.Println()
		cmd.Printf("  [%d] %s\n", i+1, s.Title)
		cmd.Printf("      Source: %s\n", s.Source)
		cmd.Printf("      Similarity: %.3f\n", s.Similarity)
		cmd.Printf("      %s\n", faint(s.Excerpt))
	}
}
