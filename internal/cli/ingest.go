package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ragmcp/internal/config"
	"ragmcp/internal/progress"
	"ragmcp/internal/service"
)

var (
	ingestRecursive bool
	ingestJSON      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [directory]",
	Short: "Index documents into the vector store",
	Long: `Reads every .txt, .md and .markdown file in the directory, splits it into
overlapping chunks, embeds the chunks and saves the vector store snapshot.

The previous contents of the store are replaced. Without an argument the
documents_dir from the config is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestRecursive, "recursive", "r", false, "descend into subdirectories")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "print the ingestion report as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	reporter := progress.New(!ingestJSON && progress.Enabled())
	a, err := newIngestApp(cmd.Context(), reporter, func(cfg *config.AppConfig) {
		if cmd.Flags().Changed("recursive") {
			cfg.Ingest.Recursive = ingestRecursive
		}
	})
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	dir := a.cfg.Ingest.DocumentsDir
	if len(args) == 1 {
		dir = args[0]
	}

	report, err := a.svc.IngestDirectory(cmd.Context(), dir)
	if ingestJSON {
		if jerr := printJSON(cmd, report); jerr != nil {
			return jerr
		}
		return err
	}
	if err != nil {
		cmd.Printf("%s ingestion failed at %s: %v\n", boldRed("✗"), report.FailedAt, err)
		return err
	}
	printIngestReport(cmd, report)
	return nil
}

func printIngestReport(cmd *cobra.Command, r service.IngestReport) {
	cmd.Println(boldGreen("✓ Ingestion complete"))
	cmd.Printf("  Documents processed: %d\n", r.Documents)
	if r.SkippedFiles > 0 {
		cmd.Printf("  Files skipped:       %d\n", r.SkippedFiles)
	}
	cmd.Printf("  Chunks created:      %d\n", r.Chunks)
	cmd.Printf("  Chunks embedded:     %d\n", r.Embedded)
	if r.FailedBatches > 0 {
		cmd.Printf("  Failed batches:      %s\n", boldRed(r.FailedBatches))
	}
	cmd.Printf("  %s\n", faint(r.Detail))
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
