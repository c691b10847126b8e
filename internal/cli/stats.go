package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what the vector store holds",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	st := a.svc.Stats()
	if statsJSON {
		return printJSON(cmd, st)
	}

	cmd.Printf("%s %s\n", boldCyan("Store:"), st.Path)
	if st.Snapshot == nil {
		cmd.Println("  No snapshot found. Run `ragmcp ingest` first.")
		return nil
	}
	cmd.Printf("  Chunks:          %d (%d embedded)\n", st.Chunks, st.Embedded)
	cmd.Printf("  Sources:         %d\n", st.Sources)
	cmd.Printf("  Embedding model: %s\n", st.Snapshot.EmbeddingModel)
	cmd.Printf("  Chunk size:      %d\n", st.Snapshot.ChunkSize)
	cmd.Printf("  Created at:      %s\n", st.Snapshot.CreatedAt)
	cmd.Printf("  Version:         %s\n", st.Snapshot.Version)
	if len(st.Snapshot.Sources) > 0 {
		cmd.Printf("  Files:\n    %s\n", strings.Join(st.Snapshot.Sources, "\n    "))
	}
	return nil
}
