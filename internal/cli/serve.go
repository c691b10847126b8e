package cli

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"ragmcp/internal/config"
	"ragmcp/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve queries over HTTP",
	Long: `Starts an HTTP server with the following endpoints:

  GET  /health      store status
  POST /query       {"query", "topK", "minSimilarity"} -> answer with sources
  POST /search      same input -> ranked chunks
  GET  /mcp/tools   tool descriptions
  POST /mcp/call    {"tool", "arguments"} -> text content`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), nil, func(cfg *config.AppConfig) {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
	})
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck
	a.requireIndex()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	cmd.Printf("HTTP server listening on %s\n", boldCyan(a.cfg.Server.Addr))
	return server.New(a.svc, a.cfg.Server).Run(cmd.Context())
}
