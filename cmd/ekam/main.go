package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ekamlabs/ekamquery/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "ekam",
		Short: "Ekam CLI - hybrid queries over databases and documents",
		Long: `Ekam CLI talks to a running ekamd server.

Environment variables:
  EKAM_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")

	rootCmd.AddCommand(client.QueryCmd())
	rootCmd.AddCommand(client.IngestCmd())
	rootCmd.AddCommand(client.SchemaCmd())
	rootCmd.AddCommand(client.ResetCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
