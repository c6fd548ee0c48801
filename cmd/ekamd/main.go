package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ekamlabs/ekamquery/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ekamd",
		Short: "Ekam query daemon",
		Long:  "Ekam daemon for running the hybrid query API server over a Postgres database and document corpus",
	}

	rootCmd.AddCommand(cli.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
