package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ekamlabs/ekamquery/internal/ingest"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Upload documents (PDF, DOCX, plain text) into the corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api := NewAPIClient(cmd)

			raw, err := api.PostFiles("/ingest", args)
			if err != nil {
				return err
			}

			var stats ingest.Stats
			if err := json.Unmarshal(raw, &stats); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			fmt.Printf("ingested %d document(s), %d chunk(s)\n",
				stats.TotalDocumentsIngested, stats.TotalChunksCreated)
			return nil
		},
	}
}
