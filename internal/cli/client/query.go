package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ekamlabs/ekamquery/internal/domain"
)

// QueryCmd returns the query command
func QueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a question over the database and document corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			api := NewAPIClient(cmd)

			raw, err := api.Post("/query", map[string]string{"query": question})
			if err != nil {
				return err
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return printJSON(raw)
			}

			var response domain.QueryResponse
			if err := json.Unmarshal(raw, &response); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			printResponse(&response)
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "Print the raw response envelope")
	return cmd
}

func printResponse(response *domain.QueryResponse) {
	fmt.Printf("type: %s  cache: %s  took: %.3fs\n",
		response.QueryType, response.CacheStatus, response.PerformanceMetrics.TotalTimeSeconds)

	if response.SQLResult != nil {
		fmt.Printf("\nsql> %s\n", response.SQLResult.GeneratedQuery)
		if response.SQLResult.IsError() {
			fmt.Printf("error: %v\n", response.SQLResult.Rows[0][0])
		} else {
			printTable(response.SQLResult)
		}
	}

	for _, answer := range response.DocumentResults {
		fmt.Printf("\ndoc> %s (chunk %d, similarity %.2f)\n  %s\n",
			answer.SourceFile, answer.ChunkIndex, answer.SimilarityScore, answer.Answer)
	}

	if response.SQLResult == nil && len(response.DocumentResults) == 0 {
		fmt.Println("no results")
	}
}

func printTable(result *domain.SQLResult) {
	fmt.Println(strings.Join(result.Columns, " | "))
	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if cell == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = fmt.Sprintf("%v", cell)
			}
		}
		fmt.Println(strings.Join(cells, " | "))
	}
	fmt.Printf("(%d rows)\n", len(result.Rows))
}
