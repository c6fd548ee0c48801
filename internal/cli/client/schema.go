package client

import (
	"github.com/spf13/cobra"
)

// SchemaCmd returns the schema command
func SchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the discovered database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := NewAPIClient(cmd)

			refresh, _ := cmd.Flags().GetBool("refresh")
			var raw []byte
			var err error
			if refresh {
				raw, err = api.Post("/schema/refresh", nil)
			} else {
				raw, err = api.Get("/schema")
			}
			if err != nil {
				return err
			}

			return printJSON(raw)
		},
	}

	cmd.Flags().Bool("refresh", false, "Force a new introspection pass before printing")
	return cmd
}
