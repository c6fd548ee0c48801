package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ResetCmd returns the reset command
func ResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the entire document corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return fmt.Errorf("corpus reset is irreversible; pass --yes to confirm")
			}

			api := NewAPIClient(cmd)
			if _, err := api.Delete("/corpus"); err != nil {
				return err
			}

			fmt.Println("corpus reset")
			return nil
		},
	}

	cmd.Flags().Bool("yes", false, "Confirm the reset")
	return cmd
}
