package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nconklindev/bulksheet/internal/preview"
)

func (a *app) newSheetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets <template>",
		Short: "List the sheets of a template workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := preview.Sheets(args[0])
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
