package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nconklindev/bulksheet/internal/preview"
	"github.com/nconklindev/bulksheet/internal/ui"
)

func (a *app) newPreviewCommand() *cobra.Command {
	var flags jobFlags
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show what the first data row would change in the template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			if job.Template == "" || job.Sheet == "" {
				return errors.New("preview needs --template and --sheet")
			}
			ds, req, err := a.load(job)
			if err != nil {
				return err
			}

			report, err := preview.Build(job.Template, job.Sheet, ds, req.Mappings)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func renderReport(r *preview.Report) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#2E9E5B"))).
		Headers("CELL", "COLUMN", "CURRENT", "FIRST ROW", "NOTE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return ui.SelectedStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, e := range r.Entries {
		t.Row(e.Cell, e.Label, e.Current, e.Next, e.Problem)
	}

	summary := fmt.Sprintf("%s: %d of %d mapping(s) usable, %d row(s)", r.Sheet, r.Valid(), len(r.Entries), r.Rows)
	return lipgloss.JoinVertical(lipgloss.Left, t.String(), ui.HelpStyle.Render(summary))
}
