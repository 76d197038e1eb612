package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nconklindev/bulksheet/internal/assembler"
	"github.com/nconklindev/bulksheet/internal/config"
	"github.com/nconklindev/bulksheet/internal/dataset"
	"github.com/nconklindev/bulksheet/internal/types"
	"github.com/nconklindev/bulksheet/internal/ui"
)

func (a *app) newGenerateCommand() *cobra.Command {
	var flags jobFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write one sheet per data row",
		Example: `  bulksheet generate -d people.csv -t invoice.xlsx -s Invoice -m Name=B2 -m Amount=C7 -o invoices.xlsx
  bulksheet generate --job invoices.yaml
  bulksheet generate -d people.csv -m 1=A1 -o people.ods`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			if err := job.Validate(); err != nil {
				return err
			}
			return a.generate(cmd, job)
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) generate(cmd *cobra.Command, job *config.Job) error {
	ds, req, err := a.load(job)
	if err != nil {
		return err
	}

	a.logger.Debug("generating", "rows", len(ds.Rows), "template", req.Template, "sheet", req.Sheet, "output", req.Output)
	start := time.Now()
	res, err := assembler.Generate(req, assembler.Options{})
	if err != nil {
		return err
	}
	for _, r := range res.Rejected {
		a.logger.Warn("mapping skipped", "reason", r)
	}
	a.logger.Debug("done", "elapsed", time.Since(start).Round(time.Millisecond))

	fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessStyle.Render(fmt.Sprintf("✓ %d sheet(s) written to %s", res.Sheets, res.Output)))
	return nil
}

// load reads the job's data file and builds the request.
func (a *app) load(job *config.Job) (*types.Dataset, types.Request, error) {
	ds, err := dataset.Read(job.Data, dataset.Options{
		HasHeader: job.HasHeader(),
		SkipTitle: job.SkipTitle,
		Sheet:     job.DataSheet,
	})
	if err != nil {
		return nil, types.Request{}, fmt.Errorf("read data: %w", err)
	}
	a.logger.Debug("data loaded", "file", job.Data, "columns", ds.Width(), "rows", len(ds.Rows))

	req, err := job.Request(ds)
	if err != nil {
		return nil, types.Request{}, err
	}
	return ds, req, nil
}
