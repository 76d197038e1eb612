package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nconklindev/bulksheet/internal/config"
)

func (a *app) newInitCommand() *cobra.Command {
	var (
		flags jobFlags
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init <job.yaml>",
		Short: "Write a job file from the given flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s exists; use --force to overwrite", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			job, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			if len(job.Mappings) == 0 {
				job.Mappings = []config.Mapping{{Column: "1", Cell: "A1"}}
			}
			if err := job.Validate(); err != nil {
				a.logger.Warn("job is incomplete; edit it before running generate", "problems", err)
			}
			if err := config.Save(path, job); err != nil {
				return err
			}
			a.logger.Info("job written", "file", path)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
