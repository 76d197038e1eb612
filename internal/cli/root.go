// Package cli wires the bulksheet commands.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nconklindev/bulksheet/internal/types"
)

// BuildInfo is stamped into the binary at release time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type app struct {
	info    BuildInfo
	verbose bool
	logger  *log.Logger
}

// NewRootCommand returns the bulksheet command tree. Without a subcommand it
// starts the interactive wizard.
func NewRootCommand(info BuildInfo) *cobra.Command {
	a := &app{info: info}

	root := &cobra.Command{
		Use:   "bulksheet",
		Short: "Generate one worksheet per data row from a template",
		Long: `bulksheet clones a template worksheet once per row of a CSV or XLSX file
and writes the row's values into the cells you choose. Everything else in the
template (styles, formulas, other parts) is carried over untouched.`,
		Version:       info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = newLogger(cmd.ErrOrStderr(), a.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI()
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("bulksheet %s\ncommit: %s\nbuilt: %s\n", info.Version, info.Commit, info.Date))
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Log debug details to stderr")

	root.AddCommand(
		a.newGenerateCommand(),
		a.newSheetsCommand(),
		a.newPreviewCommand(),
		a.newInitCommand(),
		a.newTUICommand(),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(info BuildInfo) int {
	root := NewRootCommand(info)
	if err := root.Execute(); err != nil {
		logger := newLogger(os.Stderr, false)
		logError(logger, err)
		return 1
	}
	return 0
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "bulksheet",
		ReportTimestamp: false,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// logError reports err with the explanation for its kind when it has one.
func logError(logger *log.Logger, err error) {
	kind := types.KindOf(err)
	if kind == types.KindUnknown {
		logger.Error(err.Error())
		return
	}
	logger.Error(types.Message(kind), "kind", kind, "err", err)
}
