package cli

import (
	"github.com/spf13/cobra"

	"github.com/nconklindev/bulksheet/internal/config"
)

// jobFlags are the job settings accepted on the command line. Any flag set
// explicitly overrides the job file.
type jobFlags struct {
	job       string
	data      string
	header    bool
	dataSheet string
	skipTitle bool
	template  string
	sheet     string
	format    string
	prefix    string
	output    string
	maps      []string
}

func (f *jobFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.job, "job", "j", "", "YAML job file")
	fl.StringVarP(&f.data, "data", "d", "", "CSV or XLSX file with one row per sheet")
	fl.BoolVar(&f.header, "header", true, "Treat the first data row as column labels")
	fl.StringVar(&f.dataSheet, "data-sheet", "", "Sheet to read when the data file is a workbook")
	fl.BoolVar(&f.skipTitle, "skip-title", false, "Look for the header row below a title block in workbook data files")
	fl.StringVarP(&f.template, "template", "t", "", "Template workbook (.xlsx)")
	fl.StringVarP(&f.sheet, "sheet", "s", "", "Template sheet to clone")
	fl.StringVar(&f.format, "format", "", "Output format: xlsx or ods (default from output extension)")
	fl.StringVar(&f.prefix, "prefix", "", "Sheet name prefix for ods output (default \"Sheet\")")
	fl.StringVarP(&f.output, "output", "o", "", "Output file")
	fl.StringArrayVarP(&f.maps, "map", "m", nil, "Mapping COLUMN=CELL, e.g. Name=B2 or 3=C7 (repeatable)")
}

// resolve loads the job file, if any, and applies the flags on top.
func (f *jobFlags) resolve(cmd *cobra.Command) (*config.Job, error) {
	job := &config.Job{}
	if f.job != "" {
		loaded, err := config.Load(f.job)
		if err != nil {
			return nil, err
		}
		job = loaded
	}

	override := config.Job{
		Data:        f.data,
		DataSheet:   f.dataSheet,
		SkipTitle:   f.skipTitle,
		Template:    f.template,
		Sheet:       f.sheet,
		Format:      f.format,
		SheetPrefix: f.prefix,
		Output:      f.output,
	}
	if cmd.Flags().Changed("header") {
		header := f.header
		override.Header = &header
	}
	for _, s := range f.maps {
		m, err := config.ParseMapping(s)
		if err != nil {
			return nil, err
		}
		override.Mappings = append(override.Mappings, m)
	}
	job.Override(override)
	return job, nil
}
