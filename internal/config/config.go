// Package config loads generation jobs from YAML files and command-line
// overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nconklindev/bulksheet/internal/container"
	"github.com/nconklindev/bulksheet/internal/dataset"
	"github.com/nconklindev/bulksheet/internal/types"
)

// Mapping ties a data column, given as a 1-based number or a header label,
// to a template cell.
type Mapping struct {
	Column string `yaml:"column"`
	Cell   string `yaml:"cell"`
}

func (m Mapping) String() string {
	return m.Column + "=" + m.Cell
}

// Job is everything a generation run needs.
type Job struct {
	Data      string `yaml:"data"`
	Header    *bool  `yaml:"header,omitempty"`
	DataSheet string `yaml:"dataSheet,omitempty"`
	// SkipTitle finds the header below a title block in workbook data files.
	SkipTitle bool   `yaml:"skipTitle,omitempty"`

	Template    string `yaml:"template,omitempty"`
	Sheet       string `yaml:"sheet,omitempty"`
	Format      string `yaml:"format,omitempty"`
	SheetPrefix string `yaml:"sheetPrefix,omitempty"`
	Output      string `yaml:"output"`

	Mappings []Mapping `yaml:"mappings"`
}

// Load reads a job file. Relative paths inside it are resolved against the
// file's directory. Unknown keys are rejected.
func Load(path string) (*Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}

	var job Job
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&job); err != nil {
		return nil, fmt.Errorf("parse job file %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for _, p := range []*string{&job.Data, &job.Template, &job.Output} {
		*p = strings.TrimSpace(*p)
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	return &job, nil
}

// Save writes job as YAML.
func Save(path string, job *Job) error {
	b, err := yaml.Marshal(job)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// HasHeader reports whether the data file's first row holds labels. It
// defaults to true.
func (j *Job) HasHeader() bool {
	return j.Header == nil || *j.Header
}

// Override replaces fields of j with the non-empty fields of o. Mappings in
// o replace j's list entirely.
func (j *Job) Override(o Job) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&j.Data, o.Data)
	set(&j.DataSheet, o.DataSheet)
	set(&j.Template, o.Template)
	set(&j.Sheet, o.Sheet)
	set(&j.Format, o.Format)
	set(&j.SheetPrefix, o.SheetPrefix)
	set(&j.Output, o.Output)
	if o.Header != nil {
		j.Header = o.Header
	}
	if o.SkipTitle {
		j.SkipTitle = true
	}
	if len(o.Mappings) > 0 {
		j.Mappings = o.Mappings
	}
}

// Validate reports every missing or inconsistent field at once.
func (j *Job) Validate() error {
	var errs []error
	if j.Data == "" {
		errs = append(errs, errors.New("data file is required"))
	}
	if j.Output == "" {
		errs = append(errs, errors.New("output path is required"))
	}

	format := container.FormatOOXML
	if j.Format != "" {
		f, err := container.ParseFormat(j.Format)
		if err != nil {
			errs = append(errs, err)
		}
		format = f
	} else if f, err := container.FormatFromPath(j.Output); err == nil {
		format = f
	}

	switch {
	case format == container.FormatODF && j.Template != "":
		errs = append(errs, errors.New("ods output is synthesized; drop the template or choose xlsx"))
	case format == container.FormatOOXML && j.Template == "":
		errs = append(errs, errors.New("template workbook is required for xlsx output"))
	case format == container.FormatOOXML && j.Sheet == "":
		errs = append(errs, errors.New("template sheet is required"))
	}

	if len(j.Mappings) == 0 {
		errs = append(errs, errors.New("at least one mapping is required"))
	}
	for i, m := range j.Mappings {
		if strings.TrimSpace(m.Column) == "" {
			errs = append(errs, fmt.Errorf("mapping %d: column is required", i+1))
		}
	}
	return errors.Join(errs...)
}

// Request resolves the job's column references against ds and builds the
// generation request.
func (j *Job) Request(ds *types.Dataset) (types.Request, error) {
	req := types.Request{
		Rows:        ds.Rows,
		Template:    j.Template,
		Sheet:       j.Sheet,
		Format:      j.Format,
		SheetPrefix: j.SheetPrefix,
		Output:      j.Output,
	}
	for i, m := range j.Mappings {
		col, err := dataset.ResolveColumn(ds, m.Column)
		if err != nil {
			return types.Request{}, fmt.Errorf("mapping %d (%s): %w", i+1, m, err)
		}
		req.Mappings = append(req.Mappings, types.ColumnMapping{Column: col, Cell: m.Cell})
	}
	return req, nil
}

// ParseMapping parses the COLUMN=CELL form used on the command line, e.g.
// "Name=B2" or "3=C7". The last '=' separates the two so labels may
// contain one.
func ParseMapping(s string) (Mapping, error) {
	i := strings.LastIndex(s, "=")
	if i <= 0 || i == len(s)-1 {
		return Mapping{}, fmt.Errorf("mapping %q: want COLUMN=CELL", s)
	}
	return Mapping{
		Column: strings.TrimSpace(s[:i]),
		Cell:   strings.TrimSpace(s[i+1:]),
	}, nil
}
