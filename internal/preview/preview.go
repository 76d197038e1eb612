// Package preview shows what a run would change before anything is written:
// the template's sheets and, per mapping, the current and incoming values.
package preview

import (
	"fmt"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/nconklindev/bulksheet/internal/cellref"
	"github.com/nconklindev/bulksheet/internal/container"
	"github.com/nconklindev/bulksheet/internal/dataset"
	"github.com/nconklindev/bulksheet/internal/types"
	"github.com/nconklindev/bulksheet/internal/workbook"
)

// Entry describes one mapping against the template and the first data row.
type Entry struct {
	Column  int
	Label   string
	Cell    string
	Current string
	Next    string
	// Problem is set when the mapping would be skipped or has no value.
	Problem string
}

// Report is the preview of a whole mapping list.
type Report struct {
	Sheet   string
	Rows    int
	Entries []Entry
}

// Valid counts entries without a problem.
func (r *Report) Valid() int {
	n := 0
	for _, e := range r.Entries {
		if e.Problem == "" {
			n++
		}
	}
	return n
}

// Sheets lists the sheet names of a template workbook in order.
func Sheets(path string) ([]string, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// Build previews ms against sheet of the template at path, using the first
// row of ds as the incoming values.
func Build(path, sheet string, ds *types.Dataset, ms []types.ColumnMapping) (*Report, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Generation matches names exactly; excelize lookups ignore case.
	if !slices.Contains(f.GetSheetList(), sheet) {
		return nil, fmt.Errorf("%w: %q", workbook.ErrSheetNotFound, sheet)
	}

	labels := dataset.Labels(ds)
	var first []string
	if len(ds.Rows) > 0 {
		first = ds.Rows[0]
	}

	report := &Report{Sheet: sheet, Rows: len(ds.Rows)}
	for _, m := range ms {
		e := Entry{Column: m.Column, Cell: cellref.Normalize(m.Cell)}
		if m.Column >= 0 && m.Column < len(labels) {
			e.Label = labels[m.Column]
		} else {
			e.Label = fmt.Sprintf("Column %d", m.Column+1)
		}

		addr, ok := cellref.Decode(e.Cell)
		switch {
		case e.Cell == "":
			e.Problem = "no destination cell"
		case !ok:
			e.Problem = "invalid cell reference"
		}
		if ok {
			e.Cell = cellref.Encode(addr)
			e.Current, err = f.GetCellValue(sheet, e.Cell)
			if err != nil {
				return nil, fmt.Errorf("read %s!%s: %w", sheet, e.Cell, err)
			}
		}

		if m.Column >= 0 && m.Column < len(first) {
			e.Next = first[m.Column]
		} else if e.Problem == "" {
			e.Problem = "first row has no value for this column"
		}
		report.Entries = append(report.Entries, e)
	}
	return report, nil
}

func open(path string) (*excelize.File, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", container.ErrOpenSource, path, err)
	}
	return f, nil
}
