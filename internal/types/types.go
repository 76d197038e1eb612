package types

// Dataset is a parsed tabular input: an optional header row plus data rows.
type Dataset struct {
	Source  string
	Headers []string
	Rows    [][]string
}

// Width returns the widest row length, headers included.
func (d *Dataset) Width() int {
	w := len(d.Headers)
	for _, row := range d.Rows {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// ColumnMapping ties a source column to a destination cell reference as typed
// by the user, e.g. {Column: 2, Cell: "B4"}.
type ColumnMapping struct {
	Column int    `yaml:"column"`
	Cell   string `yaml:"cell"`
}

// Request describes one generation run.
type Request struct {
	// Rows are the data rows, header already removed.
	Rows [][]string
	// Mappings are applied in order; the last mapping for a cell wins.
	Mappings []ColumnMapping
	// Template is the workbook to clone. Empty when synthesizing an ODF package.
	Template string
	// Sheet is the template sheet's display name.
	Sheet string
	// Format selects the output container: "xlsx" or "ods".
	Format string
	// SheetPrefix names synthesized ODF tables. Defaults to "Sheet".
	SheetPrefix string
	// Output is the destination path.
	Output string
}

// Result reports a completed run.
type Result struct {
	Output string
	Sheets int
	Names  []string
	// Rejected describes mappings dropped during validation.
	Rejected []string
}
