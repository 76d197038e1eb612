// Package dataset reads the rows that drive a generation run from CSV or
// spreadsheet files.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nconklindev/bulksheet/internal/types"
)

// RowDetectionLimit bounds how many leading rows are inspected when looking
// for a spreadsheet's header row below a title block.
const RowDetectionLimit = 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrUnsupported is returned for file types Read cannot parse.
var ErrUnsupported = errors.New("unsupported data file")

// Options control how a data file is read.
type Options struct {
	// HasHeader treats the first row as column labels instead of data.
	HasHeader bool
	// SkipTitle looks for the header below a title block in spreadsheet
	// files; rows above it are discarded. Only applies with HasHeader.
	SkipTitle bool
	// Sheet selects a spreadsheet sheet. The first sheet is used when empty.
	Sheet string
}

// Read loads path according to its extension.
func Read(path string, opts Options) (*types.Dataset, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var (
		ds  *types.Dataset
		err error
	)
	switch ext {
	case ".csv", ".txt":
		ds, err = readCSV(path, opts)
	case ".xlsx", ".xlsm":
		ds, err = readXLSX(path, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	if err != nil {
		return nil, err
	}
	ds.Source = path
	return ds, nil
}

func readCSV(path string, opts Options) (*types.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseCSV(file, opts)
}

// ParseCSV reads CSV records from r. Rows may have differing widths.
func ParseCSV(r io.Reader, opts Options) (*types.Dataset, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return split(records, 0, opts.HasHeader)
}

func readXLSX(path string, opts Options) (*types.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetName := opts.Sheet
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	headerIdx := 0
	if opts.HasHeader && opts.SkipTitle {
		if idx := findHeaderRow(rows); idx > 0 {
			headerIdx = idx
		}
	}
	return split(rows, headerIdx, opts.HasHeader)
}

func split(rows [][]string, headerIdx int, hasHeader bool) (*types.Dataset, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: file has no rows", types.ErrInputEmpty)
	}
	if !hasHeader {
		return &types.Dataset{Rows: rows}, nil
	}
	return &types.Dataset{
		Headers: rows[headerIdx],
		Rows:    rows[headerIdx+1:],
	}, nil
}

// findHeaderRow locates the first row that appears to be a header
// by finding the row with the most non-empty text cells
func findHeaderRow(rows [][]string) int {
	maxNonEmpty := 0
	headerIdx := -1

	searchLimit := min(len(rows), RowDetectionLimit)
	for i := 0; i < searchLimit; i++ {
		nonEmptyCount := 0
		hasText := false

		for _, cell := range rows[i] {
			trimmed := strings.TrimSpace(cell)
			if trimmed != "" {
				nonEmptyCount++
				if containsLetters(trimmed) {
					hasText = true
				}
			}
		}

		if nonEmptyCount >= 2 && hasText && nonEmptyCount > maxNonEmpty {
			maxNonEmpty = nonEmptyCount
			headerIdx = i
		}
	}

	return headerIdx
}

func containsLetters(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

// Labels returns one display label per column: the header text, or
// "Column N" when the header is missing or blank.
func Labels(ds *types.Dataset) []string {
	labels := make([]string, ds.Width())
	for i := range labels {
		if i < len(ds.Headers) && strings.TrimSpace(ds.Headers[i]) != "" {
			labels[i] = strings.TrimSpace(ds.Headers[i])
			continue
		}
		labels[i] = "Column " + strconv.Itoa(i+1)
	}
	return labels
}

// ResolveColumn turns a user-supplied column reference into a zero-based
// index. It accepts a 1-based number or a header label, compared without
// regard to case.
func ResolveColumn(ds *types.Dataset, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, errors.New("empty column reference")
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 {
			return 0, fmt.Errorf("column %d: numbers start at 1", n)
		}
		return n - 1, nil
	}
	for i, label := range Labels(ds) {
		if strings.EqualFold(label, ref) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no column named %q", ref)
}
