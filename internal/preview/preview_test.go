package preview_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nconklindev/bulksheet/internal/preview"
	"github.com/nconklindev/bulksheet/internal/types"
	"github.com/nconklindev/bulksheet/internal/workbook"
	"github.com/nconklindev/bulksheet/internal/workbook/workbooktest"
)

func TestSheets(t *testing.T) {
	path := workbooktest.ExcelizeTemplate(t, t.TempDir())

	names, err := preview.Sheets(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Invoice", "Notes"}, names)

	_, err = preview.Sheets(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Equal(t, types.KindContainerOpenFailed, types.KindOf(err))
}

func TestBuild(t *testing.T) {
	path := workbooktest.ExcelizeTemplate(t, t.TempDir())
	ds := &types.Dataset{
		Headers: []string{"Customer", "Amount"},
		Rows:    [][]string{{"Acme", "100"}, {"Globex", "250"}},
	}
	ms := []types.ColumnMapping{
		{Column: 0, Cell: "b2"},
		{Column: 1, Cell: "B3"},
		{Column: 1, Cell: "3B"},
		{Column: 4, Cell: "B4"},
		{Column: 0, Cell: ""},
	}

	report, err := preview.Build(path, "Invoice", ds, ms)
	require.NoError(t, err)
	assert.Equal(t, "Invoice", report.Sheet)
	assert.Equal(t, 2, report.Rows)
	require.Len(t, report.Entries, 5)
	assert.Equal(t, 2, report.Valid())

	assert.Equal(t, preview.Entry{Column: 0, Label: "Customer", Cell: "B2", Current: "(customer)", Next: "Acme"}, report.Entries[0])
	assert.Equal(t, "0", report.Entries[1].Current)
	assert.Equal(t, "100", report.Entries[1].Next)

	assert.Equal(t, "invalid cell reference", report.Entries[2].Problem)
	assert.Empty(t, report.Entries[2].Current)

	assert.Equal(t, "Column 5", report.Entries[3].Label)
	assert.Equal(t, "(due)", report.Entries[3].Current)
	assert.NotEmpty(t, report.Entries[3].Problem)

	assert.Equal(t, "no destination cell", report.Entries[4].Problem)
}

func TestBuildUnknownSheet(t *testing.T) {
	path := workbooktest.ExcelizeTemplate(t, t.TempDir())
	_, err := preview.Build(path, "invoice", &types.Dataset{}, nil)
	assert.ErrorIs(t, err, workbook.ErrSheetNotFound)
}
