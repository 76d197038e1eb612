package patcher

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nconklindev/bulksheet/internal/cellref"
	"github.com/nconklindev/bulksheet/internal/mapping"
	"github.com/nconklindev/bulksheet/internal/types"
)

const (
	cellA1 = `<c r="A1" s="1" t="s"><v>0</v></c>`
	cellB1 = `<c r="B1" t="s"><v>1</v></c>`
	cellA2 = `<c r="A2" s="4"><f>SUM(1,2)</f><v>3</v></c>`
	cellB2 = `<c r="B2" s="2"/>`
)

const sheet = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><dimension ref="A1:B2"/><sheetData>
  <row r="1" spans="1:2">` + cellA1 + cellB1 + `</row>
  <row r="2" spans="1:2">` + cellA2 + cellB2 + `</row>
</sheetData><pageMargins left="0.7" right="0.7" top="0.75" bottom="0.75" header="0.3" footer="0.3"/></worksheet>`

func repl(pairs ...string) *mapping.Replacements {
	r := mapping.NewReplacements()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(cellref.MustDecode(pairs[i]), pairs[i+1])
	}
	return r
}

func TestPatchEmptyReplacementsIsIdentity(t *testing.T) {
	body := []byte(sheet)
	got, err := Patch(body, mapping.NewReplacements())
	require.NoError(t, err)
	assert.Equal(t, body, got)

	got, err = Patch(body, nil)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestPatchReplacesOnlyTargetCell(t *testing.T) {
	got, err := Patch([]byte(sheet), repl("A1", "new"))
	require.NoError(t, err)

	want := strings.Replace(sheet, cellA1, `<c r="A1" s="1" t="inlineStr"><is><t>new</t></is></c>`, 1)
	assert.Equal(t, want, string(got))
	assert.Contains(t, string(got), cellB1, "untouched cell is byte-identical")
}

func TestPatchDropsFormulaAndCachedValue(t *testing.T) {
	got, err := Patch([]byte(sheet), repl("a2", "text"))
	require.NoError(t, err)

	want := strings.Replace(sheet, cellA2, `<c r="A2" s="4" t="inlineStr"><is><t>text</t></is></c>`, 1)
	assert.Equal(t, want, string(got))
	assert.NotContains(t, string(got), "SUM(1,2)")
}

func TestPatchSelfClosingCell(t *testing.T) {
	got, err := Patch([]byte(sheet), repl("B2", "filled"))
	require.NoError(t, err)

	want := strings.Replace(sheet, cellB2, `<c r="B2" s="2" t="inlineStr"><is><t>filled</t></is></c>`, 1)
	assert.Equal(t, want, string(got))
}

func TestPatchEscapesValue(t *testing.T) {
	got, err := Patch([]byte(sheet), repl("B1", `Tom & "Jerry" <'s>`))
	require.NoError(t, err)
	assert.Contains(t, string(got),
		`<c r="B1" t="inlineStr"><is><t>Tom &amp; &quot;Jerry&quot; &lt;&apos;s&gt;</t></is></c>`)
}

func TestPatchPreservesEdgeWhitespace(t *testing.T) {
	got, err := Patch([]byte(sheet), repl("A1", "  padded "))
	require.NoError(t, err)
	assert.Contains(t, string(got), `<t xml:space="preserve">  padded </t>`)
}

func TestPatchInsertsMissingCells(t *testing.T) {
	got, err := Patch([]byte(sheet), repl("D1", "d1", "C1", "c1", "A4", "a4", "B3", "b3"))
	require.NoError(t, err)
	out := string(got)

	row1 := `<row r="1" spans="1:2">` + cellA1 + cellB1 +
		`<c r="C1" t="inlineStr"><is><t>c1</t></is></c>` +
		`<c r="D1" t="inlineStr"><is><t>d1</t></is></c></row>`
	assert.Contains(t, out, row1)

	tail := `<row r="3"><c r="B3" t="inlineStr"><is><t>b3</t></is></c></row>` +
		`<row r="4"><c r="A4" t="inlineStr"><is><t>a4</t></is></c></row></sheetData>`
	assert.Contains(t, out, tail)
}

func TestPatchInsertsBetweenExistingCellsAndRows(t *testing.T) {
	body := `<worksheet><sheetData><row r="1"><c r="A1"><v>1</v></c><c r="C1"><v>3</v></c></row><row r="5"><c r="A5"><v>5</v></c></row></sheetData></worksheet>`
	got, err := Patch([]byte(body), repl("B1", "b", "A3", "a"))
	require.NoError(t, err)

	want := `<worksheet><sheetData><row r="1"><c r="A1"><v>1</v></c>` +
		`<c r="B1" t="inlineStr"><is><t>b</t></is></c>` +
		`<c r="C1"><v>3</v></c></row>` +
		`<row r="3"><c r="A3" t="inlineStr"><is><t>a</t></is></c></row>` +
		`<row r="5"><c r="A5"><v>5</v></c></row></sheetData></worksheet>`
	assert.Equal(t, want, string(got))
}

func TestPatchExpandsSelfClosingContainers(t *testing.T) {
	got, err := Patch([]byte(`<worksheet><sheetData/></worksheet>`), repl("B2", "x"))
	require.NoError(t, err)
	assert.Equal(t,
		`<worksheet><sheetData><row r="2"><c r="B2" t="inlineStr"><is><t>x</t></is></c></row></sheetData></worksheet>`,
		string(got))

	got, err = Patch([]byte(`<worksheet><sheetData><row r="2" ht="20"/></sheetData></worksheet>`), repl("A2", "y"))
	require.NoError(t, err)
	assert.Equal(t,
		`<worksheet><sheetData><row r="2" ht="20"><c r="A2" t="inlineStr"><is><t>y</t></is></c></row></sheetData></worksheet>`,
		string(got))
}

func TestPatchCellsWithoutReference(t *testing.T) {
	body := `<worksheet><sheetData><row><c><v>1</v></c><c><v>2</v></c></row><row><c><v>3</v></c></row></sheetData></worksheet>`
	got, err := Patch([]byte(body), repl("B1", "two", "A2", "three"))
	require.NoError(t, err)

	want := `<worksheet><sheetData><row><c><v>1</v></c>` +
		`<c r="B1" t="inlineStr"><is><t>two</t></is></c></row>` +
		`<row><c r="A2" t="inlineStr"><is><t>three</t></is></c></row></sheetData></worksheet>`
	assert.Equal(t, want, string(got))
}

func TestPatchKeepsNamespacePrefix(t *testing.T) {
	body := `<x:worksheet xmlns:x="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><x:sheetData><x:row r="1"><x:c r="A1" t="n"><x:v>1</x:v></x:c></x:row></x:sheetData></x:worksheet>`
	got, err := Patch([]byte(body), repl("A1", "v", "B1", "w"))
	require.NoError(t, err)

	want := `<x:worksheet xmlns:x="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><x:sheetData><x:row r="1">` +
		`<x:c r="A1" t="inlineStr"><x:is><x:t>v</x:t></x:is></x:c>` +
		`<x:c r="B1" t="inlineStr"><x:is><x:t>w</x:t></x:is></x:c>` +
		`</x:row></x:sheetData></x:worksheet>`
	assert.Equal(t, want, string(got))
}

func TestPatchIgnoresCellsOutsideSheetData(t *testing.T) {
	body := `<worksheet><sheetData><row r="1"><c r="A1"><v>1</v></c></row></sheetData><extLst><c r="A1"/></extLst></worksheet>`
	got, err := Patch([]byte(body), repl("A1", "z"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(got), `<extLst><c r="A1"/></extLst></worksheet>`))
}

func TestPatchMalformed(t *testing.T) {
	for _, body := range []string{
		`<worksheet><sheetData><row r="1"><c r="A1"><v>1</v></row></sheetData></worksheet>`,
		`<worksheet><sheetData>`,
		`<worksheet attr=novalue/>`,
	} {
		_, err := Patch([]byte(body), repl("A1", "x"))
		require.Error(t, err, body)
		assert.True(t, errors.Is(err, ErrMalformedXML))
		assert.Equal(t, types.KindMalformedXML, types.KindOf(err))
	}
}

func TestPatchWithoutSheetData(t *testing.T) {
	body := `<worksheet><dimension ref="A1"/></worksheet>`
	_, err := Patch([]byte(body), repl("A1", "n", "B2", "m"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedXML))
	assert.Equal(t, types.KindMalformedXML, types.KindOf(err))

	got, err := Patch([]byte(body), mapping.NewReplacements())
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestPatchIsPure(t *testing.T) {
	body := []byte(sheet)
	r := repl("A1", "one")
	first, err := Patch(body, r)
	require.NoError(t, err)
	second, err := Patch(body, r)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, sheet, string(body))
}
