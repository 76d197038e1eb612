// Package workbooktest builds template packages for tests.
package workbooktest

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/nconklindev/bulksheet/internal/container"
)

// Names used by the hand-written fixture.
const (
	DataSheet     = "Data"
	TemplateSheet = "Template"
	TemplatePart  = "xl/worksheets/sheet2.xml"
	TemplateRels  = "xl/worksheets/_rels/sheet2.xml.rels"
)

// ContentTypes of the fixture.
const ContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Default Extension="bin" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.printerSettings"/><Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/><Override PartName="/xl/worksheets/sheet1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/><Override PartName="/xl/worksheets/sheet2.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/><Override PartName="/xl/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/><Override PartName="/xl/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"/><Override PartName="/xl/sharedStrings.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"/><Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/><Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/></Types>`

// RootRels of the fixture.
const RootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/></Relationships>`

// Workbook of the fixture: two sheets, the template second, with a print
// area scoped to each.
const Workbook = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><fileVersion appName="xl" lastEdited="7"/><workbookPr defaultThemeVersion="166925"/><bookViews><workbookView xWindow="0" yWindow="0" windowWidth="28800" windowHeight="12300" activeTab="1"/></bookViews><sheets><sheet name="Data" sheetId="1" r:id="rId1"/><sheet name="Template" sheetId="2" r:id="rId2"/></sheets><definedNames><definedName name="_xlnm.Print_Area" localSheetId="0">Data!$A$1:$B$4</definedName><definedName name="_xlnm.Print_Area" localSheetId="1">Template!$A$1:$C$10</definedName><definedName name="Rate">Data!$B$1</definedName></definedNames><calcPr calcId="191029"/></workbook>`

// WorkbookRels of the fixture. rId7 is deliberately the highest id.
const WorkbookRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet2.xml"/><Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="theme/theme1.xml"/><Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/><Relationship Id="rId7" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings" Target="sharedStrings.xml"/></Relationships>`

// DataBody is the non-template worksheet.
const DataBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData><row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1"><v>0.2</v></c></row></sheetData></worksheet>`

// TemplateBody is the template worksheet: A1 and B1 are shared strings,
// A2 a number, B2 a formula and C3 styled but empty.
const TemplateBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><dimension ref="A1:C3"/><sheetViews><sheetView workbookViewId="0"/></sheetViews><sheetFormatPr defaultRowHeight="15"/><sheetData><row r="1" spans="1:3"><c r="A1" s="1" t="s"><v>1</v></c><c r="B1" t="s"><v>2</v></c></row><row r="2" spans="1:3"><c r="A2"><v>42</v></c><c r="B2"><f>A2*2</f><v>84</v></c></row><row r="3" spans="1:3"><c r="C3" s="1"/></row></sheetData><pageMargins left="0.7" right="0.7" top="0.75" bottom="0.75" header="0.3" footer="0.3"/><pageSetup orientation="portrait" r:id="rId1"/></worksheet>`

// TemplateSheetRels references a printer settings part.
const TemplateSheetRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/printerSettings" Target="../printerSettings/printerSettings1.bin"/></Relationships>`

// SharedStrings holds "Rate", "Name" and "Amount".
const SharedStrings = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="3" uniqueCount="3"><si><t>Rate</t></si><si><t>Name</t></si><si><t>Amount</t></si></sst>`

const styles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><fonts count="2"><font><sz val="11"/><name val="Calibri"/></font><font><b/><sz val="11"/><name val="Calibri"/></font></fonts><fills count="2"><fill><patternFill patternType="none"/></fill><fill><patternFill patternType="gray125"/></fill></fills><borders count="1"><border><left/><right/><top/><bottom/><diagonal/></border></borders><cellStyleXfs count="1"><xf numFmtId="0" fontId="0" fillId="0" borderId="0"/></cellStyleXfs><cellXfs count="2"><xf numFmtId="0" fontId="0" fillId="0" borderId="0" xfId="0"/><xf numFmtId="0" fontId="1" fillId="0" borderId="0" xfId="0" applyFont="1"/></cellXfs><cellStyles count="1"><cellStyle name="Normal" xfId="0" builtinId="0"/></cellStyles></styleSheet>`

const theme = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Office Theme"><a:themeElements/></a:theme>`

const core = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:creator>fixture</dc:creator></cp:coreProperties>`

const app = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"><Application>Microsoft Excel</Application></Properties>`

// PrinterSettings is an opaque binary part that must be copied verbatim.
var PrinterSettings = []byte{0x00, 0x01, 0x02, 0xfe, 0xff}

// Parts returns the fixture package in archive order.
func Parts() []container.Part {
	return []container.Part{
		{Name: "[Content_Types].xml", Data: []byte(ContentTypes)},
		{Name: "_rels/.rels", Data: []byte(RootRels)},
		{Name: "docProps/app.xml", Data: []byte(app)},
		{Name: "docProps/core.xml", Data: []byte(core)},
		{Name: "xl/workbook.xml", Data: []byte(Workbook)},
		{Name: "xl/_rels/workbook.xml.rels", Data: []byte(WorkbookRels)},
		{Name: "xl/worksheets/sheet1.xml", Data: []byte(DataBody)},
		{Name: TemplatePart, Data: []byte(TemplateBody)},
		{Name: TemplateRels, Data: []byte(TemplateSheetRels)},
		{Name: "xl/printerSettings/printerSettings1.bin", Data: PrinterSettings, Store: true},
		{Name: "xl/theme/theme1.xml", Data: []byte(theme)},
		{Name: "xl/styles.xml", Data: []byte(styles)},
		{Name: "xl/sharedStrings.xml", Data: []byte(SharedStrings)},
	}
}

// PartSet returns the fixture as a loaded part set.
func PartSet() *container.PartSet {
	return container.NewPartSet(Parts())
}

// Without returns the fixture parts minus the named ones.
func Without(names ...string) *container.PartSet {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var kept []container.Part
	for _, p := range Parts() {
		if !drop[p.Name] {
			kept = append(kept, p)
		}
	}
	return container.NewPartSet(kept)
}

// With returns the fixture parts with the given parts replaced or added.
func With(parts ...container.Part) *container.PartSet {
	ps := PartSet()
	for _, p := range parts {
		ps.Put(p)
	}
	return ps
}

// WriteFixture saves the hand-written fixture as an .xlsx under dir.
func WriteFixture(t testing.TB, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "template.xlsx")
	a := &container.Archive{Format: container.FormatOOXML}
	if err := a.Write(path, Parts()); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// ExcelizeTemplate saves an excelize-built workbook with an "Invoice"
// template sheet and a "Notes" sheet, and returns its path.
func ExcelizeTemplate(t testing.TB, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Invoice"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	if _, err := f.NewSheet("Notes"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		t.Fatalf("new style: %v", err)
	}

	cells := map[string]any{
		"A1": "Invoice",
		"A2": "Customer",
		"B2": "(customer)",
		"A3": "Amount",
		"B3": 0,
		"A4": "Due",
		"B4": "(due)",
	}
	for cell, v := range cells {
		if err := f.SetCellValue("Invoice", cell, v); err != nil {
			t.Fatalf("set %s: %v", cell, err)
		}
	}
	if err := f.SetCellFormula("Invoice", "C3", "B3*1.2"); err != nil {
		t.Fatalf("set formula: %v", err)
	}
	if err := f.SetCellStyle("Invoice", "A1", "A4", bold); err != nil {
		t.Fatalf("set style: %v", err)
	}
	if err := f.SetCellValue("Notes", "A1", "internal"); err != nil {
		t.Fatalf("set notes: %v", err)
	}

	path := filepath.Join(dir, "invoice.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}
