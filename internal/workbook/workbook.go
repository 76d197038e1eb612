// Package workbook models a loaded template package: its content types, the
// workbook's sheet table, the workbook relationships and the template sheet.
package workbook

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nconklindev/bulksheet/internal/container"
	"github.com/nconklindev/bulksheet/internal/xmlstream"
)

// SheetEntry is one <sheet> of the workbook's sheet table.
type SheetEntry struct {
	Name    string
	SheetID int
	RelID   string
}

// Template is the designated sheet and its raw parts.
type Template struct {
	Entry SheetEntry
	// Index is the sheet's position in the sheet table.
	Index    int
	PartName string
	Body     []byte
	// RelsPartName and Rels are set when the sheet has its own
	// relationship part.
	RelsPartName string
	Rels         []byte
}

// Package is a template loaded into memory. It is read-only once Load
// returns.
type Package struct {
	Parts        *container.PartSet
	ContentTypes *ContentTypes

	WorkbookPart     string
	WorkbookRelsPart string
	Sheets           []SheetEntry

	// Worksheets holds worksheet-typed workbook relationships; Other holds
	// every other workbook relationship, in document order.
	Worksheets []Relationship
	Other      []Relationship

	Template Template

	// MaxRelID is the highest numeric suffix among workbook relationship
	// ids. New ids are allocated above it.
	MaxRelID int
}

// structure is the sheet-independent part of a package.
type structure struct {
	contentTypes *ContentTypes
	workbookPart string
	relsPart     string
	sheets       []SheetEntry
	rels         *Relationships
}

// Load builds the package model for the sheet named sheetName. The match
// is exact and case-sensitive.
func Load(parts *container.PartSet, sheetName string) (*Package, error) {
	st, err := readStructure(parts)
	if err != nil {
		return nil, err
	}

	index := -1
	for i, s := range st.sheets {
		if s.Name == sheetName {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheetName)
	}
	entry := st.sheets[index]

	pkg := &Package{
		Parts:            parts,
		ContentTypes:     st.contentTypes,
		WorkbookPart:     st.workbookPart,
		WorkbookRelsPart: st.relsPart,
		Sheets:           st.sheets,
	}

	var target *Relationship
	for i, r := range st.rels.Rels {
		if n, ok := relIDNumber(r.ID); ok && n > pkg.MaxRelID {
			pkg.MaxRelID = n
		}
		if r.IsWorksheet() {
			pkg.Worksheets = append(pkg.Worksheets, r)
			if r.ID == entry.RelID {
				target = &st.rels.Rels[i]
			}
			continue
		}
		pkg.Other = append(pkg.Other, r)
	}
	if target == nil {
		return nil, fmt.Errorf("%w: sheet %q references %q", ErrRelationshipMissing, sheetName, entry.RelID)
	}

	partName := ResolveTarget(st.workbookPart, target.Target)
	body, ok := parts.Get(partName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartMissing, partName)
	}

	pkg.Template = Template{
		Entry:    entry,
		Index:    index,
		PartName: partName,
		Body:     body,
	}
	relsPart := RelsPartFor(partName)
	if rels, ok := parts.Get(relsPart); ok {
		pkg.Template.RelsPartName = relsPart
		pkg.Template.Rels = rels
	}
	return pkg, nil
}

// SheetNames lists the declared sheet names in workbook order.
func SheetNames(parts *container.PartSet) ([]string, error) {
	wbPart, err := workbookPartName(parts)
	if err != nil {
		return nil, err
	}
	data, ok := parts.Get(wbPart)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrStructureInvalid, wbPart)
	}
	sheets, err := parseSheets(data)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(sheets))
	for i, s := range sheets {
		names[i] = s.Name
	}
	return names, nil
}

// WorksheetParts returns the resolved part names of every worksheet in the
// source package.
func (p *Package) WorksheetParts() []string {
	names := make([]string, 0, len(p.Worksheets))
	for _, r := range p.Worksheets {
		names = append(names, ResolveTarget(p.WorkbookPart, r.Target))
	}
	return names
}

func readStructure(parts *container.PartSet) (*structure, error) {
	ctData, ok := parts.Get(ContentTypesPart)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrStructureInvalid, ContentTypesPart)
	}
	var ct ContentTypes
	if err := xml.Unmarshal(ctData, &ct); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStructureInvalid, ContentTypesPart, err)
	}

	wbPart, err := workbookPartName(parts)
	if err != nil {
		return nil, err
	}
	wbData, ok := parts.Get(wbPart)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrStructureInvalid, wbPart)
	}
	sheets, err := parseSheets(wbData)
	if err != nil {
		return nil, err
	}

	relsPart := RelsPartFor(wbPart)
	relsData, ok := parts.Get(relsPart)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrStructureInvalid, relsPart)
	}
	rels, err := parseRelationships(relsData)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStructureInvalid, relsPart, err)
	}

	return &structure{
		contentTypes: &ct,
		workbookPart: wbPart,
		relsPart:     relsPart,
		sheets:       sheets,
		rels:         rels,
	}, nil
}

// workbookPartName follows the package's officeDocument relationship,
// falling back to xl/workbook.xml when the root relationships are absent.
func workbookPartName(parts *container.PartSet) (string, error) {
	data, ok := parts.Get(RootRelsPart)
	if !ok {
		return DefaultWorkbook, nil
	}
	rels, err := parseRelationships(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrStructureInvalid, RootRelsPart, err)
	}
	for _, r := range rels.Rels {
		if r.Type == RelTypeOfficeDocument || strings.HasSuffix(r.Type, "/officeDocument") {
			return ResolveTarget("", r.Target), nil
		}
	}
	return DefaultWorkbook, nil
}

// parseSheets reads the <sheets> table of a workbook part.
func parseSheets(data []byte) ([]SheetEntry, error) {
	s := xmlstream.NewScanner(data)
	var (
		sheets   []SheetEntry
		inSheets bool
		found    bool
	)
	for {
		tok, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: workbook: %w", ErrStructureInvalid, err)
		}
		switch t := tok.Token.(type) {
		case xml.StartElement:
			switch {
			case s.Depth() == 2 && t.Name.Local == "sheets":
				inSheets = true
				found = true
			case inSheets && s.Depth() == 3 && t.Name.Local == "sheet":
				sheets = append(sheets, sheetEntry(t))
			}
		case xml.EndElement:
			if inSheets && s.Depth() == 1 && t.Name.Local == "sheets" {
				inSheets = false
			}
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: workbook has no sheet table", ErrStructureInvalid)
	}
	return sheets, nil
}

func sheetEntry(se xml.StartElement) SheetEntry {
	var e SheetEntry
	for _, a := range se.Attr {
		switch {
		case a.Name.Space == "" && a.Name.Local == "name":
			e.Name = a.Value
		case a.Name.Space == "" && a.Name.Local == "sheetId":
			e.SheetID, _ = strconv.Atoi(a.Value)
		case a.Name.Space != "" && a.Name.Space != "xmlns" && a.Name.Local == "id":
			e.RelID = a.Value
		}
	}
	return e
}
