// Package assembler turns a loaded template and a sequence of input rows into
// one output package holding a patched clone of the template sheet per row.
package assembler

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nconklindev/bulksheet/internal/container"
	"github.com/nconklindev/bulksheet/internal/mapping"
	"github.com/nconklindev/bulksheet/internal/patcher"
	"github.com/nconklindev/bulksheet/internal/workbook"
)

// MaxSheetName is the longest sheet name spreadsheet applications accept.
const MaxSheetName = 31

const calcChainSuffix = "/calcChain"

type state int

const (
	stateInitialized state = iota
	stateSheetsGenerated
	stateFinalized
)

// Options tune a run.
type Options struct {
	// Progress receives the completed fraction after each row and 1 once
	// the package is written. Sends never block; a slow reader misses
	// updates.
	Progress chan<- float64
	// Total is the expected row count used for progress fractions.
	Total int
}

// GeneratedSheet is one patched clone of the template.
type GeneratedSheet struct {
	Name     string
	PartName string
	RelID    string
	SheetID  int
	Body     []byte
	// Rels is a copy of the template's relationship part, nil when the
	// template has none.
	Rels []byte
}

// Assembler accumulates generated sheets for one run. It is not safe for
// concurrent use.
type Assembler struct {
	pkg   *workbook.Package
	opts  Options
	state state

	next   int
	sheets []GeneratedSheet

	// reserved holds every source part name; generated parts never reuse
	// one. dropped holds source parts left out of the output.
	reserved map[string]bool
	dropped  map[string]bool
	relType  string
}

// New returns an assembler for pkg.
func New(pkg *workbook.Package, opts Options) *Assembler {
	a := &Assembler{
		pkg:      pkg,
		opts:     opts,
		next:     pkg.MaxRelID + 1,
		reserved: make(map[string]bool),
		dropped:  make(map[string]bool),
		relType:  workbook.RelTypeWorksheet,
	}
	for _, r := range pkg.Worksheets {
		if r.ID == pkg.Template.Entry.RelID {
			a.relType = r.Type
		}
	}
	for _, part := range pkg.WorksheetParts() {
		a.dropped[part] = true
		a.dropped[workbook.RelsPartFor(part)] = true
	}
	for _, r := range pkg.Other {
		if strings.HasSuffix(r.Type, calcChainSuffix) {
			a.dropped[workbook.ResolveTarget(pkg.WorkbookPart, r.Target)] = true
		}
	}
	for _, name := range pkg.Parts.Names() {
		a.reserved[name] = true
	}
	return a
}

// Sheets returns the sheets generated so far, in row order.
func (a *Assembler) Sheets() []GeneratedSheet {
	return a.sheets
}

// AddRow patches a clone of the template with the values row supplies for
// ms and queues it as the next sheet.
func (a *Assembler) AddRow(row []string, ms []mapping.Mapping) error {
	if a.state == stateFinalized {
		return ErrInvalidState
	}

	repl := mapping.Materialize(ms, row)
	body, err := patcher.Patch(a.pkg.Template.Body, repl)
	if err != nil {
		return fmt.Errorf("row %d: %w", len(a.sheets)+1, err)
	}

	n, part := a.allocate()
	sheet := GeneratedSheet{
		Name:     SheetName(a.pkg.Template.Entry.Name, len(a.sheets)+1),
		PartName: part,
		RelID:    "rId" + strconv.Itoa(n),
		SheetID:  n,
		Body:     body,
		Rels:     a.pkg.Template.Rels,
	}
	a.sheets = append(a.sheets, sheet)
	a.state = stateSheetsGenerated

	if a.opts.Total > 0 {
		a.report(float64(len(a.sheets)) / float64(a.opts.Total+1))
	}
	return nil
}

// allocate returns the next free counter value and its worksheet part name.
func (a *Assembler) allocate() (int, string) {
	dir := path.Dir(a.pkg.Template.PartName)
	for {
		n := a.next
		a.next++
		part := dir + "/sheet" + strconv.Itoa(n) + ".xml"
		if a.reserved[part] || a.reserved[workbook.RelsPartFor(part)] {
			continue
		}
		return n, part
	}
}

// Finalize rewrites the package documents around the generated sheets and
// writes the result to dest through c. It returns the number of sheets
// written.
func (a *Assembler) Finalize(dest string, c container.Container) (int, error) {
	if a.state != stateSheetsGenerated {
		return 0, ErrInvalidState
	}

	parts, err := a.Parts()
	if err != nil {
		return 0, err
	}
	if err := c.Write(dest, parts); err != nil {
		return 0, err
	}
	a.state = stateFinalized
	a.report(1)
	return len(a.sheets), nil
}

// Parts builds the output entries: every passthrough part in source order,
// with the content types, workbook and workbook relationships replaced,
// followed by the generated sheets and their relationship parts.
func (a *Assembler) Parts() ([]container.Part, error) {
	if len(a.sheets) == 0 {
		return nil, ErrInvalidState
	}
	pkg := a.pkg

	entries := make([]workbook.SheetEntry, len(a.sheets))
	partNames := make([]string, len(a.sheets))
	rels := make([]workbook.Relationship, len(a.sheets))
	for i, s := range a.sheets {
		entries[i] = workbook.SheetEntry{Name: s.Name, SheetID: s.SheetID, RelID: s.RelID}
		partNames[i] = s.PartName
		rels[i] = workbook.Relationship{
			ID:     s.RelID,
			Type:   a.relType,
			Target: workbook.RelativeTarget(pkg.WorkbookPart, s.PartName),
		}
	}

	ct := workbook.RewriteContentTypes(pkg.ContentTypes, partNames)
	ct.Overrides = a.withoutDropped(ct.Overrides)
	ctData, err := ct.Marshal()
	if err != nil {
		return nil, fmt.Errorf("content types: %w", err)
	}

	var other []workbook.Relationship
	for _, r := range pkg.Other {
		if strings.HasSuffix(r.Type, calcChainSuffix) {
			continue
		}
		other = append(other, r)
	}
	relsData, err := workbook.RewriteRelationships(other, rels).Marshal()
	if err != nil {
		return nil, fmt.Errorf("workbook relationships: %w", err)
	}

	wbBody, _ := pkg.Parts.Get(pkg.WorkbookPart)
	wbData, err := workbook.RewriteWorkbook(wbBody, pkg.Template, entries)
	if err != nil {
		return nil, err
	}

	out := make([]container.Part, 0, pkg.Parts.Len()+2*len(a.sheets))
	for _, p := range pkg.Parts.Parts() {
		switch {
		case p.Name == workbook.ContentTypesPart:
			p.Data = ctData
		case p.Name == pkg.WorkbookPart:
			p.Data = wbData
		case p.Name == pkg.WorkbookRelsPart:
			p.Data = relsData
		case a.dropped[p.Name]:
			continue
		}
		out = append(out, p)
	}
	for _, s := range a.sheets {
		out = append(out, container.Part{Name: s.PartName, Data: s.Body})
		if s.Rels != nil {
			out = append(out, container.Part{Name: workbook.RelsPartFor(s.PartName), Data: s.Rels})
		}
	}
	return out, nil
}

func (a *Assembler) withoutDropped(overrides []workbook.Override) []workbook.Override {
	kept := overrides[:0]
	for _, o := range overrides {
		if a.dropped[strings.TrimPrefix(o.PartName, "/")] {
			continue
		}
		kept = append(kept, o)
	}
	return kept
}

func (a *Assembler) report(v float64) {
	report(a.opts, v)
}

// SheetName returns the display name of the n-th generated sheet (1-based).
// Names longer than MaxSheetName are shortened on the base, keeping the
// numeric suffix.
func SheetName(base string, n int) string {
	suffix := " " + strconv.Itoa(n)
	limit := MaxSheetName - len(suffix)
	if utf8.RuneCountInString(base) > limit {
		runes := []rune(base)
		base = strings.TrimRight(string(runes[:limit]), " ")
	}
	return base + suffix
}
