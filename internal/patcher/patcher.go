// Package patcher rewrites cells of a worksheet body in a single streaming
// pass. Markup it does not touch is copied from the source bytes, so untouched
// cells, attribute order and whitespace come out exactly as they went in.
package patcher

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/nconklindev/bulksheet/internal/cellref"
	"github.com/nconklindev/bulksheet/internal/mapping"
	"github.com/nconklindev/bulksheet/internal/types"
	"github.com/nconklindev/bulksheet/internal/xmlstream"
)

// ErrMalformedXML indicates the worksheet body could not be tokenized.
var ErrMalformedXML = types.NewKind(types.KindMalformedXML, "malformed worksheet xml")

// Patch returns body with every cell whose address is in repl replaced by an
// inline-string cell holding the new text. Addresses with no cell in body are
// inserted into their row, creating the row when needed; a body without
// sheetData fails with ErrMalformedXML. With an empty repl the input slice is
// returned as is.
func Patch(body []byte, repl *mapping.Replacements) ([]byte, error) {
	if repl.Len() == 0 {
		return body, nil
	}

	p := &patch{
		scanner: xmlstream.NewScanner(body),
		repl:    repl,
		pending: make(map[cellref.Address]struct{}, repl.Len()),
		lastRow: -1,
	}
	for _, a := range repl.Addresses() {
		p.pending[a] = struct{}{}
	}
	p.out.Grow(len(body) + 64*repl.Len())

	if err := p.run(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedXML, err)
	}
	if len(p.pending) > 0 {
		return nil, fmt.Errorf("%w: no sheetData element for %d cell(s)", ErrMalformedXML, len(p.pending))
	}
	return p.out.Bytes(), nil
}

type patch struct {
	scanner *xmlstream.Scanner
	repl    *mapping.Replacements
	pending map[cellref.Address]struct{}
	out     bytes.Buffer

	// sheetDepth is the scanner depth just inside <sheetData>, 0 outside.
	sheetDepth int
	prefix     string

	rowOpen bool
	curRow  uint32
	lastRow int64
	lastCol int64

	// skip counts open elements of a replaced cell still being dropped.
	skip int
	// swallowEnd drops the synthetic end following a self-closing start
	// that was re-emitted in expanded form.
	swallowEnd bool
}

func (p *patch) run() error {
	for {
		tok, err := p.scanner.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if p.skip > 0 {
			switch tok.Token.(type) {
			case xml.StartElement:
				p.skip++
			case xml.EndElement:
				p.skip--
			}
			continue
		}

		switch t := tok.Token.(type) {
		case xml.StartElement:
			p.start(t, tok)
		case xml.EndElement:
			p.end(t, tok)
		default:
			p.out.Write(tok.Raw)
		}
	}
}

func (p *patch) start(se xml.StartElement, tok xmlstream.Token) {
	depth := p.scanner.Depth()
	switch {
	case p.sheetDepth == 0 && se.Name.Local == "sheetData":
		p.prefix = se.Name.Space
		if tok.SelfClosing {
			xmlstream.WriteStart(&p.out, se, false)
			p.flushRowsBefore(nil)
			xmlstream.WriteEnd(&p.out, se.Name)
			p.swallowEnd = true
			return
		}
		p.sheetDepth = depth
		p.out.Write(tok.Raw)

	case p.sheetDepth > 0 && depth == p.sheetDepth+1 && se.Name.Local == "row":
		idx := uint32(p.lastRow + 1)
		if v, ok := xmlstream.Attr(se, "r"); ok {
			if n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32); err == nil && n > 0 {
				idx = uint32(n - 1)
			}
		}
		p.flushRowsBefore(&idx)
		p.rowOpen = true
		p.curRow = idx
		p.lastCol = -1
		if tok.SelfClosing && p.hasPendingInRow(idx) {
			xmlstream.WriteStart(&p.out, se, false)
			p.flushCells(idx, nil)
			xmlstream.WriteEnd(&p.out, se.Name)
			p.closeRow()
			p.swallowEnd = true
			return
		}
		p.out.Write(tok.Raw)

	case p.rowOpen && depth == p.sheetDepth+2 && se.Name.Local == "c":
		addr, ok := p.cellAddress(se)
		if !ok {
			p.out.Write(tok.Raw)
			return
		}
		p.flushCells(p.curRow, &addr.Col)
		p.lastCol = int64(addr.Col)

		value, hit := p.repl.Get(addr)
		if !hit {
			p.out.Write(tok.Raw)
			return
		}
		delete(p.pending, addr)
		p.writeCell(addr, value, keepAttrs(se.Attr))
		// Drop the original cell, including the synthetic end of <c/>.
		p.skip = 1

	default:
		p.out.Write(tok.Raw)
	}
}

func (p *patch) end(ee xml.EndElement, tok xmlstream.Token) {
	if p.swallowEnd && len(tok.Raw) == 0 {
		p.swallowEnd = false
		return
	}
	p.swallowEnd = false

	depth := p.scanner.Depth()
	switch {
	case p.rowOpen && depth == p.sheetDepth && ee.Name.Local == "row":
		p.flushCells(p.curRow, nil)
		p.closeRow()
	case p.sheetDepth > 0 && depth == p.sheetDepth-1 && ee.Name.Local == "sheetData":
		p.flushRowsBefore(nil)
		p.sheetDepth = 0
	}
	p.out.Write(tok.Raw)
}

func (p *patch) closeRow() {
	p.rowOpen = false
	p.lastRow = int64(p.curRow)
}

// cellAddress resolves a cell's position from its r attribute, or from its
// position in the row when r is absent.
func (p *patch) cellAddress(se xml.StartElement) (cellref.Address, bool) {
	if v, ok := xmlstream.Attr(se, "r"); ok {
		return cellref.Decode(cellref.Normalize(v))
	}
	return cellref.Address{Row: p.curRow, Col: uint32(p.lastCol + 1)}, true
}

func (p *patch) hasPendingInRow(row uint32) bool {
	for a := range p.pending {
		if a.Row == row {
			return true
		}
	}
	return false
}

// flushCells inserts pending cells of row, in column order. With before set
// only columns left of *before are inserted.
func (p *patch) flushCells(row uint32, before *uint32) {
	var cols []cellref.Address
	for a := range p.pending {
		if a.Row == row && (before == nil || a.Col < *before) {
			cols = append(cols, a)
		}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Col < cols[j].Col })
	for _, a := range cols {
		v, _ := p.repl.Get(a)
		p.writeCell(a, v, nil)
		delete(p.pending, a)
	}
}

// flushRowsBefore writes new rows for pending cells above *before, or for all
// pending cells when before is nil.
func (p *patch) flushRowsBefore(before *uint32) {
	rows := make(map[uint32]struct{})
	for a := range p.pending {
		if before == nil || a.Row < *before {
			rows[a.Row] = struct{}{}
		}
	}
	if len(rows) == 0 {
		return
	}
	sorted := make([]uint32, 0, len(rows))
	for r := range rows {
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	rowName := xml.Name{Space: p.prefix, Local: "row"}
	for _, r := range sorted {
		xmlstream.WriteStart(&p.out, xml.StartElement{
			Name: rowName,
			Attr: []xml.Attr{{Name: xml.Name{Local: "r"}, Value: strconv.FormatUint(uint64(r)+1, 10)}},
		}, false)
		p.flushCells(r, nil)
		xmlstream.WriteEnd(&p.out, rowName)
	}
}

// writeCell emits <c r=".." ...attrs t="inlineStr"><is><t>value</t></is></c>.
func (p *patch) writeCell(a cellref.Address, value string, attrs []xml.Attr) {
	cell := xml.StartElement{Name: xml.Name{Space: p.prefix, Local: "c"}}
	cell.Attr = append(cell.Attr, xml.Attr{Name: xml.Name{Local: "r"}, Value: cellref.Encode(a)})
	cell.Attr = append(cell.Attr, attrs...)
	cell.Attr = append(cell.Attr, xml.Attr{Name: xml.Name{Local: "t"}, Value: "inlineStr"})

	is := xml.Name{Space: p.prefix, Local: "is"}
	text := xml.StartElement{Name: xml.Name{Space: p.prefix, Local: "t"}}
	if value != strings.TrimSpace(value) {
		text.Attr = []xml.Attr{{Name: xml.Name{Space: "xml", Local: "space"}, Value: "preserve"}}
	}

	xmlstream.WriteStart(&p.out, cell, false)
	xmlstream.WriteStart(&p.out, xml.StartElement{Name: is}, false)
	xmlstream.WriteStart(&p.out, text, false)
	xmlstream.Escape(&p.out, value)
	xmlstream.WriteEnd(&p.out, text.Name)
	xmlstream.WriteEnd(&p.out, is)
	xmlstream.WriteEnd(&p.out, cell.Name)
}

// keepAttrs drops the address and value-type attributes of a cell.
func keepAttrs(attrs []xml.Attr) []xml.Attr {
	var kept []xml.Attr
	for _, a := range attrs {
		if a.Name.Space == "" && (a.Name.Local == "r" || a.Name.Local == "t") {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}
