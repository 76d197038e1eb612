package assembler

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/nconklindev/bulksheet/internal/container"
	"github.com/nconklindev/bulksheet/internal/mapping"
	"github.com/nconklindev/bulksheet/internal/types"
	"github.com/nconklindev/bulksheet/internal/xmlstream"
)

// DefaultSheetPrefix names synthesized tables when no prefix is given.
const DefaultSheetPrefix = "Sheet"

const contentHeader = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0" office:version="1.2"><office:body><office:spreadsheet>`

const contentFooter = `</office:spreadsheet></office:body></office:document-content>`

// synthesize writes an OpenDocument spreadsheet with one table per row and
// no template behind it.
func synthesize(req types.Request, ms []mapping.Mapping, opts Options) (*types.Result, error) {
	prefix := req.SheetPrefix
	if prefix == "" {
		prefix = DefaultSheetPrefix
	}

	res := &types.Result{Output: req.Output}
	var buf bytes.Buffer
	buf.WriteString(contentHeader)
	for i, row := range req.Rows {
		name := SheetName(prefix, i+1)
		writeTable(&buf, name, mapping.Materialize(ms, row))
		res.Names = append(res.Names, name)
		report(opts, float64(i+1)/float64(opts.Total+1))
	}
	buf.WriteString(contentFooter)

	f := &container.Flat{}
	if err := f.Write(req.Output, f.Synthesize(buf.Bytes())); err != nil {
		return nil, err
	}
	report(opts, 1)
	res.Sheets = len(req.Rows)
	return res, nil
}

// writeTable emits a table covering every replacement. Runs of empty cells
// and rows are collapsed with the repeat attributes.
func writeTable(buf *bytes.Buffer, name string, repl *mapping.Replacements) {
	buf.WriteString(`<table:table table:name="`)
	xmlstream.Escape(buf, name)
	buf.WriteString(`">`)

	addrs := repl.Addresses()
	if len(addrs) == 0 {
		buf.WriteString(`<table:table-row><table:table-cell/></table:table-row></table:table>`)
		return
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Less(addrs[j]) })

	var width uint32
	for _, a := range addrs {
		width = max(width, a.Col+1)
	}
	writeRepeated(buf, "table:table-column", "table:number-columns-repeated", width)

	var nextRow uint32
	for i := 0; i < len(addrs); {
		row := addrs[i].Row
		if gap := row - nextRow; gap > 0 {
			buf.WriteString(`<table:table-row`)
			writeRepeatAttr(buf, "table:number-rows-repeated", gap)
			buf.WriteString(`>`)
			writeRepeated(buf, "table:table-cell", "table:number-columns-repeated", width)
			buf.WriteString(`</table:table-row>`)
		}

		buf.WriteString(`<table:table-row>`)
		var nextCol uint32
		for ; i < len(addrs) && addrs[i].Row == row; i++ {
			a := addrs[i]
			v, _ := repl.Get(a)
			writeRepeated(buf, "table:table-cell", "table:number-columns-repeated", a.Col-nextCol)
			nextCol = a.Col + 1
			if v == "" {
				buf.WriteString(`<table:table-cell/>`)
				continue
			}
			buf.WriteString(`<table:table-cell office:value-type="string"><text:p>`)
			xmlstream.Escape(buf, v)
			buf.WriteString(`</text:p></table:table-cell>`)
		}
		writeRepeated(buf, "table:table-cell", "table:number-columns-repeated", width-nextCol)
		buf.WriteString(`</table:table-row>`)
		nextRow = row + 1
	}
	buf.WriteString(`</table:table>`)
}

// writeRepeated writes n empty elements as one, nothing when n is 0.
func writeRepeated(buf *bytes.Buffer, elem, attr string, n uint32) {
	if n == 0 {
		return
	}
	buf.WriteString("<" + elem)
	writeRepeatAttr(buf, attr, n)
	buf.WriteString("/>")
}

func writeRepeatAttr(buf *bytes.Buffer, attr string, n uint32) {
	if n < 2 {
		return
	}
	buf.WriteString(" " + attr + `="`)
	buf.WriteString(strconv.FormatUint(uint64(n), 10))
	buf.WriteString(`"`)
}

func report(opts Options, v float64) {
	if opts.Progress == nil {
		return
	}
	select {
	case opts.Progress <- v:
	default:
	}
}
