package workbook

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nconklindev/bulksheet/internal/xmlstream"
)

// NSStrictOfficeRels is the strict-conformance relationships namespace.
const NSStrictOfficeRels = "http://purl.oclc.org/ooxml/officeDocument/relationships"

// RewriteContentTypes drops every worksheet override and appends one
// override per part in worksheets. Defaults and other overrides keep their
// order.
func RewriteContentTypes(ct *ContentTypes, worksheets []string) *ContentTypes {
	out := &ContentTypes{Defaults: append([]Default(nil), ct.Defaults...)}
	for _, o := range ct.Overrides {
		if o.ContentType == MediaTypeWorksheet {
			continue
		}
		out.Overrides = append(out.Overrides, o)
	}
	for _, part := range worksheets {
		out.Overrides = append(out.Overrides, Override{PartName: "/" + part, ContentType: MediaTypeWorksheet})
	}
	return out
}

// RewriteRelationships returns other followed by worksheets.
func RewriteRelationships(other, worksheets []Relationship) *Relationships {
	rels := make([]Relationship, 0, len(other)+len(worksheets))
	rels = append(rels, other...)
	rels = append(rels, worksheets...)
	return &Relationships{Rels: rels}
}

// RewriteWorkbook replaces the sheet table of a workbook part with sheets.
// New entries carry only name, sheetId and r:id, so they are visible even when
// the template sheet is hidden. The rest of the document is copied through,
// except that sheet-scoped defined names of the template are cloned once per
// new sheet (other sheet-scoped names are dropped) and workbook views lose
// their activeTab and firstSheet, which may point past the new sheet count.
func RewriteWorkbook(body []byte, tmpl Template, sheets []SheetEntry) ([]byte, error) {
	w := &wbRewrite{
		scanner: xmlstream.NewScanner(body),
		tmpl:    tmpl,
		sheets:  sheets,
	}
	w.out.Grow(len(body) + 96*len(sheets))
	if err := w.run(); err != nil {
		return nil, fmt.Errorf("%w: workbook: %w", ErrStructureInvalid, err)
	}
	return w.out.Bytes(), nil
}

type wbRewrite struct {
	scanner *xmlstream.Scanner
	tmpl    Template
	sheets  []SheetEntry
	out     bytes.Buffer

	relPrefix   string
	relDeclared bool

	inSheets   bool
	swallowEnd bool

	name     *xml.StartElement
	nameText strings.Builder
}

func (w *wbRewrite) run() error {
	for {
		tok, err := w.scanner.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		depth := w.scanner.Depth()

		switch t := tok.Token.(type) {
		case xml.StartElement:
			switch {
			case depth == 1:
				w.relPrefix, w.relDeclared = relsPrefix(t)
				w.out.Write(tok.Raw)
			case w.inSheets:
				if w.relPrefix == "" {
					if p, ok := idPrefix(t); ok {
						w.relPrefix = p
					}
				}
			case w.name != nil:
				// definedName has text content only.
			case depth == 2 && t.Name.Local == "sheets":
				if tok.SelfClosing {
					xmlstream.WriteStart(&w.out, t, false)
					w.writeSheets(t.Name.Space)
					xmlstream.WriteEnd(&w.out, t.Name)
					w.swallowEnd = true
					continue
				}
				w.out.Write(tok.Raw)
				w.inSheets = true
			case depth == 3 && t.Name.Local == "workbookView":
				w.writeView(t, tok)
			case depth == 3 && t.Name.Local == "definedName":
				if _, scoped := xmlstream.Attr(t, "localSheetId"); !scoped {
					w.out.Write(tok.Raw)
					continue
				}
				se := t.Copy()
				w.name = &se
				w.nameText.Reset()
				if tok.SelfClosing {
					w.swallowEnd = true
					w.writeNames()
				}
			default:
				w.out.Write(tok.Raw)
			}

		case xml.EndElement:
			switch {
			case w.swallowEnd && len(tok.Raw) == 0:
				w.swallowEnd = false
			case w.inSheets && depth == 1 && t.Name.Local == "sheets":
				w.writeSheets(t.Name.Space)
				w.out.Write(tok.Raw)
				w.inSheets = false
			case w.inSheets:
			case w.name != nil:
				w.writeNames()
			default:
				w.out.Write(tok.Raw)
			}

		case xml.CharData:
			switch {
			case w.name != nil:
				w.nameText.Write(t)
			case w.inSheets:
			default:
				w.out.Write(tok.Raw)
			}

		default:
			if !w.inSheets && w.name == nil {
				w.out.Write(tok.Raw)
			}
		}
	}
}

func (w *wbRewrite) writeSheets(prefix string) {
	relPrefix := w.relPrefix
	if relPrefix == "" {
		relPrefix = "r"
	}
	name := xml.Name{Space: prefix, Local: "sheet"}
	for _, s := range w.sheets {
		se := xml.StartElement{Name: name, Attr: []xml.Attr{
			{Name: xml.Name{Local: "name"}, Value: s.Name},
			{Name: xml.Name{Local: "sheetId"}, Value: strconv.Itoa(s.SheetID)},
			{Name: xml.Name{Space: relPrefix, Local: "id"}, Value: s.RelID},
		}}
		if !w.relDeclared {
			se.Attr = append(se.Attr, xml.Attr{Name: xml.Name{Space: "xmlns", Local: relPrefix}, Value: NSOfficeRels})
		}
		xmlstream.WriteStart(&w.out, se, true)
	}
}

func (w *wbRewrite) writeView(se xml.StartElement, tok xmlstream.Token) {
	kept := se.Attr[:0:0]
	for _, a := range se.Attr {
		if a.Name.Space == "" && (a.Name.Local == "activeTab" || a.Name.Local == "firstSheet") {
			continue
		}
		kept = append(kept, a)
	}
	if len(kept) == len(se.Attr) {
		w.out.Write(tok.Raw)
		return
	}
	se.Attr = kept
	xmlstream.WriteStart(&w.out, se, tok.SelfClosing)
	if tok.SelfClosing {
		w.swallowEnd = true
	}
}

// writeNames emits the buffered sheet-scoped defined name once per new sheet
// when it belongs to the template, and drops it otherwise.
func (w *wbRewrite) writeNames() {
	se := *w.name
	w.name = nil
	id, _ := xmlstream.Attr(se, "localSheetId")
	if n, err := strconv.Atoi(strings.TrimSpace(id)); err != nil || n != w.tmpl.Index {
		return
	}
	text := w.nameText.String()
	for i, s := range w.sheets {
		clone := xml.StartElement{Name: se.Name}
		for _, a := range se.Attr {
			if a.Name.Space == "" && a.Name.Local == "localSheetId" {
				a.Value = strconv.Itoa(i)
			}
			clone.Attr = append(clone.Attr, a)
		}
		xmlstream.WriteStart(&w.out, clone, false)
		xmlstream.Escape(&w.out, ReplaceSheetRef(text, w.tmpl.Entry.Name, s.Name))
		xmlstream.WriteEnd(&w.out, se.Name)
	}
}

// relsPrefix finds the prefix bound to the office relationships namespace on
// the root element.
func relsPrefix(root xml.StartElement) (string, bool) {
	for _, a := range root.Attr {
		if a.Name.Space == "xmlns" && (a.Value == NSOfficeRels || a.Value == NSStrictOfficeRels) {
			return a.Name.Local, true
		}
	}
	return "", false
}

func idPrefix(se xml.StartElement) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Space != "" && a.Name.Space != "xmlns" && a.Name.Local == "id" {
			return a.Name.Space, true
		}
	}
	return "", false
}

// QuoteSheetName returns name in the form used inside formulas.
func QuoteSheetName(name string) string {
	if !needsQuote(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func needsQuote(name string) bool {
	if name == "" {
		return true
	}
	if name[0] >= '0' && name[0] <= '9' {
		return true
	}
	for i := 0; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return true
		}
	}
	return false
}

func isNameChar(c byte) bool {
	return c == '_' || c == '.' || c >= 0x80 ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// ReplaceSheetRef rewrites references to sheet old (quoted or bare, followed
// by '!') in a formula so they point at sheet new.
func ReplaceSheetRef(formula, old, new string) string {
	replacement := QuoteSheetName(new) + "!"
	quoted := "'" + strings.ReplaceAll(old, "'", "''") + "'!"
	formula = strings.ReplaceAll(formula, quoted, replacement)
	if needsQuote(old) {
		return formula
	}

	bare := old + "!"
	var sb strings.Builder
	for {
		i := strings.Index(formula, bare)
		if i < 0 {
			sb.WriteString(formula)
			return sb.String()
		}
		if i > 0 && (isNameChar(formula[i-1]) || formula[i-1] == '\'') {
			sb.WriteString(formula[:i+len(bare)])
		} else {
			sb.WriteString(formula[:i])
			sb.WriteString(replacement)
		}
		formula = formula[i+len(bare):]
	}
}
