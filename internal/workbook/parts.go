package workbook

import (
	"bytes"
	"encoding/xml"
	"path"
	"strconv"
	"strings"
)

// Well-known part names, namespaces and media types.
const (
	ContentTypesPart = "[Content_Types].xml"
	RootRelsPart     = "_rels/.rels"
	DefaultWorkbook  = "xl/workbook.xml"

	NSContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
	NSRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"
	NSOfficeRels    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	RelTypeWorksheet      = NSOfficeRels + "/worksheet"
	RelTypeOfficeDocument = NSOfficeRels + "/officeDocument"

	MediaTypeWorksheet = "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"
)

// ContentTypes is the parsed [Content_Types].xml.
type ContentTypes struct {
	XMLName   xml.Name   `xml:"http://schemas.openxmlformats.org/package/2006/content-types Types"`
	Defaults  []Default  `xml:"Default"`
	Overrides []Override `xml:"Override"`
}

// Default maps an extension to a media type.
type Default struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Override maps one part name to a media type.
type Override struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Marshal serializes the content types document.
func (ct *ContentTypes) Marshal() ([]byte, error) {
	return marshalDoc(ct)
}

// Relationships is a parsed .rels part.
type Relationships struct {
	XMLName xml.Name       `xml:"http://schemas.openxmlformats.org/package/2006/relationships Relationships"`
	Rels    []Relationship `xml:"Relationship"`
}

// Relationship is one entry of a .rels part.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// IsWorksheet reports whether the relationship points at a worksheet. Both
// transitional and strict namespaces end in /worksheet.
func (r Relationship) IsWorksheet() bool {
	return strings.HasSuffix(r.Type, "/worksheet")
}

// Marshal serializes the relationships document.
func (r *Relationships) Marshal() ([]byte, error) {
	return marshalDoc(r)
}

func marshalDoc(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	enc := xml.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RelsPartFor returns the conventional relationship part of a part, e.g.
// xl/worksheets/_rels/sheet1.xml.rels for xl/worksheets/sheet1.xml.
func RelsPartFor(part string) string {
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

// ResolveTarget resolves a relationship target against the part owning the
// relationship. Absolute targets are package-rooted.
func ResolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return strings.TrimPrefix(path.Join(path.Dir(source), target), "/")
}

// RelativeTarget returns target expressed relative to the directory of
// source, the form Excel writes into workbook relationships.
func RelativeTarget(source, target string) string {
	dir := path.Dir(source)
	if dir == "." || dir == "" {
		return target
	}
	if strings.HasPrefix(target, dir+"/") {
		return strings.TrimPrefix(target, dir+"/")
	}
	return "/" + target
}

// relIDNumber extracts the numeric suffix of ids like rId7.
func relIDNumber(id string) (int, bool) {
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	if i == len(id) {
		return 0, false
	}
	n, err := strconv.Atoi(id[i:])
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseRelationships(data []byte) (*Relationships, error) {
	var rels Relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, err
	}
	return &rels, nil
}
