package container

import (
	"bytes"
	"encoding/xml"
)

// ODF package constants.
const (
	ODFMimetype     = "application/vnd.oasis.opendocument.spreadsheet"
	ODFContentPart  = "content.xml"
	ODFManifestPart = "META-INF/manifest.xml"
)

// Flat synthesizes a minimal OpenDocument spreadsheet: the mimetype marker,
// one content document and a manifest. It never reads a template.
type Flat struct{}

var _ Container = (*Flat)(nil)

// Load is not supported; flat packages are only ever synthesized.
func (f *Flat) Load(path string) (*PartSet, error) {
	return nil, newError("open", path, ErrSourceInvalid, nil)
}

// Write persists parts produced by Synthesize.
func (f *Flat) Write(path string, parts []Part) error {
	a := Archive{Format: FormatODF}
	return a.Write(path, parts)
}

// Synthesize wraps a content document into the three fixed package parts.
func (f *Flat) Synthesize(content []byte) []Part {
	return []Part{
		{Name: MimetypePart, Data: []byte(ODFMimetype), Store: true},
		{Name: ODFContentPart, Data: content},
		{Name: ODFManifestPart, Data: manifest()},
	}
}

type manifestEntry struct {
	MediaType string `xml:"manifest:media-type,attr"`
	FullPath  string `xml:"manifest:full-path,attr"`
	Version   string `xml:"manifest:version,attr,omitempty"`
}

type manifestDoc struct {
	XMLName xml.Name        `xml:"manifest:manifest"`
	NS      string          `xml:"xmlns:manifest,attr"`
	Version string          `xml:"manifest:version,attr"`
	Entries []manifestEntry `xml:"manifest:file-entry"`
}

func manifest() []byte {
	doc := manifestDoc{
		NS:      "urn:oasis:names:tc:opendocument:xmlns:manifest:1.0",
		Version: "1.2",
		Entries: []manifestEntry{
			{MediaType: ODFMimetype, FullPath: "/", Version: "1.2"},
			{MediaType: "text/xml", FullPath: ODFContentPart},
		},
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	// Marshal of a fixed struct cannot fail.
	out, _ := xml.Marshal(doc)
	buf.Write(out)
	return buf.Bytes()
}
