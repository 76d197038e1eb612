// Package container reads and writes zipped spreadsheet packages as ordered
// sets of named parts.
package container

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format selects the package family.
type Format string

const (
	// FormatOOXML is a multi-part SpreadsheetML package (.xlsx).
	FormatOOXML Format = "xlsx"
	// FormatODF is an OpenDocument spreadsheet package (.ods).
	FormatODF Format = "ods"
)

// ParseFormat accepts a format tag or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "xlsx", "xlsm", "ooxml":
		return FormatOOXML, nil
	case "ods", "odf":
		return FormatODF, nil
	default:
		return "", fmt.Errorf("unsupported format: %q", s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Part is one named entry of a package.
type Part struct {
	Name string
	Data []byte
	// Store requests an uncompressed entry.
	Store bool
}

// PartSet is a loaded package: parts in archive order plus a name index.
type PartSet struct {
	parts []Part
	index map[string]int
}

// NewPartSet builds a PartSet. Later duplicates replace earlier entries.
func NewPartSet(parts []Part) *PartSet {
	ps := &PartSet{index: make(map[string]int, len(parts))}
	for _, p := range parts {
		ps.Put(p)
	}
	return ps
}

// Put adds or replaces a part, keeping the original position on replace.
func (ps *PartSet) Put(p Part) {
	if ps.index == nil {
		ps.index = make(map[string]int)
	}
	if i, ok := ps.index[p.Name]; ok {
		ps.parts[i] = p
		return
	}
	ps.index[p.Name] = len(ps.parts)
	ps.parts = append(ps.parts, p)
}

// Get returns the bytes of a part.
func (ps *PartSet) Get(name string) ([]byte, bool) {
	i, ok := ps.index[name]
	if !ok {
		return nil, false
	}
	return ps.parts[i].Data, true
}

// Has reports whether a part exists.
func (ps *PartSet) Has(name string) bool {
	_, ok := ps.index[name]
	return ok
}

// Parts returns the parts in archive order. The slice must not be modified.
func (ps *PartSet) Parts() []Part {
	return ps.parts
}

// Names returns the part names in archive order.
func (ps *PartSet) Names() []string {
	names := make([]string, len(ps.parts))
	for i, p := range ps.parts {
		names[i] = p.Name
	}
	return names
}

// Len returns the number of parts.
func (ps *PartSet) Len() int {
	return len(ps.parts)
}

// Container loads and writes packages of one family.
type Container interface {
	Load(path string) (*PartSet, error)
	Write(path string, parts []Part) error
}

// New returns the container strategy for a format.
func New(f Format) (Container, error) {
	switch f {
	case FormatOOXML:
		return &Archive{Format: FormatOOXML}, nil
	case FormatODF:
		return &Flat{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %q", f)
	}
}
