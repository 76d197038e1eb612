// Package mapping validates column-to-cell mappings and turns one input row
// into the set of cell replacements for a generated sheet.
package mapping

import (
	"fmt"
	"strings"

	"github.com/nconklindev/bulksheet/internal/cellref"
	"github.com/nconklindev/bulksheet/internal/types"
)

// Mapping is a validated column-to-cell mapping.
type Mapping struct {
	Column int
	Dest   cellref.Address
}

// Rejected is a mapping dropped during validation.
type Rejected struct {
	Index   int
	Mapping types.ColumnMapping
	Reason  error
}

func (r Rejected) String() string {
	return fmt.Sprintf("mapping %d (column %d -> %q): %v", r.Index+1, r.Mapping.Column, r.Mapping.Cell, r.Reason)
}

// Parse validates raw mappings. Entries with an empty destination, a negative
// column or an undecodable reference are dropped and reported; they are never
// fatal on their own.
func Parse(raw []types.ColumnMapping) ([]Mapping, []Rejected) {
	var (
		out      []Mapping
		rejected []Rejected
	)
	for i, m := range raw {
		text := cellref.Normalize(m.Cell)
		if text == "" {
			// Unassigned slot; nothing to report.
			continue
		}
		if m.Column < 0 {
			rejected = append(rejected, Rejected{Index: i, Mapping: m, Reason: fmt.Errorf("negative column %d", m.Column)})
			continue
		}
		addr, ok := cellref.Decode(text)
		if !ok {
			rejected = append(rejected, Rejected{Index: i, Mapping: m, Reason: types.ErrAddressInvalid})
			continue
		}
		out = append(out, Mapping{Column: m.Column, Dest: addr})
	}
	return out, rejected
}

// Replacements is an insertion-ordered map from cell address to text.
type Replacements struct {
	order  []cellref.Address
	values map[cellref.Address]string
}

// NewReplacements returns an empty map.
func NewReplacements() *Replacements {
	return &Replacements{values: make(map[cellref.Address]string)}
}

// Set stores v at a, overwriting an earlier value while keeping a's original
// position.
func (r *Replacements) Set(a cellref.Address, v string) {
	if _, ok := r.values[a]; !ok {
		r.order = append(r.order, a)
	}
	r.values[a] = v
}

// Get returns the value at a.
func (r *Replacements) Get(a cellref.Address) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.values[a]
	return v, ok
}

// Len returns the number of addresses.
func (r *Replacements) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Addresses returns the addresses in insertion order.
func (r *Replacements) Addresses() []cellref.Address {
	if r == nil {
		return nil
	}
	return append([]cellref.Address(nil), r.order...)
}

// String renders the map as A1=value pairs, for diagnostics.
func (r *Replacements) String() string {
	var sb strings.Builder
	for i, a := range r.Addresses() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%q", a, r.values[a])
	}
	return sb.String()
}

// Materialize resolves mappings against one row. A mapping whose column is
// past the end of the row is skipped so the template keeps its value; a later
// mapping to the same cell replaces an earlier one.
func Materialize(ms []Mapping, row []string) *Replacements {
	r := NewReplacements()
	for _, m := range ms {
		if m.Column < 0 || m.Column >= len(row) {
			continue
		}
		r.Set(m.Dest, row[m.Column])
	}
	return r
}
