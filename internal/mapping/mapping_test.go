package mapping

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nconklindev/bulksheet/internal/cellref"
	"github.com/nconklindev/bulksheet/internal/types"
)

func TestParse(t *testing.T) {
	raw := []types.ColumnMapping{
		{Column: 0, Cell: "b2"},
		{Column: 1, Cell: "  "},
		{Column: 2, Cell: "2B"},
		{Column: -1, Cell: "C3"},
		{Column: 3, Cell: " d4 "},
	}
	got, rejected := Parse(raw)

	assert.Equal(t, []Mapping{
		{Column: 0, Dest: cellref.MustDecode("B2")},
		{Column: 3, Dest: cellref.MustDecode("D4")},
	}, got)

	require.Len(t, rejected, 2)
	assert.Equal(t, 2, rejected[0].Index)
	assert.True(t, errors.Is(rejected[0].Reason, types.ErrAddressInvalid))
	assert.Equal(t, 3, rejected[1].Index)
	assert.Contains(t, rejected[0].String(), `"2B"`)
}

func TestParseAllEmpty(t *testing.T) {
	got, rejected := Parse([]types.ColumnMapping{{Column: 0, Cell: ""}, {Column: 1, Cell: " "}})
	assert.Empty(t, got)
	assert.Empty(t, rejected)
}

func TestMaterialize(t *testing.T) {
	ms := []Mapping{
		{Column: 0, Dest: cellref.MustDecode("A1")},
		{Column: 1, Dest: cellref.MustDecode("B1")},
		{Column: 5, Dest: cellref.MustDecode("C1")},
		{Column: 2, Dest: cellref.MustDecode("A1")},
	}
	r := Materialize(ms, []string{"first", "second", "third"})

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []cellref.Address{cellref.MustDecode("A1"), cellref.MustDecode("B1")}, r.Addresses())

	v, ok := r.Get(cellref.MustDecode("A1"))
	require.True(t, ok)
	assert.Equal(t, "third", v, "last mapping wins")

	_, ok = r.Get(cellref.MustDecode("C1"))
	assert.False(t, ok, "missing column is skipped, not blanked")
}

func TestMaterializeKeepsEmptyValues(t *testing.T) {
	r := Materialize([]Mapping{{Column: 0, Dest: cellref.MustDecode("A1")}}, []string{""})
	v, ok := r.Get(cellref.MustDecode("A1"))
	require.True(t, ok)
	assert.Equal(t, "", v)
}

func TestMaterializeEmptyRow(t *testing.T) {
	r := Materialize([]Mapping{{Column: 0, Dest: cellref.MustDecode("A1")}}, nil)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, "", r.String())
}

func TestReplacementsString(t *testing.T) {
	r := NewReplacements()
	r.Set(cellref.MustDecode("B2"), "x")
	r.Set(cellref.MustDecode("A1"), "y")
	assert.Equal(t, `B2="x", A1="y"`, r.String())
}

func TestNilReplacements(t *testing.T) {
	var r *Replacements
	assert.Equal(t, 0, r.Len())
	_, ok := r.Get(cellref.Address{})
	assert.False(t, ok)
	assert.Nil(t, r.Addresses())
}
