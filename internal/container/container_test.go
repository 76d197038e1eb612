package container

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nconklindev/bulksheet/internal/types"
)

func TestArchiveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.xlsx")

	parts := []Part{
		{Name: "[Content_Types].xml", Data: []byte("<Types/>")},
		{Name: "xl/workbook.xml", Data: []byte("<workbook/>")},
		{Name: "xl/media/image1.png", Data: []byte{0x89, 'P', 'N', 'G'}, Store: true},
	}
	a := &Archive{Format: FormatOOXML}
	require.NoError(t, a.Write(path, parts))

	ps, err := a.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"[Content_Types].xml", "xl/workbook.xml", "xl/media/image1.png"}, ps.Names())

	data, ok := ps.Get("xl/workbook.xml")
	require.True(t, ok)
	assert.Equal(t, "<workbook/>", string(data))
	assert.True(t, ps.Parts()[2].Store)
	assert.False(t, ps.Parts()[0].Store)
}

func TestArchiveLoadSkipsDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dirs.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	_, err = zw.Create("xl/")
	require.NoError(t, err)
	w, err := zw.Create("xl/workbook.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<workbook/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	ps, err := (&Archive{}).Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"xl/workbook.xml"}, ps.Names())
}

func TestArchiveLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := (&Archive{}).Load(filepath.Join(dir, "missing.xlsx"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOpenSource))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, types.KindContainerOpenFailed, types.KindOf(err))

	bogus := filepath.Join(dir, "bogus.xlsx")
	require.NoError(t, os.WriteFile(bogus, []byte("not a zip"), 0o644))
	_, err = (&Archive{}).Load(bogus)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceInvalid))

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, bogus, cerr.Path)
}

func TestArchiveWriteODFOrdering(t *testing.T) {
	dir := t.TempDir()
	a := &Archive{Format: FormatODF}

	err := a.Write(filepath.Join(dir, "a.ods"), []Part{
		{Name: ODFContentPart, Data: []byte("<x/>")},
		{Name: MimetypePart, Data: []byte(ODFMimetype), Store: true},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWrite))
	assert.NoFileExists(t, filepath.Join(dir, "a.ods"))

	err = a.Write(filepath.Join(dir, "b.ods"), []Part{
		{Name: MimetypePart, Data: []byte(ODFMimetype)},
	})
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "b.ods"))
}

func TestArchiveWriteDuplicatePart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.xlsx")
	err := (&Archive{}).Write(path, []Part{
		{Name: "a.xml", Data: []byte("1")},
		{Name: "a.xml", Data: []byte("2")},
	})
	require.Error(t, err)
	assert.Equal(t, types.KindContainerWriteFailed, types.KindOf(err))
	assert.NoFileExists(t, path)
}

func TestArchiveWriteMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "out.xlsx")
	err := (&Archive{}).Write(path, []Part{{Name: "a.xml", Data: []byte("1")}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCreateDest))
	assert.NoFileExists(t, path)
}

func TestArchiveWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.xlsx")
	require.NoError(t, (&Archive{}).Write(path, []Part{{Name: "a.xml", Data: []byte("1")}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.xlsx", entries[0].Name())
}

func TestFlatSynthesize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ods")
	f := &Flat{}
	parts := f.Synthesize([]byte("<office:document-content/>"))
	require.Len(t, parts, 3)
	require.NoError(t, f.Write(path, parts))

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 3)
	first := zr.File[0]
	assert.Equal(t, MimetypePart, first.Name)
	assert.Equal(t, zip.Store, first.Method)
	assert.Equal(t, ODFContentPart, zr.File[1].Name)
	assert.Equal(t, ODFManifestPart, zr.File[2].Name)

	ps, err := (&Archive{Format: FormatODF}).Load(path)
	require.NoError(t, err)
	mf, ok := ps.Get(ODFManifestPart)
	require.True(t, ok)
	assert.Contains(t, string(mf), `manifest:full-path="content.xml"`)
	assert.Contains(t, string(mf), `manifest:media-type="`+ODFMimetype+`"`)
}

func TestFlatLoadUnsupported(t *testing.T) {
	_, err := (&Flat{}).Load("whatever.ods")
	assert.True(t, errors.Is(err, ErrSourceInvalid))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"xlsx", FormatOOXML, true},
		{".XLSX", FormatOOXML, true},
		{"ods", FormatODF, true},
		{"csv", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.ok {
			assert.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got)
		} else {
			assert.Error(t, err, tt.in)
		}
	}

	f, err := FormatFromPath("/tmp/report.ods")
	require.NoError(t, err)
	assert.Equal(t, FormatODF, f)
}

func TestPartSetPutReplaces(t *testing.T) {
	ps := NewPartSet([]Part{{Name: "a", Data: []byte("1")}, {Name: "b", Data: []byte("2")}})
	ps.Put(Part{Name: "a", Data: []byte("3")})
	assert.Equal(t, []string{"a", "b"}, ps.Names())
	data, _ := ps.Get("a")
	assert.Equal(t, "3", string(data))
	assert.Equal(t, 2, ps.Len())
	assert.False(t, ps.Has("c"))
}
