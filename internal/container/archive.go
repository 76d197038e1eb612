package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// MimetypePart is the mandatory first entry of an OpenDocument package.
const MimetypePart = "mimetype"

// Archive is the multi-part zip strategy.
type Archive struct {
	Format Format
}

var _ Container = (*Archive)(nil)

// Load reads every file entry of the archive into memory, skipping
// directory entries.
func (a *Archive) Load(path string) (*PartSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError("open", path, ErrOpenSource, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, newError("open", path, ErrOpenSource, err)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, newError("open", path, ErrSourceInvalid, err)
	}

	ps := NewPartSet(nil)
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || strings.HasSuffix(zf.Name, "/") {
			continue
		}
		data, err := readEntry(zf)
		if err != nil {
			return nil, newError("read", path, ErrSourceInvalid, fmt.Errorf("%s: %w", zf.Name, err))
		}
		ps.Put(Part{Name: zf.Name, Data: data, Store: zf.Method == zip.Store})
	}
	return ps, nil
}

func readEntry(zf *zip.File) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Write assembles the parts into a fresh archive in memory and persists it
// to path only once every entry has been encoded.
func (a *Archive) Write(path string, parts []Part) error {
	data, err := a.Encode(parts)
	if err != nil {
		return newError("write", path, ErrWrite, err)
	}
	return writeAtomic(path, data)
}

// Encode returns the archive bytes for parts, in order.
func (a *Archive) Encode(parts []Part) ([]byte, error) {
	if a.Format == FormatODF {
		if len(parts) == 0 || parts[0].Name != MimetypePart {
			return nil, errors.New("opendocument package must start with the mimetype entry")
		}
		if !parts[0].Store {
			return nil, errors.New("opendocument mimetype entry must be stored uncompressed")
		}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("duplicate part %q", p.Name)
		}
		seen[p.Name] = struct{}{}

		method := zip.Deflate
		if p.Store {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p.Name, Method: method})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		if _, err := w.Write(p.Data); err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeAtomic writes data next to path and renames it into place so a failed
// run never leaves a partial file at path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".bulksheet-*")
	if err != nil {
		return newError("create", path, ErrCreateDest, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return newError("write", path, ErrWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return newError("write", path, ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return newError("write", path, ErrWrite, err)
	}
	_ = os.Chmod(tmpPath, 0o644)
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return newError("rename", path, ErrWrite, err)
	}
	return nil
}
