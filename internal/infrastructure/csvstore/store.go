// Package csvstore reads and writes record sets as CSV files. Writes replace
// the target atomically so a failed run never leaves a half-written table.
package csvstore

import (
	"encoding/csv"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/match-features/internal/platform/table"
	"github.com/valyala/bytebufferpool"
)

const utf8BOM = "\ufeff"

// Read loads a CSV file with a header row. An empty file yields a table with
// no columns. A missing file returns an error matching fs.ErrNotExist.
func Read(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, crerr.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	t, err := Decode(f)
	if err != nil {
		return nil, crerr.Wrapf(err, "read %s", path)
	}
	return t, nil
}

func Decode(r io.Reader) (*table.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, crerr.Wrap(err, "parse csv")
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], utf8BOM)
		for i, col := range records[0] {
			records[0][i] = strings.TrimSpace(col)
		}
	}

	t, err := table.FromRecords(records)
	if err != nil {
		return nil, crerr.Wrap(err, "build table")
	}
	return t, nil
}

func Encode(w io.Writer, t *table.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(t.Records()); err != nil {
		return crerr.Wrap(err, "encode csv")
	}
	return nil
}

// Write replaces path with the encoded table via a temp file in the same
// directory and a rename.
func Write(path string, t *table.Table) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := Encode(buf, t); err != nil {
		return crerr.Wrapf(err, "write %s", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return crerr.Wrapf(err, "create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return crerr.Wrapf(err, "create temp file for %s", path)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(buf.B); err != nil {
		_ = tmp.Close()
		cleanup()
		return crerr.Wrapf(err, "write temp file for %s", path)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return crerr.Wrapf(err, "close temp file for %s", path)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return crerr.Wrapf(err, "chmod temp file for %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return crerr.Wrapf(err, "replace %s", path)
	}
	return nil
}

// WriteHeader writes a header-only file.
func WriteHeader(path string, columns []string) error {
	return Write(path, table.New(columns...))
}

func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return false, crerr.Newf("%s is a directory", path)
		}
		return true, nil
	}
	if IsNotExist(err) {
		return false, nil
	}
	return false, crerr.Wrapf(err, "stat %s", path)
}

func IsNotExist(err error) bool {
	return crerr.Is(err, fs.ErrNotExist)
}
