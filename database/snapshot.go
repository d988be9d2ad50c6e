package database

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/klauspost/compress/zstd"
)

// Snapshot is the persisted form of a database:
// {"version": 3, "data": {"accounts": [{"id": "a", ...}]}}
type Snapshot struct {
	Version int64                       `json:"version"`
	Data    map[string][]map[string]any `json:"data"`
}

func compressed(filename string) bool {
	return strings.HasSuffix(filename, ".zst")
}

// ReadSnapshot loads filename. A missing file is an empty snapshot at
// version 0. Files ending in .zst are zstd compressed.
func ReadSnapshot(filename string) (*Snapshot, error) {

	f, err := os.Open(filename)
	if errors.Is(err, os.ErrNotExist) {
		return &Snapshot{Data: map[string][]map[string]any{}}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if compressed(filename) {
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer d.Close()
		r = d
	}

	s := &Snapshot{}
	if err := json.UnmarshalRead(r, s); err != nil {
		return nil, fmt.Errorf("decode snapshot '%s': %w", filename, err)
	}
	if s.Data == nil {
		s.Data = map[string][]map[string]any{}
	}

	return s, nil
}

// WriteSnapshot writes to a temporary file and renames it over filename.
func WriteSnapshot(filename string, s *Snapshot) (err error) {

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}

	tmp := filename + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	b := bufio.NewWriter(f)
	var w io.Writer = b
	var z *zstd.Encoder
	if compressed(filename) {
		z, err = zstd.NewWriter(b)
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		w = z
	}

	if err = json.MarshalWrite(w, s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if z != nil {
		if err = z.Close(); err != nil {
			return err
		}
	}
	if err = b.Flush(); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, filename)
}
