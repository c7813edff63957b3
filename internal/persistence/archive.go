package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/mkessler/gridtown/internal/region"
)

// WriteArchive writes a compressed JSON snapshot of the region into dir.
// The filename carries the cycle number and a timestamp so successive
// archives never collide.
func WriteArchive(dir string, st region.State) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("archive dir: %w", err)
	}

	name := fmt.Sprintf("region-c%06d-%s.json.gz", st.Cycle, time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	zw, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		return "", err
	}

	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		zw.Close()
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("close gzip: %w", err)
	}
	return path, nil
}

// ReadArchive loads a snapshot previously written by WriteArchive.
func ReadArchive(path string) (region.State, error) {
	var st region.State

	f, err := os.Open(path)
	if err != nil {
		return st, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return st, fmt.Errorf("open gzip: %w", err)
	}
	defer zr.Close()

	if err := json.NewDecoder(zr).Decode(&st); err != nil {
		return st, fmt.Errorf("decode snapshot: %w", err)
	}
	return st, nil
}
