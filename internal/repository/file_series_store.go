package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"HodlWatch/internal/domain/models"
	domrepo "HodlWatch/internal/domain/repository"
)

// FileSeriesStore persists the canonical series as a local CSV file.
// Save writes to a temp file in the same directory and renames it over the
// target so readers never observe a torn blob.
type FileSeriesStore struct {
	path string
}

// NewFileSeriesStore creates a store at the given path.
func NewFileSeriesStore(path string) *FileSeriesStore {
	return &FileSeriesStore{path: path}
}

func (s *FileSeriesStore) Exists(_ context.Context) (bool, error) {
	_, err := os.Stat(s.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", s.path, err)
}

func (s *FileSeriesStore) Load(_ context.Context) (models.Series, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domrepo.ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	series, err := models.DecodeSeriesCSV(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return series, nil
}

func (s *FileSeriesStore) Save(_ context.Context, series models.Series) error {
	var buf bytes.Buffer
	if err := series.EncodeCSV(&buf); err != nil {
		return fmt.Errorf("encode series: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", s.path, err)
	}
	return nil
}

func (s *FileSeriesStore) Delete(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", s.path, err)
	}
	return nil
}

var _ domrepo.SeriesStore = (*FileSeriesStore)(nil)
