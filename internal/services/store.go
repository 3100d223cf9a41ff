package services

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/jafloresayala/analyzer/internal/models"
)

const cacheVersion = "v1"

// DatasetStore memoizes parsed datasets per source path. A cached
// entry stays valid while the file's mod time is unchanged; touching
// the source invalidates it on the next Load. A gob snapshot of the
// parsed dataset is kept on disk so a restart skips the CSV parse when
// the source has not moved.
type DatasetStore struct {
	mu       sync.Mutex
	datasets map[string]*models.Dataset
	cacheDir string
	logger   *slog.Logger
}

func NewDatasetStore(cacheDir string, logger *slog.Logger) *DatasetStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetStore{
		datasets: make(map[string]*models.Dataset),
		cacheDir: cacheDir,
		logger:   logger,
	}
}

// Load returns the dataset for path, parsing at most once per distinct
// (path, mod time) pair. Repeated calls with an unchanged source return
// the same in-memory dataset.
func (s *DatasetStore) Load(ctx context.Context, path string) (*models.Dataset, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ds, ok := s.datasets[path]; ok && ds.ModTime.Equal(fi.ModTime()) {
		return ds, nil
	}

	if ds, err := s.loadSnapshot(path); err == nil && ds.ModTime.Equal(fi.ModTime()) {
		s.datasets[path] = ds
		s.logger.Info("dataset loaded from snapshot", "path", path, "records", len(ds.Records))
		return ds, nil
	}

	ds, err := ParseCSV(ctx, path)
	if err != nil {
		return nil, err
	}
	s.datasets[path] = ds

	if err := s.saveSnapshot(ds); err != nil {
		s.logger.Warn("failed to save dataset snapshot", "path", path, "error", err)
	}

	s.logger.Info("dataset parsed", "path", path, "records", len(ds.Records))
	return ds, nil
}

// Invalidate drops the in-memory entry for path. The next Load
// re-checks the snapshot and source.
func (s *DatasetStore) Invalidate(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.datasets, path)
}

func (s *DatasetStore) snapshotPath(source string) string {
	return fmt.Sprintf("%s/%s_%s.gob", s.cacheDir, strings.ReplaceAll(source, "/", "_"), cacheVersion)
}

func (s *DatasetStore) saveSnapshot(ds *models.Dataset) error {
	if s.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.cacheDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(s.snapshotPath(ds.Source))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(ds)
}

func (s *DatasetStore) loadSnapshot(source string) (*models.Dataset, error) {
	if s.cacheDir == "" {
		return nil, os.ErrNotExist
	}
	file, err := os.Open(s.snapshotPath(source))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var ds models.Dataset
	if err := gob.NewDecoder(file).Decode(&ds); err != nil {
		return nil, err
	}
	return &ds, nil
}
