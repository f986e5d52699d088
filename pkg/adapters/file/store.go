package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BiAffectBridge/cairn/pkg/domain"
)

// Store implements ports.ResultStore using the local filesystem, one JSON
// file per run.
type Store struct {
	BasePath string
}

// NewStore creates a store rooted at basePath. Empty defaults to
// ".cairn/runs".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".cairn", "runs")
	}
	return &Store{BasePath: basePath}
}

// Save persists the result tree atomically: write to a temp file in the
// same directory, fsync, then rename over the destination.
func (s *Store) Save(ctx context.Context, runID string, result *domain.Result) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure run directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	tmp, err := os.CreateTemp(s.BasePath, "tmp-"+runID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(runID)); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load retrieves the result tree for a run.
func (s *Store) Load(ctx context.Context, runID string) (*domain.Result, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	data, err := os.ReadFile(s.path(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}
	var result domain.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run result: %w", err)
	}
	return &result, nil
}

// Delete removes the run file.
func (s *Store) Delete(ctx context.Context, runID string) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}
	if err := os.Remove(s.path(runID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete run file: %w", err)
	}
	return nil
}

// List returns the run IDs present in the directory.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	var runs []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		name := entry.Name()
		runs = append(runs, name[:len(name)-len(".json")])
	}
	return runs, nil
}

func (s *Store) path(runID string) string {
	return filepath.Join(s.BasePath, runID+".json")
}
