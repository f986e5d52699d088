package ports

import (
	"context"

	"github.com/BiAffectBridge/cairn/pkg/domain"
)

// ResultStore persists assessment result trees keyed by run ID. It backs
// both the upload boundary (completed runs) and the save-progress flow
// (partial runs resumed later).
type ResultStore interface {
	// Save persists the result tree for a run.
	Save(ctx context.Context, runID string, result *domain.Result) error

	// Load retrieves the result tree for a run.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.Result, error)

	// Delete removes the result tree for a run.
	Delete(ctx context.Context, runID string) error

	// List returns the run IDs currently held by the store.
	List(ctx context.Context) ([]string, error)
}
