// Package memory provides in-memory implementations of the loader and
// result store ports. Useful for tests and embedded hosts that build their
// assessment trees in code.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/BiAffectBridge/cairn/internal/validator"
	"github.com/BiAffectBridge/cairn/pkg/domain"
)

// Loader implements ports.AssessmentLoader over a map of pre-built trees.
type Loader struct {
	mu          sync.RWMutex
	assessments map[string]*domain.Node
}

// NewLoader creates a loader from pre-built assessment trees. Each tree is
// validated up front so runs never see a structurally broken definition.
func NewLoader(assessments ...*domain.Node) (*Loader, error) {
	l := &Loader{assessments: make(map[string]*domain.Node, len(assessments))}
	for _, a := range assessments {
		if err := l.Register(a); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Register adds or replaces an assessment.
func (l *Loader) Register(assessment *domain.Node) error {
	if assessment == nil || assessment.Identifier == "" {
		return fmt.Errorf("assessment missing identifier")
	}
	if !assessment.IsContainer() {
		return fmt.Errorf("assessment %q has no children", assessment.Identifier)
	}
	if err := validator.ValidateTree(assessment); err != nil {
		return fmt.Errorf("assessment %q: %w", assessment.Identifier, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.assessments[assessment.Identifier] = assessment
	return nil
}

// Load returns the assessment with the given identifier.
func (l *Loader) Load(ctx context.Context, identifier string) (*domain.Node, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.assessments[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAssessmentNotFound, identifier)
	}
	return a, nil
}

// List returns all assessment identifiers in deterministic order.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.assessments))
	for id := range l.assessments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
