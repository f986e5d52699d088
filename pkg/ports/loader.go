package ports

import (
	"context"

	"github.com/BiAffectBridge/cairn/pkg/domain"
)

// AssessmentLoader resolves assessment identifiers to fully parsed and
// validated node trees. Loading is the one asynchronous boundary in the
// system: it may hit disk or network, so it takes a context; once a tree is
// returned the navigation core treats it as read-only.
type AssessmentLoader interface {
	// Load returns the assessment with the given identifier.
	// Returns domain.ErrAssessmentNotFound when no assessment matches.
	Load(ctx context.Context, identifier string) (*domain.Node, error)

	// List returns the identifiers of all available assessments.
	List(ctx context.Context) ([]string, error)
}
