package ports

import (
	"context"

	"islandora-handle-backend/internal/domain/models"
)

type (
	// AssociationReader looks up handle associations by content model.
	// The returned slice preserves the configured order; the reconciler
	// relies on it for first-match-wins semantics.
	AssociationReader interface {
		AssociationsFor(ctx context.Context, contentModels []string) ([]models.Association, error)
	}

	// Datastream is keyed byte content belonging to a repository object.
	Datastream interface {
		ID() string
		Content(ctx context.Context) ([]byte, error)
		SetContent(ctx context.Context, content []byte) error
	}

	// RepositoryObject is the digital object abstraction. Objects are
	// owned by the backing repository; this service only reads and
	// writes through this interface, never creates or destroys them.
	RepositoryObject interface {
		ID() string
		ContentModels() []string
		Has(dsid string) bool
		Datastream(dsid string) (Datastream, error)
	}

	// ObjectStore resolves a pid to its repository object.
	ObjectStore interface {
		Get(ctx context.Context, pid string) (RepositoryObject, error)
	}
)
