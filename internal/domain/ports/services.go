package ports

import (
	"context"

	"islandora-handle-backend/internal/domain/models"
)

type (
	// HandleService is the remote identifier-resolution API. Exists
	// reports whether a handle has been minted for the pid; Create and
	// Delete return the service's response verbatim so the caller can
	// apply its own success policy. CanonicalURL is pure string
	// construction and performs no network call.
	HandleService interface {
		Exists(ctx context.Context, pid string) (bool, error)
		Create(ctx context.Context, pid string) (*models.HandleResponse, error)
		Delete(ctx context.Context, pid string) (*models.HandleResponse, error)
		CanonicalURL(pid string) string
	}

	// DatastreamAttacher embeds a minted handle reference into the given
	// datastream by applying the association's transform.
	DatastreamAttacher interface {
		Attach(ctx context.Context, obj RepositoryObject, dsid, transform string) models.Result
	}
)
