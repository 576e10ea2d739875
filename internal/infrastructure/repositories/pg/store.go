package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"islandora-handle-backend/internal/domain/models"
	"islandora-handle-backend/internal/domain/ports"
)

// Compile-time check that Store implements ports.AssociationReader
var _ ports.AssociationReader = (*Store)(nil)

// Store reads handle associations from PostgreSQL
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an existing connection pool
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// AssociationsFor returns the associations configured for any of the given
// content models, in configured order (position, then insertion id).
func (s *Store) AssociationsFor(ctx context.Context, contentModels []string) ([]models.Association, error) {
	if len(contentModels) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT content_model, datastream_id, transform
		FROM handle.associations
		WHERE content_model = ANY($1)
		ORDER BY position, id
	`, contentModels)
	if err != nil {
		return nil, errors.Wrap(err, "query handle associations")
	}
	defer rows.Close()

	var out []models.Association
	for rows.Next() {
		var a models.Association
		if err := rows.Scan(&a.ContentModel, &a.DatastreamID, &a.Transform); err != nil {
			return nil, errors.Wrap(err, "scan handle association")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate handle associations")
	}
	return out, nil
}

// Close releases the underlying pool
func (s *Store) Close() {
	s.pool.Close()
}
