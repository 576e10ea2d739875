package mem

import (
	"context"
	"sync"

	"islandora-handle-backend/internal/domain/models"
	"islandora-handle-backend/internal/domain/ports"
)

// Store is an in-memory implementation of the association and object
// stores. It backs the -memory run mode and the test suites.
type Store struct {
	mu           sync.RWMutex
	associations []models.Association
	objects      map[string]*Object
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		objects: make(map[string]*Object),
	}
}

// PutAssociation appends an association; configured order is preserved
// and drives first-match-wins resolution.
func (s *Store) PutAssociation(a models.Association) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.associations = append(s.associations, a)
}

// AssociationsFor returns the associations whose content model is among
// the given ones, in configured order.
func (s *Store) AssociationsFor(_ context.Context, contentModels []string) ([]models.Association, error) {
	wanted := make(map[string]struct{}, len(contentModels))
	for _, m := range contentModels {
		wanted[m] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Association
	for _, a := range s.associations {
		if _, ok := wanted[a.ContentModel]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// PutObject registers an object under its pid
func (s *Store) PutObject(o *Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[o.ID()] = o
}

// Get resolves a pid to its object
func (s *Store) Get(_ context.Context, pid string) (ports.RepositoryObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[pid]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return obj, nil
}
