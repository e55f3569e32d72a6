package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/agenthands/cardgraph/internal/core/model"
)

// MemoryStore is an in-process store for development and tests. Listing order matches
// GraphStore: by creation time, then id.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]model.ContentItem
	rels  map[string]model.Relationship
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]model.ContentItem),
		rels:  make(map[string]model.Relationship),
	}
}

func (s *MemoryStore) SaveItems(_ context.Context, items []model.ContentItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range items {
		it.Tags = append([]string(nil), it.Tags...)
		s.items[it.ID] = it
	}
	return nil
}

func (s *MemoryStore) ListItems(_ context.Context, groupID string) ([]model.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.ContentItem{}
	for _, it := range s.items {
		if it.GroupID == groupID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) SaveRelationships(_ context.Context, rels []model.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rels {
		if _, ok := s.items[r.SourceID]; !ok {
			return model.NewPersistenceFailure("save relationships", fmt.Errorf("unknown card %s", r.SourceID))
		}
		if _, ok := s.items[r.TargetID]; !ok {
			return model.NewPersistenceFailure("save relationships", fmt.Errorf("unknown card %s", r.TargetID))
		}
	}
	for _, r := range rels {
		s.rels[r.ID] = r
	}
	return nil
}

func (s *MemoryStore) ListRelationships(_ context.Context, groupID string) ([]model.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Relationship{}
	for _, r := range s.rels {
		if groupID == "" || r.GroupID == groupID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) DeleteRelationships(_ context.Context, ids []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	confirmed := []string{}
	for _, id := range ids {
		if _, ok := s.rels[id]; ok {
			delete(s.rels, id)
			confirmed = append(confirmed, id)
		}
	}
	return confirmed, nil
}
