package core

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/agenthands/cardgraph/internal/store"
)

type MockEmbedder struct {
	Vector []float32
	Err    error
	Calls  atomic.Int32
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}

// RejectingStore confirms every deletion except the ids in Reject.
type RejectingStore struct {
	*store.MemoryStore
	Reject map[string]bool
	Err    error
}

func (s *RejectingStore) DeleteRelationships(ctx context.Context, ids []string) ([]string, error) {
	var allowed []string
	for _, id := range ids {
		if !s.Reject[id] {
			allowed = append(allowed, id)
		}
	}
	confirmed, err := s.MemoryStore.DeleteRelationships(ctx, allowed)
	if err != nil {
		return confirmed, err
	}
	return confirmed, s.Err
}

func sequentialUUIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("uuid-%d", n)
	}
}
