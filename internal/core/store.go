package core

import (
	"context"

	"github.com/agenthands/cardgraph/internal/core/model"
)

type ItemStore interface {
	ListItems(ctx context.Context, groupID string) ([]model.ContentItem, error)
}

// ItemWriter is implemented by item stores that accept new cards.
type ItemWriter interface {
	SaveItems(ctx context.Context, items []model.ContentItem) error
}

type RelationshipStore interface {
	// ListRelationships returns every relationship of groupID; "" means all groups.
	ListRelationships(ctx context.Context, groupID string) ([]model.Relationship, error)
	SaveRelationships(ctx context.Context, rels []model.Relationship) error
	// DeleteRelationships returns the ids the store confirmed as deleted.
	DeleteRelationships(ctx context.Context, ids []string) ([]string, error)
}
