package driver

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Params are the Cypher parameters of a card or relationship query.
type Params = map[string]any

// GraphDriver runs the card graph queries in queries.go. Records come back eagerly;
// the store decodes :Card nodes and :RELATES_TO edges from them.
type GraphDriver interface {
	ExecuteQuery(ctx context.Context, query string, params Params) (neo4j.EagerResult, error)
	// BuildIndices creates the uuid and group_id indexes cards and edges are looked up by.
	BuildIndices(ctx context.Context) error
	Close(ctx context.Context) error
}

var _ GraphDriver = (*MemgraphDriver)(nil)
