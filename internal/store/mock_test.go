package store

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/cardgraph/internal/driver"
)

type MockDriver struct {
	QueryExecuted string
	QueryParams   driver.Params
	MockResult    neo4j.EagerResult
	Err           error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params driver.Params) (neo4j.EagerResult, error) {
	m.QueryExecuted = query
	m.QueryParams = params
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	return m.MockResult, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}

var relationshipKeys = []string{
	"uuid", "group_id", "source_uuid", "target_uuid", "type", "strength",
	"confidence", "metadata", "created_at", "updated_at",
}

func relationshipRecord(values ...any) *neo4j.Record {
	return &neo4j.Record{Keys: relationshipKeys, Values: values}
}
