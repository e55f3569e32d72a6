package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/cardgraph/internal/core/model"
	"github.com/agenthands/cardgraph/internal/driver"
)

var created = time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC)

func TestGraphStore_ListRelationships(t *testing.T) {
	mock := &MockDriver{MockResult: neo4j.EagerResult{Records: []*neo4j.Record{
		relationshipRecord("rel-1", "board-1", "card-1", "card-2", "inferredTag", 0.62, 0.8,
			`{"shared_tags":["ux"],"common":1,"union":2,"jaccard":0.5,"coverage":0.75,"similarity":0.6,"explanation":"shared tags: ux (1)"}`,
			"2024-05-02T10:30:00Z", "2024-05-02T10:30:00Z"),
		relationshipRecord("rel-2", "board-1", "card-2", "card-3", "derived", int64(1), 0.5,
			`{"explanation":"legacy","score":3}`, created, nil),
	}}}
	s := NewGraphStore(mock, nil)

	rels, err := s.ListRelationships(context.Background(), "board-1")
	require.NoError(t, err)
	require.Len(t, rels, 2)

	assert.Equal(t, driver.ListRelationshipsQuery, mock.QueryExecuted)
	assert.Equal(t, "board-1", mock.QueryParams["group_id"])

	r := rels[0]
	assert.Equal(t, "rel-1", r.ID)
	assert.Equal(t, model.RelationInferredTag, r.Type)
	assert.Equal(t, 0.62, r.Strength)
	assert.True(t, created.Equal(r.CreatedAt))
	meta, ok := r.Metadata.(model.TagMetadata)
	require.True(t, ok)
	assert.Equal(t, []string{"ux"}, meta.SharedTags)
	assert.Equal(t, "shared tags: ux (1)", r.Metadata.Explain())

	legacy := rels[1]
	assert.Equal(t, 1.0, legacy.Strength)
	assert.True(t, created.Equal(legacy.CreatedAt))
	assert.True(t, legacy.UpdatedAt.IsZero())
	generic, ok := legacy.Metadata.(model.GenericMetadata)
	require.True(t, ok)
	assert.Equal(t, model.RelationType("derived"), generic.Kind())
	assert.Equal(t, "legacy", generic.Explain())
}

func TestGraphStore_ListRelationships_BadMetadataKeepsEdge(t *testing.T) {
	mock := &MockDriver{MockResult: neo4j.EagerResult{Records: []*neo4j.Record{
		relationshipRecord("rel-1", "board-1", "card-1", "card-2", "inferredTag", 0.5, 0.5, `{not json`, "", ""),
	}}}

	rels, err := NewGraphStore(mock, nil).ListRelationships(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Nil(t, rels[0].Metadata)
	assert.Equal(t, "", mock.QueryParams["group_id"])
}

func TestGraphStore_ListRelationships_BadTimestamp(t *testing.T) {
	mock := &MockDriver{MockResult: neo4j.EagerResult{Records: []*neo4j.Record{
		relationshipRecord("rel-1", "board-1", "card-1", "card-2", "manual", 0.5, 1.0, "", "yesterday", ""),
	}}}

	_, err := NewGraphStore(mock, nil).ListRelationships(context.Background(), "board-1")
	assert.True(t, model.IsKind(err, model.KindPersistenceFailure))
}

func TestGraphStore_SaveRelationships(t *testing.T) {
	mock := &MockDriver{MockResult: neo4j.EagerResult{Records: []*neo4j.Record{
		{Keys: []string{"uuid"}, Values: []any{"rel-1"}},
	}}}
	rel := model.Relationship{
		ID:         "rel-1",
		GroupID:    "board-1",
		SourceID:   "card-1",
		TargetID:   "card-2",
		Type:       model.RelationManual,
		Strength:   0.7,
		Confidence: 1,
		Metadata:   model.ManualMetadata{Note: "same interview", Explanation: "created by an analyst"},
		CreatedAt:  created,
		UpdatedAt:  created,
	}

	require.NoError(t, NewGraphStore(mock, nil).SaveRelationships(context.Background(), []model.Relationship{rel}))

	assert.Equal(t, driver.SaveRelationshipsQuery, mock.QueryExecuted)
	rows, ok := mock.QueryParams["relationships"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "manual", rows[0]["type"])
	assert.Equal(t, "card-1", rows[0]["source_uuid"])
	assert.Equal(t, "2024-05-02T10:30:00Z", rows[0]["created_at"])
	assert.JSONEq(t, `{"note":"same interview","explanation":"created by an analyst"}`, rows[0]["metadata"].(string))
}

func TestGraphStore_SaveRelationships_MissingCards(t *testing.T) {
	mock := &MockDriver{}
	err := NewGraphStore(mock, nil).SaveRelationships(context.Background(), []model.Relationship{
		{ID: "rel-1", SourceID: "ghost", TargetID: "card-2", Type: model.RelationManual},
	})

	assert.True(t, model.IsKind(err, model.KindPersistenceFailure))
	assert.Contains(t, err.Error(), "0 of 1")
}

func TestGraphStore_SaveNothingSkipsDriver(t *testing.T) {
	mock := &MockDriver{}
	s := NewGraphStore(mock, nil)

	require.NoError(t, s.SaveRelationships(context.Background(), nil))
	require.NoError(t, s.SaveItems(context.Background(), nil))
	assert.Empty(t, mock.QueryExecuted)
}

func TestGraphStore_DeleteRelationships(t *testing.T) {
	mock := &MockDriver{MockResult: neo4j.EagerResult{Records: []*neo4j.Record{
		{Keys: []string{"uuid"}, Values: []any{"rel-1"}},
		{Keys: []string{"uuid"}, Values: []any{"rel-3"}},
	}}}

	confirmed, err := NewGraphStore(mock, nil).DeleteRelationships(context.Background(), []string{"rel-1", "rel-2", "rel-3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rel-1", "rel-3"}, confirmed)
	assert.Equal(t, []string{"rel-1", "rel-2", "rel-3"}, mock.QueryParams["uuids"])
}

func TestGraphStore_DriverError(t *testing.T) {
	mock := &MockDriver{Err: errors.New("connection reset")}
	s := NewGraphStore(mock, nil)

	_, err := s.DeleteRelationships(context.Background(), []string{"rel-1"})
	assert.True(t, model.IsKind(err, model.KindPersistenceFailure))
	assert.ErrorContains(t, err, "connection reset")

	_, err = s.ListItems(context.Background(), "board-1")
	assert.True(t, model.IsKind(err, model.KindPersistenceFailure))
}

func TestGraphStore_Items(t *testing.T) {
	mock := &MockDriver{MockResult: neo4j.EagerResult{Records: []*neo4j.Record{{
		Keys:   []string{"uuid", "group_id", "title", "body", "tags", "type", "created_at"},
		Values: []any{"card-1", "board-1", "Checkout", "Users drop off", []any{"ux", "funnel"}, "observations", "2024-05-02T10:30:00Z"},
	}}}}
	s := NewGraphStore(mock, nil)

	items, err := s.ListItems(context.Background(), "board-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"ux", "funnel"}, items[0].Tags)
	assert.Equal(t, "observations", items[0].Type)
	assert.True(t, created.Equal(items[0].CreatedAt))

	require.NoError(t, s.SaveItems(context.Background(), []model.ContentItem{{ID: "card-9", GroupID: "board-1", CreatedAt: created}}))
	assert.Equal(t, driver.SaveCardsQuery, mock.QueryExecuted)
	cards := mock.QueryParams["cards"].([]map[string]interface{})
	assert.Equal(t, []string{}, cards[0]["tags"])
}
