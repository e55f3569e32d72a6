package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agenthands/cardgraph/internal/core/model"
	"github.com/agenthands/cardgraph/internal/driver"
	"github.com/agenthands/cardgraph/internal/logger"
)

// GraphStore keeps cards and relationships in Memgraph.
type GraphStore struct {
	Driver driver.GraphDriver
	Logger *zap.Logger
}

func NewGraphStore(d driver.GraphDriver, log *zap.Logger) *GraphStore {
	return &GraphStore{Driver: d, Logger: logger.OrNop(log)}
}

func (s *GraphStore) SaveItems(ctx context.Context, items []model.ContentItem) error {
	if len(items) == 0 {
		return nil
	}

	cards := make([]driver.Params, 0, len(items))
	for _, it := range items {
		tags := it.Tags
		if tags == nil {
			tags = []string{}
		}
		cards = append(cards, driver.Params{
			"uuid":       it.ID,
			"group_id":   it.GroupID,
			"title":      it.Title,
			"body":       it.Body,
			"tags":       tags,
			"type":       it.Type,
			"created_at": formatTime(it.CreatedAt),
		})
	}

	if _, err := s.Driver.ExecuteQuery(ctx, driver.SaveCardsQuery, driver.Params{"cards": cards}); err != nil {
		return model.NewPersistenceFailure("save items", err)
	}
	return nil
}

func (s *GraphStore) ListItems(ctx context.Context, groupID string) ([]model.ContentItem, error) {
	res, err := s.Driver.ExecuteQuery(ctx, driver.ListCardsQuery, driver.Params{"group_id": groupID})
	if err != nil {
		return nil, model.NewPersistenceFailure("list items", err)
	}

	items := make([]model.ContentItem, 0, len(res.Records))
	for _, rec := range res.Records {
		createdAt, err := recordTime(rec, "created_at")
		if err != nil {
			return nil, model.NewPersistenceFailure("list items", err)
		}
		items = append(items, model.ContentItem{
			ID:        recordString(rec, "uuid"),
			GroupID:   recordString(rec, "group_id"),
			Title:     recordString(rec, "title"),
			Body:      recordString(rec, "body"),
			Tags:      recordStrings(rec, "tags"),
			Type:      recordString(rec, "type"),
			CreatedAt: createdAt,
		})
	}
	return items, nil
}

// SaveRelationships writes rels in one batch. Both endpoint cards must already exist.
func (s *GraphStore) SaveRelationships(ctx context.Context, rels []model.Relationship) error {
	if len(rels) == 0 {
		return nil
	}

	rows := make([]driver.Params, 0, len(rels))
	for _, r := range rels {
		meta, err := model.EncodeMetadata(r.Metadata)
		if err != nil {
			return fmt.Errorf("failed to save relationship %s: %w", r.ID, err)
		}
		rows = append(rows, driver.Params{
			"uuid":        r.ID,
			"group_id":    r.GroupID,
			"source_uuid": r.SourceID,
			"target_uuid": r.TargetID,
			"type":        string(r.Type),
			"strength":    r.Strength,
			"confidence":  r.Confidence,
			"metadata":    meta,
			"created_at":  formatTime(r.CreatedAt),
			"updated_at":  formatTime(r.UpdatedAt),
		})
	}

	res, err := s.Driver.ExecuteQuery(ctx, driver.SaveRelationshipsQuery, driver.Params{"relationships": rows})
	if err != nil {
		return model.NewPersistenceFailure("save relationships", err)
	}
	if len(res.Records) < len(rels) {
		return model.NewPersistenceFailure("save relationships",
			fmt.Errorf("%d of %d relationships written, unknown card ids", len(res.Records), len(rels)))
	}
	return nil
}

// ListRelationships returns the relationships of groupID, or of every group when
// groupID is empty.
func (s *GraphStore) ListRelationships(ctx context.Context, groupID string) ([]model.Relationship, error) {
	res, err := s.Driver.ExecuteQuery(ctx, driver.ListRelationshipsQuery, driver.Params{"group_id": groupID})
	if err != nil {
		return nil, model.NewPersistenceFailure("list relationships", err)
	}

	rels := make([]model.Relationship, 0, len(res.Records))
	for _, rec := range res.Records {
		r := model.Relationship{
			ID:         recordString(rec, "uuid"),
			GroupID:    recordString(rec, "group_id"),
			SourceID:   recordString(rec, "source_uuid"),
			TargetID:   recordString(rec, "target_uuid"),
			Type:       model.RelationType(recordString(rec, "type")),
			Strength:   recordFloat(rec, "strength"),
			Confidence: recordFloat(rec, "confidence"),
		}
		if r.CreatedAt, err = recordTime(rec, "created_at"); err != nil {
			return nil, model.NewPersistenceFailure("list relationships", err)
		}
		if r.UpdatedAt, err = recordTime(rec, "updated_at"); err != nil {
			return nil, model.NewPersistenceFailure("list relationships", err)
		}

		// Unreadable metadata does not hide the edge from dedup or bulk delete.
		r.Metadata, err = model.DecodeMetadata(r.Type, []byte(recordString(rec, "metadata")))
		if err != nil {
			logger.OrNop(s.Logger).Warn("dropping unreadable relationship metadata", zap.String("uuid", r.ID), zap.Error(err))
			r.Metadata = nil
		}
		rels = append(rels, r)
	}
	return rels, nil
}

// DeleteRelationships removes the given ids and returns those the store confirmed.
func (s *GraphStore) DeleteRelationships(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}

	res, err := s.Driver.ExecuteQuery(ctx, driver.DeleteRelationshipsQuery, driver.Params{"uuids": ids})
	if err != nil {
		return nil, model.NewPersistenceFailure("delete relationships", err)
	}

	confirmed := make([]string, 0, len(res.Records))
	for _, rec := range res.Records {
		if id := recordString(rec, "uuid"); id != "" {
			confirmed = append(confirmed, id)
		}
	}
	return confirmed, nil
}
