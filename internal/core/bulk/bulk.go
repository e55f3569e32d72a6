package bulk

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agenthands/cardgraph/internal/core/model"
	"github.com/agenthands/cardgraph/internal/logger"
)

// Store is the part of the relationship store that batch deletion needs.
type Store interface {
	ListRelationships(ctx context.Context, groupID string) ([]model.Relationship, error)
	DeleteRelationships(ctx context.Context, ids []string) ([]string, error)
}

type Ops struct {
	Store  Store
	Logger *zap.Logger
}

func NewOps(store Store, log *zap.Logger) *Ops {
	return &Ops{Store: store, Logger: log}
}

// Delete removes every relationship matching filter. The result compares how many
// deletions were requested with how many the store confirmed; each unconfirmed id
// gets one line in Errors, carrying the store's error when there was one. Confirmed
// deletions are never rolled back. A batch the store only partly confirmed returns
// the result together with a KindPartialBatchFailure error.
func (o *Ops) Delete(ctx context.Context, filter model.BulkFilter) (model.BulkResult, error) {
	result := model.BulkResult{Errors: []string{}}

	if !filter.HasCriteria() && !filter.All {
		return result, model.NewInvalidInput("bulk delete needs at least one criterion or all=true")
	}
	if filter.MinStrength != nil && filter.MaxStrength != nil && *filter.MinStrength > *filter.MaxStrength {
		return result, model.NewInvalidInput("min_strength %v is greater than max_strength %v", *filter.MinStrength, *filter.MaxStrength)
	}

	rels, err := o.Store.ListRelationships(ctx, filter.GroupID)
	if err != nil {
		return result, model.NewPersistenceFailure("list relationships", err)
	}

	var ids []string
	for _, r := range rels {
		if filter.Matches(r) {
			ids = append(ids, r.ID)
		}
	}
	result.Requested = len(ids)
	if len(ids) == 0 {
		return result, nil
	}

	confirmed, err := o.Store.DeleteRelationships(ctx, ids)

	done := make(map[string]struct{}, len(confirmed))
	for _, id := range confirmed {
		done[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := done[id]; ok {
			result.Confirmed++
			continue
		}
		line := fmt.Sprintf("relationship %s was not deleted", id)
		if err != nil {
			line += ": " + err.Error()
		}
		result.Errors = append(result.Errors, line)
	}

	o.log().Info("bulk delete finished",
		zap.String("group_id", filter.GroupID),
		zap.Int("requested", result.Requested),
		zap.Int("confirmed", result.Confirmed),
	)

	switch {
	case result.Confirmed == result.Requested:
		return result, nil
	case err != nil && result.Confirmed == 0:
		return result, model.NewPersistenceFailure("delete relationships", err)
	default:
		return result, model.NewPartialBatchFailure("bulk delete", result.Requested, result.Confirmed, err)
	}
}

func (o *Ops) log() *zap.Logger {
	return logger.OrNop(o.Logger)
}
