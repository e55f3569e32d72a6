package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/cardgraph/internal/config"
	"github.com/agenthands/cardgraph/internal/core/model"
)

func rel(id, source, target string, t model.RelationType, strength, confidence float64) model.Relationship {
	return model.Relationship{
		ID:         id,
		GroupID:    "board-1",
		SourceID:   source,
		TargetID:   target,
		Type:       t,
		Strength:   strength,
		Confidence: confidence,
	}
}

func legacyStrategy(preserveManual bool) model.DedupStrategy {
	return model.DedupStrategy{
		Priority:         []model.RelationType{"manual", "unified", "ai", "derived", "tagSimilarity", "semantic"},
		QualityThreshold: 0.3,
		PreserveManual:   preserveManual,
	}
}

func ids(rels []model.Relationship) []string {
	out := make([]string, 0, len(rels))
	for _, r := range rels {
		out = append(out, r.ID)
	}
	return out
}

func TestDeduplicate_PreservesManual(t *testing.T) {
	rels := []model.Relationship{
		rel("r1", "card-1", "card-2", "tagSimilarity", 0.9, 0.9),
		rel("r2", "card-3", "card-4", model.RelationInferredTag, 0.5, 0.5),
		rel("r3", "card-1", "card-2", "derived", 0.8, 0.8),
		rel("r4", "card-2", "card-1", model.RelationManual, 0.2, 1),
	}

	res := Deduplicate(rels, legacyStrategy(true))

	assert.Equal(t, []string{"r2", "r4"}, ids(res.Kept))
	assert.ElementsMatch(t, []string{"r1", "r3"}, ids(res.Deleted))
	require.Len(t, res.Groups, 1)
	assert.Equal(t, "card-1::card-2", res.Groups[0].Pair)
	assert.Equal(t, "r4", res.Groups[0].Kept.ID)

	assert.Equal(t, 2, res.Metrics.RelationshipsDeleted)
	assert.Equal(t, 1, res.Metrics.DuplicateGroupsFound)
	assert.Equal(t, 4, res.Metrics.RelationshipsAnalyzed)
	assert.Equal(t, 2, res.Metrics.RelationshipsKept)
}

func TestDeduplicate_PreserveManualPicksFirstManual(t *testing.T) {
	rels := []model.Relationship{
		rel("r1", "a", "b", "tagSimilarity", 0.9, 0.9),
		rel("r2", "a", "b", model.RelationManual, 0.1, 0.1),
		rel("r3", "b", "a", model.RelationManual, 0.9, 1),
	}

	res := Deduplicate(rels, model.DedupStrategy{PreserveManual: true})
	assert.Equal(t, []string{"r2"}, ids(res.Kept))
}

func TestDeduplicate_PriorityRestrictsPool(t *testing.T) {
	rels := []model.Relationship{
		rel("r1", "a", "b", "tagSimilarity", 0.9, 0.9),
		rel("r2", "a", "b", "derived", 0.35, 0.35),
	}

	res := Deduplicate(rels, legacyStrategy(false))

	assert.Equal(t, []string{"r2"}, ids(res.Kept), "derived ranks above tagSimilarity")
	assert.Equal(t, []string{"r1"}, ids(res.Deleted))
}

func TestDeduplicate_UnlistedTypesCompeteOnScore(t *testing.T) {
	rels := []model.Relationship{
		rel("r1", "a", "b", "x", 0.5, 0.5),
		rel("r2", "a", "b", "y", 0.7, 0.7),
	}

	res := Deduplicate(rels, legacyStrategy(false))
	assert.Equal(t, []string{"r2"}, ids(res.Kept))
}

func TestDeduplicate_LowStrengthPenalty(t *testing.T) {
	strategy := model.DedupStrategy{
		Priority:         []model.RelationType{model.RelationInferredTag},
		QualityThreshold: 0.3,
	}
	rels := []model.Relationship{
		rel("weak", "a", "b", model.RelationInferredTag, 0.25, 1.0),
		rel("solid", "a", "b", model.RelationInferredTag, 0.4, 0.3),
	}

	r := NewResolver(config.DefaultDedup().Weights)
	assert.InDelta(t, 0.375, r.Score(rels[0], strategy), 1e-9)
	assert.InDelta(t, 0.56, r.Score(rels[1], strategy), 1e-9)

	res := r.Resolve(rels, strategy)
	assert.Equal(t, []string{"solid"}, ids(res.Kept))
}

func TestDeduplicate_TieKeepsFirstEncountered(t *testing.T) {
	rels := []model.Relationship{
		rel("r1", "a", "b", model.RelationInferredTag, 0.6, 0.6),
		rel("r2", "b", "a", model.RelationInferredTag, 0.6, 0.6),
	}

	res := Deduplicate(rels, config.DefaultDedup().Strategy())
	assert.Equal(t, []string{"r1"}, ids(res.Kept))
	assert.Equal(t, []string{"r2"}, ids(res.Deleted))
}

func TestScore_PriorityBonus(t *testing.T) {
	r := NewResolver(config.DefaultDedup().Weights)
	strategy := model.DedupStrategy{Priority: []model.RelationType{model.RelationManual, model.RelationInferredTag}}

	assert.InDelta(t, 0.6, r.Score(rel("x", "a", "b", model.RelationInferredTag, 0.5, 0.5), strategy), 1e-9)
	assert.InDelta(t, 0.7, r.Score(rel("y", "a", "b", model.RelationManual, 0.5, 0.5), strategy), 1e-9)
	assert.InDelta(t, 0.5, r.Score(rel("z", "a", "b", "legacy", 0.5, 0.5), strategy), 1e-9)
}

func TestDeduplicate_Metrics(t *testing.T) {
	rels := []model.Relationship{
		rel("r1", "a", "b", model.RelationInferredTag, 0.2, 0.5),
		rel("r2", "a", "b", model.RelationInferredTag, 0.8, 0.5),
		rel("r3", "c", "d", model.RelationInferredContent, 0.5, 0.5),
	}

	m := Deduplicate(rels, config.DefaultDedup().Strategy()).Metrics

	assert.InDelta(t, 0.5, m.AvgStrengthBefore, 1e-9)
	assert.InDelta(t, 0.65, m.AvgStrengthAfter, 1e-9)
	assert.InDelta(t, 0.3, m.QualityImprovement, 1e-9)
}

func TestDeduplicate_ZeroBaseline(t *testing.T) {
	rels := []model.Relationship{
		rel("r1", "a", "b", model.RelationInferredTag, 0, 0),
		rel("r2", "a", "b", model.RelationInferredTag, 0, 0),
	}

	m := Deduplicate(rels, config.DefaultDedup().Strategy()).Metrics
	assert.Equal(t, 0.0, m.AvgStrengthBefore)
	assert.Equal(t, 0.0, m.QualityImprovement)

	empty := Deduplicate(nil, config.DefaultDedup().Strategy())
	assert.Empty(t, empty.Kept)
	assert.Equal(t, 0.0, empty.Metrics.QualityImprovement)
}

func TestDeduplicate_PartitionsInput(t *testing.T) {
	types := []model.RelationType{model.RelationManual, model.RelationInferredTag, "derived", model.RelationInferredContent}
	nodes := []string{"a", "b", "c", "d"}

	var rels []model.Relationship
	n := 0
	for i, src := range nodes {
		for _, dst := range nodes[i+1:] {
			for k, typ := range types {
				if (i+k)%2 == 0 {
					continue
				}
				n++
				s, d := src, dst
				if n%3 == 0 {
					s, d = d, s
				}
				rels = append(rels, rel(string(rune('A'+n)), s, d, typ, float64(n%10)/10, 0.5))
			}
		}
	}

	res := Deduplicate(rels, config.DefaultDedup().Strategy())

	assert.Len(t, append(ids(res.Kept), ids(res.Deleted)...), len(rels))
	assert.ElementsMatch(t, ids(rels), append(ids(res.Kept), ids(res.Deleted)...))

	seen := model.NewPairKeySet()
	for _, k := range res.Kept {
		assert.False(t, seen.Has(k.PairKey()), "pair %s kept twice", k.PairKey())
		seen.Add(k.PairKey())
	}
	assert.Equal(t, model.PairKeysOf(rels).Len(), seen.Len())
}
