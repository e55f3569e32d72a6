package dedupe

import (
	"github.com/agenthands/cardgraph/internal/config"
	"github.com/agenthands/cardgraph/internal/core/common"
	"github.com/agenthands/cardgraph/internal/core/model"
)

// Resolver reduces every set of relationships sharing a pair key to a single kept
// relationship. It never touches storage; callers delete Result.Deleted themselves.
type Resolver struct {
	Weights config.DedupWeights
}

func NewResolver(weights config.DedupWeights) *Resolver {
	return &Resolver{Weights: weights}
}

// Deduplicate resolves rels with the default weights.
func Deduplicate(rels []model.Relationship, strategy model.DedupStrategy) model.DedupResult {
	return NewResolver(config.DefaultDedup().Weights).Resolve(rels, strategy)
}

type group struct {
	key     model.PairKey
	members []int // indexes into the input slice
}

// Resolve groups rels by pair key and picks a winner for each group with more than
// one member. Kept holds every surviving relationship, in input order.
func (r *Resolver) Resolve(rels []model.Relationship, strategy model.DedupStrategy) model.DedupResult {
	result := model.DedupResult{
		Kept:    []model.Relationship{},
		Deleted: []model.Relationship{},
		Groups:  []model.DuplicateGroup{},
	}

	var groups []*group
	byKey := make(map[model.PairKey]*group)
	for i, rel := range rels {
		k := rel.PairKey()
		g, ok := byKey[k]
		if !ok {
			g = &group{key: k}
			byKey[k] = g
			groups = append(groups, g)
		}
		g.members = append(g.members, i)
	}

	deleted := make(map[int]bool)
	for _, g := range groups {
		if len(g.members) < 2 {
			continue
		}

		winner := r.pickWinner(rels, g.members, strategy)
		dg := model.DuplicateGroup{
			Key:     g.key,
			Pair:    g.key.String(),
			Kept:    rels[winner],
			Deleted: []model.Relationship{},
		}
		for _, idx := range g.members {
			if idx == winner {
				continue
			}
			deleted[idx] = true
			dg.Deleted = append(dg.Deleted, rels[idx])
			result.Deleted = append(result.Deleted, rels[idx])
		}
		result.Groups = append(result.Groups, dg)
	}

	for i, rel := range rels {
		if !deleted[i] {
			result.Kept = append(result.Kept, rel)
		}
	}

	result.Metrics = metrics(rels, result)
	return result
}

// pickWinner returns the input index of the relationship to keep.
func (r *Resolver) pickWinner(rels []model.Relationship, members []int, strategy model.DedupStrategy) int {
	if strategy.PreserveManual {
		for _, idx := range members {
			if rels[idx].Type == model.RelationManual {
				return idx
			}
		}
	}

	pool := members
	for _, t := range strategy.Priority {
		var restricted []int
		for _, idx := range members {
			if rels[idx].Type == t {
				restricted = append(restricted, idx)
			}
		}
		if len(restricted) > 0 {
			pool = restricted
			break
		}
	}

	best, bestScore := pool[0], r.Score(rels[pool[0]], strategy)
	for _, idx := range pool[1:] {
		if s := r.Score(rels[idx], strategy); s > bestScore {
			best, bestScore = idx, s
		}
	}
	return best
}

// Score rates a relationship for survival. Types earlier in the priority list earn a
// larger bonus; strength below the quality threshold halves the result.
func (r *Resolver) Score(rel model.Relationship, strategy model.DedupStrategy) float64 {
	w := r.Weights
	strength := common.Clamp01(rel.Strength)
	score := w.Strength*strength + w.Confidence*common.Clamp01(rel.Confidence)

	n := len(strategy.Priority)
	for i, t := range strategy.Priority {
		if t == rel.Type {
			score += common.SafeDiv(float64(n-i), float64(n)) * w.PriorityBonus
			break
		}
	}

	if strength < strategy.QualityThreshold {
		score *= w.LowQualityPenalty
	}
	return score
}

func metrics(all []model.Relationship, result model.DedupResult) model.QualityMetrics {
	before := averageStrength(all)
	after := averageStrength(result.Kept)
	return model.QualityMetrics{
		RelationshipsAnalyzed: len(all),
		DuplicateGroupsFound:  len(result.Groups),
		RelationshipsDeleted:  len(result.Deleted),
		RelationshipsKept:     len(result.Kept),
		AvgStrengthBefore:     before,
		AvgStrengthAfter:      after,
		QualityImprovement:    common.SafeDiv(after-before, before),
	}
}

func averageStrength(rels []model.Relationship) float64 {
	var sum float64
	for _, r := range rels {
		sum += common.Clamp01(r.Strength)
	}
	return common.SafeDiv(sum, float64(len(rels)))
}
