package inference

import (
	"strings"
	"time"

	"github.com/agenthands/cardgraph/internal/config"
	"github.com/agenthands/cardgraph/internal/core/common"
	"github.com/agenthands/cardgraph/internal/core/model"
)

// Generator proposes candidate relationships between the items of one group.
// Embeddings is optional and keyed by item id; the semantic strategy only runs for
// pairs where both items have a vector.
type Generator struct {
	Config     config.ScoringConfig
	Embeddings map[string][]float32
}

// GenerateCandidates runs every enabled strategy without embeddings.
func GenerateCandidates(items []model.ContentItem, existing model.PairKeySet, cfg config.ScoringConfig) []model.Candidate {
	return Generator{Config: cfg}.Generate(items, existing)
}

// features are the per-item values every strategy compares.
type features struct {
	item  model.ContentItem
	tags  map[string]struct{}
	words map[string]struct{}
	kind  string
}

// pair is one unordered pair of items, with the signals shared by all strategies.
type pair struct {
	a, b       *features
	key        model.PairKey
	content    float64
	tagSim     tagSignal
	temporal   float64
	gapSeconds float64
}

type strategy func(g Generator, p *pair) (model.Candidate, bool)

// Generate returns candidates for every pair of items that is not already in existing.
// The caller's set is not modified. Once a strategy accepts a pair, later strategies
// skip it.
func (g Generator) Generate(items []model.ContentItem, existing model.PairKeySet) []model.Candidate {
	out := []model.Candidate{}
	if len(items) < 2 {
		return out
	}

	feats := make([]features, len(items))
	for i, it := range items {
		feats[i] = features{
			item:  it,
			tags:  common.NormalizeTags(it.Tags),
			words: common.Tokenize(it.Title+" "+it.Body, g.Config.MinWordLength),
			kind:  strings.ToLower(strings.TrimSpace(it.Type)),
		}
	}

	span := observedSpan(items)
	var pairs []*pair
	for i := 0; i < len(feats); i++ {
		for j := i + 1; j < len(feats); j++ {
			a, b := &feats[i], &feats[j]
			if a.item.ID == b.item.ID {
				continue
			}
			p := &pair{
				a:       a,
				b:       b,
				key:     model.NewPairKey(a.item.ID, b.item.ID),
				content: common.Jaccard(a.words, b.words),
				tagSim:  measureTags(a.tags, b.tags, g.Config),
			}
			p.gapSeconds = absDuration(a.item.CreatedAt.Sub(b.item.CreatedAt)).Seconds()
			if g.Config.Strategies.Temporal {
				p.temporal = temporalBonus(p.gapSeconds, span, g.Config.TemporalFallback)
			}
			pairs = append(pairs, p)
		}
	}

	seen := existing.Clone()
	for _, s := range g.strategies() {
		for _, p := range pairs {
			if seen.Has(p.key) {
				continue
			}
			c, ok := s(g, p)
			if !ok {
				continue
			}
			seen.Add(p.key)
			out = append(out, c)
		}
	}
	return out
}

func (g Generator) strategies() []strategy {
	var out []strategy
	if g.Config.Strategies.Tag {
		out = append(out, tagStrategy)
	}
	if g.Config.Strategies.Workflow {
		out = append(out, workflowStrategy)
	}
	if g.Config.Strategies.Content {
		out = append(out, contentStrategy)
	}
	if g.Config.Strategies.Semantic && len(g.Embeddings) > 0 {
		out = append(out, semanticStrategy)
	}
	return out
}

// observedSpan is the distance between the oldest and newest item, in seconds.
func observedSpan(items []model.ContentItem) float64 {
	minT, maxT := items[0].CreatedAt, items[0].CreatedAt
	for _, it := range items[1:] {
		if it.CreatedAt.Before(minT) {
			minT = it.CreatedAt
		}
		if it.CreatedAt.After(maxT) {
			maxT = it.CreatedAt
		}
	}
	return maxT.Sub(minT).Seconds()
}

// temporalBonus is 1 for items created together and 0 for the two furthest apart.
// A zero span yields fallback.
func temporalBonus(gap, span, fallback float64) float64 {
	if span <= 0 {
		return common.Clamp01(fallback)
	}
	return common.Clamp01(1 - common.SafeDiv(gap, span))
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
