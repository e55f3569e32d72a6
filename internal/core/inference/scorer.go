package inference

import (
	"github.com/agenthands/cardgraph/internal/config"
	"github.com/agenthands/cardgraph/internal/core/common"
	"github.com/agenthands/cardgraph/internal/core/model"
)

// ScoreCandidate computes the composite quality of a candidate and derives the
// strength and confidence that would be persisted. All outputs are within [0,1].
func ScoreCandidate(c model.Candidate, cfg config.ScoringConfig) model.Score {
	w := cfg.WeightsFor(c.Type)
	s := c.Signals

	quality := w.Similarity*common.Finite(s.Similarity) +
		w.Content*common.Finite(s.ContentSimilarity) +
		w.Temporal*common.Finite(s.TemporalBonus) +
		w.TagQuality*TagQualityBonus(s.SharedTags, cfg.TagQualityCap)
	quality = common.Clamp01(quality)

	return model.Score{
		Quality:    quality,
		Strength:   common.Clamp01(min(cfg.StrengthCap, quality)),
		Confidence: common.Clamp01(min(cfg.ConfidenceCap, s.Similarity+s.ContentSimilarity*cfg.ConfidenceContentFactor)),
	}
}

// TagQualityBonus rewards additional shared tags with diminishing returns:
// 1 tag gives 0, 2 give 0.5, 4 give 0.75, never above limit.
func TagQualityBonus(sharedTags int, limit float64) float64 {
	if sharedTags < 1 {
		return 0
	}
	return min(limit, 1-1/float64(sharedTags))
}

// ScoreAll scores a copy of candidates.
func ScoreAll(candidates []model.Candidate, cfg config.ScoringConfig) []model.Candidate {
	out := make([]model.Candidate, len(candidates))
	for i, c := range candidates {
		sc := ScoreCandidate(c, cfg)
		c.Quality, c.Strength, c.Confidence = sc.Quality, sc.Strength, sc.Confidence
		out[i] = c
	}
	return out
}
