package inference

import (
	"math"
	"sort"

	"github.com/agenthands/cardgraph/internal/config"
	"github.com/agenthands/cardgraph/internal/core/model"
)

// TargetCount is how many relationships a group of n items may receive in one pass.
// It is bounded by pair density, an absolute cap, and a per-item guarantee.
func TargetCount(n int, cfg config.SelectionConfig) int {
	if n < 2 {
		return 0
	}
	totalPairs := n * (n - 1) / 2
	byDensity := int(math.Floor(float64(totalPairs) * cfg.MaxDensity))
	perItem := max(cfg.MinGuarantee, int(math.Floor(float64(n)*cfg.PerItemFactor)))

	return max(0, min(byDensity, cfg.AbsoluteCap, perItem))
}

// SelectTopK drops candidates below the quality floor and keeps the best TargetCount
// of the rest. Equal qualities keep their input order. When candidates clear the
// floor but the target is zero, Notice is KindSelectionCapped.
func SelectTopK(scored []model.Candidate, itemCount int, cfg config.SelectionConfig) model.Selection {
	sel := model.Selection{
		Candidates:  []model.Candidate{},
		TargetCount: TargetCount(itemCount, cfg),
		Considered:  len(scored),
	}

	eligible := make([]model.Candidate, 0, len(scored))
	for _, c := range scored {
		if c.Quality >= cfg.MinQuality {
			eligible = append(eligible, c)
		}
	}
	sel.Eligible = len(eligible)
	if len(eligible) == 0 {
		sel.Notice = model.ErrNoCandidatesFound.Kind
		return sel
	}
	if sel.TargetCount == 0 {
		sel.Notice = model.ErrSelectionCapped.Kind
		return sel
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Quality > eligible[j].Quality
	})
	if len(eligible) > sel.TargetCount {
		eligible = eligible[:sel.TargetCount]
	}
	sel.Candidates = eligible
	return sel
}
