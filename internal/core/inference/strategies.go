package inference

import (
	"fmt"
	"strings"

	"github.com/agenthands/cardgraph/internal/config"
	"github.com/agenthands/cardgraph/internal/core/common"
	"github.com/agenthands/cardgraph/internal/core/model"
)

type tagSignal struct {
	shared     []string
	union      int
	jaccard    float64
	coverage   float64
	similarity float64
}

func measureTags(a, b map[string]struct{}, cfg config.ScoringConfig) tagSignal {
	if len(a) == 0 || len(b) == 0 {
		return tagSignal{}
	}
	shared, union := common.Overlap(a, b)
	n := float64(len(shared))
	jaccard := common.SafeDiv(n, float64(union))
	coverage := (common.SafeDiv(n, float64(len(a))) + common.SafeDiv(n, float64(len(b)))) / 2
	return tagSignal{
		shared:     shared,
		union:      union,
		jaccard:    jaccard,
		coverage:   coverage,
		similarity: common.Clamp01(cfg.TagJaccardWeight*jaccard + cfg.TagCoverageWeight*coverage),
	}
}

func signals(p *pair, similarity float64) model.Signals {
	return model.Signals{
		Similarity:        common.Clamp01(similarity),
		ContentSimilarity: p.content,
		TemporalBonus:     p.temporal,
		SharedTags:        len(p.tagSim.shared),
	}
}

func tagStrategy(g Generator, p *pair) (model.Candidate, bool) {
	t := p.tagSim
	if len(t.shared) < 1 || t.similarity < g.Config.TagSimilarityFloor {
		return model.Candidate{}, false
	}

	explanation := fmt.Sprintf("shared tags: %s (%d)", strings.Join(t.shared, ", "), len(t.shared))
	return model.Candidate{
		SourceID: p.a.item.ID,
		TargetID: p.b.item.ID,
		Type:     model.RelationInferredTag,
		Signals:  signals(p, t.similarity),
		Metadata: model.TagMetadata{
			SharedTags:  t.shared,
			Common:      len(t.shared),
			Union:       t.union,
			Jaccard:     t.jaccard,
			Coverage:    t.coverage,
			Similarity:  t.similarity,
			Explanation: explanation,
		},
		Explanation: explanation,
	}, true
}

func contentStrategy(g Generator, p *pair) (model.Candidate, bool) {
	if p.content < g.Config.ContentSimilarityFloor {
		return model.Candidate{}, false
	}

	shared, union := common.Overlap(p.a.words, p.b.words)
	explanation := fmt.Sprintf("%d shared words (%.0f%% overlap)", len(shared), p.content*100)
	return model.Candidate{
		SourceID: p.a.item.ID,
		TargetID: p.b.item.ID,
		Type:     model.RelationInferredContent,
		Signals:  signals(p, p.content),
		Metadata: model.ContentMetadata{
			SharedWords: len(shared),
			UnionWords:  union,
			Similarity:  p.content,
			Explanation: explanation,
		},
		Explanation: explanation,
	}, true
}

// workflowStrategy links items whose types form a configured analytic step, for
// example a question leading to an insight. The source is the earlier step.
func workflowStrategy(g Generator, p *pair) (model.Candidate, bool) {
	from, to, ok := workflowDirection(g.Config.WorkflowPairs, p.a, p.b)
	if !ok {
		return model.Candidate{}, false
	}

	cfg := g.Config
	text := cfg.WorkflowContentWeight*p.content + cfg.WorkflowTagWeight*p.tagSim.similarity
	score := min(1, text+cfg.WorkflowBonus)
	if score < cfg.WorkflowFloor {
		return model.Candidate{}, false
	}

	explanation := fmt.Sprintf("workflow: %s -> %s", from.item.Type, to.item.Type)
	sig := signals(p, score)
	sig.WorkflowBonus = cfg.WorkflowBonus
	return model.Candidate{
		SourceID: from.item.ID,
		TargetID: to.item.ID,
		Type:     model.RelationInferredWorkflow,
		Signals:  sig,
		Metadata: model.WorkflowMetadata{
			FromType:       from.item.Type,
			ToType:         to.item.Type,
			TextSimilarity: common.Clamp01(text),
			WorkflowBonus:  cfg.WorkflowBonus,
			Score:          common.Clamp01(score),
			Explanation:    explanation,
		},
		Explanation: explanation,
	}, true
}

func workflowDirection(steps []config.WorkflowPair, a, b *features) (from, to *features, ok bool) {
	if a.kind == "" || b.kind == "" {
		return nil, nil, false
	}
	for _, s := range steps {
		f, t := strings.ToLower(s.From), strings.ToLower(s.To)
		switch {
		case a.kind == f && b.kind == t:
			return a, b, true
		case b.kind == f && a.kind == t:
			return b, a, true
		}
	}
	return nil, nil, false
}

func semanticStrategy(g Generator, p *pair) (model.Candidate, bool) {
	va, okA := g.Embeddings[p.a.item.ID]
	vb, okB := g.Embeddings[p.b.item.ID]
	if !okA || !okB {
		return model.Candidate{}, false
	}

	cos := common.Clamp01(common.Cosine(va, vb))
	if cos < g.Config.SemanticFloor {
		return model.Candidate{}, false
	}

	explanation := fmt.Sprintf("semantic similarity %.2f", cos)
	return model.Candidate{
		SourceID:    p.a.item.ID,
		TargetID:    p.b.item.ID,
		Type:        model.RelationInferredSemantic,
		Signals:     signals(p, cos),
		Metadata:    model.SemanticMetadata{Cosine: cos, Explanation: explanation},
		Explanation: explanation,
	}, true
}
