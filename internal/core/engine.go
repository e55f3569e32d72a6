package core

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/cardgraph/internal/config"
	"github.com/agenthands/cardgraph/internal/core/bulk"
	"github.com/agenthands/cardgraph/internal/core/dedupe"
	"github.com/agenthands/cardgraph/internal/core/inference"
	"github.com/agenthands/cardgraph/internal/core/model"
	"github.com/agenthands/cardgraph/internal/llm"
	"github.com/agenthands/cardgraph/internal/logger"
)

// Engine runs inference and deduplication passes against the stores. Passes on the
// same group are serialized; different groups run independently.
type Engine struct {
	Items         ItemStore
	Relationships RelationshipStore
	Embedder      llm.EmbedderClient
	Config        *config.Config
	Logger        *zap.Logger

	UUIDGenerator func() string
	Now           func() time.Time

	mu         sync.Mutex
	groupLocks map[string]*sync.Mutex
}

func NewEngine(items ItemStore, rels RelationshipStore, embedder llm.EmbedderClient, cfg *config.Config, log *zap.Logger) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Engine{
		Items:         items,
		Relationships: rels,
		Embedder:      embedder,
		Config:        cfg,
		Logger:        logger.OrNop(log),
		UUIDGenerator: func() string { return uuid.New().String() },
		Now:           func() time.Time { return time.Now().UTC() },
	}
}

type InferenceReport struct {
	GroupID   string               `json:"group_id"`
	ItemCount int                  `json:"item_count"`
	Generated int                  `json:"generated"`
	Eligible  int                  `json:"eligible"`
	Target    int                  `json:"target"`
	Persisted []model.Relationship `json:"persisted"`
	Notice    model.ErrorKind      `json:"notice,omitempty"`
	Detail    string               `json:"detail,omitempty"`
}

func (r *InferenceReport) setNotice(kind model.ErrorKind) {
	r.Notice = kind
	if n := model.NoticeFor(kind); n != nil {
		r.Detail = n.Message
	}
}

type DedupReport struct {
	GroupID   string            `json:"group_id"`
	DryRun    bool              `json:"dry_run"`
	Result    model.DedupResult `json:"result"`
	Intended  []string          `json:"intended"`
	Confirmed []string          `json:"confirmed"`
	Failed    []string          `json:"failed"`
}

func (e *Engine) lockGroup(groupID string) func() {
	e.mu.Lock()
	if e.groupLocks == nil {
		e.groupLocks = make(map[string]*sync.Mutex)
	}
	l, ok := e.groupLocks[groupID]
	if !ok {
		l = &sync.Mutex{}
		e.groupLocks[groupID] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (e *Engine) log() *zap.Logger {
	return logger.OrNop(e.Logger)
}

// Infer proposes, scores and selects new relationships for a group and persists the
// selection. Existing relationships are never modified. Too few items or no
// candidate above the quality floor is reported through Notice, not as an error.
func (e *Engine) Infer(ctx context.Context, groupID string) (*InferenceReport, error) {
	if groupID == "" {
		return nil, model.NewInvalidInput("group_id is required")
	}
	defer e.lockGroup(groupID)()

	report := &InferenceReport{GroupID: groupID, Persisted: []model.Relationship{}}

	items, err := e.Items.ListItems(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	report.ItemCount = len(items)
	if len(items) < 2 {
		report.setNotice(model.ErrInsufficientInput.Kind)
		return report, nil
	}

	existing, err := e.Relationships.ListRelationships(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load relationships: %w", err)
	}

	gen := inference.Generator{Config: e.Config.Scoring}
	if e.Config.Scoring.Strategies.Semantic && e.Embedder != nil {
		if gen.Embeddings, err = e.embedItems(ctx, items); err != nil {
			return nil, err
		}
	}

	candidates := gen.Generate(items, model.PairKeysOf(existing))
	scored := inference.ScoreAll(candidates, e.Config.Scoring)
	sel := inference.SelectTopK(scored, len(items), e.Config.Selection)

	report.Generated = len(candidates)
	report.Eligible = sel.Eligible
	report.Target = sel.TargetCount
	report.setNotice(sel.Notice)

	now := e.Now()
	rels := make([]model.Relationship, 0, len(sel.Candidates))
	for _, c := range sel.Candidates {
		rels = append(rels, model.Relationship{
			ID:         e.UUIDGenerator(),
			GroupID:    groupID,
			SourceID:   c.SourceID,
			TargetID:   c.TargetID,
			Type:       c.Type,
			Strength:   c.Strength,
			Confidence: c.Confidence,
			Metadata:   c.Metadata,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	if len(rels) > 0 {
		if err := e.Relationships.SaveRelationships(ctx, rels); err != nil {
			return nil, fmt.Errorf("failed to persist inferred relationships: %w", err)
		}
		report.Persisted = rels
	}

	e.log().Info("inference pass finished",
		zap.String("group_id", groupID),
		zap.Int("items", len(items)),
		zap.Int("candidates", len(candidates)),
		zap.Int("persisted", len(rels)),
		zap.String("notice", string(report.Notice)),
	)
	return report, nil
}

// embedItems fetches one vector per item. Items whose embedding fails are left out.
func (e *Engine) embedItems(ctx context.Context, items []model.ContentItem) (map[string][]float32, error) {
	var (
		mu  sync.Mutex
		out = make(map[string][]float32, len(items))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, e.Config.Concurrency.Embedding))
	for _, it := range items {
		g.Go(func() error {
			text := strings.TrimSpace(it.Title + "\n" + it.Body)
			if text == "" {
				return nil
			}
			vec, err := e.Embedder.Embed(gctx, text)
			if err != nil {
				e.log().Warn("failed to embed item", zap.String("item_id", it.ID), zap.Error(err))
				return nil
			}
			mu.Lock()
			out[it.ID] = vec
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to embed items: %w", err)
	}
	return out, nil
}

// Deduplicate keeps one relationship per unordered pair in a group and deletes the
// rest unless dryRun is set. Deletions the store confirmed are not rolled back when
// others fail; the report then comes back with a KindPartialBatchFailure error.
func (e *Engine) Deduplicate(ctx context.Context, groupID string, strategy model.DedupStrategy, dryRun bool) (*DedupReport, error) {
	if groupID == "" {
		return nil, model.NewInvalidInput("group_id is required")
	}
	defer e.lockGroup(groupID)()

	rels, err := e.Relationships.ListRelationships(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load relationships: %w", err)
	}

	result := dedupe.NewResolver(e.Config.Dedup.Weights).Resolve(rels, strategy)
	report := &DedupReport{
		GroupID:   groupID,
		DryRun:    dryRun,
		Result:    result,
		Intended:  make([]string, 0, len(result.Deleted)),
		Confirmed: []string{},
		Failed:    []string{},
	}
	for _, r := range result.Deleted {
		report.Intended = append(report.Intended, r.ID)
	}
	if dryRun || len(report.Intended) == 0 {
		return report, nil
	}

	confirmed, delErr := e.Relationships.DeleteRelationships(ctx, report.Intended)
	done := make(map[string]bool, len(confirmed))
	for _, id := range confirmed {
		done[id] = true
	}
	for _, id := range report.Intended {
		if done[id] {
			report.Confirmed = append(report.Confirmed, id)
		} else {
			report.Failed = append(report.Failed, id)
		}
	}

	e.log().Info("deduplication finished",
		zap.String("group_id", groupID),
		zap.Int("groups", result.Metrics.DuplicateGroupsFound),
		zap.Int("intended", len(report.Intended)),
		zap.Int("confirmed", len(report.Confirmed)),
	)

	if len(report.Failed) == 0 {
		return report, nil
	}
	if delErr != nil && len(report.Confirmed) == 0 {
		return report, model.NewPersistenceFailure("delete duplicate relationships", delErr)
	}
	e.log().Warn("some duplicate relationships were not deleted", zap.Strings("failed", report.Failed), zap.Error(delErr))
	return report, model.NewPartialBatchFailure("deduplicate", len(report.Intended), len(report.Confirmed), delErr)
}

func (e *Engine) BulkDelete(ctx context.Context, filter model.BulkFilter) (model.BulkResult, error) {
	if filter.GroupID != "" {
		defer e.lockGroup(filter.GroupID)()
	}
	return bulk.NewOps(e.Relationships, e.log()).Delete(ctx, filter)
}

// CreateManualRelationship records an analyst-drawn link. Manual relationships carry
// full confidence.
func (e *Engine) CreateManualRelationship(ctx context.Context, groupID, sourceID, targetID string, strength float64, note, author string) (*model.Relationship, error) {
	switch {
	case groupID == "":
		return nil, model.NewInvalidInput("group_id is required")
	case sourceID == "" || targetID == "":
		return nil, model.NewInvalidInput("source_id and target_id are required")
	case sourceID == targetID:
		return nil, model.NewInvalidInput("a relationship needs two different items")
	case math.IsNaN(strength):
		return nil, model.NewInvalidInput("strength must be a number")
	}
	defer e.lockGroup(groupID)()

	items, err := e.Items.ListItems(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	known := make(map[string]bool, len(items))
	for _, it := range items {
		known[it.ID] = true
	}
	for _, id := range []string{sourceID, targetID} {
		if !known[id] {
			return nil, model.NewInvalidInput("item %s does not belong to group %s", id, groupID)
		}
	}

	now := e.Now()
	rel := model.Relationship{
		ID:         e.UUIDGenerator(),
		GroupID:    groupID,
		SourceID:   sourceID,
		TargetID:   targetID,
		Type:       model.RelationManual,
		Strength:   min(1, max(0, strength)),
		Confidence: 1,
		Metadata:   model.ManualMetadata{Note: note, Author: author, Explanation: "created by an analyst"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.Relationships.SaveRelationships(ctx, []model.Relationship{rel}); err != nil {
		return nil, fmt.Errorf("failed to save manual relationship: %w", err)
	}
	return &rel, nil
}

func (e *Engine) ListRelationships(ctx context.Context, groupID string) ([]model.Relationship, error) {
	rels, err := e.Relationships.ListRelationships(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	return rels, nil
}

// SaveItems stores cards in a group. Missing creation times default to now.
func (e *Engine) SaveItems(ctx context.Context, groupID string, items []model.ContentItem) ([]model.ContentItem, error) {
	w, ok := e.Items.(ItemWriter)
	if !ok {
		return nil, fmt.Errorf("item store does not accept writes")
	}
	if groupID == "" {
		return nil, model.NewInvalidInput("group_id is required")
	}

	now := e.Now()
	out := make([]model.ContentItem, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			it.ID = e.UUIDGenerator()
		}
		if it.CreatedAt.IsZero() {
			it.CreatedAt = now
		}
		it.GroupID = groupID
		out = append(out, it)
	}
	if err := w.SaveItems(ctx, out); err != nil {
		return nil, fmt.Errorf("failed to save items: %w", err)
	}
	return out, nil
}
