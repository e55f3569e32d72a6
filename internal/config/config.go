package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/agenthands/cardgraph/internal/core/model"
)

type ServerConfig struct {
	Port string `toml:"port"`
	Env  string `toml:"env"`
}

type StorageConfig struct {
	Backend string `toml:"backend"` // "memgraph" or "memory"
}

type MemgraphConfig struct {
	URI                   string `toml:"uri"`
	User                  string `toml:"user"`
	Password              string `toml:"password"`
	MaxPoolSize           int    `toml:"max_pool_size"`
	ConnectTimeoutSeconds int    `toml:"connect_timeout_seconds"`
}

// LLMConfig selects the embedding provider used by the semantic strategy.
// An empty or "none" provider disables embeddings.
type LLMConfig struct {
	Provider       string `toml:"provider"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

type ConcurrencyConfig struct {
	Embedding int `toml:"embedding"`
}

type StrategyToggles struct {
	Tag      bool `toml:"tag"`
	Content  bool `toml:"content"`
	Temporal bool `toml:"temporal"`
	Workflow bool `toml:"workflow"`
	Semantic bool `toml:"semantic"`
}

// WorkflowPair is an expected analytic step from one card type to another.
type WorkflowPair struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

// QualityWeights are w1..w4 of the composite quality formula.
type QualityWeights struct {
	Similarity float64 `toml:"similarity"`
	Content    float64 `toml:"content"`
	Temporal   float64 `toml:"temporal"`
	TagQuality float64 `toml:"tag_quality"`
}

func (w QualityWeights) Sum() float64 {
	return w.Similarity + w.Content + w.Temporal + w.TagQuality
}

type ScoringConfig struct {
	Strategies StrategyToggles `toml:"strategies"`

	TagSimilarityFloor float64 `toml:"tag_similarity_floor"`
	TagJaccardWeight   float64 `toml:"tag_jaccard_weight"`
	TagCoverageWeight  float64 `toml:"tag_coverage_weight"`
	TagQualityCap      float64 `toml:"tag_quality_cap"`

	ContentSimilarityFloor float64 `toml:"content_similarity_floor"`
	MinWordLength          int     `toml:"min_word_length"`

	TemporalFallback float64 `toml:"temporal_fallback"`

	WorkflowPairs         []WorkflowPair `toml:"workflow_pairs"`
	WorkflowFloor         float64        `toml:"workflow_floor"`
	WorkflowBonus         float64        `toml:"workflow_bonus"`
	WorkflowContentWeight float64        `toml:"workflow_content_weight"`
	WorkflowTagWeight     float64        `toml:"workflow_tag_weight"`

	SemanticFloor float64 `toml:"semantic_floor"`

	// Weights is keyed by relationship type; "default" applies to types without an entry.
	Weights map[string]QualityWeights `toml:"weights"`

	StrengthCap             float64 `toml:"strength_cap"`
	ConfidenceCap           float64 `toml:"confidence_cap"`
	ConfidenceContentFactor float64 `toml:"confidence_content_factor"`
}

func (s ScoringConfig) WeightsFor(t model.RelationType) QualityWeights {
	if w, ok := s.Weights[string(t)]; ok {
		return w
	}
	return s.Weights["default"]
}

type SelectionConfig struct {
	MaxDensity    float64 `toml:"max_density"`
	AbsoluteCap   int     `toml:"absolute_cap"`
	MinGuarantee  int     `toml:"min_guarantee"`
	PerItemFactor float64 `toml:"per_item_factor"`
	MinQuality    float64 `toml:"min_quality"`
}

type DedupWeights struct {
	Strength          float64 `toml:"strength"`
	Confidence        float64 `toml:"confidence"`
	PriorityBonus     float64 `toml:"priority_bonus"`
	LowQualityPenalty float64 `toml:"low_quality_penalty"`
}

type DedupConfig struct {
	Priority         []string     `toml:"priority"`
	QualityThreshold float64      `toml:"quality_threshold"`
	PreserveManual   bool         `toml:"preserve_manual"`
	Weights          DedupWeights `toml:"weights"`
}

// Strategy converts the configured policy into the resolver's input.
func (d DedupConfig) Strategy() model.DedupStrategy {
	priority := make([]model.RelationType, 0, len(d.Priority))
	for _, p := range d.Priority {
		priority = append(priority, model.RelationType(p))
	}
	return model.DedupStrategy{
		Priority:         priority,
		QualityThreshold: d.QualityThreshold,
		PreserveManual:   d.PreserveManual,
	}
}

type Config struct {
	Server      ServerConfig      `toml:"server"`
	Storage     StorageConfig     `toml:"storage"`
	Memgraph    MemgraphConfig    `toml:"memgraph"`
	LLM         LLMConfig         `toml:"llm"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
	Scoring     ScoringConfig     `toml:"scoring"`
	Selection   SelectionConfig   `toml:"selection"`
	Dedup       DedupConfig       `toml:"dedup"`
}

func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080", Env: "development"},
		Storage: StorageConfig{Backend: "memgraph"},
		Memgraph: MemgraphConfig{
			URI:                   "bolt://localhost:7687",
			MaxPoolSize:           50,
			ConnectTimeoutSeconds: 10,
		},
		LLM:         LLMConfig{Provider: "none"},
		Concurrency: ConcurrencyConfig{Embedding: 4},
		Scoring:     DefaultScoring(),
		Selection:   DefaultSelection(),
		Dedup:       DefaultDedup(),
	}
}

func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		Strategies: StrategyToggles{Tag: true, Content: true, Temporal: true, Workflow: true, Semantic: false},

		TagSimilarityFloor: 0.4,
		TagJaccardWeight:   0.6,
		TagCoverageWeight:  0.4,
		TagQualityCap:      0.75,

		ContentSimilarityFloor: 0.3,
		MinWordLength:          3,

		TemporalFallback: 0.5,

		WorkflowPairs: []WorkflowPair{
			{From: "questions", To: "insights"},
			{From: "insights", To: "actions"},
			{From: "observations", To: "questions"},
			{From: "observations", To: "insights"},
		},
		WorkflowFloor:         0.25,
		WorkflowBonus:         0.15,
		WorkflowContentWeight: 0.7,
		WorkflowTagWeight:     0.3,

		SemanticFloor: 0.8,

		Weights: map[string]QualityWeights{
			"default":                              {Similarity: 0.6, Content: 0.2, Temporal: 0.1, TagQuality: 0.1},
			string(model.RelationInferredTag):      {Similarity: 0.6, Content: 0.2, Temporal: 0.1, TagQuality: 0.1},
			string(model.RelationInferredContent):  {Similarity: 0.7, Content: 0.0, Temporal: 0.2, TagQuality: 0.1},
			string(model.RelationInferredWorkflow): {Similarity: 0.7, Content: 0.1, Temporal: 0.1, TagQuality: 0.1},
			string(model.RelationInferredSemantic): {Similarity: 0.7, Content: 0.2, Temporal: 0.1, TagQuality: 0.0},
		},

		StrengthCap:             0.9,
		ConfidenceCap:           0.95,
		ConfidenceContentFactor: 0.3,
	}
}

func DefaultSelection() SelectionConfig {
	return SelectionConfig{
		MaxDensity:    0.08,
		AbsoluteCap:   20,
		MinGuarantee:  3,
		PerItemFactor: 0.4,
		MinQuality:    0.25,
	}
}

func DefaultDedup() DedupConfig {
	return DedupConfig{
		Priority: []string{
			string(model.RelationManual),
			string(model.RelationUnified),
			string(model.RelationInferredWorkflow),
			string(model.RelationInferredTag),
			string(model.RelationInferredSemantic),
			string(model.RelationInferredContent),
			string(model.RelationInferredTemporal),
		},
		QualityThreshold: 0.3,
		PreserveManual:   true,
		Weights: DedupWeights{
			Strength:          0.6,
			Confidence:        0.4,
			PriorityBonus:     0.2,
			LowQualityPenalty: 0.5,
		},
	}
}

// Load reads a TOML file on top of Default(), so keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides file values with environment variables when they are set.
func (c *Config) ApplyEnv() {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.Env, "APP_ENV")
	setString(&c.Storage.Backend, "STORAGE_BACKEND")
	setString(&c.Memgraph.URI, "MEMGRAPH_URI")
	setString(&c.Memgraph.User, "MEMGRAPH_USER")
	setString(&c.Memgraph.Password, "MEMGRAPH_PASSWORD")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.EmbeddingModel, "LLM_EMBEDDING_MODEL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")

	if v := os.Getenv("EMBEDDING_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Concurrency.Embedding = n
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate checks that the scoring constants can only produce values in [0,1].
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memgraph":
		if c.Memgraph.URI == "" {
			return fmt.Errorf("memgraph.uri is required for the memgraph backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}

	s := c.Scoring
	floors := map[string]float64{
		"scoring.tag_similarity_floor":     s.TagSimilarityFloor,
		"scoring.content_similarity_floor": s.ContentSimilarityFloor,
		"scoring.workflow_floor":           s.WorkflowFloor,
		"scoring.semantic_floor":           s.SemanticFloor,
		"scoring.temporal_fallback":        s.TemporalFallback,
		"scoring.strength_cap":             s.StrengthCap,
		"scoring.confidence_cap":           s.ConfidenceCap,
		"scoring.tag_quality_cap":          s.TagQualityCap,
		"selection.min_quality":            c.Selection.MinQuality,
		"selection.max_density":            c.Selection.MaxDensity,
		"dedup.quality_threshold":          c.Dedup.QualityThreshold,
	}
	for name, v := range floors {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, v)
		}
	}

	if sum := s.TagJaccardWeight + s.TagCoverageWeight; sum > 1+1e-9 {
		return fmt.Errorf("tag jaccard and coverage weights sum to %v, must be <= 1", sum)
	}
	if sum := s.WorkflowContentWeight + s.WorkflowTagWeight; sum > 1+1e-9 {
		return fmt.Errorf("workflow content and tag weights sum to %v, must be <= 1", sum)
	}
	if _, ok := s.Weights["default"]; !ok {
		return fmt.Errorf("scoring.weights.default is required")
	}
	for name, w := range s.Weights {
		if w.Similarity < 0 || w.Content < 0 || w.Temporal < 0 || w.TagQuality < 0 {
			return fmt.Errorf("scoring.weights.%s has a negative weight", name)
		}
		if sum := w.Sum(); sum > 1+1e-9 {
			return fmt.Errorf("scoring.weights.%s sum to %v, must be <= 1", name, sum)
		}
	}
	if s.MinWordLength < 1 {
		return fmt.Errorf("scoring.min_word_length must be positive")
	}

	if c.Selection.AbsoluteCap < 0 || c.Selection.MinGuarantee < 0 || c.Selection.PerItemFactor < 0 {
		return fmt.Errorf("selection caps must not be negative")
	}

	if len(c.Dedup.Priority) == 0 {
		return fmt.Errorf("dedup.priority must list at least one relationship type")
	}
	if c.Concurrency.Embedding < 1 {
		return fmt.Errorf("concurrency.embedding must be positive")
	}
	return nil
}
