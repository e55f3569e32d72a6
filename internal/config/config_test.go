package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/cardgraph/internal/core/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
[storage]
backend = "memory"

[scoring]
tag_similarity_floor = 0.5

[scoring.weights.inferredTag]
similarity = 0.5
content = 0.3
temporal = 0.1
tag_quality = 0.1

[dedup]
priority = ["manual", "derived"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 0.5, cfg.Scoring.TagSimilarityFloor)
	assert.Equal(t, 0.6, cfg.Scoring.TagJaccardWeight, "untouched key keeps its default")
	assert.Equal(t, 0.5, cfg.Scoring.WeightsFor(model.RelationInferredTag).Similarity)
	assert.Equal(t, 0.6, cfg.Scoring.WeightsFor("legacy").Similarity, "unknown types fall back to default weights")
	assert.Equal(t, 20, cfg.Selection.AbsoluteCap)
	assert.Equal(t, []model.RelationType{model.RelationManual, "derived"}, cfg.Dedup.Strategy().Priority)
	assert.True(t, cfg.Dedup.Strategy().PreserveManual)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	_, err = Load(writeConfig(t, "[scoring\nbroken"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse TOML")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("MEMGRAPH_URI", "bolt://graph:7687")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("EMBEDDING_CONCURRENCY", "8")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "bolt://graph:7687", cfg.Memgraph.URI)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 8, cfg.Concurrency.Embedding)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "postgres" }, "unknown storage backend"},
		{"floor above one", func(c *Config) { c.Scoring.TagSimilarityFloor = 1.2 }, "tag_similarity_floor"},
		{"weights over one", func(c *Config) {
			c.Scoring.Weights["inferredTag"] = QualityWeights{Similarity: 0.8, Content: 0.3}
		}, "scoring.weights.inferredTag"},
		{"negative weight", func(c *Config) {
			c.Scoring.Weights["inferredContent"] = QualityWeights{Similarity: 0.8, Content: -0.1}
		}, "negative weight"},
		{"missing default weights", func(c *Config) { delete(c.Scoring.Weights, "default") }, "weights.default"},
		{"tag blend over one", func(c *Config) { c.Scoring.TagJaccardWeight = 0.7 }, "tag jaccard"},
		{"empty priority", func(c *Config) { c.Dedup.Priority = nil }, "dedup.priority"},
		{"no embedding workers", func(c *Config) { c.Concurrency.Embedding = 0 }, "concurrency.embedding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
