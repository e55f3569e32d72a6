package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/cardgraph/internal/config"
)

func TestNewEmbedder_Disabled(t *testing.T) {
	for _, p := range []string{"", "none", " None "} {
		e, err := NewEmbedder(context.Background(), config.LLMConfig{Provider: p})
		require.NoError(t, err)
		assert.Nil(t, e, "provider %q", p)
	}
}

func TestNewEmbedder_Unknown(t *testing.T) {
	_, err := NewEmbedder(context.Background(), config.LLMConfig{Provider: "claude"})
	assert.ErrorContains(t, err, "unsupported llm provider: claude")
}

func TestNewEmbedder_OpenAIDefaults(t *testing.T) {
	e, err := NewEmbedder(context.Background(), config.LLMConfig{Provider: "openai", APIKey: "sk-test"})
	require.NoError(t, err)

	oe, ok := e.(*OpenAIEmbedder)
	require.True(t, ok)
	assert.Equal(t, "text-embedding-3-small", oe.model)
	assert.Equal(t, "https://api.openai.com/v1", oe.baseURL)
}

func TestNewEmbedder_Ollama(t *testing.T) {
	e, err := NewEmbedder(context.Background(), config.LLMConfig{Provider: "ollama", BaseURL: "http://ollama:11434/"})
	require.NoError(t, err)

	oe, ok := e.(*OpenAIEmbedder)
	require.True(t, ok)
	assert.Equal(t, "http://ollama:11434/v1", oe.baseURL)
	assert.Equal(t, "nomic-embed-text", oe.model)
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"m","data":[{"object":"embedding","index":0,"embedding":[0.25,-0.5,1]}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("sk-test", "custom-embed", srv.URL+"/v1")
	vec, err := e.Embed(context.Background(), "checkout friction")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5, 1}, vec)
	assert.Equal(t, "custom-embed", gotModel)
}

func TestOpenAIEmbedder_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"m","data":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIEmbedder("sk-test", "", srv.URL).Embed(context.Background(), "x")
	assert.ErrorContains(t, err, "no embedding data")
}
