package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agenthands/cardgraph/internal/config"
	"github.com/agenthands/cardgraph/internal/core"
	"github.com/agenthands/cardgraph/internal/core/model"
	"github.com/agenthands/cardgraph/internal/driver"
	"github.com/agenthands/cardgraph/internal/llm"
	"github.com/agenthands/cardgraph/internal/logger"
	"github.com/agenthands/cardgraph/internal/store"
)

type Server struct {
	Engine *core.Engine
	Config *config.Config
	Logger *zap.Logger
}

// NewServer wires the store selected by cfg.Storage.Backend, the embedding provider
// and the engine. The returned close function releases the database driver and the
// embedding client.
func NewServer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, func(context.Context) error, error) {
	log = logger.OrNop(log)
	closeFn := func(context.Context) error { return nil }

	var (
		items core.ItemStore
		rels  core.RelationshipStore
	)
	switch cfg.Storage.Backend {
	case "memory":
		mem := store.NewMemoryStore()
		items, rels = mem, mem
	case "memgraph":
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to memgraph: %w", err)
		}
		if err := d.BuildIndices(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to build indices: %w", err)
		}
		gs := store.NewGraphStore(d, log)
		items, rels = gs, gs
		closeFn = d.Close
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}

	embedder, err := llm.NewEmbedder(ctx, cfg.LLM)
	if err != nil {
		_ = closeFn(ctx)
		return nil, nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	if cfg.Scoring.Strategies.Semantic && embedder == nil {
		log.Warn("semantic strategy enabled without an embedding provider; it will be skipped")
	}

	engine := core.NewEngine(items, rels, embedder, cfg, log)
	return &Server{Engine: engine, Config: cfg, Logger: log}, withEmbedderClose(closeFn, embedder), nil
}

// withEmbedderClose extends closeFn to close embedder when it holds a client.
func withEmbedderClose(closeFn func(context.Context) error, embedder llm.EmbedderClient) func(context.Context) error {
	c, ok := embedder.(io.Closer)
	if !ok {
		return closeFn
	}
	return func(ctx context.Context) error {
		return errors.Join(c.Close(), closeFn(ctx))
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.Health)

	groups := r.Group("/groups/:group_id")
	groups.POST("/items", s.SaveItems)
	groups.GET("/relationships", s.ListRelationships)
	groups.POST("/relationships", s.CreateRelationship)
	groups.POST("/infer", s.Infer)
	groups.POST("/dedupe", s.Deduplicate)

	r.POST("/relationships/bulk-delete", s.BulkDelete)

	return r
}

func (s *Server) log() *zap.Logger {
	return logger.OrNop(s.Logger)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log().Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
		)
	}
}

// writeError maps error kinds to status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch model.KindOf(err) {
	case model.KindInvalidInput:
		status = http.StatusBadRequest
	}
	if status >= http.StatusInternalServerError {
		s.log().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": model.KindOf(err)})
}

// writeBatch answers 200 with body, or 207 with the same body when err is a partial
// batch failure. Any other error goes through writeError.
func (s *Server) writeBatch(c *gin.Context, body any, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, body)
	case model.IsKind(err, model.KindPartialBatchFailure):
		s.log().Warn("batch partially applied", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusMultiStatus, body)
	default:
		s.writeError(c, err)
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type SaveItemsRequest struct {
	Items []model.ContentItem `json:"items"`
}

func (s *Server) SaveItems(c *gin.Context) {
	var req SaveItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	items, err := s.Engine.SaveItems(c.Request.Context(), c.Param("group_id"), req.Items)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"items": items})
}

func (s *Server) ListRelationships(c *gin.Context) {
	rels, err := s.Engine.ListRelationships(c.Request.Context(), c.Param("group_id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"relationships": rels})
}

type CreateRelationshipRequest struct {
	SourceID string  `json:"source_id"`
	TargetID string  `json:"target_id"`
	Strength float64 `json:"strength"`
	Note     string  `json:"note"`
	Author   string  `json:"author"`
}

func (s *Server) CreateRelationship(c *gin.Context) {
	var req CreateRelationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	rel, err := s.Engine.CreateManualRelationship(c.Request.Context(), c.Param("group_id"),
		req.SourceID, req.TargetID, req.Strength, req.Note, req.Author)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rel)
}

func (s *Server) Infer(c *gin.Context) {
	report, err := s.Engine.Infer(c.Request.Context(), c.Param("group_id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// DedupeRequest overrides the configured policy field by field.
type DedupeRequest struct {
	Priority         []string `json:"priority"`
	QualityThreshold *float64 `json:"quality_threshold"`
	PreserveManual   *bool    `json:"preserve_manual"`
	DryRun           bool     `json:"dry_run"`
}

func (s *Server) Deduplicate(c *gin.Context) {
	var req DedupeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	strategy := s.Config.Dedup.Strategy()
	if len(req.Priority) > 0 {
		strategy.Priority = strategy.Priority[:0]
		for _, p := range req.Priority {
			strategy.Priority = append(strategy.Priority, model.RelationType(p))
		}
	}
	if req.QualityThreshold != nil {
		strategy.QualityThreshold = *req.QualityThreshold
	}
	if req.PreserveManual != nil {
		strategy.PreserveManual = *req.PreserveManual
	}

	report, err := s.Engine.Deduplicate(c.Request.Context(), c.Param("group_id"), strategy, req.DryRun)
	s.writeBatch(c, report, err)
}

func (s *Server) BulkDelete(c *gin.Context) {
	var filter model.BulkFilter
	if err := c.ShouldBindJSON(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res, err := s.Engine.BulkDelete(c.Request.Context(), filter)
	s.writeBatch(c, res, err)
}
