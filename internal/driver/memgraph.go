package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/agenthands/cardgraph/internal/config"
	"github.com/agenthands/cardgraph/internal/logger"
)

type MemgraphDriver struct {
	Driver neo4j.DriverWithContext
	Logger *zap.Logger
}

func NewMemgraphDriver(ctx context.Context, cfg config.MemgraphConfig, log *zap.Logger) (*MemgraphDriver, error) {
	log = logger.OrNop(log)

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""), func(c *neo4j.Config) {
		if cfg.MaxPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxPoolSize
		}
		if cfg.ConnectTimeoutSeconds > 0 {
			c.SocketConnectTimeout = time.Duration(cfg.ConnectTimeoutSeconds) * time.Second
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create memgraph driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to reach memgraph at %s: %w", cfg.URI, err)
	}

	log.Info("connected to memgraph", zap.String("uri", cfg.URI))
	return &MemgraphDriver{Driver: driver, Logger: log}, nil
}

func (d *MemgraphDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *MemgraphDriver) ExecuteQuery(ctx context.Context, query string, params Params) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *MemgraphDriver) BuildIndices(ctx context.Context) error {
	queries := []string{
		"CREATE INDEX ON :Card(uuid);",
		"CREATE INDEX ON :Card(group_id);",
		// Edge indices need Memgraph 2.17 or newer.
		"CREATE EDGE INDEX ON :RELATES_TO(uuid);",
		"CREATE EDGE INDEX ON :RELATES_TO(group_id);",
	}

	for _, q := range queries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			// The index may already exist.
			logger.OrNop(d.Logger).Warn("failed to create index", zap.String("query", q), zap.Error(err))
		}
	}

	return nil
}
