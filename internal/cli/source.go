package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/qrelax/internal/config"
	"github.com/roach88/qrelax/internal/datasource"
	"github.com/roach88/qrelax/internal/datasource/sparql"
	"github.com/roach88/qrelax/internal/store"
)

// openSource opens the data source selected by the source section. The
// returned close function releases it.
func openSource(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger) (datasource.Source, func() error, error) {
	switch cfg.Kind {
	case config.SourceSQLite:
		st, err := openStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.DebugContext(ctx, "opened graph database", "path", cfg.Path)
		return st, st.Close, nil

	case config.SourceSPARQL:
		client, err := sparql.New(cfg.Endpoint,
			sparql.WithTimeout(cfg.Timeout),
			sparql.WithRetries(cfg.Retries),
			sparql.WithRateLimit(cfg.RatePerSecond, cfg.Burst),
			sparql.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("sparql source: %w", err)
		}
		logger.DebugContext(ctx, "using sparql endpoint", "endpoint", client.Endpoint())
		return client, func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
}

// openStore opens the SQLite graph database, creating its directory.
func openStore(path string) (*store.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return st, nil
}
