package repo

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/chengAMS/hyperdoc/internal/config"
	"github.com/chengAMS/hyperdoc/internal/model"
	apperrors "github.com/chengAMS/hyperdoc/internal/pkg/errors"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// ChunkStore is durable keyed storage for projected chunks. Inserts
// assign strictly increasing unique ids atomically; deletion happens
// only by tag.
type ChunkStore interface {
	Insert(ctx context.Context, point []float64, text, tag string) (int64, error)
	ListAll(ctx context.Context) ([]model.Chunk, error)
	ListByTag(ctx context.Context, tag string) ([]model.Chunk, error)
	DeleteByTag(ctx context.Context, tag string) (int64, error)
	Count(ctx context.Context) (int64, error)
	DistinctTags(ctx context.Context) ([]string, error)
	Close() error
}

func New(cfg config.StoreConfig) (ChunkStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "postgres":
		return NewPostgresStore(cfg.Postgres)
	default:
		return nil, fmt.Errorf("%w: store.type must be sqlite or postgres, got %q", apperrors.ErrConfig, cfg.Type)
	}
}

func applyMigrations(exec func(query string) error, dir string) error {
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	for _, file := range files {
		content, err := fs.ReadFile(migrationsFS, dir+"/"+file)
		if err != nil {
			return err
		}
		for _, query := range strings.Split(string(content), ";") {
			query = strings.TrimSpace(query)
			if query == "" {
				continue
			}
			if err := exec(query); err != nil {
				if strings.Contains(err.Error(), "already exists") {
					continue
				}
				return fmt.Errorf("execute query in %s: %w", file, err)
			}
		}
	}
	return nil
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, apperrors.ErrStore, err)
}
