package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/didi/gendry/builder"
	_ "github.com/lib/pq"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/chengAMS/hyperdoc/internal/config"
	"github.com/chengAMS/hyperdoc/internal/model"
	"github.com/chengAMS/hyperdoc/internal/pkg/dbutil"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(cfg config.PostgresConfig) (*PostgresStore, error) {
	dsn := cfg.DSN
	if dsn == "" {
		sslmode := cfg.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslmode)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, storeErr("open postgres", err)
	}
	if err := db.Ping(); err != nil {
		return nil, storeErr("ping postgres", err)
	}
	if err := applyMigrations(func(query string) error {
		_, err := db.Exec(query)
		return err
	}, "migrations/postgres"); err != nil {
		return nil, storeErr("migrate postgres", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Insert(ctx context.Context, point []float64, text, tag string) (int64, error) {
	const query = `
		INSERT INTO document_chunks (embedding, chunk_text, tag, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING chunk_index
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		pgvector.NewVector(toFloat32(point)),
		text,
		tag,
		time.Now().Unix(),
	).Scan(&id)
	if err != nil {
		return 0, storeErr("insert chunk", err)
	}
	return id, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]model.Chunk, error) {
	return s.list(ctx, map[string]interface{}{"_orderby": "chunk_index asc"})
}

func (s *PostgresStore) ListByTag(ctx context.Context, tag string) ([]model.Chunk, error) {
	return s.list(ctx, map[string]interface{}{"tag": tag, "_orderby": "chunk_index asc"})
}

func (s *PostgresStore) list(ctx context.Context, where map[string]interface{}) ([]model.Chunk, error) {
	sqlStr, args, err := builder.BuildSelect(chunkTable, where, chunkColumns)
	if err != nil {
		return nil, storeErr("build select", err)
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, storeErr("query chunks", err)
	}
	defer rows.Close()
	chunks := make([]model.Chunk, 0)
	for rows.Next() {
		var chunk model.Chunk
		var embedding pgvector.Vector
		if err := rows.Scan(&chunk.ID, &embedding, &chunk.Text, &chunk.Tag, &chunk.CreatedAt); err != nil {
			return nil, storeErr("scan chunk", err)
		}
		chunk.Point = toFloat64(embedding.Slice())
		chunks = append(chunks, chunk)
	}
	return chunks, storeErr("iterate chunks", rows.Err())
}

func (s *PostgresStore) DeleteByTag(ctx context.Context, tag string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM document_chunks WHERE tag = $1", tag)
	if err != nil {
		return 0, storeErr("delete by tag", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("count deleted", err)
	}
	return count, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM document_chunks").Scan(&count); err != nil {
		return 0, storeErr("count chunks", err)
	}
	return count, nil
}

func (s *PostgresStore) DistinctTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT tag FROM document_chunks ORDER BY tag")
	if err != nil {
		return nil, storeErr("query tags", err)
	}
	defer rows.Close()
	tags := make([]string, 0)
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, storeErr("scan tag", err)
		}
		tags = append(tags, tag)
	}
	return tags, storeErr("iterate tags", rows.Err())
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
