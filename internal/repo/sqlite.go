package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/didi/gendry/builder"
	_ "modernc.org/sqlite"

	"github.com/chengAMS/hyperdoc/internal/model"
)

const chunkTable = "document_chunks"

var chunkColumns = []string{"chunk_index", "embedding", "chunk_text", "tag", "created_at"}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	// Pragmas go on the DSN so every pooled connection gets them;
	// a plain Exec would configure only the one connection serving
	// it, leaving the rest to fail fast with SQLITE_BUSY under
	// write contention.
	dsn := "file:" + path + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storeErr("open sqlite", err)
	}
	if err := db.Ping(); err != nil {
		return nil, storeErr("ping sqlite", err)
	}
	if err := applyMigrations(func(query string) error {
		_, err := db.Exec(query)
		return err
	}, "migrations/sqlite"); err != nil {
		return nil, storeErr("migrate sqlite", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, point []float64, text, tag string) (int64, error) {
	blob, err := json.Marshal(point)
	if err != nil {
		return 0, storeErr("encode point", err)
	}
	data := map[string]interface{}{
		"embedding":  string(blob),
		"chunk_text": text,
		"tag":        tag,
		"created_at": time.Now().Unix(),
	}
	sqlStr, args, err := builder.BuildInsert(chunkTable, []map[string]interface{}{data})
	if err != nil {
		return 0, storeErr("build insert", err)
	}
	res, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, storeErr("insert chunk", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("read insert id", err)
	}
	return id, nil
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]model.Chunk, error) {
	where := map[string]interface{}{"_orderby": "chunk_index asc"}
	return s.list(ctx, where)
}

func (s *SQLiteStore) ListByTag(ctx context.Context, tag string) ([]model.Chunk, error) {
	where := map[string]interface{}{"tag": tag, "_orderby": "chunk_index asc"}
	return s.list(ctx, where)
}

func (s *SQLiteStore) list(ctx context.Context, where map[string]interface{}) ([]model.Chunk, error) {
	sqlStr, args, err := builder.BuildSelect(chunkTable, where, chunkColumns)
	if err != nil {
		return nil, storeErr("build select", err)
	}
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, storeErr("query chunks", err)
	}
	defer rows.Close()
	chunks := make([]model.Chunk, 0)
	for rows.Next() {
		var chunk model.Chunk
		var blob []byte
		if err := rows.Scan(&chunk.ID, &blob, &chunk.Text, &chunk.Tag, &chunk.CreatedAt); err != nil {
			return nil, storeErr("scan chunk", err)
		}
		if err := json.Unmarshal(blob, &chunk.Point); err != nil {
			return nil, storeErr("decode point", err)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, storeErr("iterate chunks", rows.Err())
}

func (s *SQLiteStore) DeleteByTag(ctx context.Context, tag string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM document_chunks WHERE tag = ?", tag)
	if err != nil {
		return 0, storeErr("delete by tag", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("count deleted", err)
	}
	return count, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM document_chunks").Scan(&count); err != nil {
		return 0, storeErr("count chunks", err)
	}
	return count, nil
}

func (s *SQLiteStore) DistinctTags(ctx context.Context) ([]string, error) {
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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
