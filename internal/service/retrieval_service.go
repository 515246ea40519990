package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/chengAMS/hyperdoc/internal/ai"
	"github.com/chengAMS/hyperdoc/internal/chunker"
	"github.com/chengAMS/hyperdoc/internal/manifold"
	"github.com/chengAMS/hyperdoc/internal/metrics"
	"github.com/chengAMS/hyperdoc/internal/model"
	apperrors "github.com/chengAMS/hyperdoc/internal/pkg/errors"
	"github.com/chengAMS/hyperdoc/internal/ranker"
	"github.com/chengAMS/hyperdoc/internal/repo"
)

// RetrievalService owns the ingest and search pipelines: split text
// into chunks, embed them, project the embeddings onto the hyperboloid
// and keep everything in the chunk store.
type RetrievalService struct {
	splitter    *chunker.Splitter
	embedder    ai.IEmbedder
	manifold    manifold.Manifold
	store       repo.ChunkStore
	ranker      *ranker.Ranker
	defaultTopK int
	maxTopK     int
}

type Deps struct {
	Splitter    *chunker.Splitter
	Embedder    ai.IEmbedder
	Manifold    manifold.Manifold
	Store       repo.ChunkStore
	DefaultTopK int
	MaxTopK     int
}

func NewRetrievalService(deps Deps) (*RetrievalService, error) {
	if deps.Splitter == nil || deps.Embedder == nil || deps.Manifold == nil || deps.Store == nil {
		return nil, fmt.Errorf("%w: retrieval service is missing a dependency", apperrors.ErrConfig)
	}
	if deps.Embedder.Dim() != deps.Manifold.Dim() {
		return nil, fmt.Errorf("%w: embedder dim %d does not match manifold dim %d", apperrors.ErrConfig, deps.Embedder.Dim(), deps.Manifold.Dim())
	}
	return &RetrievalService{
		splitter:    deps.Splitter,
		embedder:    deps.Embedder,
		manifold:    deps.Manifold,
		store:       deps.Store,
		ranker:      ranker.New(deps.Manifold),
		defaultTopK: deps.DefaultTopK,
		maxTopK:     deps.MaxTopK,
	}, nil
}

// IngestText splits text and stores the resulting chunks under tag.
// It returns how many chunks were produced and how many were stored.
func (s *RetrievalService) IngestText(ctx context.Context, tag, text string) (stored int, total int, err error) {
	chunks := s.splitter.Split(text)
	if len(chunks) == 0 {
		return 0, 0, nil
	}
	stored, err = s.IngestChunks(ctx, tag, chunks)
	return stored, len(chunks), err
}

// IngestChunks embeds chunks as one batch, projects every embedding
// onto the manifold and inserts the results. Embedding or projection
// failures abort the whole batch; a failed insert only drops that one
// chunk.
func (s *RetrievalService) IngestChunks(ctx context.Context, tag string, chunks []string) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	logger := logutil.GetLogger(ctx).With(zap.String("tag", tag), zap.Int("chunks", len(chunks)))

	vectors, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, err
	}
	points := make([][]float64, len(vectors))
	for i, vec := range vectors {
		point, err := s.manifold.Project(toFloat64(vec))
		if err != nil {
			return 0, fmt.Errorf("project chunk %d: %w", i, err)
		}
		points[i] = point
	}

	stored := 0
	for i, point := range points {
		if _, err := s.store.Insert(ctx, point, chunks[i], tag); err != nil {
			logger.Warn("insert chunk failed, skipping", zap.Int("index", i), zap.Error(err))
			metrics.ChunksDropped.Inc()
			continue
		}
		stored++
	}
	metrics.ChunksIngested.Add(float64(stored))
	logger.Info("ingest finished", zap.Int("stored", stored))
	return stored, nil
}

// Search embeds the query, projects it and ranks stored chunks by
// geodesic distance. A blank query is invalid; tag narrows the
// candidate set; topK below 1 falls back to the default and values
// above the max clamp to the max.
func (s *RetrievalService) Search(ctx context.Context, query string, topK int, tag string) ([]model.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", apperrors.ErrInvalid)
	}
	if topK < 1 {
		topK = s.defaultTopK
	} else if topK > s.maxTopK {
		topK = s.maxTopK
	}
	start := time.Now()
	defer func() {
		metrics.SearchesTotal.Inc()
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	queryPoint, err := s.manifold.Project(toFloat64(vectors[0]))
	if err != nil {
		return nil, fmt.Errorf("project query: %w", err)
	}

	var candidates []model.Chunk
	if tag != "" {
		candidates, err = s.store.ListByTag(ctx, tag)
	} else {
		candidates, err = s.store.ListAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	return s.ranker.Rank(queryPoint, candidates, topK), nil
}

// Stats reports the chunk count and the sorted set of known tags.
func (s *RetrievalService) Stats(ctx context.Context) (model.StoreStats, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return model.StoreStats{}, err
	}
	tags, err := s.store.DistinctTags(ctx)
	if err != nil {
		return model.StoreStats{}, err
	}
	sort.Strings(tags)
	return model.StoreStats{TotalChunks: count, Tags: tags}, nil
}

// DeleteTag removes every chunk stored under tag and returns how many
// were removed.
func (s *RetrievalService) DeleteTag(ctx context.Context, tag string) (int64, error) {
	if tag == "" {
		return 0, fmt.Errorf("%w: tag must not be empty", apperrors.ErrInvalid)
	}
	deleted, err := s.store.DeleteByTag(ctx, tag)
	if err != nil {
		return 0, err
	}
	logutil.GetLogger(ctx).Info("deleted chunks by tag", zap.String("tag", tag), zap.Int64("deleted", deleted))
	return deleted, nil
}

// ListByTag returns the stored chunks for tag in insertion order.
func (s *RetrievalService) ListByTag(ctx context.Context, tag string) ([]model.Chunk, error) {
	if tag == "" {
		return nil, fmt.Errorf("%w: tag must not be empty", apperrors.ErrInvalid)
	}
	return s.store.ListByTag(ctx, tag)
}

func toFloat64(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}
