package ai

import (
	"context"
	"fmt"

	apperrors "github.com/chengAMS/hyperdoc/internal/pkg/errors"
)

// IEmbedder is the Vectorizer capability the retrieval engine
// consumes: one vector of the configured dimension per input text,
// all-or-nothing per batch.
type IEmbedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
	Dim() int
}

type embedder struct {
	provider IEmbedProvider
	model    string
	dim      int
}

func NewEmbedder(provider IEmbedProvider, model string, dim int) IEmbedder {
	return &embedder{provider: provider, model: model, dim: dim}
}

func (e *embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vectors, err := e.provider.Embed(ctx, e.model, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrGateway, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: provider %s returned %d vectors for %d texts", apperrors.ErrGateway, e.provider.Name(), len(vectors), len(texts))
	}
	for i, vec := range vectors {
		if len(vec) != e.dim {
			return nil, fmt.Errorf("%w: provider %s returned %d-dim vector at index %d, expected %d", apperrors.ErrGateway, e.provider.Name(), len(vec), i, e.dim)
		}
	}
	return vectors, nil
}

func (e *embedder) ModelName() string {
	return e.model
}

func (e *embedder) Dim() int {
	return e.dim
}
