// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package genai

import (
	"context"
	"log/slog"

	"github.com/kgriffin/doctrine-engine/pkg/types"
)

// Embedding task-type hints passed to the provider.
const (
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"
	TaskTypeQuery    = "RETRIEVAL_QUERY"
)

// EmbedFixed returns an embedding for text normalized to exactly
// types.EmbeddingDim components: shorter vectors are zero-padded,
// longer ones truncated. Any failure of the underlying capability
// degrades to a zero vector so that a single embedding failure never
// halts an ingestion run. Callers must pass non-empty text.
func EmbedFixed(ctx context.Context, e Embedder, text, taskType string) []float32 {
	vec, err := e.Embed(ctx, text, taskType)
	if err != nil {
		slog.Warn("embedding failed, using zero vector", "error", err, "text_len", len(text))
		return make([]float32, types.EmbeddingDim)
	}

	if len(vec) == types.EmbeddingDim {
		return vec
	}

	slog.Warn("embedding dimension mismatch, normalizing",
		"native", len(vec), "target", types.EmbeddingDim)
	fixed := make([]float32, types.EmbeddingDim)
	copy(fixed, vec)
	return fixed
}
