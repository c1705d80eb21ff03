// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/kgriffin/doctrine-engine/pkg/types"
)

// Nearest returns up to k stored records ranked by ascending cosine
// distance between query and each stored embedding. Records without an
// embedding are skipped. Ties keep insertion order. k <= 0 uses the
// store's configured default.
func (s *Store) Nearest(ctx context.Context, query []float32, k int) ([]types.TaskRecord, error) {
	if len(query) != types.EmbeddingDim {
		return nil, fmt.Errorf("query embedding has %d components, want %d",
			len(query), types.EmbeddingDim)
	}
	if k <= 0 {
		k = s.maxResults
	}

	records, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		rec  types.TaskRecord
		dist float64
	}
	var ranked []scored
	for _, rec := range records {
		if len(rec.Embedding) == 0 {
			continue
		}
		ranked = append(ranked, scored{rec: rec, dist: cosineDistance(query, rec.Embedding)})
	}

	// All() returns insertion order; stable sort preserves it for ties.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].dist < ranked[j].dist
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	results := make([]types.TaskRecord, len(ranked))
	for i, r := range ranked {
		results[i] = r.rec
	}
	return results, nil
}

// cosineDistance computes 1 - cosine similarity. A zero-norm vector on
// either side yields the maximum distance of 1.
func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// vectorToBlob encodes a float32 vector as little-endian bytes.
func vectorToBlob(vec []float32) []byte {
	blob := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// blobToVector decodes a little-endian float32 blob of dims components.
func blobToVector(blob []byte, dims int) []float32 {
	if len(blob) < dims*4 {
		dims = len(blob) / 4
	}
	vec := make([]float32, dims)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}
