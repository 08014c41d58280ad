package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/askpdf/backend/models"
)

// VectorIndex is a read-only nearest-neighbor structure over the chunk
// embeddings of exactly one document.
type VectorIndex interface {
	// Search returns the k chunks nearest to the query vector, best-first.
	// Ties are broken by original chunk order. k larger than the index
	// returns everything; k <= 0 is invalid input.
	Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error)
	// Len reports the number of indexed chunks.
	Len() int
}

// IndexBuilder constructs a VectorIndex from an ordered chunk sequence.
type IndexBuilder interface {
	Build(ctx context.Context, chunks []string) (VectorIndex, error)
}

// memoryIndex is a brute-force cosine-similarity index held in process
// memory for the lifetime of its document.
type memoryIndex struct {
	chunks  []string
	vectors [][]float32
}

// MemoryIndexBuilder embeds chunks through the given embedder and builds
// in-memory indexes. Construction is all-or-nothing: an embedding failure
// leaves nothing behind.
type MemoryIndexBuilder struct {
	embedder Embedder
}

// NewMemoryIndexBuilder creates an index builder over the given embedder
// (typically the cached one).
func NewMemoryIndexBuilder(embedder Embedder) *MemoryIndexBuilder {
	return &MemoryIndexBuilder{embedder: embedder}
}

// Build implements IndexBuilder.
func (b *MemoryIndexBuilder) Build(ctx context.Context, chunks []string) (VectorIndex, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index", models.ErrIndexBuild)
	}
	vectors, err := b.embedder.EmbedMany(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding chunks: %w", models.ErrIndexBuild, err)
	}
	owned := make([]string, len(chunks))
	copy(owned, chunks)
	return &memoryIndex{chunks: owned, vectors: vectors}, nil
}

// Len implements VectorIndex.
func (idx *memoryIndex) Len() int { return len(idx.chunks) }

// Search implements VectorIndex.
func (idx *memoryIndex) Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", models.ErrInvalidInput, k)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scored := make([]models.ScoredChunk, len(idx.chunks))
	for i := range idx.chunks {
		scored[i] = models.ScoredChunk{
			Text:  idx.chunks[i],
			Score: cosineSimilarity(idx.vectors[i], query),
			Index: i,
		}
	}
	// Best-first; SliceStable keeps equal scores in original chunk order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func cosineSimilarity(a, b []float32) float64 {
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
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
