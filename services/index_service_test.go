package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askpdf/backend/models"
)

func TestMemoryIndexBuilder_EmptyChunks(t *testing.T) {
	builder := NewMemoryIndexBuilder(newFakeEmbedder("model-a"))
	_, err := builder.Build(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrIndexBuild)
}

func TestMemoryIndexBuilder_EmbeddingFailure(t *testing.T) {
	embedder := newFakeEmbedder("model-a")
	embedder.err = fmt.Errorf("%w: down", models.ErrEmbeddingService)
	builder := NewMemoryIndexBuilder(embedder)

	_, err := builder.Build(context.Background(), []string{"chunk"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrIndexBuild)
	assert.ErrorIs(t, err, models.ErrEmbeddingService)
}

func TestMemoryIndex_SearchOrdering(t *testing.T) {
	embedder := newFakeEmbedder("model-a")
	embedder.vectors["north"] = []float32{0, 1}
	embedder.vectors["east"] = []float32{1, 0}
	embedder.vectors["northeast"] = []float32{1, 1}
	builder := NewMemoryIndexBuilder(embedder)
	ctx := context.Background()

	index, err := builder.Build(ctx, []string{"north", "east", "northeast"})
	require.NoError(t, err)
	require.Equal(t, 3, index.Len())

	results, err := index.Search(ctx, []float32{0, 1}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "north", results[0].Text)
	assert.Equal(t, "northeast", results[1].Text)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMemoryIndex_TiesKeepChunkOrder(t *testing.T) {
	embedder := newFakeEmbedder("model-a")
	// Parallel vectors score identically against any query.
	embedder.vectors["first"] = []float32{2, 0}
	embedder.vectors["second"] = []float32{4, 0}
	embedder.vectors["third"] = []float32{1, 0}
	builder := NewMemoryIndexBuilder(embedder)
	ctx := context.Background()

	index, err := builder.Build(ctx, []string{"first", "second", "third"})
	require.NoError(t, err)

	results, err := index.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{results[0].Index, results[1].Index, results[2].Index})
}

func TestMemoryIndex_KLargerThanIndex(t *testing.T) {
	builder := NewMemoryIndexBuilder(newFakeEmbedder("model-a"))
	ctx := context.Background()

	index, err := builder.Build(ctx, []string{"only"})
	require.NoError(t, err)

	results, err := index.Search(ctx, deriveVector("anything"), 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestMemoryIndex_InvalidK(t *testing.T) {
	builder := NewMemoryIndexBuilder(newFakeEmbedder("model-a"))
	ctx := context.Background()

	index, err := builder.Build(ctx, []string{"only"})
	require.NoError(t, err)

	for _, k := range []int{0, -1} {
		_, err := index.Search(ctx, deriveVector("q"), k)
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	}
}

func TestMemoryIndex_SearchDeterministic(t *testing.T) {
	builder := NewMemoryIndexBuilder(newFakeEmbedder("model-a"))
	ctx := context.Background()

	index, err := builder.Build(ctx, []string{"alpha", "beta", "gamma", "delta"})
	require.NoError(t, err)

	query := deriveVector("what is alpha?")
	first, err := index.Search(ctx, query, 3)
	require.NoError(t, err)
	second, err := index.Search(ctx, query, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
