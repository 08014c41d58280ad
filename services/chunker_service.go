package services

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/askpdf/backend/models"
)

// Chunker splits extracted document text into overlapping, bounded-length
// segments suitable for embedding.
type Chunker interface {
	Split(text string) ([]string, error)
}

// recursiveChunker splits on paragraph, then line, then word boundaries,
// falling back to a hard character cut only when a segment still exceeds the
// chunk size.
type recursiveChunker struct {
	splitter textsplitter.RecursiveCharacter
}

// NewChunker creates a Chunker with the given chunk size and overlap, both
// measured in characters. Overlap must be smaller than the chunk size.
func NewChunker(chunkSize, overlap int) (Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", models.ErrInvalidInput, chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must be non-negative, got %d", models.ErrInvalidInput, overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", models.ErrInvalidInput, overlap, chunkSize)
	}
	return &recursiveChunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(overlap),
		),
	}, nil
}

// Split returns the ordered chunk sequence for the given text. Non-empty
// input always yields at least one chunk; the split is deterministic so
// identical text produces identical chunks (and identical cache fingerprints
// downstream).
func (c *recursiveChunker) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	chunks, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("splitting text: %w", err)
	}
	if len(chunks) == 0 {
		// The splitter drops whitespace-only fragments; keep the guarantee
		// that non-empty input produces at least one chunk.
		chunks = []string{strings.TrimSpace(text)}
	}
	return chunks, nil
}
