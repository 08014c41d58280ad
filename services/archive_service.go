package services

import (
	"context"
	"encoding/json"
	"fmt"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/rs/zerolog"

	"github.com/askpdf/backend/models"
)

// ChunkArchive mirrors ingested chunks into a shared store so they can be
// browsed and audited outside the process-local registry. Archiving is
// best-effort: it never fails ingestion.
type ChunkArchive interface {
	ArchiveChunks(ctx context.Context, docID, name string, chunks []string, vectors [][]float32) error
	ListChunks(ctx context.Context, docID string) ([]models.ArchivedChunk, error)
	DropDocument(ctx context.Context, docID string) error
}

// ChromaArchive stores archived chunks in a ChromaDB collection.
type ChromaArchive struct {
	collection chromago.Collection
	log        zerolog.Logger
}

// NewChromaArchive creates an archive over an existing collection.
func NewChromaArchive(collection chromago.Collection, log zerolog.Logger) *ChromaArchive {
	return &ChromaArchive{collection: collection, log: log}
}

// GetOrCreateArchiveCollection fetches or creates the shared archive
// collection.
func GetOrCreateArchiveCollection(ctx context.Context, client chromago.Client, name string) (chromago.Collection, error) {
	collection, err := client.GetOrCreateCollection(
		ctx,
		name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "askpdf chunk archive"),
				chromago.NewStringAttribute("created_by", "askpdf-backend"),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("getting or creating archive collection %q: %w", name, err)
	}
	return collection, nil
}

// ArchiveChunks implements ChunkArchive. Chunks and vectors are parallel
// sequences from the same index build.
func (a *ChromaArchive) ArchiveChunks(ctx context.Context, docID, name string, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	for i, chunk := range chunks {
		embedding := embeddings.NewEmbeddingFromFloat32(vectors[i])
		metadata := chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("document_id", docID),
			chromago.NewStringAttribute("source_name", name),
			chromago.NewIntAttribute("chunk_num", int64(i)),
		)
		err := a.collection.Add(ctx,
			chromago.WithIDs(chromago.DocumentID(fmt.Sprintf("%s-chunk%d", docID, i))),
			chromago.WithTexts(chunk),
			chromago.WithEmbeddings(embedding),
			chromago.WithMetadatas(metadata),
		)
		if err != nil {
			return fmt.Errorf("failed to add chunk %d of document %s to archive: %w", i, docID, err)
		}
	}
	return nil
}

// ListChunks implements ChunkArchive.
func (a *ChromaArchive) ListChunks(ctx context.Context, docID string) ([]models.ArchivedChunk, error) {
	results, err := a.collection.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get archived chunks: %w", err)
	}

	ids := results.GetIDs()
	documents := results.GetDocuments()
	metadatas := results.GetMetadatas()

	var chunks []models.ArchivedChunk
	for i := range documents {
		var metadataMap map[string]interface{}
		if len(metadatas) > i && metadatas[i] != nil {
			// DocumentMetadata exposes no map accessor; round-trip through
			// JSON to get one.
			jsonBytes, err := json.Marshal(metadatas[i])
			if err != nil {
				a.log.Warn().Err(err).Str("chunk_id", string(ids[i])).Msg("could not marshal archived chunk metadata")
				metadataMap = make(map[string]interface{})
			} else if err := json.Unmarshal(jsonBytes, &metadataMap); err != nil {
				a.log.Warn().Err(err).Str("chunk_id", string(ids[i])).Msg("could not unmarshal archived chunk metadata")
				metadataMap = make(map[string]interface{})
			}
		}
		if id, ok := metadataMap["document_id"].(string); !ok || id != docID {
			continue
		}
		chunks = append(chunks, models.ArchivedChunk{
			ID:       string(ids[i]),
			Text:     documents[i].ContentString(),
			Metadata: metadataMap,
		})
	}
	return chunks, nil
}

// DropDocument implements ChunkArchive, removing every archived chunk of one
// document.
func (a *ChromaArchive) DropDocument(ctx context.Context, docID string) error {
	where := chromago.EqString("document_id", docID)
	return a.collection.Delete(ctx, chromago.WithWhereDelete(where))
}
