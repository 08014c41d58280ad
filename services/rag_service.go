package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/askpdf/backend/metrics"
	"github.com/askpdf/backend/models"
)

// RAGService exposes the document question-answering pipelines.
type RAGService interface {
	// UploadPDF runs the full ingestion pipeline for one uploaded file and
	// returns the registered document id.
	UploadPDF(ctx context.Context, filename string, data []byte) (*models.UploadResponse, error)
	// Ask answers a question against one ingested document.
	Ask(ctx context.Context, req models.AskRequest) (*models.AskResponse, error)
	// ListChunks returns the archived chunks of a document.
	ListChunks(ctx context.Context, docID string) (*models.ListChunksResponse, error)
}

// ragServiceImpl holds the pipeline dependencies, all injected from main.
type ragServiceImpl struct {
	chunker   Chunker
	embedder  Embedder
	builder   IndexBuilder
	registry  *DocumentRegistry
	extractor TextExtractor
	composer  AnswerComposer
	archive   ChunkArchive // optional

	uploadDir string
	topK      int

	log     zerolog.Logger
	metrics *metrics.Metrics
}

// RAGServiceDeps bundles the collaborators NewRAGService wires together.
type RAGServiceDeps struct {
	Chunker   Chunker
	Embedder  Embedder
	Builder   IndexBuilder
	Registry  *DocumentRegistry
	Extractor TextExtractor
	Composer  AnswerComposer
	Archive   ChunkArchive
	UploadDir string
	TopK      int
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
}

// NewRAGService creates the pipeline orchestrator.
func NewRAGService(deps RAGServiceDeps) (RAGService, error) {
	if deps.TopK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", models.ErrInvalidInput, deps.TopK)
	}
	return &ragServiceImpl{
		chunker:   deps.Chunker,
		embedder:  deps.Embedder,
		builder:   deps.Builder,
		registry:  deps.Registry,
		extractor: deps.Extractor,
		composer:  deps.Composer,
		archive:   deps.Archive,
		uploadDir: deps.UploadDir,
		topK:      deps.TopK,
		log:       deps.Logger,
		metrics:   deps.Metrics,
	}, nil
}

// UploadPDF implements RAGService. Steps run strictly in order: validate,
// persist, extract, chunk, embed+build, register. Any failure aborts before
// the id ever becomes visible in the registry. The raw file is kept on
// failed ingestion as an audit trail.
func (r *ragServiceImpl) UploadPDF(ctx context.Context, filename string, data []byte) (resp *models.UploadResponse, err error) {
	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.RecordIngest(statusLabel(err), time.Since(start))
		}
	}()

	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, fmt.Errorf("%w: only PDF files are allowed, got %q", models.ErrInvalidInput, filename)
	}

	docID := uuid.New().String()
	log := r.log.With().Str("document_id", docID).Str("filename", filename).Logger()
	log.Info().Int("bytes", len(data)).Msg("processing upload")

	path := filepath.Join(r.uploadDir, docID+".pdf")
	if err := os.MkdirAll(r.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("saving uploaded file: %w", err)
	}

	pages, err := r.extractor.ExtractPages(path)
	if err != nil {
		log.Error().Err(err).Msg("pdf extraction failed")
		return nil, err
	}
	text := strings.TrimSpace(strings.Join(pages, "\n\n"))
	if text == "" {
		log.Error().Int("pages", len(pages)).Msg("pdf contains no extractable text")
		return nil, fmt.Errorf("%w: document contains no extractable text", models.ErrExtraction)
	}

	chunks, err := r.chunker.Split(text)
	if err != nil {
		return nil, err
	}
	log.Info().Int("pages", len(pages)).Int("chunks", len(chunks)).Msg("document chunked")

	index, err := r.builder.Build(ctx, chunks)
	if err != nil {
		log.Error().Err(err).Msg("index build failed")
		return nil, err
	}

	if err := r.registry.Register(docID, index); err != nil {
		return nil, err
	}
	if r.metrics != nil {
		r.metrics.DocumentsRegistered.Set(float64(r.registry.Len()))
	}

	r.archiveChunks(ctx, docID, filename, chunks, log)

	log.Info().Msg("successfully processed file")
	return &models.UploadResponse{
		ID:        docID,
		Name:      filename,
		Timestamp: time.Now(),
	}, nil
}

// archiveChunks mirrors the chunk set into the archive. Vectors come back
// out of the embedding cache, so the second pass costs store reads only.
func (r *ragServiceImpl) archiveChunks(ctx context.Context, docID, filename string, chunks []string, log zerolog.Logger) {
	if r.archive == nil {
		return
	}
	vectors, err := r.embedder.EmbedMany(ctx, chunks)
	if err != nil {
		log.Warn().Err(err).Msg("archiving skipped: could not re-read chunk embeddings")
		return
	}
	if err := r.archive.ArchiveChunks(ctx, docID, filename, chunks, vectors); err != nil {
		log.Warn().Err(err).Msg("archiving chunks failed")
	}
}

// Ask implements RAGService. The pipeline is read-only with respect to the
// registry and the index.
func (r *ragServiceImpl) Ask(ctx context.Context, req models.AskRequest) (resp *models.AskResponse, err error) {
	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.RecordAsk(statusLabel(err), time.Since(start))
		}
	}()

	log := r.log.With().Str("document_id", req.DocumentID).Logger()
	log.Info().Msg("processing question")

	index, err := r.registry.Get(req.DocumentID)
	if err != nil {
		return nil, err
	}

	queryVector, err := r.embedder.Embed(ctx, req.Question)
	if err != nil {
		log.Error().Err(err).Msg("question embedding failed")
		return nil, err
	}

	results, err := index.Search(ctx, queryVector, r.topK)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(results))
	for _, result := range results {
		texts = append(texts, result.Text)
	}
	contextText := strings.Join(texts, "\n")

	answer, err := r.composer.Compose(ctx, req.Question, contextText)
	if err != nil {
		return nil, fmt.Errorf("composing answer: %w", err)
	}

	log.Info().Int("retrieved_chunks", len(results)).Msg("successfully generated answer")
	return &models.AskResponse{
		ID:        uuid.New().String(),
		Question:  req.Question,
		Answer:    answer,
		Timestamp: time.Now(),
	}, nil
}

// ListChunks implements RAGService. It is only available when the archive is
// enabled, and only for documents that are currently registered.
func (r *ragServiceImpl) ListChunks(ctx context.Context, docID string) (*models.ListChunksResponse, error) {
	if r.archive == nil {
		return nil, fmt.Errorf("%w: chunk archive is disabled", models.ErrNotFound)
	}
	if _, err := r.registry.Get(docID); err != nil {
		return nil, err
	}
	chunks, err := r.archive.ListChunks(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("listing archived chunks: %w", err)
	}
	if chunks == nil {
		chunks = []models.ArchivedChunk{}
	}
	return &models.ListChunksResponse{
		DocumentID: docID,
		Count:      len(chunks),
		Chunks:     chunks,
	}, nil
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, models.ErrExtraction):
		return "extraction_error"
	case errors.Is(err, models.ErrEmbeddingService):
		return "embedding_error"
	case errors.Is(err, models.ErrIndexBuild):
		return "index_error"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
