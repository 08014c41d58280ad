package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/askpdf/backend/models"
	"github.com/askpdf/backend/services"
)

// RAGController handles the HTTP requests for the askpdf API. It depends on
// the RAGService to perform the actual pipeline work.
type RAGController struct {
	ragService services.RAGService
	log        zerolog.Logger
}

// NewRAGController creates a new RAGController. Called from main.go to
// inject the service dependency.
func NewRAGController(service services.RAGService, log zerolog.Logger) *RAGController {
	return &RAGController{
		ragService: service,
		log:        log,
	}
}

// UploadDocument is the Gin handler for POST /api/v1/documents. It accepts a
// multipart upload under the "file" field and runs the ingestion pipeline.
func (c *RAGController) UploadDocument(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing file field: " + err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Could not open uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file"})
		return
	}

	resp, err := c.ragService.UploadPDF(ctx.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// Ask is the Gin handler for POST /api/v1/ask. It runs the retrieval
// pipeline against a previously ingested document.
func (c *RAGController) Ask(ctx *gin.Context) {
	var req models.AskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	resp, err := c.ragService.Ask(ctx.Request.Context(), req)
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListChunks is the Gin handler for GET /api/v1/documents/:id/chunks.
func (c *RAGController) ListChunks(ctx *gin.Context) {
	resp, err := c.ragService.ListChunks(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// respondError maps the service error taxonomy onto HTTP status classes.
// Anything outside the taxonomy gets a generic 500 with the detail logged
// server-side only.
func (c *RAGController) respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrExtraction):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrEmbeddingService):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Embedding service unavailable, please retry"})
	case errors.Is(err, models.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
	case errors.Is(err, models.ErrIndexBuild), errors.Is(err, models.ErrConflict):
		c.log.Error().Err(err).Msg("internal pipeline failure")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process document"})
	default:
		c.log.Error().Err(err).Msg("unexpected error")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
	}
}
