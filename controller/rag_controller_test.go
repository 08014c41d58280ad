package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askpdf/backend/models"
)

// stubRAGService returns canned responses or errors per call.
type stubRAGService struct {
	uploadResp *models.UploadResponse
	uploadErr  error
	askResp    *models.AskResponse
	askErr     error
	listResp   *models.ListChunksResponse
	listErr    error
}

func (s *stubRAGService) UploadPDF(context.Context, string, []byte) (*models.UploadResponse, error) {
	return s.uploadResp, s.uploadErr
}

func (s *stubRAGService) Ask(context.Context, models.AskRequest) (*models.AskResponse, error) {
	return s.askResp, s.askErr
}

func (s *stubRAGService) ListChunks(context.Context, string) (*models.ListChunksResponse, error) {
	return s.listResp, s.listErr
}

func newTestRouter(stub *stubRAGService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctrl := NewRAGController(stub, zerolog.Nop())
	router := gin.New()
	router.POST("/api/v1/documents", ctrl.UploadDocument)
	router.POST("/api/v1/ask", ctrl.Ask)
	router.GET("/api/v1/documents/:id/chunks", ctrl.ListChunks)
	return router
}

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadDocument_Success(t *testing.T) {
	stub := &stubRAGService{
		uploadResp: &models.UploadResponse{ID: "doc-1", Name: "paper.pdf", Timestamp: time.Now()},
	}
	router := newTestRouter(stub)

	body, contentType := multipartUpload(t, "file", "paper.pdf", []byte("%PDF fake"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "doc-1", resp.ID)
	assert.Equal(t, "paper.pdf", resp.Name)
}

func TestUploadDocument_MissingFile(t *testing.T) {
	router := newTestRouter(&stubRAGService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", bytes.NewBufferString("not multipart"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadDocument_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", fmt.Errorf("%w: not a pdf", models.ErrInvalidInput), http.StatusBadRequest},
		{"extraction", fmt.Errorf("%w: no text", models.ErrExtraction), http.StatusBadRequest},
		{"embedding service", fmt.Errorf("%w: 429", models.ErrEmbeddingService), http.StatusServiceUnavailable},
		{"index build", fmt.Errorf("%w: boom", models.ErrIndexBuild), http.StatusInternalServerError},
		{"conflict", fmt.Errorf("%w: doc-1", models.ErrConflict), http.StatusInternalServerError},
		{"unexpected", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubRAGService{uploadErr: tt.err})

			body, contentType := multipartUpload(t, "file", "paper.pdf", []byte("%PDF fake"))
			req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAsk_Success(t *testing.T) {
	stub := &stubRAGService{
		askResp: &models.AskResponse{ID: "resp-1", Question: "why?", Answer: "because", Timestamp: time.Now()},
	}
	router := newTestRouter(stub)

	payload, _ := json.Marshal(models.AskRequest{DocumentID: "doc-1", Question: "why?"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "because", resp.Answer)
}

func TestAsk_MissingFields(t *testing.T) {
	router := newTestRouter(&stubRAGService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewBufferString(`{"question": ""}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsk_UnknownDocument(t *testing.T) {
	router := newTestRouter(&stubRAGService{
		askErr: fmt.Errorf("%w: doc-x", models.ErrNotFound),
	})

	payload, _ := json.Marshal(models.AskRequest{DocumentID: "doc-x", Question: "anything?"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Document not found")
}

func TestListChunks(t *testing.T) {
	stub := &stubRAGService{
		listResp: &models.ListChunksResponse{
			DocumentID: "doc-1",
			Count:      1,
			Chunks:     []models.ArchivedChunk{{ID: "doc-1-chunk0", Text: "hello"}},
		},
	}
	router := newTestRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/doc-1/chunks", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.ListChunksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "hello", resp.Chunks[0].Text)
}
