package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/askpdf/backend/models"
)

// Embedder is the external embedding capability: text in, fixed-length
// vector out. Deterministic for identical input and model identity.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	// ModelID identifies the embedding model/version in use; it is part of
	// every cache fingerprint.
	ModelID() string
}

// OllamaEmbedder generates embeddings using a local Ollama instance.
type OllamaEmbedder struct {
	httpClient *http.Client
	baseURL    string
	model      string
	maxRetries int
}

// NewOllamaEmbedder creates an embedder backed by the Ollama embeddings API.
func NewOllamaEmbedder(client *http.Client, baseURL, model string) *OllamaEmbedder {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &OllamaEmbedder{
		httpClient: client,
		baseURL:    baseURL,
		model:      model,
		maxRetries: 3,
	}
}

// ModelID implements Embedder.
func (e *OllamaEmbedder) ModelID() string { return e.model }

// Embed implements Embedder. Failures are wrapped in ErrEmbeddingService so
// callers can map them to a retryable class.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(models.OllamaEmbedRequest{
		Model:  e.model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", models.ErrEmbeddingService, ctx.Err())
			case <-time.After(retryDelay(attempt)):
			}
		}

		vector, retryable, err := e.embedOnce(ctx, reqBody)
		if err == nil {
			return vector, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", models.ErrEmbeddingService, lastErr)
}

func (e *OllamaEmbedder) embedOnce(ctx context.Context, reqBody []byte) (vector []float32, retryable bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create ollama http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, true, fmt.Errorf("failed to call ollama embedding api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("ollama api returned non-200 status: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var ollamaResp models.OllamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, false, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if len(ollamaResp.Embedding) == 0 {
		return nil, false, fmt.Errorf("ollama returned an empty embedding")
	}
	return ollamaResp.Embedding, false, nil
}

// EmbedMany implements Embedder by embedding each text in order. Ollama has
// no batch endpoint for this API, so the batch contract degrades to
// sequential calls; the first failure aborts the batch.
func (e *OllamaEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vector, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d of %d: %w", i+1, len(texts), err)
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

func retryDelay(attempt int) time.Duration {
	base := 200 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
