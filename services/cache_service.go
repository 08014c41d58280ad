package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/askpdf/backend/metrics"
)

// CachedEmbedder memoizes an Embedder through a durable EmbeddingStore.
// Entries are keyed by a fingerprint over (model identity, text), so changing
// the model implicitly invalidates everything cached for the old one.
type CachedEmbedder struct {
	upstream Embedder
	store    EmbeddingStore
	log      zerolog.Logger
	metrics  *metrics.Metrics

	// inflight deduplicates concurrent misses on the same fingerprint so the
	// upstream capability is called once per distinct content.
	mu       sync.Mutex
	inflight map[string]*inflightCall
}

type inflightCall struct {
	done   chan struct{}
	vector []float32
	err    error
}

// NewCachedEmbedder wraps upstream with cache reads/writes against store.
// Metrics may be nil.
func NewCachedEmbedder(upstream Embedder, store EmbeddingStore, log zerolog.Logger, m *metrics.Metrics) *CachedEmbedder {
	return &CachedEmbedder{
		upstream: upstream,
		store:    store,
		log:      log,
		metrics:  m,
		inflight: make(map[string]*inflightCall),
	}
}

// ModelID implements Embedder.
func (c *CachedEmbedder) ModelID() string { return c.upstream.ModelID() }

// Fingerprint returns the cache key for the given text under the current
// model identity.
func (c *CachedEmbedder) Fingerprint(text string) string {
	h := sha256.New()
	h.Write([]byte(c.upstream.ModelID()))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Embed implements Embedder. On a fingerprint hit the upstream capability is
// not invoked; on a miss it is invoked once and the result stored before
// returning. No partial entry is written when the upstream call fails.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	fingerprint := c.Fingerprint(text)

	if vector, ok, err := c.store.Get(ctx, fingerprint); err != nil {
		// A broken store degrades to cache-empty, not a failure.
		c.log.Warn().Err(err).Str("fingerprint", fingerprint).Msg("embedding cache read failed")
	} else if ok {
		if c.metrics != nil {
			c.metrics.EmbeddingCacheHitsTotal.Inc()
		}
		return vector, nil
	}

	if c.metrics != nil {
		c.metrics.EmbeddingCacheMissesTotal.Inc()
	}

	c.mu.Lock()
	if call, ok := c.inflight[fingerprint]; ok {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.vector, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &inflightCall{done: make(chan struct{})}
	c.inflight[fingerprint] = call
	c.mu.Unlock()

	call.vector, call.err = c.embedAndStore(ctx, fingerprint, text)
	close(call.done)

	c.mu.Lock()
	delete(c.inflight, fingerprint)
	c.mu.Unlock()

	return call.vector, call.err
}

func (c *CachedEmbedder) embedAndStore(ctx context.Context, fingerprint, text string) ([]float32, error) {
	// Re-check the store: a concurrent caller may have finished between our
	// miss and taking the inflight slot.
	if vector, ok, err := c.store.Get(ctx, fingerprint); err == nil && ok {
		return vector, nil
	}
	vector, err := c.upstream.Embed(ctx, text)
	if err != nil {
		if c.metrics != nil {
			c.metrics.EmbeddingErrorsTotal.Inc()
		}
		return nil, err
	}
	if err := c.store.Put(ctx, fingerprint, c.upstream.ModelID(), vector); err != nil {
		// Best-effort persistence; the vector is still valid.
		c.log.Warn().Err(err).Str("fingerprint", fingerprint).Msg("embedding cache write failed")
	}
	return vector, nil
}

// EmbedMany implements Embedder, going through the cache text by text.
func (c *CachedEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vector, err := c.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d of %d: %w", i+1, len(texts), err)
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}
