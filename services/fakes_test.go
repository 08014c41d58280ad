package services

import (
	"context"
	"crypto/sha256"
	"sync"
)

// fakeEmbedder is a deterministic in-process Embedder. Vectors may be pinned
// per text; anything else gets a vector derived from the text hash.
type fakeEmbedder struct {
	mu      sync.Mutex
	model   string
	vectors map[string][]float32
	calls   map[string]int
	err     error
}

func newFakeEmbedder(model string) *fakeEmbedder {
	return &fakeEmbedder{
		model:   model,
		vectors: make(map[string][]float32),
		calls:   make(map[string]int),
	}
}

func (f *fakeEmbedder) ModelID() string { return f.model }

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls[text]++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return deriveVector(text), nil
}

func (f *fakeEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeEmbedder) callCount(text string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[text]
}

func (f *fakeEmbedder) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func deriveVector(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	v := make([]float32, 8)
	for i := range v {
		v[i] = float32(sum[i]) + 1
	}
	return v
}

// fakeStore is an in-memory EmbeddingStore.
type fakeStore struct {
	mu   sync.Mutex
	data map[string][]float32
	puts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]float32)}
}

func (s *fakeStore) Get(_ context.Context, fingerprint string) ([]float32, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[fingerprint]
	return v, ok, nil
}

func (s *fakeStore) Put(_ context.Context, fingerprint string, _ string, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[fingerprint] = vector
	s.puts++
	return nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// fakeExtractor returns canned page texts.
type fakeExtractor struct {
	pages []string
	err   error
}

func (f *fakeExtractor) ExtractPages(string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}
