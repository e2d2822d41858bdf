package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/campusquest/coursedex/internal/domain"
)

func TestEmbed_MissCallsInnerAndStores(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 3,
		TotalTokens:  3,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)

	var storedKey string
	var storedValue []byte
	ms.setFn = func(_ context.Context, key string, value []byte) error {
		storedKey = key
		storedValue = value
		return nil
	}

	res, err := ce.Embed(context.Background(), "some query")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
	if res.TotalTokens != 3 {
		t.Errorf("TotalTokens = %d, want 3 on miss", res.TotalTokens)
	}
	if storedKey == "" {
		t.Fatal("embedding was not cached")
	}
	if len(storedValue) != 3*4 {
		t.Errorf("cached %d bytes, want 12", len(storedValue))
	}
}

func TestEmbed_HitSkipsInner(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.5, -1.25},
		TotalTokens: 2,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)

	cached := vectorToCacheBytes([]float32{0.5, -1.25})
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	res, err := ce.Embed(context.Background(), "some query")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 0 {
		t.Errorf("inner calls = %d, want 0 on hit", inner.calls)
	}
	if res.TotalTokens != 0 {
		t.Errorf("TotalTokens = %d, want 0 on hit", res.TotalTokens)
	}
	if len(res.Embedding) != 2 || res.Embedding[0] != 0.5 || res.Embedding[1] != -1.25 {
		t.Errorf("Embedding = %v", res.Embedding)
	}
}

func TestEmbed_CorruptCacheFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{1, 2, 3}, nil // not a multiple of 4
	}

	res, err := ce.Embed(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
	if len(res.Embedding) != 1 {
		t.Errorf("Embedding = %v", res.Embedding)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	innerErr := errors.New("provider down")
	inner := &mockEmbedder{err: innerErr}
	ce, _ := newTestCachedEmbedder(t, inner)

	_, err := ce.Embed(context.Background(), "q")
	if !errors.Is(err, innerErr) {
		t.Errorf("err = %v, want wrapped inner error", err)
	}
}

func TestEmbed_SetFailureDoesNotFail(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		return errors.New("cache write failed")
	}

	if _, err := ce.Embed(context.Background(), "q"); err != nil {
		t.Errorf("cache write failure surfaced as error: %v", err)
	}
}

func TestEmbed_TTLUsesSetWithTTL(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ms := &mockKVStore{}
	ce := New(inner, ms, time.Hour, nil, zap.NewNop())

	var gotTTL time.Duration
	setCalled := false
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		setCalled = true
		return nil
	}
	ms.setTTLFn = func(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
		gotTTL = ttl
		return nil
	}

	if _, err := ce.Embed(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if setCalled {
		t.Error("Set called despite configured TTL")
	}
	if gotTTL != time.Hour {
		t.Errorf("ttl = %v, want 1h", gotTTL)
	}
}

func TestCacheKey_DistinctTexts(t *testing.T) {
	inner := &mockEmbedder{}
	ce, _ := newTestCachedEmbedder(t, inner)

	if ce.cacheKey("a") == ce.cacheKey("b") {
		t.Error("different texts share a cache key")
	}
	if ce.cacheKey("a") != ce.cacheKey("a") {
		t.Error("same text produced different cache keys")
	}
}

func TestVectorRoundtrip(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.14159}
	out, err := bytesToVector(vectorToCacheBytes(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("element %d: %v != %v", i, in[i], out[i])
		}
	}
}
