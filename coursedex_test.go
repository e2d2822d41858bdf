package coursedex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockEmbedder struct {
	vectors map[string][]float32
	calls   int
	err     error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return EmbeddingResult{}, m.err
	}
	vec, ok := m.vectors[text]
	if !ok {
		return EmbeddingResult{}, errors.New("no vector for text: " + text)
	}
	return EmbeddingResult{Embedding: vec, TotalTokens: len(text)}, nil
}

// --- Fixtures ---

const testCatalogCSV = `id,code,title,description,embedding,level
c1,CS61A,Structure of Programs,Introduction to programming and abstraction.,"[1.0, 0.0]",lower
c2,MATH104,Real Analysis,Rigorous treatment of limits and continuity.,"[0.0, 1.0]",upper
c3,CS170,Efficient Algorithms,Design and analysis of efficient algorithms.,"[0.7, 0.7]",upper
`

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "courses.csv")
	if err := os.WriteFile(path, []byte(testCatalogCSV), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func newTestClient(t *testing.T, emb Embedder) *Client {
	t.Helper()
	client, err := New(
		WithCSV(writeCatalog(t)),
		WithColumns("", "code", "", "", ""),
		WithFacetColumn("level", "level"),
		WithEmbedder(emb),
		WithLogger(zap.NewNop()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestNew_RequiresCatalogSource(t *testing.T) {
	_, err := New(WithEmbedder(&mockEmbedder{}))
	if err == nil {
		t.Fatal("expected error without a catalog source")
	}
	if !strings.Contains(err.Error(), "catalog source required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_RequiresEmbedder(t *testing.T) {
	_, err := New(WithCSV(writeCatalog(t)))
	if err == nil {
		t.Fatal("expected error without an embedder")
	}
	if !strings.Contains(err.Error(), "embedder required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCatalogFile(t *testing.T) {
	_, err := New(
		WithCSV(filepath.Join(t.TempDir(), "nope.csv")),
		WithEmbedder(&mockEmbedder{}),
	)
	if err == nil {
		t.Fatal("expected error for missing catalog file")
	}
}

func TestClient_Search(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{
		"programming": {1, 0},
	}}
	client := newTestClient(t, emb)

	resp, err := client.Search(context.Background(), "programming", &SearchOptions{K: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Total != 3 {
		t.Errorf("Total = %d, want 3", resp.Total)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	if resp.Results[0].ID != "c1" {
		t.Errorf("top result = %s, want c1", resp.Results[0].ID)
	}
	if resp.Results[0].Score <= resp.Results[1].Score {
		t.Errorf("results not ordered by score: %v", resp.Results)
	}
}

func TestClient_SearchWithFacets(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{
		"programming": {1, 0},
	}}
	client := newTestClient(t, emb)

	resp, err := client.Search(context.Background(), "programming", &SearchOptions{
		Facets: map[string][]string{"level": {"upper"}},
		K:      10,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("Total = %d, want 2", resp.Total)
	}
	for _, r := range resp.Results {
		if r.Facets["level"][0] != "upper" {
			t.Errorf("course %s leaked through the facet filter", r.ID)
		}
	}
}

func TestClient_SearchNilOptions(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{
		"algorithms": {0.7, 0.7},
	}}
	client := newTestClient(t, emb)

	resp, err := client.Search(context.Background(), "algorithms", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 3 {
		t.Errorf("got %d results, want all 3", len(resp.Results))
	}
}

func TestClient_SearchBlankQuery(t *testing.T) {
	client := newTestClient(t, &mockEmbedder{})

	_, err := client.Search(context.Background(), "   ", nil)
	if err == nil {
		t.Fatal("expected error for blank query")
	}
}

func TestClient_SearchEmbedderFailure(t *testing.T) {
	emb := &mockEmbedder{err: errors.New("provider down")}
	client := newTestClient(t, emb)

	_, err := client.Search(context.Background(), "anything", nil)
	if err == nil {
		t.Fatal("expected error from failing embedder")
	}
	if !strings.Contains(err.Error(), "provider down") {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestClient_SearchUsesMemo(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{
		"programming": {1, 0},
	}}
	client := newTestClient(t, emb)

	ctx := context.Background()
	if _, err := client.Search(ctx, "programming", nil); err != nil {
		t.Fatalf("first search: %v", err)
	}
	if _, err := client.Search(ctx, "programming", nil); err != nil {
		t.Fatalf("second search: %v", err)
	}
	if emb.calls != 1 {
		t.Errorf("embedder called %d times, want 1 (memo + cache should absorb the repeat)", emb.calls)
	}
}

func TestClient_Accessors(t *testing.T) {
	client := newTestClient(t, &mockEmbedder{})

	if got := client.Len(); got != 3 {
		t.Errorf("Len = %d, want 3", got)
	}
	if client.Version() == "" {
		t.Error("expected a non-empty catalog version")
	}

	facets := client.Facets()
	if facets["level"]["upper"] != 2 || facets["level"]["lower"] != 1 {
		t.Errorf("unexpected facet counts: %v", facets)
	}

	course, err := client.Course("c2")
	if err != nil {
		t.Fatalf("Course: %v", err)
	}
	if course.Code != "MATH104" {
		t.Errorf("Code = %q, want MATH104", course.Code)
	}

	if _, err := client.Course("missing"); err == nil {
		t.Error("expected error for unknown course id")
	}
}
