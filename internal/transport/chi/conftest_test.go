package chi

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	chiRouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/campusquest/coursedex/internal/catalog"
	"github.com/campusquest/coursedex/internal/domain"
	"github.com/campusquest/coursedex/internal/domain/search/request"
	healthuc "github.com/campusquest/coursedex/internal/usecase/health"
	searchuc "github.com/campusquest/coursedex/internal/usecase/search"
)

// --- Mocks ---

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

// --- Fixtures ---

const testCSV = `id,code,title,description,embedding,level
c1,CS61A,SICP,"structure and interpretation of programs","[1.0, 0.0]","['lower']"
c2,CS61B,Data Structures,"data structures and algorithms","[0.0, 1.0]","['lower']"
c3,CS189,Machine Learning,"intro to machine learning","[0.7, 0.7]","['upper']"
`

func loadTestCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "courses.csv")
	if err := os.WriteFile(path, []byte(testCSV), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	src := catalog.NewCSVSource(path, catalog.Columns{
		ID:          "id",
		Code:        "code",
		Title:       "title",
		Description: "description",
		Embedding:   "embedding",
		Facets:      map[string]string{"level": "level"},
	})
	store := catalog.NewStore(zap.NewNop())
	if _, err := store.Load(context.Background(), src, catalog.Options{}); err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return store
}

// newTestServer wires a router over a real catalog and the given embedder.
func newTestServer(t *testing.T, embed *mockEmbedder) (chiRouter.Router, *catalog.Store) {
	t.Helper()
	return newTestServerLimited(t, embed, request.Limits{})
}

// newTestServerLimited is newTestServer with explicit search limits.
func newTestServerLimited(t *testing.T, embed *mockEmbedder, limits request.Limits) (chiRouter.Router, *catalog.Store) {
	t.Helper()
	store := loadTestCatalog(t)
	searchSvc := searchuc.New(store, embed, 0)
	healthSvc := healthuc.New(store, nil, nil)
	server := NewServer(searchSvc, store, healthSvc, limits, zap.NewNop())

	r := chiRouter.NewRouter()
	server.Routes(r)
	return r, store
}
