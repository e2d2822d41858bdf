package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

// writeCSV drops a catalog CSV into a temp dir and returns its path.
func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "courses.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func testColumns() Columns {
	return Columns{
		ID:          "id",
		Code:        "code",
		Title:       "title",
		Description: "description",
		Embedding:   "embedding",
		Facets: map[string]string{
			"units": "units",
			"level": "level",
		},
	}
}

// loadCSV builds a store from CSV content using the default test columns.
func loadCSV(t *testing.T, content string) (*Store, LoadReport, error) {
	t.Helper()
	src := NewCSVSource(writeCSV(t, content), testColumns())
	store := NewStore(zap.NewNop())
	report, err := store.Load(context.Background(), src, Options{})
	return store, report, err
}

const validCSV = `id,code,title,description,embedding,units,level,instructor
c1,CS61A,SICP,"structure and interpretation of programs","[1.0, 0.0]","['4']","['lower']",DeNero
c2,CS61B,Data Structures,"data structures and algorithms","[0.0, 1.0]","['4']","['lower']",Hilfinger
c3,CS189,Machine Learning,"intro to machine learning","[0.7, 0.7]","['4']","['upper']",Sahai
`
