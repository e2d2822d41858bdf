package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/campusquest/coursedex/internal/domain"
)

// CSVSource reads catalog rows from a CSV file with a header row.
type CSVSource struct {
	path    string
	columns Columns
}

// NewCSVSource creates a CSV catalog source. The file is not opened until Rows.
func NewCSVSource(path string, columns Columns) *CSVSource {
	return &CSVSource{path: path, columns: columns}
}

// Name returns the source description for logs.
func (s *CSVSource) Name() string { return "csv:" + s.path }

// Rows reads and maps every data row. Required columns missing from the
// header fail with ErrSchema; per-row problems are left to the store.
func (s *CSVSource) Rows(ctx context.Context) ([]Row, error) {
	f, err := os.Open(filepath.Clean(s.path))
	if err != nil {
		return nil, fmt.Errorf("open catalog csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows surface as malformed records, not a read error

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w: %v", domain.ErrSchema, err)
	}

	idx, err := resolveColumns(header, s.columns)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("read catalog csv: %w", err)
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		rows = append(rows, idx.toRow(record, header))
	}
	return rows, nil
}

// columnIndex holds resolved header positions. -1 means "not present".
type columnIndex struct {
	id, code, title, description, embedding int
	facets                                  map[string]int // category -> position
	claimed                                 map[int]bool
}

func resolveColumns(header []string, cols Columns) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[name] = i
	}

	find := func(name string) int {
		if name == "" {
			return -1
		}
		if i, ok := pos[name]; ok {
			return i
		}
		return -1
	}

	idx := columnIndex{
		id:          find(cols.ID),
		code:        find(cols.Code),
		title:       find(cols.Title),
		description: find(cols.Description),
		embedding:   find(cols.Embedding),
		facets:      make(map[string]int, len(cols.Facets)),
		claimed:     make(map[int]bool),
	}

	required := map[string]int{
		cols.ID:          idx.id,
		cols.Title:       idx.title,
		cols.Description: idx.description,
		cols.Embedding:   idx.embedding,
	}
	for name, i := range required {
		if i < 0 {
			return columnIndex{}, fmt.Errorf("required column %q not found: %w", name, domain.ErrSchema)
		}
		idx.claimed[i] = true
	}
	if idx.code >= 0 {
		idx.claimed[idx.code] = true
	}

	for category, colName := range cols.Facets {
		i := find(colName)
		if i < 0 {
			return columnIndex{}, fmt.Errorf("facet column %q not found: %w", colName, domain.ErrSchema)
		}
		idx.facets[category] = i
		idx.claimed[i] = true
	}

	return idx, nil
}

func (idx columnIndex) toRow(record, header []string) Row {
	cell := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return record[i]
	}

	row := Row{
		ID:          cell(idx.id),
		Code:        cell(idx.code),
		Title:       cell(idx.title),
		Description: cell(idx.description),
		Embedding:   cell(idx.embedding),
		Facets:      make(map[string]string, len(idx.facets)),
	}
	for category, i := range idx.facets {
		row.Facets[category] = cell(i)
	}

	// Unclaimed columns travel as opaque display metadata.
	for i, name := range header {
		if idx.claimed[i] || i >= len(record) {
			continue
		}
		if row.Metadata == nil {
			row.Metadata = make(map[string]string)
		}
		row.Metadata[name] = record[i]
	}
	return row
}
