package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/campusquest/coursedex/internal/domain"
)

// SQLiteSource reads catalog rows from a SQLite table. Column mapping works
// the same way as for CSV: required role columns must exist, everything else
// becomes display metadata. Embedding and facet cells are stored as text.
type SQLiteSource struct {
	path    string
	table   string
	columns Columns
}

// NewSQLiteSource creates a SQLite catalog source.
func NewSQLiteSource(path, table string, columns Columns) *SQLiteSource {
	if table == "" {
		table = "courses"
	}
	return &SQLiteSource{path: path, table: table, columns: columns}
}

// Name returns the source description for logs.
func (s *SQLiteSource) Name() string { return "sqlite:" + s.path }

// Rows queries the whole table and maps each row.
func (s *SQLiteSource) Rows(ctx context.Context) ([]Row, error) {
	if !validIdent(s.table) {
		return nil, fmt.Errorf("invalid table name %q: %w", s.table, domain.ErrSchema)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite catalog: %w", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+s.table) //nolint:gosec // table validated above
	if err != nil {
		return nil, fmt.Errorf("query %s: %w: %v", s.table, domain.ErrSchema, err)
	}
	defer func() { _ = rows.Close() }()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	idx, err := resolveColumns(header, s.columns)
	if err != nil {
		return nil, err
	}

	var out []Row
	values := make([]sql.NullString, len(header))
	scan := make([]any, len(header))
	for i := range values {
		scan[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		record := make([]string, len(values))
		for i, v := range values {
			if v.Valid {
				record[i] = v.String
			}
		}
		out = append(out, idx.toRow(record, header))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// validIdent accepts plain SQL identifiers only — the table name is
// interpolated into the query text.
func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return !strings.ContainsAny(s[:1], "0123456789")
}
