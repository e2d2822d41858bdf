package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/campusquest/coursedex/internal/domain"
	"github.com/campusquest/coursedex/internal/domain/course"
	"github.com/campusquest/coursedex/internal/domain/search/facet"
	"github.com/campusquest/coursedex/internal/metrics"
)

// LoadReport summarizes one catalog load.
type LoadReport struct {
	Loaded           int
	SkippedMalformed int
	SkippedDuplicate int
}

// Options tunes catalog loading.
type Options struct {
	// Dimensions pins the expected embedding width. Zero means "infer from
	// the first valid row".
	Dimensions int
}

// Store is the immutable in-memory course catalog. It is populated exactly
// once by Load and is safe for concurrent reads afterwards.
type Store struct {
	courses    []course.Course
	byID       map[string]int
	dimensions int
	version    string
	logger     *zap.Logger
}

// NewStore creates an empty store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger}
}

// Load reads all rows from the source and builds the catalog. Malformed rows
// are skipped, logged and counted; a missing required column or an unreadable
// source is fatal. Courses sharing a description keep the first-seen record.
func (s *Store) Load(ctx context.Context, src Source, opts Options) (LoadReport, error) {
	rows, err := src.Rows(ctx)
	if err != nil {
		return LoadReport{}, fmt.Errorf("load catalog from %s: %w", src.Name(), err)
	}

	var report LoadReport
	dims := opts.Dimensions
	seenID := make(map[string]bool, len(rows))
	seenDescription := make(map[string]bool, len(rows))

	skip := func(rowNum int, reason error, dup bool) {
		if dup {
			report.SkippedDuplicate++
			metrics.CatalogSkippedTotal.WithLabelValues("duplicate").Inc()
		} else {
			report.SkippedMalformed++
			metrics.CatalogSkippedTotal.WithLabelValues("malformed").Inc()
		}
		s.logger.Warn("skipping catalog row",
			zap.Int("row", rowNum),
			zap.String("source", src.Name()),
			zap.Error(domain.NewMalformedRecord(rowNum, reason)))
	}

	for i, row := range rows {
		rowNum := i + 1

		vector, err := parseEmbedding(row.Embedding)
		if err != nil {
			skip(rowNum, err, false)
			continue
		}
		if dims == 0 {
			dims = len(vector)
		}
		if len(vector) != dims {
			skip(rowNum, fmt.Errorf("embedding has %d dimensions, want %d", len(vector), dims), false)
			continue
		}

		facets := make(map[string][]string, len(row.Facets))
		for category, raw := range row.Facets {
			if tags := parseTags(raw); len(tags) > 0 {
				facets[category] = tags
			}
		}

		c, err := course.New(row.ID, row.Code, row.Title, row.Description, facets, row.Metadata, vector)
		if err != nil {
			skip(rowNum, err, false)
			continue
		}

		if seenID[c.ID()] {
			skip(rowNum, fmt.Errorf("duplicate course ID %q", c.ID()), true)
			continue
		}
		if key := descriptionKey(c.Description()); seenDescription[key] {
			skip(rowNum, fmt.Errorf("duplicate description for course %q", c.ID()), true)
			continue
		} else {
			seenDescription[key] = true
		}
		seenID[c.ID()] = true

		s.byIDAppend(c)
		report.Loaded++
	}

	if report.Loaded == 0 {
		return report, fmt.Errorf("catalog %s: %w", src.Name(), domain.ErrCatalogEmpty)
	}

	s.dimensions = dims
	s.version = s.fingerprint()
	metrics.CatalogSize.Set(float64(len(s.courses)))

	s.logger.Info("catalog loaded",
		zap.String("source", src.Name()),
		zap.Int("courses", report.Loaded),
		zap.Int("skipped_malformed", report.SkippedMalformed),
		zap.Int("skipped_duplicate", report.SkippedDuplicate),
		zap.Int("dimensions", dims),
		zap.String("version", s.version))
	return report, nil
}

// Filter returns the courses matching the selection. An empty selection
// matches everything. The returned slice is owned by the caller.
func (s *Store) Filter(selection facet.Selection) []course.Course {
	if selection.IsEmpty() {
		out := make([]course.Course, len(s.courses))
		copy(out, s.courses)
		return out
	}
	out := make([]course.Course, 0, len(s.courses))
	for _, c := range s.courses {
		if selection.Matches(c.Facets()) {
			out = append(out, c)
		}
	}
	return out
}

// Get returns the course with the given ID.
func (s *Store) Get(id string) (course.Course, error) {
	i, ok := s.byID[id]
	if !ok {
		return course.Course{}, fmt.Errorf("course %q: %w", id, domain.ErrCourseNotFound)
	}
	return s.courses[i], nil
}

// List returns a page of courses in load order starting at cursor.
// The second return value is the next cursor, or -1 when exhausted.
func (s *Store) List(cursor, limit int) ([]course.Course, int) {
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(s.courses) {
		return nil, -1
	}
	if limit <= 0 {
		limit = 50
	}
	end := cursor + limit
	next := end
	if end >= len(s.courses) {
		end = len(s.courses)
		next = -1
	}
	out := make([]course.Course, end-cursor)
	copy(out, s.courses[cursor:end])
	return out, next
}

// Facets returns per-category value counts across the whole catalog.
func (s *Store) Facets() map[string]map[string]int {
	out := make(map[string]map[string]int)
	for _, c := range s.courses {
		for category, values := range c.Facets() {
			counts := out[category]
			if counts == nil {
				counts = make(map[string]int)
				out[category] = counts
			}
			for _, v := range values {
				counts[v]++
			}
		}
	}
	return out
}

// Len returns the number of catalog courses.
func (s *Store) Len() int { return len(s.courses) }

// Dimensions returns the embedding width of the loaded catalog.
func (s *Store) Dimensions() int { return s.dimensions }

// Version returns the content fingerprint of the loaded catalog.
func (s *Store) Version() string { return s.version }

func (s *Store) byIDAppend(c course.Course) {
	if s.byID == nil {
		s.byID = make(map[string]int)
	}
	s.byID[c.ID()] = len(s.courses)
	s.courses = append(s.courses, c)
}

// fingerprint hashes course IDs and vectors in load order. Two catalogs with
// the same fingerprint produce identical search results for the same request.
func (s *Store) fingerprint() string {
	h := sha256.New()
	var buf [4]byte
	for _, c := range s.courses {
		h.Write([]byte(c.ID()))
		h.Write([]byte{0})
		for _, v := range c.Vector() {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func descriptionKey(description string) string {
	return strings.Join(strings.Fields(strings.ToLower(description)), " ")
}

// parseEmbedding decodes a serialized float vector. The canonical form is a
// JSON array; single-quoted python-style lists are normalized first.
func parseEmbedding(raw string) ([]float32, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("empty embedding")
	}
	if strings.ContainsRune(s, '\'') {
		s = strings.ReplaceAll(s, "'", `"`)
	}
	var vector []float32
	if err := json.Unmarshal([]byte(s), &vector); err != nil {
		return nil, fmt.Errorf("parse embedding: %w", err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("empty embedding")
	}
	return vector, nil
}

// SortedFacetValues returns a category's values in deterministic order,
// useful for building UI filter lists.
func SortedFacetValues(counts map[string]int) []string {
	values := make([]string, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
