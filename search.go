package coursedex

import (
	"context"
	"fmt"

	"github.com/campusquest/coursedex/internal/domain/search/facet"
	"github.com/campusquest/coursedex/internal/domain/search/request"
)

// Course is one catalog entry.
type Course struct {
	ID          string
	Code        string
	Title       string
	Description string
	Facets      map[string][]string
	Metadata    map[string]string
}

// Result is one ranked course.
type Result struct {
	Course
	Score float64
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// Facets restricts candidates before ranking: a course must satisfy
	// every listed category (AND) by carrying at least one of its accepted
	// values (OR).
	Facets map[string][]string
	// K caps the number of returned results. 0 uses the default of 10.
	K int
}

// SearchResponse holds ranked results plus the candidate count.
type SearchResponse struct {
	Results []Result
	// Total counts the courses that matched the facet selection before
	// ranking truncated to K.
	Total int
}

// Search ranks catalog courses against the query text.
func (c *Client) Search(ctx context.Context, query string, opts *SearchOptions) (SearchResponse, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}

	selection, err := facet.NewSelection(opts.Facets)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("coursedex: %w", err)
	}

	req, err := request.New(query, selection, opts.K)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("coursedex: %w", err)
	}

	results, total, err := c.searchSvc.Search(ctx, &req)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("coursedex: %w", err)
	}

	out := make([]Result, len(results))
	for i, r := range results {
		dc := r.Course()
		out[i] = Result{
			Course: Course{
				ID:          dc.ID(),
				Code:        dc.Code(),
				Title:       dc.Title(),
				Description: dc.Description(),
				Facets:      dc.Facets(),
				Metadata:    dc.Metadata(),
			},
			Score: r.Score(),
		}
	}
	return SearchResponse{Results: out, Total: total}, nil
}
