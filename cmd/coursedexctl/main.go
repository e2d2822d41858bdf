package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/campusquest/coursedex"
	logpkg "github.com/campusquest/coursedex/internal/logger"
	"github.com/campusquest/coursedex/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "coursedexctl",
		Usage:   "Query a course catalog from the command line",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "catalog",
				Aliases:  []string{"c"},
				Usage:    "Path to the catalog file (CSV or SQLite database)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "table",
				Usage: "SQLite table name (treats the catalog file as SQLite)",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Embedding provider API key",
				EnvVars: []string{"OPENAI_API_KEY"},
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Embedding provider base URL",
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "Embedding model name",
				Value: "text-embedding-ada-002",
			},
			&cli.StringSliceFlag{
				Name:  "facet-column",
				Usage: "Facet category to source column mapping (category=column), repeatable",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Set logging level (debug, info, warn, error)",
				Value: "warn",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Rank catalog courses against a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "facet",
						Aliases: []string{"f"},
						Usage:   "Facet predicate (category=value1,value2), repeatable",
					},
					&cli.IntFlag{
						Name:    "k",
						Aliases: []string{"n"},
						Usage:   "Number of results",
						Value:   10,
					},
				},
			},
			{
				Name:   "facets",
				Usage:  "List facet categories and value counts",
				Action: facetsCommand,
			},
			{
				Name:   "stats",
				Usage:  "Print catalog size and version",
				Action: statsCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildClient(c *cli.Context, needEmbedder bool) (*coursedex.Client, error) {
	logger, err := logpkg.NewLogger("local", c.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	opts := []coursedex.Option{
		coursedex.WithLogger(logger),
		coursedex.WithEmbedTimeout(30 * time.Second),
	}

	if table := c.String("table"); table != "" {
		opts = append(opts, coursedex.WithSQLite(c.String("catalog"), table))
	} else {
		opts = append(opts, coursedex.WithCSV(c.String("catalog")))
	}

	for _, mapping := range c.StringSlice("facet-column") {
		category, column, ok := strings.Cut(mapping, "=")
		if !ok {
			return nil, fmt.Errorf("invalid facet-column %q, want category=column", mapping)
		}
		opts = append(opts, coursedex.WithFacetColumn(category, column))
	}

	apiKey := c.String("api-key")
	switch {
	case apiKey != "":
		opts = append(opts, coursedex.WithOpenAI(apiKey, c.String("model")))
		if baseURL := c.String("base-url"); baseURL != "" {
			opts = append(opts, coursedex.WithBaseURL(baseURL))
		}
	case needEmbedder:
		return nil, fmt.Errorf("api key required (--api-key or OPENAI_API_KEY)")
	default:
		// catalog inspection only, queries are never vectorized
		opts = append(opts, coursedex.WithEmbedder(noEmbedder{}))
	}

	client, err := coursedex.New(opts...)
	if err != nil {
		logger.Error("failed to build client", zap.Error(err))
		return nil, err
	}
	return client, nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query argument required")
	}

	facets := make(map[string][]string)
	for _, predicate := range c.StringSlice("facet") {
		category, values, ok := strings.Cut(predicate, "=")
		if !ok {
			return fmt.Errorf("invalid facet %q, want category=value1,value2", predicate)
		}
		facets[category] = append(facets[category], strings.Split(values, ",")...)
	}

	client, err := buildClient(c, true)
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.Search(c.Context, query, &coursedex.SearchOptions{
		Facets: facets,
		K:      c.Int("k"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("%d candidates, showing top %d\n\n", resp.Total, len(resp.Results))
	for i, r := range resp.Results {
		name := r.Title
		if r.Code != "" {
			name = r.Code + " " + name
		}
		fmt.Printf("%2d. [%.4f] %s\n", i+1, r.Score, name)
		fmt.Printf("    %s\n", truncate(r.Description, 160))
	}
	return nil
}

func facetsCommand(c *cli.Context) error {
	client, err := buildClient(c, false)
	if err != nil {
		return err
	}
	defer client.Close()

	counts := client.Facets()
	categories := make([]string, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		fmt.Println(category + ":")
		values := make([]string, 0, len(counts[category]))
		for v := range counts[category] {
			values = append(values, v)
		}
		sort.Strings(values)
		for _, v := range values {
			fmt.Printf("  %-24s %d\n", v, counts[category][v])
		}
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	client, err := buildClient(c, false)
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Printf("courses: %d\n", client.Len())
	fmt.Printf("version: %s\n", client.Version())
	return nil
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

// noEmbedder fails any embed call. Used when only catalog metadata is read.
type noEmbedder struct{}

func (noEmbedder) Embed(_ context.Context, _ string) (coursedex.EmbeddingResult, error) {
	return coursedex.EmbeddingResult{}, fmt.Errorf("embedder not configured")
}
