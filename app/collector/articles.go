package collector

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/albot-dev/alchemy/app/config"
	"github.com/albot-dev/alchemy/app/curator"
)

// entriesPerSource bounds how many entries are taken from each feed.
const entriesPerSource = 10

// ArticleCollector pulls deep-read candidates from the configured RSS
// sources with a bounded worker pool. One source's failure never aborts
// the others.
type ArticleCollector struct {
	sources    []config.Source
	httpClient *http.Client
	workers    int
	maxAge     time.Duration
}

func NewArticleCollector(sources []config.Source, httpClient *http.Client, workers int, maxAge time.Duration) *ArticleCollector {
	if workers < 1 {
		workers = 1
	}
	return &ArticleCollector{
		sources:    sources,
		httpClient: httpClient,
		workers:    workers,
		maxAge:     maxAge,
	}
}

// Collect fetches all sources and returns the merged candidate pool,
// deduplicated by URL and sorted by tier ascending.
func (c *ArticleCollector) Collect(ctx context.Context) []curator.ContentItem {
	jobs := make(chan config.Source)
	results := make(chan []curator.ContentItem)

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for source := range jobs {
				items, err := c.fetchSource(ctx, source)
				if err != nil {
					slog.Warn("Source fetch failed", "source", source.Name, "error", err)
					continue
				}
				results <- items
			}
		}()
	}

	go func() {
		for _, source := range c.sources {
			select {
			case jobs <- source:
			case <-ctx.Done():
			}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var all []curator.ContentItem
	for items := range results {
		all = append(all, items...)
	}

	all = dedupeByURL(all)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Tier < all[j].Tier
	})

	slog.Info("Collected articles", "sources", len(c.sources), "candidates", len(all))
	return all
}

func (c *ArticleCollector) fetchSource(ctx context.Context, source config.Source) ([]curator.ContentItem, error) {
	parser := gofeed.NewParser()
	parser.Client = c.httpClient

	feed, err := parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-c.maxAge)

	items := make([]curator.ContentItem, 0, entriesPerSource)
	for i, entry := range feed.Items {
		if i == entriesPerSource {
			break
		}

		published := entryTime(entry)
		if !published.IsZero() && published.Before(cutoff) {
			continue
		}
		if published.IsZero() {
			published = time.Now().UTC()
		}
		if entry.Title == "" || entry.Link == "" {
			continue
		}

		raw := entry.Content
		if raw == "" {
			raw = entry.Description
		}

		items = append(items, curator.ContentItem{
			URL:         entry.Link,
			Title:       normalizeText(entry.Title),
			Source:      source.Name,
			Tier:        source.Tier,
			Preview:     buildPreview(raw, entry.Link),
			PublishedAt: published,
			Kind:        curator.KindArticle,
		})
	}

	return items, nil
}

func entryTime(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed.UTC()
	}
	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed.UTC()
	}
	return time.Time{}
}

func dedupeByURL(items []curator.ContentItem) []curator.ContentItem {
	seen := make(map[string]struct{}, len(items))
	unique := make([]curator.ContentItem, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.URL]; dup {
			continue
		}
		seen[item.URL] = struct{}{}
		unique = append(unique, item)
	}
	return unique
}
