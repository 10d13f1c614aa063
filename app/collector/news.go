package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/albot-dev/alchemy/app/curator"
)

const (
	newsAPIEndpoint  = "https://newsapi.org/v2/everything"
	newsPerKeyword   = 10
	googlePerKeyword = 5
	newsPoolCap      = 50
)

// NewsCollector pulls headline candidates per keyword, from NewsAPI when
// a key is configured and from Google News RSS as the free fallback.
type NewsCollector struct {
	apiKey     string
	keywords   []string
	httpClient *http.Client
}

func NewNewsCollector(apiKey string, keywords []string, httpClient *http.Client) *NewsCollector {
	return &NewsCollector{
		apiKey:     apiKey,
		keywords:   keywords,
		httpClient: httpClient,
	}
}

// Collect merges both backends, isolating per-keyword failures, and
// returns a URL-deduplicated pool capped at newsPoolCap.
func (c *NewsCollector) Collect(ctx context.Context) []curator.ContentItem {
	var all []curator.ContentItem

	if c.apiKey != "" {
		all = append(all, c.collectFromAPI(ctx)...)
	}
	all = append(all, c.collectFromGoogleRSS(ctx)...)

	all = dedupeByURL(all)
	if len(all) > newsPoolCap {
		all = all[:newsPoolCap]
	}

	slog.Info("Collected news", "keywords", len(c.keywords), "candidates", len(all))
	return all
}

type newsAPIResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

func (c *NewsCollector) collectFromAPI(ctx context.Context) []curator.ContentItem {
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")

	var items []curator.ContentItem
	for _, keyword := range c.keywords {
		batch, err := c.fetchKeyword(ctx, keyword, yesterday)
		if err != nil {
			slog.Warn("NewsAPI fetch failed", "keyword", keyword, "error", err)
			continue
		}
		items = append(items, batch...)
	}

	return items
}

func (c *NewsCollector) fetchKeyword(ctx context.Context, keyword, from string) ([]curator.ContentItem, error) {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("from", from)
	params.Set("sortBy", "relevancy")
	params.Set("language", "en")
	params.Set("pageSize", fmt.Sprintf("%d", newsPerKeyword))
	params.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, newsAPIEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("newsapi status %s: %s", resp.Status, payload)
	}

	var parsed newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	items := make([]curator.ContentItem, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		if a.URL == "" || a.Title == "" {
			continue
		}
		published := a.PublishedAt
		if published.IsZero() {
			published = time.Now().UTC()
		}
		items = append(items, curator.ContentItem{
			URL:         a.URL,
			Title:       normalizeText(a.Title),
			Source:      a.Source.Name,
			Tier:        2,
			Preview:     normalizeText(a.Description),
			PublishedAt: published,
			Kind:        curator.KindNews,
		})
	}

	return items, nil
}

func (c *NewsCollector) collectFromGoogleRSS(ctx context.Context) []curator.ContentItem {
	var items []curator.ContentItem

	for _, keyword := range c.keywords {
		feedURL := fmt.Sprintf(
			"https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en",
			url.QueryEscape(keyword))

		parser := gofeed.NewParser()
		parser.Client = c.httpClient

		feed, err := parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			slog.Warn("Google News fetch failed", "keyword", keyword, "error", err)
			continue
		}

		for i, entry := range feed.Items {
			if i == googlePerKeyword {
				break
			}
			if entry.Link == "" || entry.Title == "" {
				continue
			}

			source := "Google News"
			if len(entry.Authors) > 0 && entry.Authors[0].Name != "" {
				source = entry.Authors[0].Name
			}

			items = append(items, curator.ContentItem{
				URL:         entry.Link,
				Title:       normalizeText(entry.Title),
				Source:      source,
				Tier:        3,
				Preview:     buildPreview(entry.Description, entry.Link),
				PublishedAt: entryTime(entry),
				Kind:        curator.KindNews,
			})
		}
	}

	return items
}
