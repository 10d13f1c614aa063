package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/albot-dev/alchemy/app/curator"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	notionVersion  = "2022-06-28"
)

// Client archives starred and saved items into a Notion database used as
// a personal knowledge vault.
type Client struct {
	baseURL    string
	apiKey     string
	databaseID string
	httpClient *http.Client
}

func NewClient(apiKey, databaseID string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		databaseID: databaseID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether archiving is configured at all. Archiving is an
// optional side effect and is silently skipped when unconfigured.
func (c *Client) Enabled() bool {
	return c.apiKey != "" && c.databaseID != ""
}

// ratingLabel maps the archival-triggering reactions to vault labels.
func ratingLabel(reaction curator.Reaction) string {
	if reaction == curator.ReactionImpressed {
		return "⭐ Impressed"
	}
	return "📂 Saved"
}

// ArchiveCard creates a vault page for one curation card.
func (c *Client) ArchiveCard(ctx context.Context, card curator.CurationCard, reaction curator.Reaction) error {
	properties := map[string]any{
		"Title":  titleProperty(card.Title),
		"URL":    urlProperty(card.URL),
		"Rating": selectProperty(ratingLabel(reaction)),
	}
	if card.Source != "" {
		properties["Source"] = selectProperty(card.Source)
	}
	if card.AxisName != "" {
		properties["Axis"] = selectProperty(card.AxisName)
	}
	if card.ConceptName != "" {
		properties["New Concept"] = richTextProperty(card.ConceptName)
	}
	if card.ConceptDesc != "" {
		properties["Concept Note"] = richTextProperty(card.ConceptDesc)
	}
	if card.WhyRead != "" {
		properties["Why It Matters"] = richTextProperty(card.WhyRead)
	}

	return c.createPage(ctx, properties)
}

// ArchiveNews creates a vault page for one news card, carrying its
// hashtag and summary lines.
func (c *Client) ArchiveNews(ctx context.Context, card curator.NewsCard, reaction curator.Reaction) error {
	properties := map[string]any{
		"Title":  titleProperty(card.Title),
		"URL":    urlProperty(card.URL),
		"Rating": selectProperty(ratingLabel(reaction)),
	}
	if card.Source != "" {
		properties["Source"] = selectProperty(card.Source)
	}
	if card.Hashtag != "" {
		properties["Hashtag"] = selectProperty(card.Hashtag)
	}
	if summary := joinLines(card.Lines); summary != "" {
		properties["Summary"] = richTextProperty(summary)
	}

	return c.createPage(ctx, properties)
}

// ArchiveLink creates a minimal vault page for an item that has no stored
// card, keeping the reaction from being lost.
func (c *Client) ArchiveLink(ctx context.Context, title, url string, reaction curator.Reaction) error {
	if title == "" {
		title = "Untitled"
	}
	return c.createPage(ctx, map[string]any{
		"Title":  titleProperty(title),
		"URL":    urlProperty(url),
		"Rating": selectProperty(ratingLabel(reaction)),
	})
}

type createPageRequest struct {
	Parent     map[string]string `json:"parent"`
	Properties map[string]any    `json:"properties"`
}

func (c *Client) createPage(ctx context.Context, properties map[string]any) error {
	payload := createPageRequest{
		Parent:     map[string]string{"database_id": c.databaseID},
		Properties: properties,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal page: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", notionVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notion status %s: %s", resp.Status, excerpt)
	}

	return nil
}

func joinLines(lines [3]string) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, "\n")
}

func titleProperty(text string) map[string]any {
	return map[string]any{
		"title": []map[string]any{textContent(text)},
	}
}

func richTextProperty(text string) map[string]any {
	return map[string]any{
		"rich_text": []map[string]any{textContent(text)},
	}
}

func urlProperty(url string) map[string]any {
	return map[string]any{"url": url}
}

func selectProperty(name string) map[string]any {
	return map[string]any{
		"select": map[string]string{"name": name},
	}
}

func textContent(text string) map[string]any {
	return map[string]any{
		"text": map[string]string{"content": text},
	}
}
