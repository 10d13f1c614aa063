package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

const defaultBaseURL = "https://slack.com/api"

// Client is a minimal Slack Web API client covering message delivery and
// message lookup for reaction resolution.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type postMessageRequest struct {
	Channel     string  `json:"channel"`
	Text        string  `json:"text"`
	Blocks      []Block `json:"blocks,omitempty"`
	UnfurlLinks bool    `json:"unfurl_links"`
	UnfurlMedia bool    `json:"unfurl_media"`
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	TS    string `json:"ts"`
}

// PostMessage delivers one message to a channel with link unfurling
// disabled and returns the message timestamp.
func (c *Client) PostMessage(ctx context.Context, channel string, msg Message) (string, error) {
	payload := postMessageRequest{
		Channel: channel,
		Text:    msg.Text,
		Blocks:  msg.Blocks,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if !parsed.OK {
		return "", fmt.Errorf("slack error: %s", parsed.Error)
	}

	return parsed.TS, nil
}

// PostAlert sends a plain-text operational alert.
func (c *Client) PostAlert(ctx context.Context, channel, text string) error {
	_, err := c.PostMessage(ctx, channel, Message{Text: text})
	return err
}

type historyResponse struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
	Messages []struct {
		Text string `json:"text"`
	} `json:"messages"`
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>|]+`)

// LookupMessageURL fetches the message at the given timestamp and
// extracts the first URL it carries. Returns "" when the message has
// none.
func (c *Client) LookupMessageURL(ctx context.Context, channel, timestamp string) (string, error) {
	params := url.Values{}
	params.Set("channel", channel)
	params.Set("latest", timestamp)
	params.Set("inclusive", "true")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/conversations.history?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var parsed historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if !parsed.OK {
		return "", fmt.Errorf("slack error: %s", parsed.Error)
	}
	if len(parsed.Messages) == 0 {
		return "", nil
	}

	return urlPattern.FindString(parsed.Messages[0].Text), nil
}
