package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/albot-dev/alchemy/app/curator"
)

func TestRatingLabel(t *testing.T) {
	if got := ratingLabel(curator.ReactionImpressed); got != "⭐ Impressed" {
		t.Errorf("Expected impressed label, got %q", got)
	}
	if got := ratingLabel(curator.ReactionArchived); got != "📂 Saved" {
		t.Errorf("Expected saved label, got %q", got)
	}
}

func TestEnabled(t *testing.T) {
	if NewClient("", "", time.Second).Enabled() {
		t.Error("Expected unconfigured client disabled")
	}
	if NewClient("secret", "", time.Second).Enabled() {
		t.Error("Expected client without database disabled")
	}
	if !NewClient("secret", "db1", time.Second).Enabled() {
		t.Error("Expected configured client enabled")
	}
}

func TestArchiveCard(t *testing.T) {
	var captured createPageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pages" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Notion-Version"); got != notionVersion {
			t.Errorf("Unexpected version header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("Decode request: %v", err)
		}
		fmt.Fprint(w, `{"object": "page"}`)
	}))
	defer server.Close()

	client := NewClient("secret", "db1", 5*time.Second)
	client.baseURL = server.URL

	card := curator.CurationCard{
		Title:       "Raft Explained",
		Source:      "Example Blog",
		URL:         "https://example.com/raft",
		AxisName:    "Distributed Systems",
		ConceptName: "Joint consensus",
		ConceptDesc: "Two-phase membership change",
		WhyRead:     "You operate a multi-node cluster",
	}

	err := client.ArchiveCard(context.Background(), card, curator.ReactionImpressed)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if captured.Parent["database_id"] != "db1" {
		t.Errorf("Expected database parent, got %v", captured.Parent)
	}
	for _, key := range []string{"Title", "URL", "Rating", "Source", "Axis", "New Concept", "Concept Note", "Why It Matters"} {
		if _, ok := captured.Properties[key]; !ok {
			t.Errorf("Expected property %q in page", key)
		}
	}
}

func TestArchiveNews(t *testing.T) {
	var captured createPageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("Decode request: %v", err)
		}
		fmt.Fprint(w, `{"object": "page"}`)
	}))
	defer server.Close()

	client := NewClient("secret", "db1", 5*time.Second)
	client.baseURL = server.URL

	card := curator.NewsCard{
		Hashtag: "kubernetes",
		Title:   "Release lands",
		Lines:   [3]string{"Shipped v2", "", "Check manifests"},
		URL:     "https://example.com/k8s",
		Source:  "Newswire",
	}

	err := client.ArchiveNews(context.Background(), card, curator.ReactionArchived)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, key := range []string{"Title", "URL", "Rating", "Source", "Hashtag", "Summary"} {
		if _, ok := captured.Properties[key]; !ok {
			t.Errorf("Expected property %q in page", key)
		}
	}

	raw, _ := json.Marshal(captured.Properties["Summary"])
	if !strings.Contains(string(raw), "Shipped v2\\nCheck manifests") {
		t.Errorf("Expected empty lines dropped from summary, got %s", raw)
	}
}

func TestArchiveLinkUsesPlaceholderTitle(t *testing.T) {
	var captured createPageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("Decode request: %v", err)
		}
		fmt.Fprint(w, `{"object": "page"}`)
	}))
	defer server.Close()

	client := NewClient("secret", "db1", 5*time.Second)
	client.baseURL = server.URL

	err := client.ArchiveLink(context.Background(), "", "https://example.com/x", curator.ReactionArchived)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	raw, _ := json.Marshal(captured.Properties["Title"])
	if !strings.Contains(string(raw), "Untitled") {
		t.Errorf("Expected placeholder title, got %s", raw)
	}
}

func TestArchiveCardReportsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "validation_error"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient("secret", "db1", 5*time.Second)
	client.baseURL = server.URL

	err := client.ArchiveCard(context.Background(), curator.CurationCard{Title: "x", URL: "https://example.com"}, curator.ReactionArchived)
	if err == nil || !strings.Contains(err.Error(), "validation_error") {
		t.Errorf("Expected validation error surfaced, got %v", err)
	}
}
