package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ingestTimeout bounds the background work spawned per reaction event.
const ingestTimeout = 30 * time.Second

type slackEvent struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Event     struct {
		Type     string `json:"type"`
		Reaction string `json:"reaction"`
		Item     struct {
			Type      string `json:"type"`
			Channel   string `json:"channel"`
			Timestamp string `json:"ts"`
		} `json:"item"`
	} `json:"event"`
}

// HandleSlackEvents serves the Slack Events API endpoint. Reaction
// events are acknowledged immediately and processed in the background;
// Slack retries on slow responses otherwise.
func (h *Handler) HandleSlackEvents(c *gin.Context) {
	var payload slackEvent
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if h.sharedToken != "" && payload.Token != h.sharedToken {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token mismatch"})
		return
	}

	switch payload.Type {
	case "url_verification":
		c.JSON(http.StatusOK, gin.H{"challenge": payload.Challenge})
	case "event_callback":
		if payload.Event.Type == "reaction_added" && payload.Event.Item.Type == "message" {
			go h.processReaction(payload)
		}
		c.Status(http.StatusOK)
	default:
		c.Status(http.StatusOK)
	}
}

func (h *Handler) processReaction(payload slackEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	itemURL, err := h.resolver.LookupMessageURL(ctx, payload.Event.Item.Channel, payload.Event.Item.Timestamp)
	if err != nil {
		slog.Error("Message lookup failed", "channel", payload.Event.Item.Channel, "ts", payload.Event.Item.Timestamp, "error", err)
		return
	}

	if err := h.ingester.Ingest(ctx, payload.Event.Reaction, itemURL); err != nil {
		slog.Error("Reaction ingestion failed", "reaction", payload.Event.Reaction, "url", itemURL, "error", err)
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.stats.WeeklyStats()
	if err != nil {
		slog.Error("Stats computation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":       stats.Total,
		"starred":     stats.Starred,
		"archived":    stats.Archived,
		"skipped":     stats.Skipped,
		"sent":        stats.Sent,
		"axis_counts": stats.AxisCounts,
	})
}
