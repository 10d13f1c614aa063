package curator

import (
	"log/slog"
	"time"
)

// RecentURLSource provides the set of URLs recommended since a cutoff,
// across both news records and curation cards.
type RecentURLSource interface {
	RecentURLs(since time.Time) (map[string]struct{}, error)
}

// Deduplicator filters candidates whose URL was already recommended
// within the trailing window. Pure filter: no side effects, idempotent.
type Deduplicator struct {
	history    RecentURLSource
	windowDays int
}

func NewDeduplicator(history RecentURLSource, windowDays int) *Deduplicator {
	return &Deduplicator{history: history, windowDays: windowDays}
}

// Run returns items with recently recommended URLs removed. When the
// history lookup is unavailable the filter fails open: all candidates
// pass through, and the decision is logged.
func (d *Deduplicator) Run(items []ContentItem) []ContentItem {
	since := time.Now().UTC().AddDate(0, 0, -d.windowDays)

	seen, err := d.history.RecentURLs(since)
	if err != nil {
		slog.Warn("Recommendation history unavailable, skipping deduplication",
			"window_days", d.windowDays, "error", err)
		return items
	}

	kept := make([]ContentItem, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.URL]; dup {
			continue
		}
		kept = append(kept, item)
	}

	if removed := len(items) - len(kept); removed > 0 {
		slog.Debug("Deduplicated candidates", "removed", removed, "kept", len(kept))
	}

	return kept
}
