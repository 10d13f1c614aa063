package api

import (
	"context"

	"github.com/albot-dev/alchemy/app/curator"
)

// ReactionIngester consumes resolved reaction signals.
type ReactionIngester interface {
	Ingest(ctx context.Context, rawReaction, itemURL string) error
}

// MessageResolver maps a channel/timestamp pair back to the item URL the
// message carries.
type MessageResolver interface {
	LookupMessageURL(ctx context.Context, channel, timestamp string) (string, error)
}

// StatsProvider serves the current weekly engagement stats.
type StatsProvider interface {
	WeeklyStats() (curator.WeeklyStats, error)
}

type Handler struct {
	ingester ReactionIngester
	resolver MessageResolver
	stats    StatsProvider
	// sharedToken is matched against the token field Slack sends in
	// each event payload. Full request-signature verification is out of
	// scope.
	sharedToken string
}

func NewHandler(ingester ReactionIngester, resolver MessageResolver, stats StatsProvider, sharedToken string) *Handler {
	return &Handler{
		ingester:    ingester,
		resolver:    resolver,
		stats:       stats,
		sharedToken: sharedToken,
	}
}
