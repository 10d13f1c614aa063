package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/albot-dev/alchemy/app/curator"
	"github.com/albot-dev/alchemy/app/database"
)

// rawReactions maps Slack emoji names to canonical reactions. Anything
// outside this map is ignored at the boundary.
var rawReactions = map[string]curator.Reaction{
	"star":        curator.ReactionImpressed,
	"file_folder": curator.ReactionArchived,
	"-1":          curator.ReactionDismissed,
	"thumbsdown":  curator.ReactionDismissed,
}

// Canonicalize resolves a raw reaction name. ok is false for reactions
// the system does not track.
func Canonicalize(raw string) (curator.Reaction, bool) {
	reaction, ok := rawReactions[raw]
	return reaction, ok
}

// Archiver is the vault sink for starred and saved items.
type Archiver interface {
	Enabled() bool
	ArchiveCard(ctx context.Context, card curator.CurationCard, reaction curator.Reaction) error
	ArchiveNews(ctx context.Context, card curator.NewsCard, reaction curator.Reaction) error
	ArchiveLink(ctx context.Context, title, url string, reaction curator.Reaction) error
}

// Ingester turns raw reaction signals into status updates, feedback
// events and vault archives.
type Ingester struct {
	cards    database.CardRepository
	news     database.NewsRepository
	feedback database.FeedbackRepository
	archiver Archiver
}

func NewIngester(cards database.CardRepository, news database.NewsRepository, feedback database.FeedbackRepository, archiver Archiver) *Ingester {
	return &Ingester{
		cards:    cards,
		news:     news,
		feedback: feedback,
		archiver: archiver,
	}
}

// Ingest processes one raw reaction against an item URL. Unknown
// reactions and URLs that match no delivered item are not errors: the
// event is still appended so the preference engine sees every signal on
// a known reaction.
func (i *Ingester) Ingest(ctx context.Context, rawReaction, itemURL string) error {
	reaction, ok := Canonicalize(rawReaction)
	if !ok {
		slog.Debug("Ignoring untracked reaction", "reaction", rawReaction)
		return nil
	}
	if itemURL == "" {
		slog.Debug("Reaction carries no item URL", "reaction", rawReaction)
		return nil
	}

	status := reaction.Status()

	card, err := i.cards.GetCardByURL(itemURL)
	if err != nil {
		return fmt.Errorf("lookup card: %w", err)
	}

	matched := false
	if card != nil {
		if _, err := i.cards.UpdateStatusByURL(itemURL, status); err != nil {
			return fmt.Errorf("update card status: %w", err)
		}
		matched = true
	} else {
		matched, err = i.news.UpdateStatusByURL(itemURL, status)
		if err != nil {
			return fmt.Errorf("update news status: %w", err)
		}
	}

	event := curator.FeedbackEvent{
		ItemURL:   itemURL,
		Reaction:  reaction,
		CreatedAt: time.Now().UTC(),
	}
	if err := i.feedback.Append(event); err != nil {
		return fmt.Errorf("append feedback: %w", err)
	}

	if reaction == curator.ReactionImpressed || reaction == curator.ReactionArchived {
		i.archive(ctx, card, itemURL, reaction)
	}

	slog.Info("Ingested reaction", "reaction", reaction, "url", itemURL, "matched", matched)
	return nil
}

// archive is a best-effort side effect. A vault failure never fails the
// ingestion: the status update and event are already durable.
func (i *Ingester) archive(ctx context.Context, card *database.CardRecord, itemURL string, reaction curator.Reaction) {
	if i.archiver == nil || !i.archiver.Enabled() {
		return
	}

	var err error
	switch {
	case card != nil:
		err = i.archiver.ArchiveCard(ctx, card.CurationCard, reaction)
	default:
		news, lookupErr := i.news.GetNewsByURL(itemURL)
		if lookupErr == nil && news != nil {
			err = i.archiver.ArchiveNews(ctx, news.NewsCard, reaction)
		} else {
			err = i.archiver.ArchiveLink(ctx, "", itemURL, reaction)
		}
	}
	if err != nil {
		slog.Warn("Vault archive failed", "url", itemURL, "error", err)
	}
}
