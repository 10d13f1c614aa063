package digest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/albot-dev/alchemy/app/curator"
	"github.com/albot-dev/alchemy/app/database"
	"github.com/albot-dev/alchemy/app/slack"
)

// alertLimit bounds failure alerts delivered to Slack, in runes.
const alertLimit = 500

// ContentSource is a collector producing candidate items. Collectors
// never fail as a whole; per-source failures are already swallowed.
type ContentSource interface {
	Collect(ctx context.Context) []curator.ContentItem
}

// CurationEngine is the model-facing pipeline surface the orchestrator
// drives.
type CurationEngine interface {
	Run(ctx context.Context, candidates []curator.ContentItem, opts curator.PipelineOptions) (*curator.Digest, error)
	SummarizeNews(ctx context.Context, items []curator.ContentItem, count int) ([]curator.NewsCard, error)
	GenerateWeeklyConnection(ctx context.Context, starred []curator.CurationCard) curator.SynthesisNote
}

// Messenger delivers digest messages and operational alerts.
type Messenger interface {
	PostMessage(ctx context.Context, channel string, msg slack.Message) (string, error)
	PostAlert(ctx context.Context, channel, text string) error
}

// Channels names the delivery targets per briefing kind.
type Channels struct {
	Daily   string
	Weekend string
	Report  string
}

// Counts sets how many items each briefing carries.
type Counts struct {
	DailyNews       int
	DailyArticles   int
	WeekendArticles int
}

// Orchestrator composes collection, deduplication, preference
// exclusions, the curation pipeline, persistence and delivery into the
// three briefing runs. Runs are mutually exclusive.
type Orchestrator struct {
	mu sync.Mutex

	articles ContentSource
	news     ContentSource
	dedup    *curator.Deduplicator
	prefs    *curator.PreferenceEngine
	engine   CurationEngine

	cards    database.CardRepository
	newsRepo database.NewsRepository
	feedback database.FeedbackRepository

	messenger Messenger
	channels  Channels
	counts    Counts
}

func NewOrchestrator(
	articles, news ContentSource,
	dedup *curator.Deduplicator,
	prefs *curator.PreferenceEngine,
	engine CurationEngine,
	cards database.CardRepository,
	newsRepo database.NewsRepository,
	feedback database.FeedbackRepository,
	messenger Messenger,
	channels Channels,
	counts Counts,
) *Orchestrator {
	return &Orchestrator{
		articles:  articles,
		news:      news,
		dedup:     dedup,
		prefs:     prefs,
		engine:    engine,
		cards:     cards,
		newsRepo:  newsRepo,
		feedback:  feedback,
		messenger: messenger,
		channels:  channels,
		counts:    counts,
	}
}

// RunDaily produces and delivers the daily briefing: summarized
// headlines plus deep-read curation cards.
func (o *Orchestrator) RunDaily(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	err := o.runDaily(ctx)
	if err != nil {
		o.alert(ctx, "daily", err)
	}
	return err
}

func (o *Orchestrator) runDaily(ctx context.Context) error {
	slog.Info("Daily run started")

	newsPool := o.dedup.Run(o.news.Collect(ctx))
	articlePool := o.dedup.Run(o.articles.Collect(ctx))

	exclusions, starred, err := o.preferenceInputs()
	if err != nil {
		return err
	}

	// A broken summarizer costs the headlines, never the deep reads.
	newsCards, err := o.engine.SummarizeNews(ctx, newsPool, o.counts.DailyNews)
	if err != nil {
		slog.Warn("News summarizer failed, continuing without headlines", "error", err)
		newsCards = nil
	}

	digest, err := o.engine.Run(ctx, articlePool, curator.PipelineOptions{
		Count:      o.counts.DailyArticles,
		Exclusions: exclusions,
		Starred:    starred,
	})
	if err != nil {
		return fmt.Errorf("curation pipeline: %w", err)
	}

	if err := o.persist(newsCards, digest.Cards, "daily"); err != nil {
		return err
	}

	if err := o.deliverDaily(ctx, newsCards, digest); err != nil {
		return err
	}

	slog.Info("Daily run complete", "news", len(newsCards), "cards", len(digest.Cards))
	return nil
}

// RunWeekend produces and delivers the weekend briefing: deep reads plus
// a connection question drawn from the starred sample.
func (o *Orchestrator) RunWeekend(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	err := o.runWeekend(ctx)
	if err != nil {
		o.alert(ctx, "weekend", err)
	}
	return err
}

func (o *Orchestrator) runWeekend(ctx context.Context) error {
	slog.Info("Weekend run started")

	articlePool := o.dedup.Run(o.articles.Collect(ctx))

	exclusions, starred, err := o.preferenceInputs()
	if err != nil {
		return err
	}

	digest, err := o.engine.Run(ctx, articlePool, curator.PipelineOptions{
		Count:      o.counts.WeekendArticles,
		Exclusions: exclusions,
		Starred:    starred,
	})
	if err != nil {
		return fmt.Errorf("curation pipeline: %w", err)
	}

	if err := o.persist(nil, digest.Cards, "weekend"); err != nil {
		return err
	}

	question := o.engine.GenerateWeeklyConnection(ctx, starred)

	if err := o.deliverWeekend(ctx, digest, question); err != nil {
		return err
	}

	slog.Info("Weekend run complete", "cards", len(digest.Cards))
	return nil
}

// RunWeekly produces and delivers the weekly engagement report.
func (o *Orchestrator) RunWeekly(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	err := o.runWeekly(ctx)
	if err != nil {
		o.alert(ctx, "weekly", err)
	}
	return err
}

func (o *Orchestrator) runWeekly(ctx context.Context) error {
	slog.Info("Weekly run started")

	stats, err := o.WeeklyStats()
	if err != nil {
		return err
	}

	question := o.engine.GenerateWeeklyConnection(ctx, stats.StarredCards)

	msg := slack.FormatWeeklyReport(stats, string(question))
	if _, err := o.messenger.PostMessage(ctx, o.channels.Report, msg); err != nil {
		return fmt.Errorf("deliver report: %w", err)
	}

	slog.Info("Weekly run complete", "total", stats.Total, "starred", stats.Starred)
	return nil
}

// WeeklyStats aggregates the trailing 7-day window.
func (o *Orchestrator) WeeklyStats() (curator.WeeklyStats, error) {
	since := time.Now().UTC().AddDate(0, 0, -7)
	records, err := o.cards.GetCardsSince(since)
	if err != nil {
		return curator.WeeklyStats{}, fmt.Errorf("load cards: %w", err)
	}

	scored := make([]curator.ScoredCard, 0, len(records))
	for _, record := range records {
		scored = append(scored, curator.ScoredCard{Card: record.CurationCard, Status: record.Status})
	}

	return o.prefs.ComputeWeeklyStats(scored), nil
}

// preferenceInputs loads the exclusion set and a starred-card sample
// from the feedback history.
func (o *Orchestrator) preferenceInputs() (curator.Exclusions, []curator.CurationCard, error) {
	events, err := o.feedback.GetEvents(time.Time{})
	if err != nil {
		return curator.Exclusions{}, nil, fmt.Errorf("load feedback: %w", err)
	}
	facts, err := o.cards.GetItemFacts()
	if err != nil {
		return curator.Exclusions{}, nil, fmt.Errorf("load item facts: %w", err)
	}
	exclusions := o.prefs.ComputeExclusions(events, facts)

	records, err := o.cards.GetCardsSince(time.Now().UTC().AddDate(0, 0, -30))
	if err != nil {
		return curator.Exclusions{}, nil, fmt.Errorf("load cards: %w", err)
	}
	var starred []curator.CurationCard
	for _, record := range records {
		if record.Status == curator.StatusStarred {
			starred = append(starred, record.CurationCard)
		}
	}

	return exclusions, starred, nil
}

func (o *Orchestrator) persist(news []curator.NewsCard, cards []curator.CurationCard, briefingType string) error {
	for _, card := range news {
		if err := o.newsRepo.SaveNews(card); err != nil {
			return fmt.Errorf("save news %q: %w", card.URL, err)
		}
	}
	for _, card := range cards {
		if err := o.cards.SaveCard(card, briefingType); err != nil {
			return fmt.Errorf("save card %q: %w", card.URL, err)
		}
	}
	return nil
}

// deliverDaily sends the briefing message-per-unit so reactions always
// land on exactly one item.
func (o *Orchestrator) deliverDaily(ctx context.Context, news []curator.NewsCard, digest *curator.Digest) error {
	channel := o.channels.Daily

	messages := []slack.Message{slack.FormatDailyHeader(time.Now().UTC(), len(news), len(digest.Cards))}
	for _, card := range news {
		messages = append(messages, slack.FormatNewsCard(card))
	}
	if len(digest.Cards) > 0 {
		messages = append(messages, slack.FormatDeepReadHeader(digest.Note))
		for _, card := range digest.Cards {
			messages = append(messages, slack.FormatArticleCard(card))
		}
	}

	return o.send(ctx, channel, messages)
}

func (o *Orchestrator) deliverWeekend(ctx context.Context, digest *curator.Digest, question curator.SynthesisNote) error {
	channel := o.channels.Weekend

	messages := []slack.Message{slack.FormatWeekendHeader(time.Now().UTC())}
	if len(digest.Cards) > 0 {
		messages = append(messages, slack.FormatDeepReadHeader(digest.Note))
		for _, card := range digest.Cards {
			messages = append(messages, slack.FormatArticleCard(card))
		}
	}
	if question != "" {
		messages = append(messages, slack.Message{
			Text: string(question),
			Blocks: []slack.Block{
				{Type: "section", Text: &slack.TextObject{Type: "mrkdwn", Text: "_" + string(question) + "_"}},
			},
		})
	}

	return o.send(ctx, channel, messages)
}

func (o *Orchestrator) send(ctx context.Context, channel string, messages []slack.Message) error {
	for _, msg := range messages {
		if _, err := o.messenger.PostMessage(ctx, channel, msg); err != nil {
			return fmt.Errorf("deliver message: %w", err)
		}
	}
	return nil
}

// alert posts a truncated failure notice. Alerting is best-effort: its
// own failure is only logged.
func (o *Orchestrator) alert(ctx context.Context, kind string, runErr error) {
	text := fmt.Sprintf(":rotating_light: %s run failed: %v", kind, runErr)
	runes := []rune(text)
	if len(runes) > alertLimit {
		text = string(runes[:alertLimit])
	}

	channel := o.channels.Report
	if channel == "" {
		channel = o.channels.Daily
	}
	if err := o.messenger.PostAlert(ctx, channel, text); err != nil {
		slog.Error("Alert delivery failed", "kind", kind, "error", err)
	}
}
