package digest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/albot-dev/alchemy/app/curator"
	"github.com/albot-dev/alchemy/app/database"
	"github.com/albot-dev/alchemy/app/slack"
)

type stubSource struct {
	items []curator.ContentItem
}

func (s *stubSource) Collect(ctx context.Context) []curator.ContentItem {
	return s.items
}

type stubEngine struct {
	digest   *curator.Digest
	runErr   error
	news     []curator.NewsCard
	newsErr  error
	question curator.SynthesisNote

	runCalls int
}

func (s *stubEngine) Run(ctx context.Context, candidates []curator.ContentItem, opts curator.PipelineOptions) (*curator.Digest, error) {
	s.runCalls++
	if s.runErr != nil {
		return &curator.Digest{State: curator.StateFailed, FailReason: s.runErr.Error()}, s.runErr
	}
	return s.digest, nil
}

func (s *stubEngine) SummarizeNews(ctx context.Context, items []curator.ContentItem, count int) ([]curator.NewsCard, error) {
	return s.news, s.newsErr
}

func (s *stubEngine) GenerateWeeklyConnection(ctx context.Context, starred []curator.CurationCard) curator.SynthesisNote {
	return s.question
}

type stubMessenger struct {
	messages []slack.Message
	channels []string
	alerts   []string
	postErr  error
}

func (s *stubMessenger) PostMessage(ctx context.Context, channel string, msg slack.Message) (string, error) {
	if s.postErr != nil {
		return "", s.postErr
	}
	s.messages = append(s.messages, msg)
	s.channels = append(s.channels, channel)
	return "1.0", nil
}

func (s *stubMessenger) PostAlert(ctx context.Context, channel, text string) error {
	s.alerts = append(s.alerts, text)
	return nil
}

type memCardRepo struct {
	saved   []database.CardRecord
	records []database.CardRecord
}

func (m *memCardRepo) SaveCard(card curator.CurationCard, briefingType string) error {
	record := database.CardRecord{CurationCard: card, BriefingType: briefingType, Status: curator.StatusSent}
	m.saved = append(m.saved, record)
	m.records = append(m.records, record)
	return nil
}

func (m *memCardRepo) GetCardByURL(url string) (*database.CardRecord, error) { return nil, nil }

func (m *memCardRepo) GetCardsSince(since time.Time) ([]database.CardRecord, error) {
	return m.records, nil
}

func (m *memCardRepo) GetItemFacts() (map[string]curator.ItemFacts, error) {
	return map[string]curator.ItemFacts{}, nil
}

func (m *memCardRepo) UpdateStatusByURL(url string, status curator.ItemStatus) (bool, error) {
	return false, nil
}

type memNewsRepo struct {
	saved []curator.NewsCard
}

func (m *memNewsRepo) SaveNews(card curator.NewsCard) error {
	m.saved = append(m.saved, card)
	return nil
}

func (m *memNewsRepo) GetNewsByURL(url string) (*database.NewsRecord, error) { return nil, nil }

func (m *memNewsRepo) UpdateStatusByURL(url string, status curator.ItemStatus) (bool, error) {
	return false, nil
}

type memFeedbackRepo struct {
	events []curator.FeedbackEvent
}

func (m *memFeedbackRepo) Append(event curator.FeedbackEvent) error {
	m.events = append(m.events, event)
	return nil
}

func (m *memFeedbackRepo) GetEvents(since time.Time) ([]curator.FeedbackEvent, error) {
	return m.events, nil
}

type emptyHistory struct{}

func (emptyHistory) RecentURLs(since time.Time) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func setupOrchestrator(engine *stubEngine, articles, news []curator.ContentItem) (*Orchestrator, *stubMessenger, *memCardRepo, *memNewsRepo) {
	messenger := &stubMessenger{}
	cards := &memCardRepo{}
	newsRepo := &memNewsRepo{}

	o := NewOrchestrator(
		&stubSource{items: articles},
		&stubSource{items: news},
		curator.NewDeduplicator(emptyHistory{}, 7),
		curator.NewPreferenceEngine(3),
		engine,
		cards,
		newsRepo,
		&memFeedbackRepo{},
		messenger,
		Channels{Daily: "C-daily", Weekend: "C-weekend", Report: "C-report"},
		Counts{DailyNews: 5, DailyArticles: 3, WeekendArticles: 3},
	)
	return o, messenger, cards, newsRepo
}

func TestRunDailyPersistsAndDelivers(t *testing.T) {
	engine := &stubEngine{
		digest: &curator.Digest{
			State: curator.StateDone,
			Cards: []curator.CurationCard{
				{Title: "A", URL: "https://example.com/a"},
				{Title: "B", URL: "https://example.com/b"},
			},
			Note: "Both circle the same theme.",
		},
		news: []curator.NewsCard{
			{Title: "N1", URL: "https://example.com/n1"},
		},
	}

	o, messenger, cards, newsRepo := setupOrchestrator(engine,
		[]curator.ContentItem{{URL: "https://example.com/a", Kind: curator.KindArticle}},
		[]curator.ContentItem{{URL: "https://example.com/n1", Kind: curator.KindNews}})

	if err := o.RunDaily(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(newsRepo.saved) != 1 {
		t.Errorf("Expected 1 news record saved, got %d", len(newsRepo.saved))
	}
	if len(cards.saved) != 2 || cards.saved[0].BriefingType != "daily" {
		t.Fatalf("Expected 2 daily cards saved, got %v", cards.saved)
	}

	// header + 1 news + deep-read header + 2 articles
	if len(messenger.messages) != 5 {
		t.Fatalf("Expected 5 messages, got %d", len(messenger.messages))
	}
	for _, channel := range messenger.channels {
		if channel != "C-daily" {
			t.Errorf("Expected daily channel, got %q", channel)
		}
	}
	if len(messenger.alerts) != 0 {
		t.Errorf("Expected no alerts, got %v", messenger.alerts)
	}
}

func TestRunDailyContinuesWithoutNewsOnSummarizerFailure(t *testing.T) {
	engine := &stubEngine{
		newsErr: errors.New("chat error 503: upstream"),
		digest: &curator.Digest{
			State: curator.StateDone,
			Cards: []curator.CurationCard{{Title: "A", URL: "https://example.com/a"}},
			Note:  "One theme.",
		},
	}

	o, messenger, cards, newsRepo := setupOrchestrator(engine,
		[]curator.ContentItem{{URL: "https://example.com/a", Kind: curator.KindArticle}},
		[]curator.ContentItem{{URL: "https://example.com/n1", Kind: curator.KindNews}})

	if err := o.RunDaily(context.Background()); err != nil {
		t.Fatalf("Expected run to continue without headlines, got %v", err)
	}

	if engine.runCalls != 1 {
		t.Errorf("Expected curation pipeline to run, got %d calls", engine.runCalls)
	}
	if len(newsRepo.saved) != 0 {
		t.Errorf("Expected no news persisted, got %d", len(newsRepo.saved))
	}
	if len(cards.saved) != 1 {
		t.Errorf("Expected deep-read card persisted, got %d", len(cards.saved))
	}
	// header + deep-read header + 1 article
	if len(messenger.messages) != 3 {
		t.Errorf("Expected 3 messages, got %d", len(messenger.messages))
	}
	if len(messenger.alerts) != 0 {
		t.Errorf("Expected no alerts, got %v", messenger.alerts)
	}
}

func TestRunDailyPipelineFailureAlerts(t *testing.T) {
	engine := &stubEngine{
		news:   []curator.NewsCard{},
		runErr: errors.New("selector returned no usable selections"),
	}

	o, messenger, cards, _ := setupOrchestrator(engine,
		[]curator.ContentItem{{URL: "https://example.com/a"}}, nil)

	err := o.RunDaily(context.Background())
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	if len(cards.saved) != 0 {
		t.Errorf("Expected nothing persisted on failure, got %d cards", len(cards.saved))
	}
	if len(messenger.messages) != 0 {
		t.Errorf("Expected nothing delivered on failure, got %d messages", len(messenger.messages))
	}
	if len(messenger.alerts) != 1 || !strings.Contains(messenger.alerts[0], "daily run failed") {
		t.Fatalf("Expected failure alert, got %v", messenger.alerts)
	}
}

func TestAlertTruncation(t *testing.T) {
	engine := &stubEngine{
		news:   []curator.NewsCard{},
		runErr: errors.New(strings.Repeat("x", 2*alertLimit)),
	}

	o, messenger, _, _ := setupOrchestrator(engine,
		[]curator.ContentItem{{URL: "https://example.com/a"}}, nil)

	_ = o.RunDaily(context.Background())

	if len(messenger.alerts) != 1 {
		t.Fatalf("Expected one alert, got %d", len(messenger.alerts))
	}
	if got := len([]rune(messenger.alerts[0])); got > alertLimit {
		t.Errorf("Expected alert capped at %d runes, got %d", alertLimit, got)
	}
}

func TestRunWeekendIncludesConnectionQuestion(t *testing.T) {
	engine := &stubEngine{
		digest: &curator.Digest{
			State: curator.StateDone,
			Cards: []curator.CurationCard{{Title: "A", URL: "https://example.com/a"}},
		},
		question: "Where do these threads meet?",
	}

	o, messenger, cards, _ := setupOrchestrator(engine,
		[]curator.ContentItem{{URL: "https://example.com/a"}}, nil)

	if err := o.RunWeekend(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cards.saved[0].BriefingType != "weekend" {
		t.Errorf("Expected weekend briefing type, got %q", cards.saved[0].BriefingType)
	}

	last := messenger.messages[len(messenger.messages)-1]
	if !strings.Contains(last.Text, "threads meet") {
		t.Errorf("Expected final message to carry the question, got %q", last.Text)
	}
	for _, channel := range messenger.channels {
		if channel != "C-weekend" {
			t.Errorf("Expected weekend channel, got %q", channel)
		}
	}
}

func TestRunWeeklyReportsStats(t *testing.T) {
	engine := &stubEngine{question: "Connect the dots?"}

	o, messenger, cards, _ := setupOrchestrator(engine, nil, nil)
	cards.records = []database.CardRecord{
		{CurationCard: curator.CurationCard{URL: "https://example.com/a", AxisName: "AI"}, Status: curator.StatusStarred},
		{CurationCard: curator.CurationCard{URL: "https://example.com/b", AxisName: "AI"}, Status: curator.StatusSent},
	}

	if err := o.RunWeekly(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(messenger.messages) != 1 {
		t.Fatalf("Expected one report message, got %d", len(messenger.messages))
	}
	if messenger.channels[0] != "C-report" {
		t.Errorf("Expected report channel, got %q", messenger.channels[0])
	}

	var joined string
	for _, block := range messenger.messages[0].Blocks {
		if block.Text != nil {
			joined += block.Text.Text + "\n"
		}
	}
	if !strings.Contains(joined, "2 items delivered") {
		t.Errorf("Expected total in report, got %q", joined)
	}
	if !strings.Contains(joined, "Connect the dots?") {
		t.Errorf("Expected connection question in report, got %q", joined)
	}
}

func TestDeliveryFailureSurfaces(t *testing.T) {
	engine := &stubEngine{
		digest: &curator.Digest{State: curator.StateDone},
		news:   []curator.NewsCard{},
	}

	o, messenger, _, _ := setupOrchestrator(engine, nil, nil)
	messenger.postErr = errors.New("channel_not_found")

	err := o.RunDaily(context.Background())
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Fatalf("Expected delivery error surfaced, got %v", err)
	}
}
