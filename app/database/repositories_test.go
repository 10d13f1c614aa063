package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albot-dev/alchemy/app/curator"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, _, err = RunMigrations(db)
	require.NoError(t, err)

	return db
}

func sampleCard(url string) curator.CurationCard {
	return curator.CurationCard{
		Title:       "The Case Against Cognitive Outsourcing",
		Source:      "Noema Magazine",
		URL:         url,
		ReadTime:    "12 min",
		AxisID:      1,
		AxisName:    "Cognition & AI",
		WhyNew:      "A systematic rebuttal of the extended-mind framing.",
		ConceptName: "Cognitive Atrophy",
		ConceptDesc: "Unused cognitive capacities degrade like muscle.",
		WhyRead:     "Challenges the premise behind the reader's AI practice.",
	}
}

func TestCardRepository_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCardRepository(db)

	card := sampleCard("https://noemamag.com/outsourcing")
	require.NoError(t, repo.SaveCard(card, "daily"))

	record, err := repo.GetCardByURL(card.URL)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, card.Title, record.Title)
	assert.Equal(t, card.ConceptName, record.ConceptName)
	assert.Equal(t, "daily", record.BriefingType)
	assert.Equal(t, curator.StatusSent, record.Status)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestCardRepository_GetCardByURL_Missing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCardRepository(db)

	record, err := repo.GetCardByURL("https://nowhere.com/x")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestCardRepository_UpsertRefreshesLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCardRepository(db)

	card := sampleCard("https://noemamag.com/outsourcing")
	require.NoError(t, repo.SaveCard(card, "daily"))

	matched, err := repo.UpdateStatusByURL(card.URL, curator.StatusSkipped)
	require.NoError(t, err)
	assert.True(t, matched)

	// Re-recommendation after the dedup window restarts the lifecycle.
	require.NoError(t, repo.SaveCard(card, "weekend"))

	record, err := repo.GetCardByURL(card.URL)
	require.NoError(t, err)
	assert.Equal(t, curator.StatusSent, record.Status)
	assert.Equal(t, "weekend", record.BriefingType)
}

func TestCardRepository_UpdateStatusByURL_NoMatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCardRepository(db)

	matched, err := repo.UpdateStatusByURL("https://nowhere.com/x", curator.StatusStarred)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestCardRepository_GetItemFacts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCardRepository(db)

	require.NoError(t, repo.SaveCard(sampleCard("https://a.com/1"), "daily"))

	other := sampleCard("https://b.com/2")
	other.Source = "Aeon"
	other.AxisName = "Deep Work"
	require.NoError(t, repo.SaveCard(other, "daily"))

	facts, err := repo.GetItemFacts()
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, curator.ItemFacts{AxisName: "Cognition & AI", Source: "Noema Magazine"}, facts["https://a.com/1"])
	assert.Equal(t, curator.ItemFacts{AxisName: "Deep Work", Source: "Aeon"}, facts["https://b.com/2"])
}

func TestNewsRepository_SaveGetAndUpdate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNewsRepository(db)

	card := curator.NewsCard{
		Hashtag: "#ai-policy",
		Title:   "Rules shift",
		Lines:   [3]string{"what happened", "why it matters", "takeaway"},
		URL:     "https://wire.com/rules",
		Source:  "Wire",
	}
	require.NoError(t, repo.SaveNews(card))

	record, err := repo.GetNewsByURL(card.URL)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, card.Lines, record.Lines)
	assert.Equal(t, curator.StatusSent, record.Status)

	matched, err := repo.UpdateStatusByURL(card.URL, curator.StatusArchived)
	require.NoError(t, err)
	assert.True(t, matched)

	record, err = repo.GetNewsByURL(card.URL)
	require.NoError(t, err)
	assert.Equal(t, curator.StatusArchived, record.Status)
}

func TestFeedbackRepository_AppendAndRange(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeedbackRepository(db)

	old := curator.FeedbackEvent{
		ItemURL:   "https://a.com/1",
		Reaction:  curator.ReactionDismissed,
		CreatedAt: time.Now().UTC().AddDate(0, 0, -30),
	}
	recent := curator.FeedbackEvent{
		ItemURL:   "https://a.com/2",
		Reaction:  curator.ReactionImpressed,
		Memo:      "great framing",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Append(old))
	require.NoError(t, repo.Append(recent))

	all, err := repo.GetEvents(time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, curator.ReactionDismissed, all[0].Reaction)

	window, err := repo.GetEvents(time.Now().UTC().AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "https://a.com/2", window[0].ItemURL)
	assert.Equal(t, "great framing", window[0].Memo)
}

func TestHistoryRepository_RecentURLsSpansBothKinds(t *testing.T) {
	db := setupTestDB(t)
	cards := NewCardRepository(db)
	news := NewNewsRepository(db)
	history := NewHistoryRepository(db)

	require.NoError(t, cards.SaveCard(sampleCard("https://a.com/card"), "daily"))
	require.NoError(t, news.SaveNews(curator.NewsCard{
		Title: "Headline", URL: "https://a.com/news",
	}))

	urls, err := history.RecentURLs(time.Now().UTC().AddDate(0, 0, -7))
	require.NoError(t, err)

	assert.Contains(t, urls, "https://a.com/card")
	assert.Contains(t, urls, "https://a.com/news")
}

func TestHistoryRepository_RespectsCutoff(t *testing.T) {
	db := setupTestDB(t)
	history := NewHistoryRepository(db)

	// Insert directly with an old timestamp; SaveCard always stamps now.
	_, err := db.Exec(`
		INSERT INTO cards (url, title, created_at) VALUES (?, ?, ?)
	`, "https://a.com/old", "Old", time.Now().UTC().AddDate(0, 0, -30))
	require.NoError(t, err)

	urls, err := history.RecentURLs(time.Now().UTC().AddDate(0, 0, -7))
	require.NoError(t, err)

	assert.NotContains(t, urls, "https://a.com/old")
}
