package database

import (
	"time"

	"github.com/albot-dev/alchemy/app/curator"
)

// CardRecord is a persisted curation card with its delivery lifecycle.
type CardRecord struct {
	curator.CurationCard
	BriefingType string
	Status       curator.ItemStatus
	CreatedAt    time.Time
}

// NewsRecord is a persisted news card with its delivery lifecycle.
type NewsRecord struct {
	curator.NewsCard
	Status    curator.ItemStatus
	CreatedAt time.Time
}

// CardRepository persists and queries curation cards.
type CardRepository interface {
	SaveCard(card curator.CurationCard, briefingType string) error
	GetCardByURL(url string) (*CardRecord, error)
	GetCardsSince(since time.Time) ([]CardRecord, error)
	GetItemFacts() (map[string]curator.ItemFacts, error)
	UpdateStatusByURL(url string, status curator.ItemStatus) (bool, error)
}

// NewsRepository persists and queries news records.
type NewsRepository interface {
	SaveNews(card curator.NewsCard) error
	GetNewsByURL(url string) (*NewsRecord, error)
	UpdateStatusByURL(url string, status curator.ItemStatus) (bool, error)
}

// FeedbackRepository appends and reads the immutable feedback stream.
type FeedbackRepository interface {
	Append(event curator.FeedbackEvent) error
	GetEvents(since time.Time) ([]curator.FeedbackEvent, error)
}
