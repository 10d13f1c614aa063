package database

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/albot-dev/alchemy/app/curator"
)

type newsRepository struct {
	db *DB
}

func NewNewsRepository(db *DB) NewsRepository {
	return &newsRepository{db: db}
}

func (r *newsRepository) SaveNews(card curator.NewsCard) error {
	_, err := r.db.Exec(`
		INSERT INTO news (
			url, title, source, hashtag,
			line_fact, line_context, line_takeaway,
			status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			title = excluded.title,
			source = excluded.source,
			hashtag = excluded.hashtag,
			line_fact = excluded.line_fact,
			line_context = excluded.line_context,
			line_takeaway = excluded.line_takeaway,
			status = excluded.status,
			created_at = excluded.created_at
	`, card.URL, card.Title, card.Source, card.Hashtag,
		card.Lines[0], card.Lines[1], card.Lines[2],
		string(curator.StatusSent), time.Now().UTC())

	if err != nil {
		return fmt.Errorf("failed to save news: %w", err)
	}

	return nil
}

func (r *newsRepository) GetNewsByURL(url string) (*NewsRecord, error) {
	query, args, err := sq.Select(
		"url", "title", "source", "hashtag",
		"line_fact", "line_context", "line_takeaway",
		"status", "created_at",
	).From("news").Where(sq.Eq{"url": url}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var record NewsRecord
	var status string
	err = r.db.QueryRow(query, args...).Scan(
		&record.URL, &record.Title, &record.Source, &record.Hashtag,
		&record.Lines[0], &record.Lines[1], &record.Lines[2],
		&status, &record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get news: %w", err)
	}

	record.Status = curator.ItemStatus(status)
	return &record, nil
}

func (r *newsRepository) UpdateStatusByURL(url string, status curator.ItemStatus) (bool, error) {
	query, args, err := sq.Update("news").
		Set("status", string(status)).
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update news status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}
