package database

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/albot-dev/alchemy/app/curator"
)

type feedbackRepository struct {
	db *DB
}

func NewFeedbackRepository(db *DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

// Append stores one feedback event. Events are never updated or deleted.
func (r *feedbackRepository) Append(event curator.FeedbackEvent) error {
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO feedback (item_url, reaction, memo, created_at)
		VALUES (?, ?, ?, ?)
	`, event.ItemURL, string(event.Reaction), event.Memo, createdAt)

	if err != nil {
		return fmt.Errorf("failed to append feedback: %w", err)
	}

	return nil
}

// GetEvents returns feedback events created at or after since, oldest
// first. A zero since returns the full history.
func (r *feedbackRepository) GetEvents(since time.Time) ([]curator.FeedbackEvent, error) {
	builder := sq.Select("item_url", "reaction", "memo", "created_at").
		From("feedback").
		OrderBy("created_at ASC")
	if !since.IsZero() {
		builder = builder.Where(sq.GtOrEq{"created_at": since})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var events []curator.FeedbackEvent
	for rows.Next() {
		var ev curator.FeedbackEvent
		var reaction string
		if err := rows.Scan(&ev.ItemURL, &reaction, &ev.Memo, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		ev.Reaction = curator.Reaction(reaction)
		events = append(events, ev)
	}

	return events, rows.Err()
}
