package database

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/albot-dev/alchemy/app/curator"
)

type cardRepository struct {
	db *DB
}

func NewCardRepository(db *DB) CardRepository {
	return &cardRepository{db: db}
}

// SaveCard upserts a card with status 'sent'. A URL can be re-recommended
// once it falls out of the dedup window, in which case the annotation is
// refreshed and the lifecycle restarts.
func (r *cardRepository) SaveCard(card curator.CurationCard, briefingType string) error {
	_, err := r.db.Exec(`
		INSERT INTO cards (
			url, title, source, read_time, axis_id, axis_name,
			why_new, concept_name, concept_desc, why_read,
			briefing_type, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			title = excluded.title,
			source = excluded.source,
			read_time = excluded.read_time,
			axis_id = excluded.axis_id,
			axis_name = excluded.axis_name,
			why_new = excluded.why_new,
			concept_name = excluded.concept_name,
			concept_desc = excluded.concept_desc,
			why_read = excluded.why_read,
			briefing_type = excluded.briefing_type,
			status = excluded.status,
			created_at = excluded.created_at
	`, card.URL, card.Title, card.Source, card.ReadTime, card.AxisID, card.AxisName,
		card.WhyNew, card.ConceptName, card.ConceptDesc, card.WhyRead,
		briefingType, string(curator.StatusSent), time.Now().UTC())

	if err != nil {
		return fmt.Errorf("failed to save card: %w", err)
	}

	return nil
}

func (r *cardRepository) GetCardByURL(url string) (*CardRecord, error) {
	query, args, err := r.selectCards().Where(sq.Eq{"url": url}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	record, err := r.scanCard(r.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	return record, nil
}

func (r *cardRepository) GetCardsSince(since time.Time) ([]CardRecord, error) {
	query, args, err := r.selectCards().
		Where(sq.GtOrEq{"created_at": since}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var records []CardRecord
	for rows.Next() {
		record, err := r.scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		records = append(records, *record)
	}

	return records, rows.Err()
}

// GetItemFacts returns the axis/source attributes for every card ever
// recommended, keyed by URL. The preference engine joins the full
// feedback history against this map: dismissals never expire.
func (r *cardRepository) GetItemFacts() (map[string]curator.ItemFacts, error) {
	query, args, err := sq.Select("url", "axis_name", "source").From("cards").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query item facts: %w", err)
	}
	defer rows.Close()

	facts := make(map[string]curator.ItemFacts)
	for rows.Next() {
		var url string
		var f curator.ItemFacts
		if err := rows.Scan(&url, &f.AxisName, &f.Source); err != nil {
			return nil, fmt.Errorf("failed to scan item facts: %w", err)
		}
		facts[url] = f
	}

	return facts, rows.Err()
}

// UpdateStatusByURL sets the lifecycle status of the card matching the
// URL. Returns false when no card matched.
func (r *cardRepository) UpdateStatusByURL(url string, status curator.ItemStatus) (bool, error) {
	query, args, err := sq.Update("cards").
		Set("status", string(status)).
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update card status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

func (r *cardRepository) selectCards() sq.SelectBuilder {
	return sq.Select(
		"url", "title", "source", "read_time", "axis_id", "axis_name",
		"why_new", "concept_name", "concept_desc", "why_read",
		"briefing_type", "status", "created_at",
	).From("cards")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *cardRepository) scanCard(row rowScanner) (*CardRecord, error) {
	var record CardRecord
	var status string
	err := row.Scan(
		&record.URL, &record.Title, &record.Source, &record.ReadTime,
		&record.AxisID, &record.AxisName,
		&record.WhyNew, &record.ConceptName, &record.ConceptDesc, &record.WhyRead,
		&record.BriefingType, &status, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Status = curator.ItemStatus(status)
	return &record, nil
}
