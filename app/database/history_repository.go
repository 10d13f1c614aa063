package database

import (
	"fmt"
	"time"

	"github.com/albot-dev/alchemy/app/curator"
)

type historyRepository struct {
	db *DB
}

// NewHistoryRepository returns the recommendation-history view the
// deduplicator filters against.
func NewHistoryRepository(db *DB) curator.RecentURLSource {
	return &historyRepository{db: db}
}

// RecentURLs returns every URL recommended since the cutoff, across both
// item kinds, in a single query.
func (r *historyRepository) RecentURLs(since time.Time) (map[string]struct{}, error) {
	rows, err := r.db.Query(`
		SELECT url FROM cards WHERE created_at >= ?
		UNION
		SELECT url FROM news WHERE created_at >= ?
	`, since, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent urls: %w", err)
	}
	defer rows.Close()

	urls := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		urls[url] = struct{}{}
	}

	return urls, rows.Err()
}
