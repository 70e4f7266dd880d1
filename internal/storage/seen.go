package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"coinbrief/internal/models"
)

// urlHash returns the SHA-256 hex digest of the article URL, the dedup key.
func urlHash(url string) string {
	h := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%x", h)
}

// FilterNew returns the articles whose URL has not been delivered before,
// preserving input order.
func (s *Store) FilterNew(ctx context.Context, articles []models.Article) ([]models.Article, error) {
	fresh := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		var id int64
		err := s.db.QueryRowContext(ctx,
			"SELECT id FROM seen_articles WHERE url_hash = ?", urlHash(a.URL),
		).Scan(&id)
		switch {
		case err == nil:
			continue // already delivered
		case errors.Is(err, sql.ErrNoRows):
			fresh = append(fresh, a)
		default:
			return nil, fmt.Errorf("checking seen article %q: %w", a.URL, err)
		}
	}

	if dropped := len(articles) - len(fresh); dropped > 0 {
		slog.Info("dropped previously delivered articles", "count", dropped)
	}
	return fresh, nil
}

// MarkDelivered records the given articles as delivered. Re-inserting an
// already-recorded URL is a no-op, so marking is idempotent.
func (s *Store) MarkDelivered(ctx context.Context, articles []models.ScoredArticle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for _, a := range articles {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO seen_articles (url_hash, url, title, source, published_at)
			 VALUES (?, ?, ?, ?, ?)`,
			urlHash(a.URL), a.URL, a.Title, a.Source, a.PublishedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("marking article %q: %w", a.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seen articles: %w", err)
	}
	return nil
}

// Cleanup removes seen-article rows recorded more than maxAge ago and
// returns how many were deleted.
func (s *Store) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Format("2006-01-02 15:04:05")

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM seen_articles WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting old seen articles: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted rows: %w", err)
	}
	if deleted > 0 {
		slog.Info("cleaned up old seen articles", "deleted", deleted)
	}
	return deleted, nil
}

// LastDeliveredAt returns when the most recent article was recorded, or
// the zero time if nothing has been delivered yet.
func (s *Store) LastDeliveredAt(ctx context.Context) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(created_at), '') FROM seen_articles").Scan(&raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("querying last delivery: %w", err)
	}
	return parseTime(raw), nil
}
