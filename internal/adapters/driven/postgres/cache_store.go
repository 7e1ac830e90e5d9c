package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/plantops/advisor-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ResponseCache = (*ResponseCache)(nil)

// ResponseCache implements driven.ResponseCache using PostgreSQL.
// Used when Redis is not configured, the semantics match the Redis
// adapter: TTL expiry plus an oldest-first entry bound.
type ResponseCache struct {
	db         *DB
	maxEntries int
}

// NewResponseCache creates a new ResponseCache with the given entry bound
func NewResponseCache(db *DB, maxEntries int) *ResponseCache {
	return &ResponseCache{db: db, maxEntries: maxEntries}
}

// Lookup returns the cached value for a fingerprint. Expired entries are
// deleted on the way out and reported as a miss.
func (c *ResponseCache) Lookup(ctx context.Context, fingerprint string) (string, bool, error) {
	query := `
		SELECT response, expires_at
		FROM cache_entries
		WHERE fingerprint = $1
	`

	var response string
	var expiresAt time.Time
	err := c.db.QueryRowContext(ctx, query, fingerprint).Scan(&response, &expiresAt)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if !time.Now().Before(expiresAt) {
		// Lazy purge. Best effort, the sweep catches leftovers.
		_, _ = c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE fingerprint = $1`, fingerprint)
		return "", false, nil
	}

	return response, true, nil
}

// Store inserts or overwrites an entry expiring at now+ttl. When the
// insert would exceed the entry bound, the oldest entries by creation
// time are evicted first.
func (c *ResponseCache) Store(ctx context.Context, fingerprint, value string, ttl time.Duration) error {
	now := time.Now().UTC()

	return c.db.Transaction(ctx, func(tx *sql.Tx) error {
		upsert := `
			INSERT INTO cache_entries (fingerprint, response, created_at, expires_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (fingerprint) DO UPDATE SET
				response = EXCLUDED.response,
				created_at = EXCLUDED.created_at,
				expires_at = EXCLUDED.expires_at
		`
		if _, err := tx.ExecContext(ctx, upsert, fingerprint, value, now, now.Add(ttl)); err != nil {
			return err
		}

		evict := `
			DELETE FROM cache_entries
			WHERE fingerprint IN (
				SELECT fingerprint FROM cache_entries
				ORDER BY created_at DESC
				OFFSET $1
			)
		`
		_, err := tx.ExecContext(ctx, evict, c.maxEntries)
		return err
	})
}

// Purge removes expired entries and returns the count removed
func (c *ResponseCache) Purge(ctx context.Context) (int, error) {
	query := `DELETE FROM cache_entries WHERE expires_at <= $1`
	result, err := c.db.ExecContext(ctx, query, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(rowsAffected), nil
}
