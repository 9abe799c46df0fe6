// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/svskaushik/ArxivPulse/pkg/types"
)

// SQLiteCache keeps lookups in a SQLite file so they survive restarts.
type SQLiteCache struct {
	db     *sql.DB
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// OpenSQLiteCache opens or creates the cache database at path and purges
// expired entries. Entries older than ttl are ignored; a zero ttl never
// expires entries.
func OpenSQLiteCache(path string, ttl time.Duration, logger *zap.Logger) (*SQLiteCache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &SQLiteCache{db: db, ttl: ttl, now: time.Now, logger: logger}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if n, err := c.Purge(context.Background()); err != nil {
		logger.Warn("metrics cache purge failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("metrics cache purged", zap.Int64("rows", n))
	}
	return c, nil
}

// Close releases the database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS metrics (
			key TEXT PRIMARY KEY,
			citation_count INTEGER NOT NULL,
			altmetric REAL NOT NULL,
			related TEXT,
			fetched_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_fetched_at ON metrics(fetched_at)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get returns the cached metrics for key. Read failures are logged and
// reported as a miss.
func (c *SQLiteCache) Get(ctx context.Context, key string) (types.Metrics, bool) {
	var (
		m         types.Metrics
		related   sql.NullString
		fetchedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT citation_count, altmetric, related, fetched_at FROM metrics WHERE key = ?`, key,
	).Scan(&m.CitationCount, &m.Altmetric, &related, &fetchedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.logger.Warn("metrics cache read failed", zap.String("key", key), zap.Error(err))
		}
		return types.Metrics{}, false
	}

	if c.ttl > 0 && c.now().Sub(time.Unix(fetchedAt, 0)) > c.ttl {
		return types.Metrics{}, false
	}
	if related.Valid && related.String != "" {
		if err := json.Unmarshal([]byte(related.String), &m.RelatedPapers); err != nil {
			c.logger.Warn("metrics cache row corrupt", zap.String("key", key), zap.Error(err))
			return types.Metrics{}, false
		}
	}
	return m, true
}

// Put stores m under key, replacing any previous entry.
func (c *SQLiteCache) Put(ctx context.Context, key string, m types.Metrics) {
	var related []byte
	if len(m.RelatedPapers) > 0 {
		var err error
		if related, err = json.Marshal(m.RelatedPapers); err != nil {
			c.logger.Warn("encoding related papers", zap.Error(err))
			return
		}
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO metrics (key, citation_count, altmetric, related, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			citation_count = excluded.citation_count,
			altmetric = excluded.altmetric,
			related = excluded.related,
			fetched_at = excluded.fetched_at`,
		key, m.CitationCount, m.Altmetric, string(related), c.now().Unix(),
	)
	if err != nil {
		c.logger.Warn("metrics cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Purge deletes expired entries and returns how many were removed.
func (c *SQLiteCache) Purge(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	cutoff := c.now().Add(-c.ttl).Unix()
	res, err := c.db.ExecContext(ctx, `DELETE FROM metrics WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging metrics cache: %w", err)
	}
	return res.RowsAffected()
}
