package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the DedupCache interface
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteCache creates a new SQLite dedup cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS dedup_markers (
			marker_key TEXT PRIMARY KEY,
			expires_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_dedup_expires_at ON dedup_markers(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go cache.startCleanupTask()

	return cache, nil
}

// Exists reports whether a marker is present and unexpired
func (c *SQLiteCache) Exists(ctx context.Context, key string) (bool, error) {
	var count int
	err := c.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM dedup_markers
		WHERE marker_key = ? AND expires_at > datetime('now')
	`, key).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query dedup marker: %w", err)
	}
	return count > 0, nil
}

// Set stores a marker with the given TTL
func (c *SQLiteCache) Set(ctx context.Context, key string, ttl time.Duration) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO dedup_markers (marker_key, expires_at)
		VALUES (?, ?)
		ON CONFLICT(marker_key) DO UPDATE SET expires_at = excluded.expires_at
	`, key, time.Now().UTC().Add(ttl).Format("2006-01-02 15:04:05"))
	if err != nil {
		return fmt.Errorf("failed to insert dedup marker: %w", err)
	}
	return nil
}

// Delete removes a marker
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM dedup_markers WHERE marker_key = ?
	`, key)
	if err != nil {
		return fmt.Errorf("failed to delete dedup marker: %w", err)
	}
	return nil
}

// Cleanup removes expired markers
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM dedup_markers WHERE expires_at <= datetime('now')
	`)
	if err != nil {
		return fmt.Errorf("failed to clean up expired markers: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired dedup markers", zap.Int64("expired_count", rowsAffected))
	}
	return nil
}

// Ping checks the database connection
func (c *SQLiteCache) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// startCleanupTask starts a background task to clean up expired markers
func (c *SQLiteCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database connection
func (c *SQLiteCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
