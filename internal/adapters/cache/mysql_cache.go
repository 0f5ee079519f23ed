package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the DedupCache interface
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLCache creates a new MySQL dedup cache
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS dedup_markers (
			marker_key VARCHAR(512) PRIMARY KEY,
			expires_at TIMESTAMP,
			INDEX idx_dedup_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
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
func (c *MySQLCache) Exists(ctx context.Context, key string) (bool, error) {
	var count int
	err := c.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM dedup_markers
		WHERE marker_key = ? AND expires_at > NOW()
	`, key).Scan(&count)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to query dedup marker: %w", err)
	}
	return count > 0, nil
}

// Set stores a marker with the given TTL
func (c *MySQLCache) Set(ctx context.Context, key string, ttl time.Duration) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO dedup_markers (marker_key, expires_at)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE expires_at = VALUES(expires_at)
	`, key, time.Now().Add(ttl).Format("2006-01-02 15:04:05"))
	if err != nil {
		return fmt.Errorf("failed to insert dedup marker: %w", err)
	}
	return nil
}

// Delete removes a marker
func (c *MySQLCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM dedup_markers WHERE marker_key = ?
	`, key)
	if err != nil {
		return fmt.Errorf("failed to delete dedup marker: %w", err)
	}
	return nil
}

// Cleanup removes expired markers
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM dedup_markers WHERE expires_at <= NOW()
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
func (c *MySQLCache) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// startCleanupTask starts a background task to clean up expired markers
func (c *MySQLCache) startCleanupTask() {
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
func (c *MySQLCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}
