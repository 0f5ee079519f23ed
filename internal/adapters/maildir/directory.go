package maildir

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-analyzer/internal/core"
)

// MySQLDirectory implements core.MailboxDirectory over the mail server's
// mailbox table (username, maildir, active).
type MySQLDirectory struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLDirectory creates a mailbox directory backed by MySQL
func NewMySQLDirectory(dsn string, logger *zap.Logger) (*MySQLDirectory, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	return &MySQLDirectory{db: db, logger: logger}, nil
}

// Active returns all active mailboxes with their maildir locations
func (d *MySQLDirectory) Active(ctx context.Context) ([]core.Mailbox, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT username, maildir
		FROM mailbox
		WHERE active = 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active mailboxes: %w", err)
	}
	defer rows.Close()

	boxes := []core.Mailbox{}
	for rows.Next() {
		var box core.Mailbox
		if err := rows.Scan(&box.Address, &box.Maildir); err != nil {
			return nil, fmt.Errorf("failed to scan mailbox row: %w", err)
		}
		boxes = append(boxes, box)
	}
	return boxes, rows.Err()
}

// Close closes the database connection
func (d *MySQLDirectory) Close() error {
	return d.db.Close()
}

// StaticDirectory implements core.MailboxDirectory from a fixed config list.
// Useful for single-box deployments and tests.
type StaticDirectory struct {
	boxes []core.Mailbox
}

// NewStaticDirectory creates a directory from address=maildir pairs
func NewStaticDirectory(boxes []core.Mailbox) *StaticDirectory {
	return &StaticDirectory{boxes: boxes}
}

// Active returns the configured mailboxes
func (d *StaticDirectory) Active(ctx context.Context) ([]core.Mailbox, error) {
	return d.boxes, nil
}
