package factory

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-analyzer/internal/adapters/maildir"
	"github.com/mikey/llm-mail-analyzer/internal/config"
	"github.com/mikey/llm-mail-analyzer/internal/core"
)

// DirectoryFactory creates mailbox directories based on configuration
type DirectoryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewDirectoryFactory creates a new directory factory
func NewDirectoryFactory(cfg *config.Config, logger *zap.Logger) *DirectoryFactory {
	return &DirectoryFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMailboxDirectory creates a mailbox directory based on the configuration.
// Static entries are address=maildir pairs; the maildir may be absolute or
// relative to the configured vmail path.
func (f *DirectoryFactory) CreateMailboxDirectory() (core.MailboxDirectory, error) {
	directoryType := f.cfg.GetString("directory.type")

	switch directoryType {
	case "static":
		entries := f.cfg.GetStringSlice("directory.mailboxes")
		boxes := make([]core.Mailbox, 0, len(entries))
		for _, entry := range entries {
			parts := strings.SplitN(entry, "=", 2)
			if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
				return nil, fmt.Errorf("invalid mailbox entry %q, expected address=maildir", entry)
			}
			boxes = append(boxes, core.Mailbox{
				Address: strings.TrimSpace(parts[0]),
				Maildir: strings.TrimSpace(parts[1]),
			})
		}
		return maildir.NewStaticDirectory(boxes), nil
	case "mysql":
		return maildir.NewMySQLDirectory(f.cfg.GetString("directory.mysql_dsn"), f.logger)
	default:
		return nil, fmt.Errorf("unsupported directory type: %s", directoryType)
	}
}
