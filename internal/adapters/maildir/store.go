// Package maildir reads maildir-style mail storage: each mailbox owns a
// directory with one file per message under cur/.
package maildir

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-analyzer/internal/core"
)

// curSubdir holds delivered messages within a maildir
const curSubdir = "cur"

// Store implements core.MailStore over a vmail root directory
type Store struct {
	vmailPath string
	logger    *zap.Logger
}

// NewStore creates a new maildir store rooted at vmailPath
func NewStore(vmailPath string, logger *zap.Logger) *Store {
	return &Store{
		vmailPath: vmailPath,
		logger:    logger,
	}
}

// VmailPath returns the configured vmail root
func (s *Store) VmailPath() string {
	return s.vmailPath
}

// resolve joins a mailbox-relative maildir onto the vmail root
func (s *Store) resolve(maildir string) string {
	if filepath.IsAbs(maildir) {
		return maildir
	}
	return filepath.Join(s.vmailPath, maildir)
}

// List returns up to limit message refs from a maildir's cur directory, in
// directory listing order. A missing maildir surfaces as core.ErrNotFound so
// the scheduler can log and move on.
func (s *Store) List(maildir string, limit int) ([]core.MessageRef, error) {
	dir := filepath.Join(s.resolve(maildir), curSubdir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("maildir %s: %w", dir, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to list maildir %s: %w", dir, err)
	}

	refs := []core.MessageRef{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		refs = append(refs, core.MessageRef{
			ID:       entry.Name(),
			Location: filepath.Join(dir, entry.Name()),
		})
		if limit > 0 && len(refs) >= limit {
			break
		}
	}
	return refs, nil
}

// Read returns the raw bytes of one message file
func (s *Store) Read(maildir, emailID string) ([]byte, error) {
	path := filepath.Join(s.resolve(maildir), curSubdir, emailID)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("message %s: %w", path, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read message %s: %w", path, err)
	}
	return raw, nil
}
