package core

import (
	"context"
	"time"
)

// LLMClient defines the interface for the external analysis model service.
// The model is opaque: prompt in, free-form text out, and it may time out or
// return output that is not valid JSON.
type LLMClient interface {
	// Generate invokes the given model with a text prompt and returns the raw response text
	Generate(ctx context.Context, modelID string, prompt string) (string, error)

	// Ping checks that the model service is reachable
	Ping(ctx context.Context) error
}

// DedupCache defines the interface for dedup markers with per-key expiry
type DedupCache interface {
	// Exists reports whether a marker is present and unexpired
	Exists(ctx context.Context, key string) (bool, error)

	// Set stores a marker with the given TTL
	Set(ctx context.Context, key string, ttl time.Duration) error

	// Delete removes a marker
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired markers
	Cleanup(ctx context.Context) error

	// Ping checks that the cache backend is reachable
	Ping(ctx context.Context) error
}

// AnalysisStore defines the interface for the persisted analysis records
type AnalysisStore interface {
	// Migrate creates or upgrades the schema; idempotent, run once at startup
	Migrate(ctx context.Context) error

	// Upsert writes a record keyed by (mailbox, email_id), overwriting any prior row
	Upsert(ctx context.Context, rec *AnalysisRecord) error

	// Get returns the record for (mailbox, email_id), or ErrNotFound
	Get(ctx context.Context, mailbox, emailID string) (*AnalysisRecord, error)

	// Search returns records whose summary or subject-derived fields match the keyword
	Search(ctx context.Context, query, mailbox string, limit int) ([]*AnalysisRecord, error)

	// ByConversation returns all records sharing a conversation id
	ByConversation(ctx context.Context, conversationID string) ([]*AnalysisRecord, error)

	// Stats returns the aggregate reporting view
	Stats(ctx context.Context) (*AnalysisStats, error)

	// Ping checks that the datastore is reachable
	Ping(ctx context.Context) error
}

// MailStore exposes raw message files from maildir-style storage
type MailStore interface {
	// List returns up to limit message refs from a maildir, in listing order
	List(maildir string, limit int) ([]MessageRef, error)

	// Read returns the raw bytes of one message file
	Read(maildir, emailID string) ([]byte, error)
}

// MailboxDirectory exposes the set of active mailboxes
type MailboxDirectory interface {
	// Active returns all active mailboxes with their maildir locations
	Active(ctx context.Context) ([]Mailbox, error)
}

// Normalizer parses one raw mail file into an EmailMessage
type Normalizer interface {
	Parse(raw []byte) (*EmailMessage, error)
}
