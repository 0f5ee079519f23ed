// Package store persists analysis records in a relational datastore. One
// logical table keyed by (mailbox, email_id) holds every record field;
// structured fields are stored as JSON text columns. Both supported drivers
// share the same queries apart from the upsert conflict clause.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-analyzer/internal/core"
)

const recentStatsLimit = 10

// SQLStore implements core.AnalysisStore over a database/sql connection
type SQLStore struct {
	db          *sql.DB
	logger      *zap.Logger
	migrations  []string
	upsertQuery string
}

// Migrate creates or upgrades the schema. Statements are idempotent and run
// once at process startup, never per record.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for i, stmt := range s.migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	s.logger.Info("Analysis store schema ready", zap.Int("migrations", len(s.migrations)))
	return nil
}

// Upsert writes a record keyed by (mailbox, email_id), overwriting any prior row
func (s *SQLStore) Upsert(ctx context.Context, rec *core.AnalysisRecord) error {
	categories, err := json.Marshal(emptyIfNilSlice(rec.Categories))
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}
	tasks, err := json.Marshal(emptyIfNilTasks(rec.Tasks))
	if err != nil {
		return fmt.Errorf("failed to marshal tasks: %w", err)
	}
	entities, err := json.Marshal(emptyIfNilMap(rec.Entities))
	if err != nil {
		return fmt.Errorf("failed to marshal entities: %w", err)
	}
	replies, err := json.Marshal(emptyIfNilSlice(rec.SmartReplies))
	if err != nil {
		return fmt.Errorf("failed to marshal smart replies: %w", err)
	}

	var meeting sql.NullString
	if rec.Meeting != nil {
		b, err := json.Marshal(rec.Meeting)
		if err != nil {
			return fmt.Errorf("failed to marshal meeting request: %w", err)
		}
		meeting = sql.NullString{String: string(b), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, s.upsertQuery,
		rec.Mailbox,
		rec.EmailID,
		rec.Summary,
		string(categories),
		rec.PriorityScore,
		rec.IsPhishing,
		rec.PhishingScore,
		rec.SensitiveData,
		rec.AutoReplySuggestion,
		rec.ProcessingTime,
		rec.AnalyzedAt,
		rec.ConversationID,
		string(tasks),
		meeting,
		rec.Tone,
		rec.SentimentScore,
		rec.Language,
		string(entities),
		string(replies),
		rec.ThreadContext,
		rec.ResponseTimeMinutes,
		rec.ModelUsed,
		rec.AnalysisError,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert analysis record: %w", err)
	}
	return nil
}

const selectColumns = `mailbox, email_id, summary, categories, priority_score,
	is_phishing, phishing_score, sensitive_data, auto_reply_suggestion,
	processing_time, analyzed_at, conversation_id, tasks, meeting_request,
	tone, sentiment_score, language, entities, smart_replies, thread_context,
	response_time_minutes, model_used, analysis_error`

// Get returns the record for (mailbox, email_id), or core.ErrNotFound
func (s *SQLStore) Get(ctx context.Context, mailbox, emailID string) (*core.AnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM email_analysis
		WHERE mailbox = ? AND email_id = ?
	`, mailbox, emailID)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis record: %w", err)
	}
	return rec, nil
}

// Search returns records whose summary or thread context match the keyword,
// optionally scoped to one mailbox, newest first
func (s *SQLStore) Search(ctx context.Context, query, mailbox string, limit int) ([]*core.AnalysisRecord, error) {
	pattern := "%" + query + "%"
	sqlQuery := `
		SELECT ` + selectColumns + `
		FROM email_analysis
		WHERE (summary LIKE ? OR thread_context LIKE ?)`
	args := []interface{}{pattern, pattern}
	if mailbox != "" {
		sqlQuery += ` AND mailbox = ?`
		args = append(args, mailbox)
	}
	sqlQuery += ` ORDER BY analyzed_at DESC LIMIT ?`
	args = append(args, limit)

	return s.queryRecords(ctx, sqlQuery, args...)
}

// ByConversation returns all records sharing a conversation id, oldest first
func (s *SQLStore) ByConversation(ctx context.Context, conversationID string) ([]*core.AnalysisRecord, error) {
	return s.queryRecords(ctx, `
		SELECT `+selectColumns+`
		FROM email_analysis
		WHERE conversation_id = ?
		ORDER BY analyzed_at ASC
	`, conversationID)
}

// Stats returns the aggregate reporting view
func (s *SQLStore) Stats(ctx context.Context) (*core.AnalysisStats, error) {
	stats := &core.AnalysisStats{}

	var avgTime sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN is_phishing THEN 1 ELSE 0 END), 0),
		       AVG(processing_time)
		FROM email_analysis
	`).Scan(&stats.TotalAnalyzed, &stats.PhishingDetected, &avgTime)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	if avgTime.Valid {
		stats.AvgProcessingTime = avgTime.Float64
	}

	recent, err := s.queryRecords(ctx, `
		SELECT `+selectColumns+`
		FROM email_analysis
		ORDER BY analyzed_at DESC
		LIMIT ?
	`, recentStatsLimit)
	if err != nil {
		return nil, err
	}
	stats.Recent = recent

	return stats, nil
}

// Ping checks the database connection
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) queryRecords(ctx context.Context, query string, args ...interface{}) ([]*core.AnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis records: %w", err)
	}
	defer rows.Close()

	records := []*core.AnalysisRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*core.AnalysisRecord, error) {
	rec := &core.AnalysisRecord{}
	var categories, tasks, entities, replies string
	var meeting sql.NullString

	err := row.Scan(
		&rec.Mailbox,
		&rec.EmailID,
		&rec.Summary,
		&categories,
		&rec.PriorityScore,
		&rec.IsPhishing,
		&rec.PhishingScore,
		&rec.SensitiveData,
		&rec.AutoReplySuggestion,
		&rec.ProcessingTime,
		&rec.AnalyzedAt,
		&rec.ConversationID,
		&tasks,
		&meeting,
		&rec.Tone,
		&rec.SentimentScore,
		&rec.Language,
		&entities,
		&replies,
		&rec.ThreadContext,
		&rec.ResponseTimeMinutes,
		&rec.ModelUsed,
		&rec.AnalysisError,
	)
	if err != nil {
		return nil, err
	}

	// JSON columns default to empty collections, never nil
	rec.Categories = []string{}
	rec.Tasks = []core.Task{}
	rec.Entities = map[string][]string{}
	rec.SmartReplies = []string{}
	if categories != "" {
		if err := json.Unmarshal([]byte(categories), &rec.Categories); err != nil {
			return nil, fmt.Errorf("corrupt categories column: %w", err)
		}
	}
	if tasks != "" {
		if err := json.Unmarshal([]byte(tasks), &rec.Tasks); err != nil {
			return nil, fmt.Errorf("corrupt tasks column: %w", err)
		}
	}
	if entities != "" {
		if err := json.Unmarshal([]byte(entities), &rec.Entities); err != nil {
			return nil, fmt.Errorf("corrupt entities column: %w", err)
		}
	}
	if replies != "" {
		if err := json.Unmarshal([]byte(replies), &rec.SmartReplies); err != nil {
			return nil, fmt.Errorf("corrupt smart_replies column: %w", err)
		}
	}
	if meeting.Valid && meeting.String != "" {
		rec.Meeting = &core.MeetingRequest{}
		if err := json.Unmarshal([]byte(meeting.String), rec.Meeting); err != nil {
			return nil, fmt.Errorf("corrupt meeting_request column: %w", err)
		}
	}

	return rec, nil
}

func emptyIfNilSlice(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func emptyIfNilTasks(v []core.Task) []core.Task {
	if v == nil {
		return []core.Task{}
	}
	return v
}

func emptyIfNilMap(v map[string][]string) map[string][]string {
	if v == nil {
		return map[string][]string{}
	}
	return v
}
