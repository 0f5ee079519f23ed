package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS email_analysis (
		mailbox TEXT NOT NULL,
		email_id TEXT NOT NULL,
		summary TEXT,
		categories TEXT,
		priority_score INTEGER NOT NULL DEFAULT 5,
		is_phishing BOOLEAN NOT NULL DEFAULT 0,
		phishing_score REAL NOT NULL DEFAULT 0,
		sensitive_data BOOLEAN NOT NULL DEFAULT 0,
		auto_reply_suggestion TEXT,
		processing_time REAL NOT NULL DEFAULT 0,
		analyzed_at TIMESTAMP,
		conversation_id TEXT,
		tasks TEXT,
		meeting_request TEXT,
		tone TEXT,
		sentiment_score REAL NOT NULL DEFAULT 0,
		language TEXT,
		entities TEXT,
		smart_replies TEXT,
		thread_context TEXT,
		response_time_minutes INTEGER NOT NULL DEFAULT 120,
		model_used TEXT,
		analysis_error TEXT,
		PRIMARY KEY (mailbox, email_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_conversation ON email_analysis(conversation_id)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_analyzed_at ON email_analysis(analyzed_at)`,
}

const sqliteUpsert = `
	INSERT INTO email_analysis
	(mailbox, email_id, summary, categories, priority_score,
	 is_phishing, phishing_score, sensitive_data, auto_reply_suggestion,
	 processing_time, analyzed_at, conversation_id, tasks, meeting_request,
	 tone, sentiment_score, language, entities, smart_replies,
	 thread_context, response_time_minutes, model_used, analysis_error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(mailbox, email_id) DO UPDATE SET
		summary = excluded.summary,
		categories = excluded.categories,
		priority_score = excluded.priority_score,
		is_phishing = excluded.is_phishing,
		phishing_score = excluded.phishing_score,
		sensitive_data = excluded.sensitive_data,
		auto_reply_suggestion = excluded.auto_reply_suggestion,
		processing_time = excluded.processing_time,
		analyzed_at = excluded.analyzed_at,
		conversation_id = excluded.conversation_id,
		tasks = excluded.tasks,
		meeting_request = excluded.meeting_request,
		tone = excluded.tone,
		sentiment_score = excluded.sentiment_score,
		language = excluded.language,
		entities = excluded.entities,
		smart_replies = excluded.smart_replies,
		thread_context = excluded.thread_context,
		response_time_minutes = excluded.response_time_minutes,
		model_used = excluded.model_used,
		analysis_error = excluded.analysis_error`

// NewSQLiteStore creates an analysis store backed by SQLite
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	return &SQLStore{
		db:          db,
		logger:      logger,
		migrations:  sqliteMigrations,
		upsertQuery: sqliteUpsert,
	}, nil
}
