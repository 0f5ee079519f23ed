package store

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var mysqlMigrations = []string{
	`CREATE TABLE IF NOT EXISTS email_analysis (
		mailbox VARCHAR(255) NOT NULL,
		email_id VARCHAR(255) NOT NULL,
		summary TEXT,
		categories TEXT,
		priority_score INT NOT NULL DEFAULT 5,
		is_phishing BOOLEAN NOT NULL DEFAULT FALSE,
		phishing_score FLOAT NOT NULL DEFAULT 0,
		sensitive_data BOOLEAN NOT NULL DEFAULT FALSE,
		auto_reply_suggestion TEXT,
		processing_time DOUBLE NOT NULL DEFAULT 0,
		analyzed_at TIMESTAMP NULL,
		conversation_id VARCHAR(64),
		tasks TEXT,
		meeting_request TEXT,
		tone VARCHAR(32),
		sentiment_score DOUBLE NOT NULL DEFAULT 0,
		language VARCHAR(32),
		entities TEXT,
		smart_replies TEXT,
		thread_context TEXT,
		response_time_minutes INT NOT NULL DEFAULT 120,
		model_used VARCHAR(128),
		analysis_error TEXT,
		PRIMARY KEY (mailbox, email_id),
		INDEX idx_analysis_conversation (conversation_id),
		INDEX idx_analysis_analyzed_at (analyzed_at)
	)`,
}

const mysqlUpsert = `
	INSERT INTO email_analysis
	(mailbox, email_id, summary, categories, priority_score,
	 is_phishing, phishing_score, sensitive_data, auto_reply_suggestion,
	 processing_time, analyzed_at, conversation_id, tasks, meeting_request,
	 tone, sentiment_score, language, entities, smart_replies,
	 thread_context, response_time_minutes, model_used, analysis_error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		summary = VALUES(summary),
		categories = VALUES(categories),
		priority_score = VALUES(priority_score),
		is_phishing = VALUES(is_phishing),
		phishing_score = VALUES(phishing_score),
		sensitive_data = VALUES(sensitive_data),
		auto_reply_suggestion = VALUES(auto_reply_suggestion),
		processing_time = VALUES(processing_time),
		analyzed_at = VALUES(analyzed_at),
		conversation_id = VALUES(conversation_id),
		tasks = VALUES(tasks),
		meeting_request = VALUES(meeting_request),
		tone = VALUES(tone),
		sentiment_score = VALUES(sentiment_score),
		language = VALUES(language),
		entities = VALUES(entities),
		smart_replies = VALUES(smart_replies),
		thread_context = VALUES(thread_context),
		response_time_minutes = VALUES(response_time_minutes),
		model_used = VALUES(model_used),
		analysis_error = VALUES(analysis_error)`

// NewMySQLStore creates an analysis store backed by MySQL. The DSN should
// carry parseTime=true so analyzed_at scans into time.Time.
func NewMySQLStore(dsn string, logger *zap.Logger) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	return &SQLStore{
		db:          db,
		logger:      logger,
		migrations:  mysqlMigrations,
		upsertQuery: mysqlUpsert,
	}, nil
}
