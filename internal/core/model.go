package core

import (
	"time"
)

// EmailMessage is the normalized form of one raw mail file
type EmailMessage struct {
	Subject string
	From    string
	To      string
	Date    string
	Body    string
}

// Task is one action item extracted from a message body
type Task struct {
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Priority    int        `json:"priority"`
}

// MeetingRequest is a detected meeting proposal
type MeetingRequest struct {
	Times []string   `json:"times"`
	Date  *time.Time `json:"date,omitempty"`
	Type  string     `json:"type"` // "virtual" or "in-person"
}

// Signals holds the output of every heuristic extractor for one message.
// All fields are derived without the LLM and are safe to compute in any order.
type Signals struct {
	ConversationID string
	Language       string
	Tone           string
	SentimentScore float64
	Entities       map[string][]string
	Tasks          []Task
	Meeting        *MeetingRequest
}

// AnalysisRecord is the persisted, canonical result of analyzing one message.
// It is keyed by (Mailbox, EmailID) and overwritten on re-analysis.
type AnalysisRecord struct {
	Mailbox             string              `json:"mailbox"`
	EmailID             string              `json:"email_id"`
	Summary             string              `json:"summary"`
	Categories          []string            `json:"categories"`
	PriorityScore       int                 `json:"priority_score"`
	IsPhishing          bool                `json:"is_phishing"`
	PhishingScore       float64             `json:"phishing_score"`
	SensitiveData       bool                `json:"sensitive_data"`
	AutoReplySuggestion string              `json:"auto_reply_suggestion,omitempty"`
	ProcessingTime      float64             `json:"processing_time"`
	AnalyzedAt          time.Time           `json:"analyzed_at"`
	ConversationID      string              `json:"conversation_id"`
	Tasks               []Task              `json:"tasks"`
	Meeting             *MeetingRequest     `json:"meeting_request,omitempty"`
	Tone                string              `json:"tone"`
	SentimentScore      float64             `json:"sentiment_score"`
	Language            string              `json:"language"`
	Entities            map[string][]string `json:"entities"`
	SmartReplies        []string            `json:"smart_replies"`
	ThreadContext       string              `json:"thread_context,omitempty"`
	ResponseTimeMinutes int                 `json:"expected_response_minutes"`
	ModelUsed           string              `json:"model_used"`
	AnalysisError       string              `json:"analysis_error,omitempty"`
}

// Mailbox is one active mailbox and its maildir location
type Mailbox struct {
	Address string
	Maildir string
}

// MessageRef identifies one message file within a mailbox's maildir
type MessageRef struct {
	ID       string
	Location string
}

// AnalysisStats is the aggregate reporting view over persisted records
type AnalysisStats struct {
	TotalAnalyzed     int64             `json:"total_analyzed"`
	PhishingDetected  int64             `json:"phishing_detected"`
	AvgProcessingTime float64           `json:"avg_processing_time"`
	Recent            []*AnalysisRecord `json:"recent_analyses"`
}
