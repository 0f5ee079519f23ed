// Package extract implements the heuristic signal extractors. Every
// extractor is a pure function over normalized text: no shared state, safe
// to call in any order or concurrently.
package extract

import (
	"time"

	"github.com/mikey/llm-mail-analyzer/internal/core"
)

// Engine bundles the extractors behind core.SignalExtractor
type Engine struct{}

// NewEngine creates a new extractor engine
func NewEngine() *Engine {
	return &Engine{}
}

// Extract runs every extractor over one message. now anchors relative dates.
func (e *Engine) Extract(msg *core.EmailMessage, now time.Time) *core.Signals {
	text := msg.Subject + "\n" + msg.Body
	tone, sentiment := AnalyzeTone(text)

	return &core.Signals{
		ConversationID: ConversationID(msg.Subject, msg.From, msg.To),
		Language:       DetectLanguage(msg.Body),
		Tone:           tone,
		SentimentScore: sentiment,
		Entities:       Entities(text),
		Tasks:          Tasks(msg.Body, now),
		Meeting:        Meeting(text, now),
	}
}

// Replies selects suggested replies for the final priority
func (e *Engine) Replies(priority int, sig *core.Signals) []string {
	return SmartReplies(priority, sig.Meeting, sig.Tasks, sig.Tone)
}

// PredictResponseMinutes predicts the response-time target in minutes
func (e *Engine) PredictResponseMinutes(priority int, sig *core.Signals) int {
	return PredictResponseTime(priority, sig.Meeting != nil, len(sig.Tasks))
}
