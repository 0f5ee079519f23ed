package core

import (
	"encoding/json"
	"fmt"
)

// maxPromptBodySize caps the body excerpt embedded in the prompt
const maxPromptBodySize = 2000

const analysisPromptFormat = `Analyze the following email and provide a JSON response with these fields:
- summary: A brief 2-3 sentence summary of the email
- categories: List of relevant categories (e.g., "work", "personal", "finance", "social", "newsletter", "urgent")
- priority_score: Integer from 1-10 indicating urgency (1=low, 10=critical)
- is_phishing: Boolean indicating if this appears to be a phishing attempt
- phishing_score: Float from 0.0-1.0 indicating phishing likelihood
- sensitive_data: Boolean indicating if email contains sensitive information (passwords, credit cards, SSN, etc.)
- auto_reply_suggestion: A brief suggested auto-reply if appropriate, or null
- thread_context: A one sentence description of where this message sits in its conversation

Email:
Subject: %s
From: %s
To: %s
Date: %s
Detected language: %s
Detected tone: %s

Body:
%s

Respond ONLY with valid JSON, no additional text.`

// llmAnalysisResponse is the structured reply expected from the model
type llmAnalysisResponse struct {
	Summary             string   `json:"summary"`
	Categories          []string `json:"categories"`
	PriorityScore       int      `json:"priority_score"`
	IsPhishing          bool     `json:"is_phishing"`
	PhishingScore       float64  `json:"phishing_score"`
	SensitiveData       bool     `json:"sensitive_data"`
	AutoReplySuggestion string   `json:"auto_reply_suggestion"`
	ThreadContext       string   `json:"thread_context"`
}

// buildPrompt formats the analysis prompt for one message. The body excerpt
// is capped so prompt cost stays bounded regardless of message size.
func buildPrompt(msg *EmailMessage, language, tone string) string {
	body := msg.Body
	if len(body) > maxPromptBodySize {
		body = body[:maxPromptBodySize]
	}
	return fmt.Sprintf(analysisPromptFormat, msg.Subject, msg.From, msg.To, msg.Date, language, tone, body)
}

// parseAnalysisResponse parses the model's reply as JSON. Models sometimes
// wrap the JSON object in prose, so on a direct unmarshal failure the text
// between the first '{' and last '}' is tried before giving up.
func parseAnalysisResponse(responseText string) (*llmAnalysisResponse, error) {
	var parsed llmAnalysisResponse
	if err := json.Unmarshal([]byte(responseText), &parsed); err == nil {
		return &parsed, nil
	}

	jsonStart := -1
	jsonEnd := -1
	for i := 0; i < len(responseText); i++ {
		if responseText[i] == '{' {
			jsonStart = i
			break
		}
	}
	for i := len(responseText) - 1; i >= 0; i-- {
		if responseText[i] == '}' {
			jsonEnd = i + 1
			break
		}
	}
	if jsonStart < 0 || jsonEnd <= jsonStart {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}
	return &parsed, nil
}

// clampPriority forces a priority score into the 1-10 range
func clampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 10 {
		return 10
	}
	return p
}
