package extract

import (
	"strings"
)

var positiveKeywords = []string{
	"thank", "great", "appreciate", "excellent", "wonderful",
	"happy", "glad", "congratulations", "well done", "perfect",
}

var negativeKeywords = []string{
	"urgent", "problem", "issue", "concern", "unfortunately",
	"error", "failed", "complaint", "disappointed", "angry",
}

var formalKeywords = []string{
	"dear", "sincerely", "regards", "respectfully", "kindly",
	"pursuant", "hereby", "attached please find",
}

var casualKeywords = []string{
	"hey", "lol", "btw", "cool", "yeah", "gonna", "wanna", "haha", "cheers",
}

func countOccurrences(text string, keywords []string) int {
	total := 0
	for _, kw := range keywords {
		total += strings.Count(text, kw)
	}
	return total
}

// AnalyzeTone classifies the tone of a message and scores its sentiment by
// counting fixed keyword occurrences (case-insensitive substring match) over
// the full text.
//
// Sentiment is (positive-negative)/(positive+negative), or 0.0 when neither
// kind of token appears. Tone is decided by priority: a strongly formal or
// casual register wins outright, then the sign of the sentiment balance.
func AnalyzeTone(text string) (tone string, sentiment float64) {
	lower := strings.ToLower(text)

	positive := countOccurrences(lower, positiveKeywords)
	negative := countOccurrences(lower, negativeKeywords)
	formal := countOccurrences(lower, formalKeywords)
	casual := countOccurrences(lower, casualKeywords)

	if positive+negative > 0 {
		sentiment = float64(positive-negative) / float64(positive+negative)
	}

	switch {
	case formal > 2:
		tone = "formal"
	case casual > 2:
		tone = "casual"
	case negative > positive:
		tone = "concerned"
	case positive > negative:
		tone = "positive"
	default:
		tone = "neutral"
	}
	return tone, sentiment
}
