package extract

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// relativeTerm maps a fixed phrase to an offset from the analysis instant
type relativeTerm struct {
	phrase string
	offset time.Duration
}

// Ordered so that "tomorrow" is tried before "today" never matters: the
// phrases are disjoint. "next week" and "next month" use day-based offsets.
var relativeTerms = []relativeTerm{
	{"today", 0},
	{"tomorrow", 24 * time.Hour},
	{"next week", 7 * 24 * time.Hour},
	{"next month", 30 * 24 * time.Hour},
}

// ExtractDate finds a deadline-like date in the text. Relative terms map to
// fixed offsets from now; otherwise any date-like substring is handed to the
// fuzzy parser. Returns nil when nothing matches.
func ExtractDate(text string, now time.Time) *time.Time {
	lower := strings.ToLower(text)

	for _, term := range relativeTerms {
		if strings.Contains(lower, term.phrase) {
			t := now.Add(term.offset)
			return &t
		}
	}

	for _, candidate := range dateLikePattern.FindAllString(text, -1) {
		if t, err := dateparse.ParseAny(candidate); err == nil {
			return &t
		}
	}
	return nil
}
