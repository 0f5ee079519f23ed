package extract

import (
	"regexp"
	"strings"
)

// maxEntitiesPerCategory caps every entity category after deduplication
const maxEntitiesPerCategory = 10

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`(?:\+?\d{1,2}[\s.-]?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`)
	urlPattern   = regexp.MustCompile(`https?://[^\s<>"]+`)

	dateLikePattern = regexp.MustCompile(`(?i)\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b`)

	// two or more consecutive capitalized words
	properNamePattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)
)

// corporateSuffixes mark a capitalized sequence as an organization name
var corporateSuffixes = []string{
	"inc", "llc", "ltd", "corp", "corporation", "company",
	"technologies", "solutions", "systems", "group", "labs", "software",
}

func isOrganization(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range corporateSuffixes {
		if strings.Contains(lower, suffix) {
			return true
		}
	}
	return false
}

// dedupCapped removes duplicates preserving first-seen order and caps the result
func dedupCapped(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := []string{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) >= maxEntitiesPerCategory {
			break
		}
	}
	return out
}

// Entities extracts named entities from the text with fixed regex patterns.
// Capitalized multi-word sequences split into organizations (carrying a
// corporate suffix) and people (everything else). Every category is
// deduplicated and capped at 10 entries; absent categories are empty, never nil.
func Entities(text string) map[string][]string {
	var organizations, people []string
	for _, name := range properNamePattern.FindAllString(text, -1) {
		if isOrganization(name) {
			organizations = append(organizations, name)
		} else {
			people = append(people, name)
		}
	}

	return map[string][]string{
		"emails":        dedupCapped(emailPattern.FindAllString(text, -1)),
		"phones":        dedupCapped(phonePattern.FindAllString(text, -1)),
		"urls":          dedupCapped(urlPattern.FindAllString(text, -1)),
		"dates":         dedupCapped(dateLikePattern.FindAllString(text, -1)),
		"organizations": dedupCapped(organizations),
		"people":        dedupCapped(people),
	}
}
