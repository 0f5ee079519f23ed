package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
)

// replyPrefixPattern matches leading reply/forward markers, repeatedly
var replyPrefixPattern = regexp.MustCompile(`(?i)^\s*(?:re|fw|fwd)\s*:\s*`)

// normalizeSubject strips reply/forward markers and lowercases the subject
func normalizeSubject(subject string) string {
	s := strings.TrimSpace(subject)
	for {
		stripped := replyPrefixPattern.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// ConversationID derives a stable thread identifier from the normalized
// subject and the participant pair. Direction does not matter: the two
// addresses are sorted before hashing, so "Project Update" from A to B and
// "Re: Project Update" from B to A land in the same conversation.
func ConversationID(subject, from, to string) string {
	participants := []string{
		strings.ToLower(strings.TrimSpace(from)),
		strings.ToLower(strings.TrimSpace(to)),
	}
	sort.Strings(participants)

	h := sha256.Sum256([]byte(normalizeSubject(subject) + "|" + participants[0] + "|" + participants[1]))
	return hex.EncodeToString(h[:])[:16]
}
