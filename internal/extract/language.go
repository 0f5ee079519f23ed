package extract

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// languageSampleWords caps how much of the input the detector scores
const languageSampleWords = 100

// languageMatchThreshold is the minimum keyword hits needed for a confident guess
const languageMatchThreshold = 3

// langProfile pairs a language tag with the common words scored against input.
// Profile order is the deterministic tie-break.
type langProfile struct {
	tag      language.Tag
	keywords map[string]struct{}
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

var langProfiles = []langProfile{
	{language.English, wordSet("the", "and", "is", "are", "you", "for", "with", "have", "this", "that", "from", "will", "would", "please")},
	{language.Spanish, wordSet("el", "los", "las", "que", "es", "en", "por", "para", "una", "con", "gracias", "hola", "usted", "muy")},
	{language.French, wordSet("le", "les", "est", "vous", "pour", "avec", "dans", "une", "nous", "bonjour", "merci", "votre", "je", "pas")},
	{language.German, wordSet("der", "die", "das", "und", "ist", "nicht", "mit", "für", "ein", "eine", "danke", "hallo", "sie", "wir")},
	{language.Italian, wordSet("il", "gli", "che", "per", "con", "una", "sono", "grazie", "ciao", "della", "questo", "molto", "anche", "buongiorno")},
}

// langLabel is the lowercase English name for a tag, e.g. "spanish"
func langLabel(tag language.Tag) string {
	return strings.ToLower(display.English.Languages().Name(tag))
}

// DefaultLanguage is returned when no candidate reaches the match threshold
var DefaultLanguage = langLabel(language.English)

// DetectLanguage guesses the language of the input by scoring its first 100
// words against fixed keyword sets for five reference languages. A candidate
// wins with at least 3 hits; ties go to the earlier profile. Anything
// inconclusive falls back to the default language.
func DetectLanguage(text string) string {
	words := strings.Fields(strings.ToLower(text))
	if len(words) > languageSampleWords {
		words = words[:languageSampleWords]
	}

	best := DefaultLanguage
	bestCount := 0
	for _, p := range langProfiles {
		count := 0
		for _, w := range words {
			w = strings.Trim(w, ".,;:!?\"'()")
			if _, ok := p.keywords[w]; ok {
				count++
			}
		}
		if count >= languageMatchThreshold && count > bestCount {
			best = langLabel(p.tag)
			bestCount = count
		}
	}
	return best
}
