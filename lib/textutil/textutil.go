package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// DefaultSubjectThreshold is the minimum Jaro-Winkler similarity for a fuzzy subject match.
const DefaultSubjectThreshold = 0.85

// MatchSubject finds the subject in subjects that query most likely refers to. Names
// are compared case and whitespace insensitively, an exact match always wins over a
// fuzzy one.
func MatchSubject(query string, subjects []string, threshold float64) (string, float64, bool) {
	normalized := NormalizeName(query)
	if normalized == "" {
		return "", 0, false
	}

	var mostSimilarity float64
	var mostSimilar string
	for _, subject := range subjects {
		candidate := NormalizeName(subject)
		if candidate == normalized {
			return subject, 1, true
		}
		similarity := matchr.JaroWinkler(normalized, candidate, false)
		if similarity > mostSimilarity {
			mostSimilarity = similarity
			mostSimilar = subject
		}
	}

	if mostSimilarity < threshold {
		return "", mostSimilarity, false
	}
	return mostSimilar, mostSimilarity, true
}
