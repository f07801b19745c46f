package usecase

import (
	"regexp"
	"strings"
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "her": {}, "was": {},
	"one": {}, "our": {}, "out": {}, "has": {}, "his": {}, "how": {},
	"who": {}, "what": {}, "when": {}, "where": {}, "which": {}, "with": {},
	"about": {}, "there": {}, "their": {}, "this": {}, "that": {},
	"from": {}, "they": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "sessions": {}, "session": {}, "talks": {}, "talk": {},
	"show": {}, "find": {}, "want": {}, "need": {}, "looking": {},
	"any": {}, "some": {}, "please": {}, "give": {},
}

var (
	quotedPhraseRe = regexp.MustCompile(`"([^"]+)"`)
	properNameRe   = regexp.MustCompile(`\b([A-Z][a-z]+ [A-Z][a-z]+)\b`)
)

// extractSearchTerms pulls ranked search terms out of a free-text query.
// Quoted phrases come first, then capitalized two-word sequences (likely
// proper names), then plain tokens longer than two characters that are
// not stop words. Order within each group follows query order.
func extractSearchTerms(query string) []string {
	seen := make(map[string]struct{})
	var terms []string
	add := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			return
		}
		if _, dup := seen[term]; dup {
			return
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}

	for _, m := range quotedPhraseRe.FindAllStringSubmatch(query, -1) {
		add(m[1])
	}
	for _, m := range properNameRe.FindAllStringSubmatch(query, -1) {
		add(m[1])
	}
	for _, token := range tokenize(query) {
		add(token)
	}
	return terms
}

// tokenize lower-cases and splits on non-alphanumerics, dropping stop
// words and tokens of length <= 2.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) <= 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

// extractNamePattern returns the first proper-name candidate from the
// query, for the speaker-name stage of keyword retrieval.
func extractNamePattern(query string) string {
	if m := properNameRe.FindStringSubmatch(query); m != nil {
		return m[1]
	}
	return ""
}
