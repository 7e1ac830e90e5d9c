package tfidf

import (
	"regexp"
	"strings"
)

// tokenizer lowercases text and extracts alphanumeric terms, dropping
// common filler words. Product codes like "opc43" survive as one term.
type tokenizer struct {
	pattern   *regexp.Regexp
	stopwords map[string]struct{}
}

func newTokenizer() *tokenizer {
	return &tokenizer{
		pattern:   regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`),
		stopwords: defaultStopwords(),
	}
}

func (t *tokenizer) tokenize(text string) []string {
	raw := t.pattern.FindAllString(strings.ToLower(text), -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, tok := range raw {
		if _, isStop := t.stopwords[tok]; isStop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to",
		"of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were",
		"be", "been", "being", "it", "this", "that", "these", "those", "from",
		"up", "down", "over", "under", "again", "further", "than", "so", "such",
		"into", "about", "between", "through", "during", "before", "after",
		"above", "below", "out", "off", "own", "same", "too", "very", "can",
		"will", "just", "should", "now", "we", "do", "does", "have", "has",
		"had", "you", "your", "our", "they", "their", "i", "my", "me", "he",
		"she", "his", "her", "its", "not", "no", "what", "which", "who", "whom",
		"how", "when", "where", "why", "all", "any", "both", "each", "few",
		"more", "most", "other", "some",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
