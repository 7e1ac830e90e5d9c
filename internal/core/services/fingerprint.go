package services

import (
	"encoding/hex"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// relevantTraits are the profile keys that alter what the generation
// backend produces. They are part of the cache fingerprint: a personalized
// answer must never be served to a session with a different profile.
var relevantTraits = []string{"expertise", "primary_topic"}

// normalizeText lowercases the query and collapses runs of whitespace, so
// trivially different phrasings of the same request share a fingerprint
func normalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// fingerprint derives the stable response-cache key from the normalized
// query text and the relevant session context. Identical inputs always
// produce the same key; any difference in text, identity or a relevant
// trait changes it, which is what makes caching safe.
func fingerprint(normalized, identityHint string, profile map[string]string) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(normalized))
	h.Write([]byte{0})
	h.Write([]byte(identityHint))

	traits := append([]string(nil), relevantTraits...)
	sort.Strings(traits)
	for _, trait := range traits {
		h.Write([]byte{0})
		h.Write([]byte(trait))
		h.Write([]byte{'='})
		h.Write([]byte(profile[trait]))
	}
	return hex.EncodeToString(h.Sum(nil))
}
