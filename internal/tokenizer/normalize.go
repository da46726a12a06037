package tokenizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds case and strips non-spacing marks (diacritics) from s.
// Matching and synonym lookups operate on this form; the original text is
// preserved on the token for display. Transformer chains carry state, so a
// fresh chain is built per call to keep this safe for concurrent queries.
func Normalize(s string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(chain, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}
