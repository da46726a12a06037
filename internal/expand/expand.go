// Package expand derives alternative interpretations of a tokenized query:
// adjacent-term concatenation, frequency-guided term splitting, synonym
// substitution, and negation. Every interpretation keeps a mapping back to
// the original token indices it covers so downstream match facts merge onto
// the same term slots.
package expand

import (
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tidesearch/tidesearch/internal/index"
	"github.com/tidesearch/tidesearch/internal/tokenizer"
	"github.com/tidesearch/tidesearch/pkg/config"
)

// MaxQueryTerms caps the number of positive query terms. Extra terms are
// dropped silently.
const MaxQueryTerms = 10

// Longest window of adjacent tokens considered for concatenation.
const maxConcatWindow = 3

const splitCacheSize = 4096

// Kind tags the transformation that produced a term or interpretation.
type Kind uint8

const (
	KindOriginal Kind = iota
	KindConcatenated
	KindSplit
	KindSynonym
)

func (k Kind) String() string {
	switch k {
	case KindConcatenated:
		return "concatenated"
	case KindSplit:
		return "split"
	case KindSynonym:
		return "synonym"
	default:
		return "original"
	}
}

// Term is one unit to match. More than one word means an ordered adjacent
// phrase (multi-word synonyms and split halves). Start and End are the
// inclusive range of original token indices this term stands in for.
type Term struct {
	Words  []string
	Kind   Kind
	Prefix bool
	Start  int
	End    int
}

// Interpretation is one ordered term sequence to resolve against the index.
type Interpretation struct {
	Kind  Kind
	Terms []Term
}

// Query is the full expansion of one raw query string.
type Query struct {
	Tokens          []tokenizer.Token
	Interpretations []Interpretation
	Negated         []Term
	Truncated       bool
}

type splitKey struct {
	term      string
	indexRev  uint64
	configRev uint64
}

type splitResult struct {
	left, right string
	ok          bool
}

// Expander holds the synonym table and the split-decision cache. It is
// immutable after construction and shared across concurrent queries.
type Expander struct {
	tok      *tokenizer.Tokenizer
	cfg      *config.RankingConfig
	idx      index.Reader
	synonyms map[string][][]string
	splits   *lru.Cache[splitKey, splitResult]
	logger   *slog.Logger
}

// New builds an Expander. Synonym keys and entries are normalized once here
// so query-time lookups are map hits.
func New(tok *tokenizer.Tokenizer, cfg *config.RankingConfig, idx index.Reader) *Expander {
	splits, _ := lru.New[splitKey, splitResult](splitCacheSize)
	e := &Expander{
		tok:      tok,
		cfg:      cfg,
		idx:      idx,
		synonyms: make(map[string][][]string, len(cfg.Synonyms)),
		splits:   splits,
		logger:   slog.Default().With("component", "query-expander"),
	}
	for term, entries := range cfg.Synonyms {
		key := tokenizer.Normalize(term)
		phrases := make([][]string, 0, len(entries))
		for _, entry := range entries {
			words := strings.Fields(tokenizer.Normalize(entry))
			if len(words) > 0 {
				phrases = append(phrases, words)
			}
		}
		if len(phrases) > 0 {
			e.synonyms[key] = phrases
		}
	}
	return e
}

// Expand parses and tokenizes the raw query and produces all interpretations.
func (e *Expander) Expand(raw string) *Query {
	q := &Query{}
	for _, seg := range parseSegments(raw) {
		tokens := e.tok.Tokenize(seg.text)
		if len(tokens) == 0 {
			continue
		}
		if seg.negated {
			words := make([]string, len(tokens))
			for i, t := range tokens {
				words[i] = t.Lemma
			}
			q.Negated = append(q.Negated, Term{Words: words, Kind: KindOriginal})
			continue
		}
		q.Tokens = append(q.Tokens, tokens...)
	}
	if len(q.Tokens) > MaxQueryTerms {
		q.Tokens = q.Tokens[:MaxQueryTerms]
		q.Truncated = true
	}
	if len(q.Tokens) == 0 {
		return q
	}

	slots := make([]int, len(q.Tokens))
	for i := range slots {
		slots[i] = i
	}
	q.Interpretations = e.Interpret(q.Tokens, slots)
	return q
}

// Interpret builds the original interpretation plus one derived
// interpretation per concatenation window, split, and synonym. slots maps
// each token to its original query slot; the matching-strategy controller
// passes reduced token lists here on retries, and concatenation windows are
// only formed over tokens that were adjacent in the original query.
func (e *Expander) Interpret(tokens []tokenizer.Token, slots []int) []Interpretation {
	base := make([]Term, len(tokens))
	for i, t := range tokens {
		base[i] = Term{Words: []string{t.Lemma}, Kind: KindOriginal, Start: slots[i], End: slots[i]}
	}
	if e.cfg.PrefixSearch {
		base[len(base)-1].Prefix = true
	}
	interps := []Interpretation{{Kind: KindOriginal, Terms: base}}

	// Concatenation: windows of 2..3 adjacent tokens, never non-adjacent.
	for n := 2; n <= maxConcatWindow; n++ {
		for i := 0; i+n <= len(base); i++ {
			if slots[i+n-1]-slots[i] != n-1 {
				continue
			}
			var sb strings.Builder
			for _, t := range base[i : i+n] {
				sb.WriteString(t.Words[0])
			}
			term := Term{
				Words:  []string{sb.String()},
				Kind:   KindConcatenated,
				Start:  slots[i],
				End:    slots[i+n-1],
				Prefix: e.cfg.PrefixSearch && i+n == len(base),
			}
			interps = append(interps, Interpretation{
				Kind:  KindConcatenated,
				Terms: replace(base, i, i+n, term),
			})
		}
	}

	// Splitting: one interpretation per token with a valid split boundary.
	for i, t := range base {
		left, right, ok := e.splitTerm(t.Words[0])
		if !ok {
			continue
		}
		term := Term{Words: []string{left, right}, Kind: KindSplit, Start: t.Start, End: t.End}
		interps = append(interps, Interpretation{
			Kind:  KindSplit,
			Terms: replace(base, i, i+1, term),
		})
	}

	// Synonyms: multi-word entries become ordered adjacent phrases.
	for i, t := range base {
		for _, phrase := range e.synonyms[t.Words[0]] {
			term := Term{Words: phrase, Kind: KindSynonym, Start: t.Start, End: t.End}
			interps = append(interps, Interpretation{
				Kind:  KindSynonym,
				Terms: replace(base, i, i+1, term),
			})
		}
	}
	return interps
}

// splitTerm finds the internal boundary maximizing the minimum corpus
// frequency of the two halves. Both halves must have non-zero frequency;
// otherwise no split applies. Decisions are memoized per (term, revision).
func (e *Expander) splitTerm(word string) (string, string, bool) {
	key := splitKey{term: word, indexRev: e.idx.Revision(), configRev: e.cfg.Revision}
	if cached, ok := e.splits.Get(key); ok {
		return cached.left, cached.right, cached.ok
	}

	runes := []rune(word)
	best := splitResult{}
	bestScore := 0
	for b := 1; b < len(runes); b++ {
		left, right := string(runes[:b]), string(runes[b:])
		fl, fr := e.idx.Frequency(left), e.idx.Frequency(right)
		if fl == 0 || fr == 0 {
			continue
		}
		score := fl
		if fr < fl {
			score = fr
		}
		if score > bestScore {
			bestScore = score
			best = splitResult{left: left, right: right, ok: true}
		}
	}
	e.splits.Add(key, best)
	return best.left, best.right, best.ok
}

// replace returns a copy of terms with terms[from:to] replaced by repl.
func replace(terms []Term, from, to int, repl Term) []Term {
	out := make([]Term, 0, len(terms)-(to-from)+1)
	out = append(out, terms[:from]...)
	out = append(out, repl)
	out = append(out, terms[to:]...)
	return out
}

type segment struct {
	text    string
	negated bool
}

// parseSegments splits the raw query into plain text and negated spans. A
// '-' introduces a negated word, or a negated phrase when followed by a
// double-quoted span. The minus only negates at a word boundary, so hyphens
// inside words pass through to the tokenizer as separators.
func parseSegments(raw string) []segment {
	var segs []segment
	var plain strings.Builder
	flushPlain := func() {
		if plain.Len() > 0 {
			segs = append(segs, segment{text: plain.String()})
			plain.Reset()
		}
	}

	runes := []rune(raw)
	for i := 0; i < len(runes); {
		r := runes[i]
		if r == '-' && (i == 0 || runes[i-1] == ' ' || runes[i-1] == '\t') && i+1 < len(runes) {
			if runes[i+1] == '"' {
				end := indexRune(runes, i+2, '"')
				if end > 0 {
					flushPlain()
					segs = append(segs, segment{text: string(runes[i+2 : end]), negated: true})
					i = end + 1
					continue
				}
			} else if runes[i+1] != ' ' {
				end := i + 1
				for end < len(runes) && runes[end] != ' ' && runes[end] != '\t' {
					end++
				}
				flushPlain()
				segs = append(segs, segment{text: string(runes[i+1 : end]), negated: true})
				i = end
				continue
			}
		}
		plain.WriteRune(r)
		i++
	}
	flushPlain()
	return segs
}

func indexRune(runes []rune, from int, want rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == want {
			return i
		}
	}
	return -1
}
