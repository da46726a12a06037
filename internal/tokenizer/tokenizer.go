// Package tokenizer splits text into normalised, position-stamped tokens.
//
// Punctuation between tokens is classified soft (gap weight 1) or hard (gap
// weight 8); a token's cumulative position is the previous token's position
// plus the gap weight of the strongest separator between them, so positional
// distances double as proximity distances downstream. Scripts without word
// separators are segmented greedily against a configured dictionary, with a
// per-rune fallback; unknown scripts fall back to whitespace splitting.
package tokenizer

import (
	"unicode"
	"unicode/utf8"

	"github.com/tidesearch/tidesearch/pkg/config"
)

// Gap weights for the separator classes.
const (
	SoftGap = 1
	HardGap = 8
)

// SeparatorKind classifies a rune between two tokens.
type SeparatorKind uint8

const (
	SeparatorNone SeparatorKind = iota
	SeparatorSoft
	SeparatorHard
)

// GapWeight returns the proximity weight contributed by the separator.
func (k SeparatorKind) GapWeight() int {
	if k == SeparatorHard {
		return HardGap
	}
	return SoftGap
}

// Token is a single term with its location in the original text.
type Token struct {
	Lemma    string // normalized: lowercased, diacritics stripped
	Original string
	Offset   int // byte offset in the input
	Length   int // byte length in the input
	Position int // cumulative position including gap weights
	Script   Script
}

// IsNumeric reports whether every rune of the lemma is a digit.
func (t Token) IsNumeric() bool {
	if t.Lemma == "" {
		return false
	}
	for _, r := range t.Lemma {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Tokenizer holds the separator table, stop words, and the segmentation
// dictionary. It is immutable after construction and safe for concurrent use.
type Tokenizer struct {
	stopWords    map[string]struct{}
	overrides    map[rune]SeparatorKind
	dictionary   map[string]struct{}
	maxDictRunes int
}

// New builds a Tokenizer from the separator, stop-word, and dictionary
// sections of the ranking configuration.
func New(cfg config.RankingConfig) *Tokenizer {
	t := &Tokenizer{
		stopWords:  make(map[string]struct{}, len(cfg.StopWords)),
		overrides:  make(map[rune]SeparatorKind),
		dictionary: make(map[string]struct{}, len(cfg.Dictionary)),
	}
	for _, w := range cfg.StopWords {
		t.stopWords[Normalize(w)] = struct{}{}
	}
	for _, s := range cfg.SoftSeparators {
		for _, r := range s {
			t.overrides[r] = SeparatorSoft
		}
	}
	for _, s := range cfg.HardSeparators {
		for _, r := range s {
			t.overrides[r] = SeparatorHard
		}
	}
	for _, w := range cfg.Dictionary {
		norm := Normalize(w)
		t.dictionary[norm] = struct{}{}
		if n := utf8.RuneCountInString(norm); n > t.maxDictRunes {
			t.maxDictRunes = n
		}
	}
	return t
}

// Separator classifies a rune, consulting configured overrides first.
func (t *Tokenizer) Separator(r rune) SeparatorKind {
	if k, ok := t.overrides[r]; ok {
		return k
	}
	return defaultSeparator(r)
}

// Tokenize splits text into an ordered token sequence. Stop words are
// dropped after position assignment, so gaps across them are preserved.
func (t *Tokenizer) Tokenize(text string) []Token {
	tokens := make([]Token, 0, 8)
	pending := SeparatorNone // strongest separator since the last emitted token
	emitted := false
	position := 0

	emit := func(tok Token) {
		if tok.Lemma == "" {
			return
		}
		if emitted {
			position += pending.GapWeight()
		}
		tok.Position = position
		pending = SeparatorNone
		emitted = true
		if _, stop := t.stopWords[tok.Lemma]; stop {
			return
		}
		tokens = append(tokens, tok)
	}

	runStart := -1
	for i, r := range text {
		kind := t.Separator(r)
		if kind == SeparatorNone {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			t.emitRun(text[runStart:i], runStart, emit)
			runStart = -1
		}
		if kind > pending {
			pending = kind
		}
	}
	if runStart >= 0 {
		t.emitRun(text[runStart:], runStart, emit)
	}
	return tokens
}

// emitRun tokenizes one separator-free run. Runs are cut at script
// boundaries; segments of scripts without separators go through the
// dictionary segmenter.
func (t *Tokenizer) emitRun(run string, offset int, emit func(Token)) {
	segStart := 0
	segScript := ScriptOther
	first := true
	for i, r := range run {
		sc := DetectScript(r)
		if first {
			segScript = sc
			first = false
			continue
		}
		if sc.Separated() != segScript.Separated() {
			t.emitSegment(run[segStart:i], offset+segStart, segScript, emit)
			segStart = i
			segScript = sc
		}
	}
	if !first {
		t.emitSegment(run[segStart:], offset+segStart, segScript, emit)
	}
}

func (t *Tokenizer) emitSegment(seg string, offset int, script Script, emit func(Token)) {
	if script.Separated() {
		emit(Token{
			Lemma:    Normalize(seg),
			Original: seg,
			Offset:   offset,
			Length:   len(seg),
			Script:   script,
		})
		return
	}
	t.segmentUnseparated(seg, offset, script, emit)
}

// segmentUnseparated applies greedy longest-match against the dictionary,
// falling back to single-rune tokens where no entry applies.
func (t *Tokenizer) segmentUnseparated(seg string, offset int, script Script, emit func(Token)) {
	runes := []rune(seg)
	byteAt := make([]int, len(runes)+1)
	pos := 0
	for i, r := range runes {
		byteAt[i] = pos
		pos += utf8.RuneLen(r)
	}
	byteAt[len(runes)] = pos

	for i := 0; i < len(runes); {
		matched := 1
		if t.maxDictRunes > 1 {
			max := t.maxDictRunes
			if rest := len(runes) - i; rest < max {
				max = rest
			}
			for n := max; n > 1; n-- {
				if _, ok := t.dictionary[Normalize(string(runes[i:i+n]))]; ok {
					matched = n
					break
				}
			}
		}
		piece := seg[byteAt[i]:byteAt[i+matched]]
		emit(Token{
			Lemma:    Normalize(piece),
			Original: piece,
			Offset:   offset + byteAt[i],
			Length:   len(piece),
			Script:   script,
		})
		i += matched
	}
}

// defaultSeparator is the fixed classification table. Hard separators mark a
// semantic break; anything that is not a letter, digit, or combining mark and
// not listed hard is soft, which keeps unknown punctuation fail-safe.
func defaultSeparator(r rune) SeparatorKind {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) {
		return SeparatorNone
	}
	switch r {
	case '.', ',', ';', ':', '!', '?', '(', ')', '[', ']', '{', '}',
		'|', '/', '\\', '&', '#', '@', '~', '^', '*', '=', '+', '<', '>',
		'$', '%', '\n', '\r',
		'。', '、', '．', '，', '！', '？', '；', '：', '（', '）', '「', '」':
		return SeparatorHard
	default:
		return SeparatorSoft
	}
}
