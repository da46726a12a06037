package tokenizer

import (
	"testing"

	"github.com/tidesearch/tidesearch/pkg/config"
)

func lemmas(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Lemma
	}
	return out
}

func TestTokenizePositionsAndGaps(t *testing.T) {
	tok := New(config.DefaultRanking())

	tests := []struct {
		name      string
		input     string
		lemmas    []string
		positions []int
	}{
		{
			name:      "space_separated",
			input:     "bruce willis",
			lemmas:    []string{"bruce", "willis"},
			positions: []int{0, 1},
		},
		{
			name:      "hard_separator",
			input:     "hello. world",
			lemmas:    []string{"hello", "world"},
			positions: []int{0, 8},
		},
		{
			name:      "strongest_separator_wins",
			input:     "a - . b",
			lemmas:    []string{"a", "b"},
			positions: []int{0, 8},
		},
		{
			name:      "hyphen_is_soft",
			input:     "new-york",
			lemmas:    []string{"new", "york"},
			positions: []int{0, 1},
		},
		{
			name:      "apostrophe_is_soft",
			input:     "l'avion",
			lemmas:    []string{"l", "avion"},
			positions: []int{0, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := tok.Tokenize(tt.input)
			if len(tokens) != len(tt.lemmas) {
				t.Fatalf("got %d tokens %v, want %d", len(tokens), lemmas(tokens), len(tt.lemmas))
			}
			for i, want := range tt.lemmas {
				if tokens[i].Lemma != want {
					t.Errorf("token %d: lemma = %q, want %q", i, tokens[i].Lemma, want)
				}
				if tokens[i].Position != tt.positions[i] {
					t.Errorf("token %d: position = %d, want %d", i, tokens[i].Position, tt.positions[i])
				}
			}
		})
	}
}

func TestTokenizeStopWordsKeepGaps(t *testing.T) {
	cfg := config.DefaultRanking()
	cfg.StopWords = []string{"the", "of"}
	tok := New(cfg)

	tokens := tok.Tokenize("chase the dog")
	if got := lemmas(tokens); len(got) != 2 || got[0] != "chase" || got[1] != "dog" {
		t.Fatalf("lemmas = %v, want [chase dog]", got)
	}
	// The dropped stop word still occupied a slot, so the gap spans it.
	if tokens[1].Position != 2 {
		t.Errorf("dog position = %d, want 2", tokens[1].Position)
	}
}

func TestTokenizeNormalization(t *testing.T) {
	tok := New(config.DefaultRanking())

	tokens := tok.Tokenize("Café Über")
	if got := lemmas(tokens); got[0] != "cafe" || got[1] != "uber" {
		t.Errorf("lemmas = %v, want [cafe uber]", got)
	}
	if tokens[0].Original != "Café" {
		t.Errorf("original = %q, want %q", tokens[0].Original, "Café")
	}
}

func TestTokenizeSeparatorOverrides(t *testing.T) {
	cfg := config.DefaultRanking()
	cfg.HardSeparators = []string{"-"}
	tok := New(cfg)

	tokens := tok.Tokenize("pre-war")
	if tokens[1].Position != HardGap {
		t.Errorf("position after overridden hard separator = %d, want %d", tokens[1].Position, HardGap)
	}
}

func TestTokenizeUnknownPunctuationIsSoft(t *testing.T) {
	tok := New(config.DefaultRanking())
	// U+2042 is in no class the table names; it must split softly, not be
	// swallowed into a token.
	tokens := tok.Tokenize("a⁂b")
	if got := lemmas(tokens); len(got) != 2 {
		t.Fatalf("lemmas = %v, want two tokens", got)
	}
	if tokens[1].Position != SoftGap {
		t.Errorf("gap = %d, want %d", tokens[1].Position, SoftGap)
	}
}

func TestTokenizeDictionarySegmentation(t *testing.T) {
	cfg := config.DefaultRanking()
	cfg.Dictionary = []string{"日本", "日本語"}
	tok := New(cfg)

	// Greedy longest match takes 日本語 whole.
	tokens := tok.Tokenize("日本語の本")
	got := lemmas(tokens)
	want := []string{"日本語", "の", "本"}
	if len(got) != len(want) {
		t.Fatalf("lemmas = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokenizeScriptBoundary(t *testing.T) {
	tok := New(config.DefaultRanking())
	tokens := tok.Tokenize("abc漢字")
	got := lemmas(tokens)
	if len(got) != 3 || got[0] != "abc" {
		t.Fatalf("lemmas = %v, want [abc 漢 字]", got)
	}
}

func TestTokenIsNumeric(t *testing.T) {
	if !(Token{Lemma: "2024"}).IsNumeric() {
		t.Error("2024 should be numeric")
	}
	if (Token{Lemma: "x86"}).IsNumeric() {
		t.Error("x86 should not be numeric")
	}
	if (Token{}).IsNumeric() {
		t.Error("empty lemma should not be numeric")
	}
}
