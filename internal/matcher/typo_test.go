package matcher

import "testing"

func TestTypoCost(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		word   string
		budget int
		cost   int
		ok     bool
	}{
		{"identical", "saturday", "saturday", 2, 0, true},
		{"missing_letter", "satuday", "saturday", 1, 1, true},
		{"transposition_two_edits", "sautrday", "saturday", 2, 2, true},
		{"over_budget", "satuday", "saturday", 0, 0, false},
		{"first_char_costs_two", "caturday", "saturday", 1, 0, false},
		{"first_char_within_budget", "caturday", "saturday", 2, 2, true},
		{"first_char_plus_edit_over", "caturdy", "saturday", 2, 0, false},
		{"length_gap_exceeds_budget", "cat", "caterpillar", 2, 0, false},
		{"unicode_runes", "héllo", "hello", 1, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, ok := typoCost(tt.query, tt.word, tt.budget)
			if ok != tt.ok {
				t.Fatalf("typoCost(%q, %q, %d) ok = %v, want %v", tt.query, tt.word, tt.budget, ok, tt.ok)
			}
			if ok && cost != tt.cost {
				t.Errorf("typoCost(%q, %q, %d) = %d, want %d", tt.query, tt.word, tt.budget, cost, tt.cost)
			}
		})
	}
}

func TestLevenshteinBound(t *testing.T) {
	if _, ok := levenshtein([]rune("abcdef"), []rune("uvwxyz"), 2); ok {
		t.Error("distance 6 must fail a bound of 2")
	}
	d, ok := levenshtein([]rune("kitten"), []rune("sitting"), 3)
	if !ok || d != 3 {
		t.Errorf("kitten/sitting = %d, %v; want 3, true", d, ok)
	}
}
