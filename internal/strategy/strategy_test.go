package strategy

import "testing"

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeLast, false},
		{"last", ModeLast, false},
		{"all", ModeAll, false},
		{"frequency", ModeFrequency, false},
		{"bogus", ModeLast, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDropLast(t *testing.T) {
	c := NewController(ModeLast, nil)
	if got := c.Drop([]string{"red", "fast", "shoes"}); got != 2 {
		t.Errorf("Drop = %d, want 2", got)
	}
}

func TestDropAllNeverRelaxes(t *testing.T) {
	c := NewController(ModeAll, nil)
	if got := c.Drop([]string{"red", "shoes"}); got != -1 {
		t.Errorf("Drop = %d, want -1", got)
	}
}

func TestDropSingleTermNeverDropped(t *testing.T) {
	for _, mode := range []Mode{ModeLast, ModeAll, ModeFrequency} {
		c := NewController(mode, func(string) int { return 1 })
		if got := c.Drop([]string{"shoes"}); got != -1 {
			t.Errorf("mode %v: Drop = %d, want -1", mode, got)
		}
	}
}

func TestDropFrequency(t *testing.T) {
	freqs := map[string]int{"the": 1000, "red": 50, "shoes": 200}
	c := NewController(ModeFrequency, func(w string) int { return freqs[w] })
	if got := c.Drop([]string{"the", "red", "shoes"}); got != 0 {
		t.Errorf("Drop = %d, want 0 (highest frequency)", got)
	}
}

func TestDropFrequencyTiesPreferRightmost(t *testing.T) {
	c := NewController(ModeFrequency, func(string) int { return 7 })
	if got := c.Drop([]string{"a", "b", "c"}); got != 2 {
		t.Errorf("Drop = %d, want 2 (rightmost on ties)", got)
	}
}

func TestDropFrequencyNilFreqFallsBackToLast(t *testing.T) {
	c := NewController(ModeFrequency, nil)
	if got := c.Drop([]string{"a", "b"}); got != 1 {
		t.Errorf("Drop = %d, want 1", got)
	}
}
