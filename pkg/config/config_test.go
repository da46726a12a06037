package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.DefaultLimit != 20 {
		t.Errorf("DefaultLimit = %d, want 20", cfg.Search.DefaultLimit)
	}
	if cfg.Search.RankingCutoff != 1500*time.Millisecond {
		t.Errorf("RankingCutoff = %v, want 1.5s", cfg.Search.RankingCutoff)
	}
	if !cfg.Ranking.PrefixSearch {
		t.Error("prefix search should default on")
	}
	want := []string{"words", "typo", "proximity", "attribute", "sort", "exactness"}
	if len(cfg.Ranking.Rules) != len(want) {
		t.Fatalf("Rules = %v, want %v", cfg.Ranking.Rules, want)
	}
	for i, r := range want {
		if cfg.Ranking.Rules[i] != r {
			t.Errorf("Rules[%d] = %q, want %q", i, cfg.Ranking.Rules[i], r)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9999
search:
  rankingCutoff: 200ms
ranking:
  rules: ["words", "typo", "price:asc"]
  sortableAttributes: ["price"]
  stopWords: ["the", "a"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Search.RankingCutoff != 200*time.Millisecond {
		t.Errorf("RankingCutoff = %v, want 200ms", cfg.Search.RankingCutoff)
	}
	if len(cfg.Ranking.StopWords) != 2 {
		t.Errorf("StopWords = %v", cfg.Ranking.StopWords)
	}
}

func TestLoadRejectsUnknownRule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("ranking:\n  rules: [\"wordz\"]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown rule name")
	}
}

func TestValidateCustomSortNeedsSortableField(t *testing.T) {
	rc := DefaultRanking()
	rc.Rules = append(rc.Rules, "price:asc")
	if err := rc.Validate(); err == nil {
		t.Fatal("expected an error: price is not sortable")
	}
	rc.SortableAttributes = []string{"price"}
	if err := rc.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateTypoThresholds(t *testing.T) {
	rc := DefaultRanking()
	rc.Typo.OneTypo = 10
	rc.Typo.TwoTypos = 5
	if err := rc.Validate(); err == nil {
		t.Fatal("expected an error: oneTypo exceeds twoTypos")
	}
}

func TestValidateTrimsSynonyms(t *testing.T) {
	rc := DefaultRanking()
	syns := make([]string, MaxSynonymsPerTerm+10)
	for i := range syns {
		syns[i] = "syn" + strings.Repeat("x", i%5)
	}
	rc.Synonyms = map[string][]string{"term": syns}
	if err := rc.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := len(rc.Synonyms["term"]); got > MaxSynonymsPerTerm {
		t.Errorf("synonyms kept = %d, want <= %d", got, MaxSynonymsPerTerm)
	}
}

func TestTypoBudget(t *testing.T) {
	rc := DefaultRanking()
	tests := []struct {
		runes int
		want  int
	}{
		{1, 0}, {4, 0}, {5, 1}, {8, 1}, {9, 2}, {20, 2},
	}
	for _, tt := range tests {
		if got := rc.TypoBudget(tt.runes); got != tt.want {
			t.Errorf("TypoBudget(%d) = %d, want %d", tt.runes, got, tt.want)
		}
	}
	rc.Typo.Enabled = false
	if rc.TypoBudget(20) != 0 {
		t.Error("disabled typo tolerance must yield a zero budget")
	}
}

func TestAttributeRank(t *testing.T) {
	rc := DefaultRanking()
	rc.SearchableAttributes = []string{"title", "author", "description"}

	if got := rc.AttributeRank("author"); got != 1 {
		t.Errorf("rank(author) = %d, want 1", got)
	}
	// Nested attributes inherit the parent rank.
	if got := rc.AttributeRank("author.name"); got != 1 {
		t.Errorf("rank(author.name) = %d, want 1", got)
	}
	if got := rc.AttributeRank("footer"); got != 3 {
		t.Errorf("rank(footer) = %d, want 3 (unlisted ranks last)", got)
	}
}

func TestParseCustomSort(t *testing.T) {
	field, desc, err := ParseCustomSort("release_date:desc")
	if err != nil || field != "release_date" || !desc {
		t.Errorf("ParseCustomSort = %q, %v, %v", field, desc, err)
	}
	if _, _, err := ParseCustomSort("plain"); err == nil {
		t.Error("expected an error for a rule without a direction")
	}
	if _, _, err := ParseCustomSort("field:sideways"); err == nil {
		t.Error("expected an error for an unknown direction")
	}
}
