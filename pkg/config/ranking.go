package config

import (
	"fmt"
	"strings"
)

// Limits on configured synonyms. Entries beyond these caps are dropped
// silently during validation.
const (
	MaxSynonymsPerTerm    = 50
	MaxSynonymPhraseWords = 100
)

// Ranking rule names accepted in RankingConfig.Rules. Anything else must be
// a custom sort expression of the form "field:asc" or "field:desc".
var builtinRules = map[string]struct{}{
	"words":     {},
	"typo":      {},
	"proximity": {},
	"attribute": {},
	"sort":      {},
	"exactness": {},
}

// RankingConfig is the index-level relevancy configuration. It is validated
// once at load or update time and treated as read-only by the engine; the
// Revision counter keys derived caches so that stale entries die with the
// config that produced them.
type RankingConfig struct {
	Rules                []string            `yaml:"rules"`
	SearchableAttributes []string            `yaml:"searchableAttributes"`
	SortableAttributes   []string            `yaml:"sortableAttributes"`
	StopWords            []string            `yaml:"stopWords"`
	Synonyms             map[string][]string `yaml:"synonyms"`
	SoftSeparators       []string            `yaml:"softSeparators"`
	HardSeparators       []string            `yaml:"hardSeparators"`
	Dictionary           []string            `yaml:"dictionary"`
	Typo                 TypoConfig          `yaml:"typo"`
	PrefixSearch         bool                `yaml:"prefixSearch"`
	Revision             uint64              `yaml:"-"`
}

// TypoConfig controls typo tolerance. OneTypo and TwoTypos are the word
// lengths (in runes) at which one and two typos are allowed.
type TypoConfig struct {
	Enabled             bool     `yaml:"enabled"`
	OneTypo             uint8    `yaml:"oneTypo"`
	TwoTypos            uint8    `yaml:"twoTypos"`
	DisableOnWords      []string `yaml:"disableOnWords"`
	DisableOnAttributes []string `yaml:"disableOnAttributes"`
	DisableOnNumbers    bool     `yaml:"disableOnNumbers"`
}

// DefaultRanking returns the stock relevancy configuration: the canonical
// rule order and the standard typo thresholds (one typo from five runes,
// two from nine).
func DefaultRanking() RankingConfig {
	return RankingConfig{
		Rules: []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		Typo: TypoConfig{
			Enabled:  true,
			OneTypo:  5,
			TwoTypos: 9,
		},
		PrefixSearch: true,
	}
}

// Validate checks the configuration and normalizes it in place: rule names
// must be known or valid custom sort expressions, custom sort fields must be
// sortable, oneTypo must not exceed twoTypos, and synonym entries beyond the
// documented caps are trimmed silently.
func (rc *RankingConfig) Validate() error {
	for _, rule := range rc.Rules {
		if _, ok := builtinRules[rule]; ok {
			continue
		}
		field, _, err := ParseCustomSort(rule)
		if err != nil {
			return err
		}
		if !rc.sortable(field) {
			return fmt.Errorf("custom sort rule %q: field %q is not in sortableAttributes", rule, field)
		}
	}
	if rc.Typo.OneTypo > rc.Typo.TwoTypos {
		return fmt.Errorf("typo thresholds: oneTypo (%d) exceeds twoTypos (%d)", rc.Typo.OneTypo, rc.Typo.TwoTypos)
	}
	rc.trimSynonyms()
	return nil
}

// ParseCustomSort splits a "field:asc" / "field:desc" rule expression.
func ParseCustomSort(rule string) (field string, descending bool, err error) {
	idx := strings.LastIndex(rule, ":")
	if idx <= 0 {
		return "", false, fmt.Errorf("unknown ranking rule %q", rule)
	}
	field = rule[:idx]
	switch rule[idx+1:] {
	case "asc":
		return field, false, nil
	case "desc":
		return field, true, nil
	default:
		return "", false, fmt.Errorf("custom sort rule %q: direction must be asc or desc", rule)
	}
}

// AttributeRank returns the rank index of an attribute in the configured
// searchable-attribute order. Nested attributes ("author.name") inherit the
// parent's rank unless listed explicitly. Unlisted attributes rank last.
func (rc *RankingConfig) AttributeRank(attr string) int {
	for name := attr; name != ""; {
		for i, a := range rc.SearchableAttributes {
			if a == name {
				return i
			}
		}
		idx := strings.LastIndex(name, ".")
		if idx < 0 {
			break
		}
		name = name[:idx]
	}
	return len(rc.SearchableAttributes)
}

// TypoBudget returns the typo allowance for a word of the given rune length.
func (rc *RankingConfig) TypoBudget(runeLen int) int {
	if !rc.Typo.Enabled {
		return 0
	}
	switch {
	case runeLen < int(rc.Typo.OneTypo):
		return 0
	case runeLen < int(rc.Typo.TwoTypos):
		return 1
	default:
		return 2
	}
}

func (rc *RankingConfig) sortable(field string) bool {
	for _, f := range rc.SortableAttributes {
		if f == field {
			return true
		}
	}
	return false
}

// trimSynonyms enforces the per-term synonym cap and the combined word-count
// cap across one term's multi-word synonyms. Excess entries are dropped, not
// rejected.
func (rc *RankingConfig) trimSynonyms() {
	for term, syns := range rc.Synonyms {
		if len(syns) > MaxSynonymsPerTerm {
			syns = syns[:MaxSynonymsPerTerm]
		}
		kept := syns[:0]
		phraseWords := 0
		for _, s := range syns {
			words := strings.Fields(s)
			if len(words) > 1 {
				if phraseWords+len(words) > MaxSynonymPhraseWords {
					continue
				}
				phraseWords += len(words)
			}
			kept = append(kept, s)
		}
		rc.Synonyms[term] = kept
	}
}
