// Package ranking implements the bucket-sort ranking pipeline: an ordered
// list of ranking rules applied as successive tie-breaking stages over the
// candidate set. Each rule only splits buckets left by earlier rules and can
// never overturn an earlier rule's ordering; the final, non-configurable
// tie-break is the ascending document id.
package ranking

import (
	"github.com/tidesearch/tidesearch/pkg/config"
)

// RuleKind enumerates the ranking rule variants.
type RuleKind uint8

const (
	RuleWords RuleKind = iota
	RuleTypo
	RuleProximity
	RuleAttribute
	RuleSort
	RuleExactness
	RuleCustomSort
)

// Rule is one entry of the configured rule list. Field and Descending are
// only meaningful for RuleCustomSort.
type Rule struct {
	Kind       RuleKind
	Field      string
	Descending bool
}

func (r Rule) String() string {
	switch r.Kind {
	case RuleWords:
		return "words"
	case RuleTypo:
		return "typo"
	case RuleProximity:
		return "proximity"
	case RuleAttribute:
		return "attribute"
	case RuleSort:
		return "sort"
	case RuleExactness:
		return "exactness"
	default:
		dir := ":asc"
		if r.Descending {
			dir = ":desc"
		}
		return r.Field + dir
	}
}

// ParseRules converts the validated rule-name list from the configuration
// into Rule values. The configuration store has already rejected unknown
// names, so errors here indicate an unvalidated config reaching the engine.
func ParseRules(names []string) ([]Rule, error) {
	rules := make([]Rule, 0, len(names))
	for _, name := range names {
		switch name {
		case "words":
			rules = append(rules, Rule{Kind: RuleWords})
		case "typo":
			rules = append(rules, Rule{Kind: RuleTypo})
		case "proximity":
			rules = append(rules, Rule{Kind: RuleProximity})
		case "attribute":
			rules = append(rules, Rule{Kind: RuleAttribute})
		case "sort":
			rules = append(rules, Rule{Kind: RuleSort})
		case "exactness":
			rules = append(rules, Rule{Kind: RuleExactness})
		default:
			field, desc, err := config.ParseCustomSort(name)
			if err != nil {
				return nil, err
			}
			rules = append(rules, Rule{Kind: RuleCustomSort, Field: field, Descending: desc})
		}
	}
	return rules, nil
}

// CustomFields returns the custom-sort fields in rule order.
func CustomFields(rules []Rule) []string {
	var fields []string
	for _, r := range rules {
		if r.Kind == RuleCustomSort {
			fields = append(fields, r.Field)
		}
	}
	return fields
}
