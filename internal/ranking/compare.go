package ranking

import (
	"unicode"

	"github.com/tidesearch/tidesearch/internal/index"
)

// comparator orders two score vectors on a single rule dimension. A negative
// result places a first. Zero means tied: the next rule decides.
type comparator func(a, b *DocScore) int

// buildChain assembles the effective comparator chain for one query. The
// words comparison runs first regardless of where (or whether) "words"
// appears in the configured list; configured "words" entries and the "sort"
// rule without a query sort contribute nothing to the ordering.
func buildChain(rules []Rule, hasQuerySort, sortDescending bool) []comparator {
	chain := []comparator{compareWords}
	customIdx := 0
	for _, r := range rules {
		switch r.Kind {
		case RuleWords:
			// already applied as the mandatory first pass
		case RuleTypo:
			chain = append(chain, compareTypos)
		case RuleProximity:
			chain = append(chain, compareProximity)
		case RuleAttribute:
			chain = append(chain, compareAttribute)
		case RuleSort:
			if hasQuerySort {
				desc := sortDescending
				chain = append(chain, func(a, b *DocScore) int {
					// Missing values make this rule a no-op for the
					// pair: prior ordering is preserved.
					if a.Sort.Kind == index.FieldMissing || b.Sort.Kind == index.FieldMissing {
						return 0
					}
					c := compareFieldPresent(a.Sort, b.Sort)
					if desc {
						return -c
					}
					return c
				})
			}
		case RuleExactness:
			chain = append(chain, compareExactness)
		case RuleCustomSort:
			idx := customIdx
			desc := r.Descending
			chain = append(chain, func(a, b *DocScore) int {
				return compareFieldValues(a.Custom[idx], b.Custom[idx], desc)
			})
			customIdx++
		}
	}
	return chain
}

func compareWords(a, b *DocScore) int {
	return b.Words - a.Words
}

func compareTypos(a, b *DocScore) int {
	return a.Typos - b.Typos
}

func compareProximity(a, b *DocScore) int {
	switch {
	case a.Proximity < b.Proximity:
		return -1
	case a.Proximity > b.Proximity:
		return 1
	default:
		return 0
	}
}

// compareAttribute is rank-order dominant: the configured attribute rank
// decides first, the first-match position inside the attribute second.
func compareAttribute(a, b *DocScore) int {
	if a.AttributeRank != b.AttributeRank {
		return a.AttributeRank - b.AttributeRank
	}
	return a.AttributePosition - b.AttributePosition
}

func compareExactness(a, b *DocScore) int {
	if a.ExactClass != b.ExactClass {
		return b.ExactClass - a.ExactClass
	}
	return b.ExactWords - a.ExactWords
}

// compareFieldValues orders typed field values for custom sorts. Missing
// values always rank last, independent of direction. Numbers order before
// strings; strings compare by the fixed ordering class of each character:
// symbols, then numbers, then letters, case-insensitively, with the raw code
// point as the final deterministic tie-break.
func compareFieldValues(a, b index.FieldValue, descending bool) int {
	if a.Kind == index.FieldMissing || b.Kind == index.FieldMissing {
		switch {
		case a.Kind == b.Kind:
			return 0
		case a.Kind == index.FieldMissing:
			return 1
		default:
			return -1
		}
	}
	c := compareFieldPresent(a, b)
	if descending {
		return -c
	}
	return c
}

func compareFieldPresent(a, b index.FieldValue) int {
	if a.Kind != b.Kind {
		if a.Kind == index.FieldNumber {
			return -1
		}
		return 1
	}
	if a.Kind == index.FieldNumber {
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		default:
			return 0
		}
	}
	return compareStrings(a.Str, b.Str)
}

// Ordering classes for string comparison.
const (
	classSymbol = 0
	classNumber = 1
	classLetter = 2
)

func charClass(r rune) int {
	switch {
	case unicode.IsNumber(r):
		return classNumber
	case unicode.IsLetter(r):
		return classLetter
	default:
		return classSymbol
	}
}

func compareStrings(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n := len(ra)
	if len(rb) < n {
		n = len(rb)
	}
	for i := 0; i < n; i++ {
		ca, cb := charClass(ra[i]), charClass(rb[i])
		if ca != cb {
			return ca - cb
		}
		fa, fb := unicode.ToLower(ra[i]), unicode.ToLower(rb[i])
		if fa != fb {
			if fa < fb {
				return -1
			}
			return 1
		}
	}
	if len(ra) != len(rb) {
		return len(ra) - len(rb)
	}
	// Case-insensitively equal: fall back to the raw code points so the
	// ordering stays total and reproducible.
	for i := 0; i < n; i++ {
		if ra[i] != rb[i] {
			if ra[i] < rb[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
