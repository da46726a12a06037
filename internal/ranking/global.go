package ranking

import "math"

// GlobalScore flattens a score vector into a single float in (0, 1]. Each
// configured rule contributes a normalized sub-score weighted by 2^-i for
// its position i in the rule list, so an earlier rule always dominates the
// combined weight of everything after it. Sort and custom-sort rules carry
// opaque field values and contribute nothing.
func GlobalScore(rules []Rule, sc *DocScore, queryTerms int) float64 {
	var total, weightSum float64
	for i, r := range rules {
		sub, ok := subScore(r.Kind, sc, queryTerms)
		if !ok {
			continue
		}
		w := math.Pow(2, -float64(i))
		total += w * sub
		weightSum += w
	}
	if weightSum == 0 {
		return 1.0
	}
	return total / weightSum
}

// ScoreDetails returns the per-rule normalized sub-scores by rule name.
func ScoreDetails(rules []Rule, sc *DocScore, queryTerms int) map[string]float64 {
	details := make(map[string]float64)
	for _, r := range rules {
		sub, ok := subScore(r.Kind, sc, queryTerms)
		if !ok {
			continue
		}
		details[r.String()] = sub
	}
	return details
}

func subScore(kind RuleKind, sc *DocScore, queryTerms int) (float64, bool) {
	if queryTerms == 0 {
		return 0, false
	}
	switch kind {
	case RuleWords:
		return float64(sc.Words) / float64(queryTerms), true
	case RuleTypo:
		maxTypos := 2*queryTerms + 1
		return 1 - float64(sc.Typos)/float64(maxTypos), true
	case RuleProximity:
		if sc.Proximity == ProximityInfinite {
			return 0, true
		}
		return 1 / float64(1+sc.Proximity), true
	case RuleAttribute:
		rankScore := 1 / float64(1+sc.AttributeRank)
		posScore := 1 / float64(1+sc.AttributePosition)
		return (rankScore*2047 + posScore) / 2048, true
	case RuleExactness:
		return (float64(sc.ExactClass) + float64(sc.ExactWords)/float64(queryTerms)) / 3, true
	default:
		return 0, false
	}
}
