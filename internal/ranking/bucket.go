package ranking

import (
	"sort"
	"time"
)

// Pipeline runs the bucket sort: candidates are recursively partitioned into
// tie groups, one rule dimension per level, until every group is fully
// ordered or the time budget runs out.
type Pipeline struct {
	rules  []Rule
	cutoff time.Duration
}

// NewPipeline builds a pipeline over the configured rule list. cutoff zero
// disables the time budget.
func NewPipeline(rules []Rule, cutoff time.Duration) *Pipeline {
	return &Pipeline{rules: rules, cutoff: cutoff}
}

// SortResult carries the ordered documents plus pipeline telemetry.
type SortResult struct {
	Ordered []*DocScore
	// CutoffReached is set when the time budget expired and the tail of
	// the result was finalized by document id instead of the full chain.
	CutoffReached bool
	// MaxDepth is the deepest rule level any bucket reached, a measure of
	// how hard the rule list had to work to separate the candidates.
	MaxDepth int
}

type bucket struct {
	docs  []*DocScore
	depth int
}

// Sort orders the score vectors. Buckets are resolved leftmost first, so
// when the deadline or the resolved-count target hits, the already-ordered
// prefix is exact and only the tail falls back to document-id order.
// resolved is the number of fully ordered leading documents the caller
// needs; zero means order everything.
func (p *Pipeline) Sort(scores []*DocScore, hasQuerySort, sortDescending bool, resolved int) SortResult {
	chain := buildChain(p.rules, hasQuerySort, sortDescending)
	out := make([]*DocScore, 0, len(scores))
	res := SortResult{}

	var deadline time.Time
	if p.cutoff > 0 {
		deadline = time.Now().Add(p.cutoff)
	}

	stack := []bucket{{docs: scores, depth: 0}}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// The budget is only checked between buckets, never inside a
		// comparison pass, so a finished bucket is always exact.
		if !deadline.IsZero() && time.Now().After(deadline) {
			res.CutoffReached = true
			out = flushByDocID(out, b, stack)
			break
		}
		if resolved > 0 && len(out) >= resolved {
			out = flushByDocID(out, b, stack)
			break
		}

		if b.depth > res.MaxDepth {
			res.MaxDepth = b.depth
		}
		if b.depth == len(chain) || len(b.docs) == 1 {
			out = append(out, finalizeBucket(b.docs)...)
			continue
		}

		cmp := chain[b.depth]
		sort.SliceStable(b.docs, func(i, j int) bool {
			return cmp(b.docs[i], b.docs[j]) < 0
		})

		// Push tie groups in reverse so the best group resolves first.
		groups := tieGroups(b.docs, cmp)
		for i := len(groups) - 1; i >= 0; i-- {
			stack = append(stack, bucket{docs: groups[i], depth: b.depth + 1})
		}
	}

	res.Ordered = out
	return res
}

// tieGroups partitions a bucket already sorted on cmp into runs of equal
// documents.
func tieGroups(docs []*DocScore, cmp comparator) [][]*DocScore {
	var groups [][]*DocScore
	start := 0
	for i := 1; i < len(docs); i++ {
		if cmp(docs[start], docs[i]) != 0 {
			groups = append(groups, docs[start:i])
			start = i
		}
	}
	groups = append(groups, docs[start:])
	return groups
}

// finalizeBucket applies the non-configurable last tie-break, the ascending
// document id.
func finalizeBucket(docs []*DocScore) []*DocScore {
	sort.Slice(docs, func(i, j int) bool { return docs[i].DocID < docs[j].DocID })
	return docs
}

// flushByDocID drains the current bucket and the remaining stack into the
// output as one document-id ordered tail.
func flushByDocID(out []*DocScore, current bucket, stack []bucket) []*DocScore {
	rest := append([]*DocScore{}, current.docs...)
	for _, b := range stack {
		rest = append(rest, b.docs...)
	}
	return append(out, finalizeBucket(rest)...)
}
