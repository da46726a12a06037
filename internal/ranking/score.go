package ranking

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/tidesearch/tidesearch/internal/index"
	"github.com/tidesearch/tidesearch/internal/matcher"
	"github.com/tidesearch/tidesearch/pkg/config"
)

// ProximityInfinite marks documents whose matched terms never co-occur
// within a single attribute; they rank after every finite distance.
const ProximityInfinite = math.MaxInt32

// Exactness classes, higher is better.
const (
	ExactnessNone  = 0
	ExactnessStart = 1
	ExactnessFull  = 2
)

// DocScore is the per-document, per-query score vector: one sub-score per
// rule dimension, computed fresh for every query and discarded with the
// response.
type DocScore struct {
	DocID             uint32
	Words             int
	Typos             int
	Proximity         int
	AttributeRank     int
	AttributePosition int
	ExactClass        int
	ExactWords        int
	Sort              index.FieldValue
	Custom            []index.FieldValue
}

// Scorer turns merged match facts into score vectors. Vector computation is
// independent across documents and fans out on the shared worker pool.
type Scorer struct {
	cfg  *config.RankingConfig
	idx  index.Reader
	pool *ants.Pool
}

// NewScorer builds a Scorer. pool may be nil, which computes serially.
func NewScorer(cfg *config.RankingConfig, idx index.Reader, pool *ants.Pool) *Scorer {
	return &Scorer{cfg: cfg, idx: idx, pool: pool}
}

// Score computes one vector per candidate document. docIDs fixes the input
// order, so the output is deterministic regardless of worker scheduling.
// sortValues and customValues are the prefetched field values for the query
// sort and the custom-sort rules, in rule order.
func (s *Scorer) Score(
	ctx context.Context,
	facts map[uint32]*matcher.DocFacts,
	docIDs []uint32,
	queryTerms int,
	sortValues map[uint32]index.FieldValue,
	customValues []map[uint32]index.FieldValue,
) []*DocScore {
	scores := make([]*DocScore, len(docIDs))
	compute := func(i int) {
		id := docIDs[i]
		sc := s.scoreDoc(facts[id], queryTerms)
		if sortValues != nil {
			sc.Sort = sortValues[id]
		}
		if len(customValues) > 0 {
			sc.Custom = make([]index.FieldValue, len(customValues))
			for c, values := range customValues {
				sc.Custom[c] = values[id]
			}
		}
		scores[i] = sc
	}

	if s.pool == nil || len(docIDs) < 64 {
		for i := range docIDs {
			compute(i)
		}
		return scores
	}

	var wg sync.WaitGroup
	for i := range docIDs {
		wg.Add(1)
		if err := s.pool.Submit(func() {
			defer wg.Done()
			compute(i)
		}); err != nil {
			// Pool saturated or released: fall back inline.
			compute(i)
			wg.Done()
		}
	}
	wg.Wait()
	return scores
}

func (s *Scorer) scoreDoc(d *matcher.DocFacts, queryTerms int) *DocScore {
	sc := &DocScore{
		DocID:      d.DocID,
		Words:      d.MatchedCount(),
		Typos:      d.TotalTypos(),
		Proximity:  s.proximity(d),
		ExactWords: d.ExactSlotCount(),
	}
	sc.AttributeRank, sc.AttributePosition = s.bestAttribute(d)
	sc.ExactClass = s.exactClass(d, queryTerms)
	return sc
}

// proximity returns the minimal cumulative gap-weight distance between
// consecutive matched terms in query order, over attributes containing all
// of the document's matched terms. No such attribute means infinite.
func (s *Scorer) proximity(d *matcher.DocFacts) int {
	slots := matchedSlots(d)
	if len(slots) < 2 {
		return 0
	}
	best := ProximityInfinite
	for _, attr := range sortedAttrs(d) {
		facts := d.Attributes[attr]
		total := 0
		complete := true
		for i := 1; i < len(slots); i++ {
			prev, okPrev := facts.Slots[slots[i-1]]
			next, okNext := facts.Slots[slots[i]]
			if !okPrev || !okNext {
				complete = false
				break
			}
			total += pairDistance(prev.Positions, next.Positions)
		}
		if complete && total < best {
			best = total
		}
	}
	return best
}

// pairDistance is the minimal distance between two position lists. Forward
// order costs the positional delta; reversed order costs the delta plus one.
func pairDistance(prev, next []int) int {
	best := ProximityInfinite
	for _, p := range prev {
		for _, q := range next {
			var d int
			if q > p {
				d = q - p
			} else {
				d = p - q + 1
			}
			if d < best {
				best = d
			}
		}
	}
	return best
}

// bestAttribute returns the lowest configured rank among attributes holding
// a match, and the first match position within that attribute.
func (s *Scorer) bestAttribute(d *matcher.DocFacts) (rank, position int) {
	rank = len(s.cfg.SearchableAttributes) + 1
	position = math.MaxInt32
	for _, attr := range sortedAttrs(d) {
		r := s.cfg.AttributeRank(attr)
		first := math.MaxInt32
		for _, f := range d.Attributes[attr].Slots {
			for _, p := range f.Positions {
				if p < first {
					first = p
				}
			}
		}
		if r < rank || (r == rank && first < position) {
			rank = r
			position = first
		}
	}
	return rank, position
}

// exactClass classifies the document: some attribute equal to the whole
// query beats some attribute starting with the query, which beats neither.
func (s *Scorer) exactClass(d *matcher.DocFacts, queryTerms int) int {
	class := ExactnessNone
	for _, attr := range sortedAttrs(d) {
		facts := d.Attributes[attr]
		if s.attributeIsExact(d.DocID, attr, facts, queryTerms) {
			return ExactnessFull
		}
		if f, ok := facts.Slots[0]; ok && f.Typos == 0 && f.Kind != matcher.MatchPrefix && containsPosition(f.Positions, 0) {
			class = ExactnessStart
		}
	}
	return class
}

// attributeIsExact reports whether the attribute consists of exactly the
// query terms in order: every slot matched with zero typos at position
// slot-index, and the attribute holds no further tokens.
func (s *Scorer) attributeIsExact(docID uint32, attr string, facts *matcher.AttrFacts, queryTerms int) bool {
	count, ok := s.idx.AttributeTokenCount(docID, attr)
	if !ok || count != queryTerms {
		return false
	}
	for slot := 0; slot < queryTerms; slot++ {
		f, ok := facts.Slots[slot]
		if !ok || f.Typos > 0 || f.Kind == matcher.MatchPrefix || !containsPosition(f.Positions, slot) {
			return false
		}
	}
	return true
}

func matchedSlots(d *matcher.DocFacts) []int {
	var slots []int
	for slot := 0; slot < 16; slot++ {
		if d.Matched&(1<<slot) != 0 {
			slots = append(slots, slot)
		}
	}
	return slots
}

// sortedAttrs returns the document's attribute names in a fixed order so
// iteration never depends on map ordering.
func sortedAttrs(d *matcher.DocFacts) []string {
	attrs := make([]string, 0, len(d.Attributes))
	for a := range d.Attributes {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)
	return attrs
}

func containsPosition(positions []int, want int) bool {
	for _, p := range positions {
		if p == want {
			return true
		}
	}
	return false
}
