package matcher

import (
	"math"
	"math/bits"
	"sort"
)

// MatchKind classifies how a candidate matched its query term.
type MatchKind uint8

const (
	MatchExact MatchKind = iota
	MatchPrefix
	MatchSynonym
)

func (k MatchKind) String() string {
	switch k {
	case MatchPrefix:
		return "prefix"
	case MatchSynonym:
		return "synonym"
	default:
		return "exact"
	}
}

// Candidate is one resolved match: a (document, attribute, term) triple with
// its typo count and match kind. Start and End are the original query slots
// the term covers.
type Candidate struct {
	DocID     uint32
	Attribute string
	Positions []int
	Typos     int
	Kind      MatchKind
	Start     int
	End       int
}

// SlotFact is the best evidence for one query slot within one attribute.
type SlotFact struct {
	Positions []int
	Typos     int
	Kind      MatchKind
}

// AttrFacts groups slot facts for one attribute of one document.
type AttrFacts struct {
	Slots map[int]*SlotFact
}

// DocFacts is the merged per-document match evidence across all
// interpretations and attributes. Matched is a bitmask over query slots.
type DocFacts struct {
	DocID      uint32
	Matched    uint16
	Attributes map[string]*AttrFacts
}

// MatchedCount returns the number of distinct matched query slots.
func (d *DocFacts) MatchedCount() int {
	return bits.OnesCount16(d.Matched)
}

// SlotTypos returns the minimum typo count for a slot across attributes.
func (d *DocFacts) SlotTypos(slot int) (int, bool) {
	best := math.MaxInt
	for _, attr := range d.Attributes {
		if f, ok := attr.Slots[slot]; ok && f.Typos < best {
			best = f.Typos
		}
	}
	return best, best != math.MaxInt
}

// TotalTypos sums the per-slot minimum typo counts over matched slots.
func (d *DocFacts) TotalTypos() int {
	total := 0
	for slot := 0; slot < 16; slot++ {
		if d.Matched&(1<<slot) == 0 {
			continue
		}
		if t, ok := d.SlotTypos(slot); ok {
			total += t
		}
	}
	return total
}

// ExactSlotCount returns the number of slots matched somewhere with zero
// typos and a non-prefix match.
func (d *DocFacts) ExactSlotCount() int {
	count := 0
	for slot := 0; slot < 16; slot++ {
		if d.Matched&(1<<slot) == 0 {
			continue
		}
		for _, attr := range d.Attributes {
			if f, ok := attr.Slots[slot]; ok && f.Typos == 0 && f.Kind != MatchPrefix {
				count++
				break
			}
		}
	}
	return count
}

// Set is the merged output of one matching pass.
type Set struct {
	Slots []int // original query slots required by this pass
	Docs  map[uint32]*DocFacts
}

// RequiredMask returns the bitmask of slots this pass requires.
func (s *Set) RequiredMask() uint16 {
	var mask uint16
	for _, slot := range s.Slots {
		mask |= 1 << slot
	}
	return mask
}

// FullMatches returns the ids of documents matching every required slot, in
// ascending order.
func (s *Set) FullMatches() []uint32 {
	mask := s.RequiredMask()
	ids := make([]uint32, 0, len(s.Docs))
	for id, facts := range s.Docs {
		if facts.Matched&mask == mask {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// merge folds a candidate into the per-document facts. For a contested slot
// the fact with fewer typos wins; on equal typos an exact match beats a
// prefix or synonym one, and positions are unioned.
func (s *Set) merge(c Candidate) {
	doc, ok := s.Docs[c.DocID]
	if !ok {
		doc = &DocFacts{DocID: c.DocID, Attributes: make(map[string]*AttrFacts)}
		s.Docs[c.DocID] = doc
	}
	attr, ok := doc.Attributes[c.Attribute]
	if !ok {
		attr = &AttrFacts{Slots: make(map[int]*SlotFact)}
		doc.Attributes[c.Attribute] = attr
	}
	for slot := c.Start; slot <= c.End; slot++ {
		doc.Matched |= 1 << slot
		existing, ok := attr.Slots[slot]
		if !ok {
			attr.Slots[slot] = &SlotFact{
				Positions: append([]int(nil), c.Positions...),
				Typos:     c.Typos,
				Kind:      c.Kind,
			}
			continue
		}
		switch {
		case c.Typos < existing.Typos:
			existing.Positions = append([]int(nil), c.Positions...)
			existing.Typos = c.Typos
			existing.Kind = c.Kind
		case c.Typos == existing.Typos:
			existing.Positions = unionSorted(existing.Positions, c.Positions)
			if existing.Kind != MatchExact && c.Kind == MatchExact {
				existing.Kind = MatchExact
			}
		}
	}
}

func unionSorted(a, b []int) []int {
	out := append(append([]int(nil), a...), b...)
	sort.Ints(out)
	dedup := out[:0]
	for i, v := range out {
		if i == 0 || v != out[i-1] {
			dedup = append(dedup, v)
		}
	}
	return dedup
}
