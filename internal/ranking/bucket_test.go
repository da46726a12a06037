package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidesearch/tidesearch/internal/index"
)

func ids(scores []*DocScore) []uint32 {
	out := make([]uint32, len(scores))
	for i, s := range scores {
		out[i] = s.DocID
	}
	return out
}

func mustRules(t *testing.T, names ...string) []Rule {
	t.Helper()
	rules, err := ParseRules(names)
	require.NoError(t, err)
	return rules
}

func TestPipelineRuleOrder(t *testing.T) {
	rules := mustRules(t, "words", "typo", "proximity")
	p := NewPipeline(rules, 0)

	scores := []*DocScore{
		{DocID: 1, Words: 1, Typos: 0, Proximity: 1},
		{DocID: 2, Words: 2, Typos: 1, Proximity: 9},
		{DocID: 3, Words: 2, Typos: 0, Proximity: 9},
		{DocID: 4, Words: 2, Typos: 0, Proximity: 2},
	}
	res := p.Sort(scores, false, false, 0)

	// Words dominates typos, typos dominate proximity.
	assert.Equal(t, []uint32{4, 3, 2, 1}, ids(res.Ordered))
	assert.False(t, res.CutoffReached)
}

func TestPipelineWordsAlwaysFirst(t *testing.T) {
	// "words" is absent from the configured rules but still applied first.
	p := NewPipeline(mustRules(t, "typo"), 0)
	scores := []*DocScore{
		{DocID: 1, Words: 1, Typos: 0},
		{DocID: 2, Words: 2, Typos: 5},
	}
	res := p.Sort(scores, false, false, 0)
	assert.Equal(t, []uint32{2, 1}, ids(res.Ordered))
}

func TestPipelineDocIDTieBreak(t *testing.T) {
	p := NewPipeline(mustRules(t, "words", "typo"), 0)
	scores := []*DocScore{
		{DocID: 9, Words: 1},
		{DocID: 3, Words: 1},
		{DocID: 7, Words: 1},
	}
	res := p.Sort(scores, false, false, 0)
	assert.Equal(t, []uint32{3, 7, 9}, ids(res.Ordered))
}

func TestPipelineQuerySort(t *testing.T) {
	p := NewPipeline(mustRules(t, "words", "sort", "typo"), 0)
	scores := []*DocScore{
		{DocID: 1, Words: 1, Sort: index.FieldValue{Kind: index.FieldNumber, Num: 30}},
		{DocID: 2, Words: 1, Sort: index.FieldValue{Kind: index.FieldNumber, Num: 10}},
		{DocID: 3, Words: 1}, // missing sort value keeps its prior position
	}

	asc := p.Sort(append([]*DocScore{}, scores...), true, false, 0)
	assert.Equal(t, []uint32{2, 1, 3}, ids(asc.Ordered))

	desc := p.Sort(append([]*DocScore{}, scores...), true, true, 0)
	assert.Equal(t, []uint32{1, 2, 3}, ids(desc.Ordered))
}

func TestPipelineCustomSort(t *testing.T) {
	p := NewPipeline(mustRules(t, "words", "release_date:desc"), 0)
	scores := []*DocScore{
		{DocID: 1, Words: 1, Custom: []index.FieldValue{{Kind: index.FieldNumber, Num: 1999}}},
		{DocID: 2, Words: 1, Custom: []index.FieldValue{{Kind: index.FieldNumber, Num: 2024}}},
		{DocID: 3, Words: 1, Custom: []index.FieldValue{{}}}, // missing ranks last
	}
	res := p.Sort(scores, false, false, 0)
	assert.Equal(t, []uint32{2, 1, 3}, ids(res.Ordered))
}

func TestPipelineDeterministic(t *testing.T) {
	p := NewPipeline(mustRules(t, "words", "typo", "proximity", "attribute", "exactness"), 0)
	build := func() []*DocScore {
		return []*DocScore{
			{DocID: 5, Words: 2, Typos: 1, Proximity: 3},
			{DocID: 1, Words: 2, Typos: 1, Proximity: 3},
			{DocID: 4, Words: 2, Typos: 0, Proximity: 7},
			{DocID: 2, Words: 1, Typos: 0, Proximity: 1},
			{DocID: 3, Words: 2, Typos: 1, Proximity: 2},
		}
	}
	first := ids(p.Sort(build(), false, false, 0).Ordered)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ids(p.Sort(build(), false, false, 0).Ordered))
	}
}

func TestPipelineCutoffKeepsPrefixExact(t *testing.T) {
	// An already-elapsed deadline: only the first popped bucket survives the
	// check, so everything is finalized by document id.
	p := NewPipeline(mustRules(t, "words", "typo"), time.Nanosecond)
	scores := []*DocScore{
		{DocID: 2, Words: 1},
		{DocID: 1, Words: 2},
	}
	time.Sleep(time.Millisecond)
	res := p.Sort(scores, false, false, 0)
	require.True(t, res.CutoffReached)
	assert.ElementsMatch(t, []uint32{1, 2}, ids(res.Ordered))
	assert.Equal(t, []uint32{1, 2}, ids(res.Ordered), "tail falls back to ascending document id")
}

func TestPipelineResolvedEarlyStop(t *testing.T) {
	p := NewPipeline(mustRules(t, "words", "typo"), 0)
	scores := make([]*DocScore, 0, 8)
	for i := 8; i >= 1; i-- {
		scores = append(scores, &DocScore{DocID: uint32(i), Words: i})
	}
	res := p.Sort(scores, false, false, 2)
	require.GreaterOrEqual(t, len(res.Ordered), 2)
	// The resolved prefix is exact even though the tail was flushed.
	assert.Equal(t, uint32(8), res.Ordered[0].DocID)
	assert.Equal(t, uint32(7), res.Ordered[1].DocID)
	assert.Len(t, res.Ordered, 8)
	assert.False(t, res.CutoffReached)
}
