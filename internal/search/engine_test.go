package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidesearch/tidesearch/internal/index"
	"github.com/tidesearch/tidesearch/internal/strategy"
	"github.com/tidesearch/tidesearch/internal/tokenizer"
	"github.com/tidesearch/tidesearch/pkg/config"
	apperrors "github.com/tidesearch/tidesearch/pkg/errors"
)

func testConfig() *config.Config {
	return &config.Config{
		Search: config.SearchConfig{
			DefaultLimit: 20,
			MaxResults:   1000,
		},
		Ranking: config.DefaultRanking(),
	}
}

func newTestEngine(t *testing.T, cfg *config.Config, docs ...index.Document) *Engine {
	t.Helper()
	tok := tokenizer.New(cfg.Ranking)
	idx := index.NewMemIndex(1)
	for _, d := range docs {
		idx.Add(d, tok)
	}
	e, err := New(cfg, idx, idx, nil)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func hitIDs(res *Result) []uint32 {
	out := make([]uint32, len(res.Hits))
	for i, h := range res.Hits {
		out[i] = h.ID
	}
	return out
}

func TestRankProximityOrder(t *testing.T) {
	e := newTestEngine(t, testConfig(),
		index.Document{ID: 1, Attributes: map[string]string{"title": "bruce stars with willis tonight"}},
		index.Document{ID: 2, Attributes: map[string]string{"title": "bruce willis"}},
	)

	res, err := e.Rank(context.Background(), "bruce willis", Options{})
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 1}, hitIDs(res))
	assert.Equal(t, 2, res.TotalHits)
	assert.False(t, res.CutoffReached)
}

func TestRankRelaxation(t *testing.T) {
	e := newTestEngine(t, testConfig(),
		index.Document{ID: 1, Attributes: map[string]string{"title": "red fast shoes"}},
		index.Document{ID: 2, Attributes: map[string]string{"title": "red leather boots"}},
	)

	res, err := e.Rank(context.Background(), "red fast shoes", Options{Strategy: strategy.ModeLast})
	require.NoError(t, err)
	// The full match ranks first; the relaxed match follows with fewer words.
	assert.Equal(t, []uint32{1, 2}, hitIDs(res))
	assert.Equal(t, 2, res.Retries)
}

func TestRankStrategyAllNeverRelaxes(t *testing.T) {
	e := newTestEngine(t, testConfig(),
		index.Document{ID: 1, Attributes: map[string]string{"title": "red fast shoes"}},
		index.Document{ID: 2, Attributes: map[string]string{"title": "red leather boots"}},
	)

	res, err := e.Rank(context.Background(), "red fast shoes", Options{Strategy: strategy.ModeAll})
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, hitIDs(res))
	assert.Zero(t, res.Retries)
}

func TestRankNegationExcludes(t *testing.T) {
	e := newTestEngine(t, testConfig(),
		index.Document{ID: 1, Attributes: map[string]string{"title": "cheap red shoes"}},
		index.Document{ID: 2, Attributes: map[string]string{"title": "red shoes"}},
	)

	res, err := e.Rank(context.Background(), "red shoes -cheap", Options{})
	require.NoError(t, err)
	assert.Equal(t, []uint32{2}, hitIDs(res))
}

func TestRankPrefixOnLastTerm(t *testing.T) {
	e := newTestEngine(t, testConfig(),
		index.Document{ID: 1, Attributes: map[string]string{"title": "red shoes"}},
	)
	res, err := e.Rank(context.Background(), "red sho", Options{})
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, hitIDs(res))
}

func TestRankPagination(t *testing.T) {
	docs := make([]index.Document, 5)
	for i := range docs {
		docs[i] = index.Document{
			ID:         uint32(i + 1),
			Attributes: map[string]string{"title": "plain shirt"},
		}
	}
	e := newTestEngine(t, testConfig(), docs...)

	res, err := e.Rank(context.Background(), "shirt", Options{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, []uint32{3, 4}, hitIDs(res))
	assert.Equal(t, 5, res.TotalHits)

	res, err = e.Rank(context.Background(), "shirt", Options{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestRankQuerySort(t *testing.T) {
	cfg := testConfig()
	cfg.Ranking.SortableAttributes = []string{"price"}
	e := newTestEngine(t, cfg,
		index.Document{ID: 1, Attributes: map[string]string{"title": "blue shirt"}, Fields: map[string]any{"price": 30.0}},
		index.Document{ID: 2, Attributes: map[string]string{"title": "blue shirt"}, Fields: map[string]any{"price": 10.0}},
		index.Document{ID: 3, Attributes: map[string]string{"title": "blue shirt"}, Fields: map[string]any{"price": 20.0}},
	)

	res, err := e.Rank(context.Background(), "shirt", Options{Sort: &SortSpec{Field: "price"}})
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 3, 1}, hitIDs(res))

	res, err = e.Rank(context.Background(), "shirt", Options{Sort: &SortSpec{Field: "price", Descending: true}})
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 3, 2}, hitIDs(res))
}

func TestRankUnsortableField(t *testing.T) {
	e := newTestEngine(t, testConfig(),
		index.Document{ID: 1, Attributes: map[string]string{"title": "blue shirt"}},
	)
	_, err := e.Rank(context.Background(), "shirt", Options{Sort: &SortSpec{Field: "price"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsortableField))
}

func TestRankCustomSortRule(t *testing.T) {
	cfg := testConfig()
	cfg.Ranking.SortableAttributes = []string{"release_date"}
	cfg.Ranking.Rules = []string{"words", "typo", "proximity", "attribute", "sort", "exactness", "release_date:desc"}
	e := newTestEngine(t, cfg,
		index.Document{ID: 1, Attributes: map[string]string{"title": "gladiator"}, Fields: map[string]any{"release_date": 2000.0}},
		index.Document{ID: 2, Attributes: map[string]string{"title": "gladiator"}, Fields: map[string]any{"release_date": 2024.0}},
	)

	res, err := e.Rank(context.Background(), "gladiator", Options{})
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 1}, hitIDs(res))
}

func TestRankWithScore(t *testing.T) {
	e := newTestEngine(t, testConfig(),
		index.Document{ID: 1, Attributes: map[string]string{"title": "red shoes"}},
	)
	res, err := e.Rank(context.Background(), "red shoes", Options{WithScore: true, WithScoreDetails: true})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	require.NotNil(t, res.Hits[0].Score)
	assert.Greater(t, *res.Hits[0].Score, 0.0)
	assert.LessOrEqual(t, *res.Hits[0].Score, 1.0)
	assert.Contains(t, res.Hits[0].ScoreDetails, "words")
}

func TestRankEmptyQuery(t *testing.T) {
	e := newTestEngine(t, testConfig(),
		index.Document{ID: 1, Attributes: map[string]string{"title": "red shoes"}},
	)
	res, err := e.Rank(context.Background(), "   ", Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
	assert.Zero(t, res.TotalHits)
}

func TestRankTypoRanksBelowExact(t *testing.T) {
	e := newTestEngine(t, testConfig(),
		index.Document{ID: 1, Attributes: map[string]string{"title": "saturdey night"}},
		index.Document{ID: 2, Attributes: map[string]string{"title": "saturday night"}},
	)
	res, err := e.Rank(context.Background(), "saturday night", Options{})
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 1}, hitIDs(res))
}
