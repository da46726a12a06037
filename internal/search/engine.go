// Package search wires the query pipeline together: expansion, candidate
// matching, strategy relaxation, scoring, and the bucket sort, in that
// order. The Engine is stateless across queries and safe for concurrent use.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/tidesearch/tidesearch/internal/expand"
	"github.com/tidesearch/tidesearch/internal/index"
	"github.com/tidesearch/tidesearch/internal/matcher"
	"github.com/tidesearch/tidesearch/internal/ranking"
	"github.com/tidesearch/tidesearch/internal/strategy"
	"github.com/tidesearch/tidesearch/internal/tokenizer"
	"github.com/tidesearch/tidesearch/pkg/config"
	apperrors "github.com/tidesearch/tidesearch/pkg/errors"
	"github.com/tidesearch/tidesearch/pkg/metrics"
	"github.com/tidesearch/tidesearch/pkg/tracing"
)

// SortSpec is a query-time sort request on a sortable field.
type SortSpec struct {
	Field      string
	Descending bool
}

// Options controls one ranked query.
type Options struct {
	Limit            int
	Offset           int
	Strategy         strategy.Mode
	Sort             *SortSpec
	WithScore        bool
	WithScoreDetails bool
	// ExhaustiveCount forces the pipeline to fully order every candidate
	// instead of stopping once the requested page is resolved.
	ExhaustiveCount bool
}

// Hit is one ranked document.
type Hit struct {
	ID           uint32             `json:"id"`
	Score        *float64           `json:"score,omitempty"`
	ScoreDetails map[string]float64 `json:"scoreDetails,omitempty"`
}

// Result is the outcome of one ranked query.
type Result struct {
	Hits            []Hit         `json:"hits"`
	TotalHits       int           `json:"totalHits"`
	ExhaustiveTotal bool          `json:"exhaustiveTotal"`
	CutoffReached   bool          `json:"cutoffReached,omitempty"`
	Truncated       bool          `json:"truncated,omitempty"`
	Retries         int           `json:"retries,omitempty"`
	ProcessingTime  time.Duration `json:"-"`
}

// Engine executes ranked queries against an index snapshot.
type Engine struct {
	cfg      *config.Config
	idx      index.Reader
	docs     index.DocumentReader
	expander *expand.Expander
	matcher  *matcher.Matcher
	scorer   *ranking.Scorer
	pipeline *ranking.Pipeline
	rules    []ranking.Rule
	sortable map[string]struct{}
	metrics  *metrics.Metrics
	pool     *ants.Pool
	logger   *slog.Logger
}

// New builds an Engine from a validated configuration. docs may be nil when
// no sortable fields are configured. m may be nil in tests.
func New(cfg *config.Config, idx index.Reader, docs index.DocumentReader, m *metrics.Metrics) (*Engine, error) {
	rules, err := ranking.ParseRules(cfg.Ranking.Rules)
	if err != nil {
		return nil, fmt.Errorf("parsing ranking rules: %w", err)
	}
	pool, err := ants.NewPool(runtime.GOMAXPROCS(0))
	if err != nil {
		return nil, fmt.Errorf("creating score worker pool: %w", err)
	}
	tok := tokenizer.New(cfg.Ranking)
	e := &Engine{
		cfg:      cfg,
		idx:      idx,
		docs:     docs,
		expander: expand.New(tok, &cfg.Ranking, idx),
		matcher:  matcher.New(idx, &cfg.Ranking),
		scorer:   ranking.NewScorer(&cfg.Ranking, idx, pool),
		pipeline: ranking.NewPipeline(rules, cfg.Search.RankingCutoff),
		rules:    rules,
		sortable: make(map[string]struct{}, len(cfg.Ranking.SortableAttributes)),
		metrics:  m,
		pool:     pool,
		logger:   slog.Default().With("component", "search-engine"),
	}
	for _, f := range cfg.Ranking.SortableAttributes {
		e.sortable[f] = struct{}{}
	}
	return e, nil
}

// Close releases the score worker pool.
func (e *Engine) Close() {
	e.pool.Release()
}

// Rank runs the full pipeline for one query string.
func (e *Engine) Rank(ctx context.Context, raw string, opts Options) (*Result, error) {
	start := time.Now()
	ctx, span := tracing.StartChildSpan(ctx, "engine.rank")
	defer span.End()

	if err := e.normalizeOptions(&opts); err != nil {
		e.observe("error", opts, time.Since(start))
		return nil, err
	}

	q := e.expander.Expand(raw)
	span.SetAttr("terms", len(q.Tokens))
	if e.metrics != nil {
		e.metrics.QueryTermCount.Observe(float64(len(q.Tokens)))
	}
	if len(q.Tokens) == 0 {
		e.observe("zero_result", opts, time.Since(start))
		return &Result{Hits: []Hit{}, ExhaustiveTotal: true, Truncated: q.Truncated,
			ProcessingTime: time.Since(start)}, nil
	}

	facts, order, retries, err := e.gatherCandidates(ctx, q, opts)
	if err != nil {
		e.observe("error", opts, time.Since(start))
		return nil, err
	}

	if len(q.Negated) > 0 {
		excluded := e.matcher.ResolveNegated(q.Negated)
		order = dropExcluded(facts, order, excluded)
	}

	span.SetAttr("candidates", len(order))
	if e.metrics != nil {
		e.metrics.QueryCandidates.Observe(float64(len(order)))
	}
	if len(order) == 0 {
		e.observe("zero_result", opts, time.Since(start))
		return &Result{Hits: []Hit{}, ExhaustiveTotal: true, Truncated: q.Truncated,
			Retries: retries, ProcessingTime: time.Since(start)}, nil
	}

	sortValues, customValues, err := e.prefetchFields(ctx, order, opts)
	if err != nil {
		e.observe("error", opts, time.Since(start))
		return nil, err
	}

	scores := e.scorer.Score(ctx, facts, order, len(q.Tokens), sortValues, customValues)

	resolved := 0
	if !opts.ExhaustiveCount && !e.cfg.Search.ExhaustiveHitCount {
		resolved = opts.Offset + opts.Limit
	}
	var hasSort, sortDesc bool
	if opts.Sort != nil {
		hasSort, sortDesc = true, opts.Sort.Descending
	}
	sorted := e.pipeline.Sort(scores, hasSort, sortDesc, resolved)
	span.SetAttr("max_depth", sorted.MaxDepth)
	if e.metrics != nil {
		e.metrics.BucketDepth.Observe(float64(sorted.MaxDepth))
		if sorted.CutoffReached {
			e.metrics.RankingCutoffTotal.Inc()
		}
	}

	res := &Result{
		Hits:            e.page(sorted.Ordered, q, opts),
		TotalHits:       len(order),
		ExhaustiveTotal: resolved == 0 || len(order) <= resolved,
		CutoffReached:   sorted.CutoffReached,
		Truncated:       q.Truncated,
		Retries:         retries,
		ProcessingTime:  time.Since(start),
	}

	outcome := "ok"
	if sorted.CutoffReached {
		outcome = "cutoff"
	}
	e.observe(outcome, opts, res.ProcessingTime)
	e.logger.Debug("query ranked",
		"terms", len(q.Tokens),
		"candidates", len(order),
		"hits", len(res.Hits),
		"retries", retries,
		"cutoff", sorted.CutoffReached,
		"took", res.ProcessingTime)
	return res, nil
}

// gatherCandidates runs the matching loop. Each relaxation retry drops one
// term per the strategy and re-resolves; documents found by an earlier,
// stricter pass keep their original facts, so they carry more matched words
// and outrank anything a later pass adds.
func (e *Engine) gatherCandidates(ctx context.Context, q *expand.Query, opts Options) (map[uint32]*matcher.DocFacts, []uint32, int, error) {
	tokens := q.Tokens
	slots := make([]int, len(tokens))
	words := make([]string, len(tokens))
	for i, t := range tokens {
		slots[i] = i
		words[i] = t.Lemma
	}

	ctrl := strategy.NewController(opts.Strategy, e.idx.Frequency)
	need := opts.Offset + opts.Limit
	facts := make(map[uint32]*matcher.DocFacts)
	var order []uint32
	retries := 0

	interps := q.Interpretations
	for {
		set, err := e.matcher.Match(ctx, interps, slots)
		if err != nil {
			return nil, nil, retries, err
		}
		for _, id := range set.FullMatches() {
			if _, seen := facts[id]; seen {
				continue
			}
			facts[id] = set.Docs[id]
			order = append(order, id)
		}

		if len(order) >= need || retries >= len(q.Tokens)-1 {
			break
		}
		drop := ctrl.Drop(words)
		if drop < 0 {
			break
		}
		tokens = append(tokens[:drop:drop], tokens[drop+1:]...)
		slots = append(slots[:drop:drop], slots[drop+1:]...)
		words = append(words[:drop:drop], words[drop+1:]...)
		retries++
		interps = e.expander.Interpret(tokens, slots)
	}

	if e.metrics != nil {
		e.metrics.RelaxationRetries.Observe(float64(retries))
	}
	return facts, order, retries, nil
}

func (e *Engine) prefetchFields(ctx context.Context, order []uint32, opts Options) (map[uint32]index.FieldValue, []map[uint32]index.FieldValue, error) {
	var sortValues map[uint32]index.FieldValue
	if opts.Sort != nil && e.docs != nil {
		var err error
		sortValues, err = e.docs.FieldValues(ctx, order, opts.Sort.Field)
		if err != nil {
			return nil, nil, fmt.Errorf("fetching sort field %q: %w", opts.Sort.Field, err)
		}
	}
	fields := ranking.CustomFields(e.rules)
	var customValues []map[uint32]index.FieldValue
	if len(fields) > 0 && e.docs != nil {
		customValues = make([]map[uint32]index.FieldValue, len(fields))
		for i, f := range fields {
			values, err := e.docs.FieldValues(ctx, order, f)
			if err != nil {
				return nil, nil, fmt.Errorf("fetching custom sort field %q: %w", f, err)
			}
			customValues[i] = values
		}
	}
	return sortValues, customValues, nil
}

func (e *Engine) page(ordered []*ranking.DocScore, q *expand.Query, opts Options) []Hit {
	lo := opts.Offset
	if lo > len(ordered) {
		lo = len(ordered)
	}
	hi := lo + opts.Limit
	if hi > len(ordered) {
		hi = len(ordered)
	}
	hits := make([]Hit, 0, hi-lo)
	for _, sc := range ordered[lo:hi] {
		h := Hit{ID: sc.DocID}
		if opts.WithScore {
			s := ranking.GlobalScore(e.rules, sc, len(q.Tokens))
			h.Score = &s
		}
		if opts.WithScoreDetails {
			h.ScoreDetails = ranking.ScoreDetails(e.rules, sc, len(q.Tokens))
		}
		hits = append(hits, h)
	}
	return hits
}

func (e *Engine) normalizeOptions(opts *Options) error {
	if opts.Limit <= 0 {
		opts.Limit = e.cfg.Search.DefaultLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if max := e.cfg.Search.MaxResults; opts.Offset+opts.Limit > max {
		if opts.Offset >= max {
			opts.Offset = max
			opts.Limit = 0
		} else {
			opts.Limit = max - opts.Offset
		}
	}
	if opts.Sort != nil {
		if _, ok := e.sortable[opts.Sort.Field]; !ok {
			return fmt.Errorf("%w: %q", apperrors.ErrUnsortableField, opts.Sort.Field)
		}
	}
	return nil
}

func (e *Engine) observe(outcome string, opts Options, took time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.QueriesTotal.WithLabelValues(outcome).Inc()
	e.metrics.QueryLatency.WithLabelValues(opts.Strategy.String()).Observe(took.Seconds())
}

func dropExcluded(facts map[uint32]*matcher.DocFacts, order []uint32, excluded map[uint32]struct{}) []uint32 {
	if len(excluded) == 0 {
		return order
	}
	kept := order[:0]
	for _, id := range order {
		if _, out := excluded[id]; out {
			delete(facts, id)
			continue
		}
		kept = append(kept, id)
	}
	return kept
}
