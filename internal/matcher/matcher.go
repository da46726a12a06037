// Package matcher resolves query interpretations against the inverted index
// with typo tolerance and prefix matching, producing per-document match
// facts for the ranking pipeline.
//
// Typo budgets are keyed by word length through the configured oneTypo and
// twoTypos thresholds. Only the final query term may match by prefix. Term
// resolution is independent across terms and fans out on an errgroup; the
// merge into per-document facts is sequential and deterministic.
package matcher

import (
	"context"
	"log/slog"
	"runtime"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/tidesearch/tidesearch/internal/expand"
	"github.com/tidesearch/tidesearch/internal/index"
	"github.com/tidesearch/tidesearch/internal/tokenizer"
	"github.com/tidesearch/tidesearch/pkg/config"
)

// Matcher resolves terms against an index snapshot. It is immutable after
// construction and safe for concurrent queries.
type Matcher struct {
	idx           index.Reader
	cfg           *config.RankingConfig
	disabledWords map[string]struct{}
	disabledAttrs map[string]struct{}
	logger        *slog.Logger
}

// New builds a Matcher, normalizing the per-word typo exclusion list.
func New(idx index.Reader, cfg *config.RankingConfig) *Matcher {
	m := &Matcher{
		idx:           idx,
		cfg:           cfg,
		disabledWords: make(map[string]struct{}, len(cfg.Typo.DisableOnWords)),
		disabledAttrs: make(map[string]struct{}, len(cfg.Typo.DisableOnAttributes)),
		logger:        slog.Default().With("component", "candidate-matcher"),
	}
	for _, w := range cfg.Typo.DisableOnWords {
		m.disabledWords[tokenizer.Normalize(w)] = struct{}{}
	}
	for _, a := range cfg.Typo.DisableOnAttributes {
		m.disabledAttrs[a] = struct{}{}
	}
	return m
}

// Match resolves every term of every interpretation and merges the resulting
// candidates into one fact set. slots lists the original query slots this
// pass requires.
func (m *Matcher) Match(ctx context.Context, interps []expand.Interpretation, slots []int) (*Set, error) {
	type job struct {
		interp, term int
	}
	var jobs []job
	for i, interp := range interps {
		for j := range interp.Terms {
			jobs = append(jobs, job{interp: i, term: j})
		}
	}

	results := make([][]Candidate, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for k, jb := range jobs {
		k, jb := k, jb
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[k] = m.resolveTerm(interps[jb.interp].Terms[jb.term])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := &Set{Slots: slots, Docs: make(map[uint32]*DocFacts)}
	for _, candidates := range results {
		for _, c := range candidates {
			if !m.idx.HasDocument(c.DocID) {
				// Inconsistent candidate: drop it and keep going.
				m.logger.Debug("skipping candidate for unknown document",
					"doc_id", c.DocID, "attribute", c.Attribute)
				continue
			}
			if c.Typos > 0 {
				if _, off := m.disabledAttrs[c.Attribute]; off {
					continue
				}
			}
			set.merge(c)
		}
	}
	return set, nil
}

// ResolveNegated returns the ids of documents matching any negated term.
// Negated terms match exactly, with no typo tolerance.
func (m *Matcher) ResolveNegated(terms []expand.Term) map[uint32]struct{} {
	excluded := make(map[uint32]struct{})
	for _, t := range terms {
		var candidates []Candidate
		if len(t.Words) == 1 {
			for _, p := range m.idx.Postings(t.Words[0]) {
				candidates = append(candidates, Candidate{DocID: p.DocID})
			}
		} else {
			candidates = m.resolvePhrase(t)
		}
		for _, c := range candidates {
			excluded[c.DocID] = struct{}{}
		}
	}
	return excluded
}

func (m *Matcher) resolveTerm(t expand.Term) []Candidate {
	if len(t.Words) > 1 {
		return m.resolvePhrase(t)
	}
	return m.resolveWord(t)
}

// resolveWord finds exact, typo, and prefix matches for a single-word term.
func (m *Matcher) resolveWord(t expand.Term) []Candidate {
	word := t.Words[0]
	kind := MatchExact
	if t.Kind == expand.KindSynonym {
		kind = MatchSynonym
	}

	var out []Candidate
	for _, p := range m.idx.Postings(word) {
		out = append(out, m.candidate(p, 0, kind, t))
	}

	if budget := m.wordBudget(t); budget > 0 {
		out = append(out, m.typoMatches(word, budget, t)...)
	}

	if t.Prefix {
		for _, dictTerm := range m.idx.TermsWithPrefix(word) {
			if dictTerm == word {
				continue
			}
			for _, p := range m.idx.Postings(dictTerm) {
				out = append(out, m.candidate(p, 0, MatchPrefix, t))
			}
		}
	}
	return out
}

// typoMatches scans the dictionary for words within budget. With a budget
// below two the first character cannot differ, so the scan is narrowed to
// the query word's first rune.
func (m *Matcher) typoMatches(word string, budget int, t expand.Term) []Candidate {
	var dict []string
	if budget < 2 {
		first, _ := utf8.DecodeRuneInString(word)
		dict = m.idx.TermsWithPrefix(string(first))
	} else {
		dict = m.idx.Terms()
	}

	var out []Candidate
	for _, dictTerm := range dict {
		if dictTerm == word {
			continue
		}
		typos, ok := typoCost(word, dictTerm, budget)
		if !ok || typos == 0 {
			continue
		}
		for _, p := range m.idx.Postings(dictTerm) {
			out = append(out, m.candidate(p, typos, MatchExact, t))
		}
	}
	return out
}

// resolvePhrase matches a multi-word term (split halves, multi-word
// synonyms) as an ordered adjacent sequence: each word exact, consecutive
// positions one apart.
func (m *Matcher) resolvePhrase(t expand.Term) []Candidate {
	kind := MatchSynonym
	if t.Kind == expand.KindSplit {
		kind = MatchExact
	}

	// postings per word, grouped by (doc, attribute)
	type key struct {
		doc  uint32
		attr string
	}
	chains := make(map[key][]int) // start positions of live chains
	for i, word := range t.Words {
		positions := make(map[key][]int)
		for _, p := range m.idx.Postings(word) {
			positions[key{p.DocID, p.Attribute}] = p.Positions
		}
		if i == 0 {
			for k, pos := range positions {
				chains[k] = append([]int(nil), pos...)
			}
			continue
		}
		for k, starts := range chains {
			pos, ok := positions[k]
			if !ok {
				delete(chains, k)
				continue
			}
			var kept []int
			for _, start := range starts {
				if containsInt(pos, start+i) {
					kept = append(kept, start)
				}
			}
			if len(kept) == 0 {
				delete(chains, k)
				continue
			}
			chains[k] = kept
		}
	}

	out := make([]Candidate, 0, len(chains))
	for k, starts := range chains {
		out = append(out, Candidate{
			DocID:     k.doc,
			Attribute: k.attr,
			Positions: starts,
			Typos:     0,
			Kind:      kind,
			Start:     t.Start,
			End:       t.End,
		})
	}
	return out
}

// wordBudget applies the typo budget policy and its exclusions.
func (m *Matcher) wordBudget(t expand.Term) int {
	word := t.Words[0]
	if t.Kind == expand.KindSynonym {
		return 0
	}
	if m.cfg.Typo.DisableOnNumbers && isNumeric(word) {
		return 0
	}
	if _, off := m.disabledWords[word]; off {
		return 0
	}
	return m.cfg.TypoBudget(utf8.RuneCountInString(word))
}

func (m *Matcher) candidate(p index.Posting, typos int, kind MatchKind, t expand.Term) Candidate {
	return Candidate{
		DocID:     p.DocID,
		Attribute: p.Attribute,
		Positions: p.Positions,
		Typos:     typos,
		Kind:      kind,
		Start:     t.Start,
		End:       t.End,
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func containsInt(sorted []int, want int) bool {
	for _, v := range sorted {
		if v == want {
			return true
		}
		if v > want {
			return false
		}
	}
	return false
}
