package index

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/tidesearch/tidesearch/internal/tokenizer"
)

// Document is the input unit for the in-memory snapshot: searchable
// attributes map to text, Fields holds sortable values.
type Document struct {
	ID         uint32            `json:"id"`
	Attributes map[string]string `json:"attributes"`
	Fields     map[string]any    `json:"fields,omitempty"`
}

// MemIndex is an in-memory Reader and DocumentReader. Documents are added
// during bootstrap; afterwards the index is an immutable snapshot shared by
// concurrent queries.
type MemIndex struct {
	mu         sync.RWMutex
	postings   map[string]map[uint32]map[string]*Posting // term -> doc -> attribute
	attrCounts map[uint32]map[string]int
	fields     map[uint32]map[string]FieldValue
	docs       map[uint32]struct{}
	terms      []string
	dirty      bool
	rev        uint64
}

// NewMemIndex creates an empty snapshot with the given revision.
func NewMemIndex(rev uint64) *MemIndex {
	return &MemIndex{
		postings:   make(map[string]map[uint32]map[string]*Posting),
		attrCounts: make(map[uint32]map[string]int),
		fields:     make(map[uint32]map[string]FieldValue),
		docs:       make(map[uint32]struct{}),
		rev:        rev,
	}
}

// Add tokenizes every attribute of doc and records postings with cumulative
// positions. Sortable field values are coerced to their FieldValue form.
func (m *MemIndex) Add(doc Document, tok *tokenizer.Tokenizer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[doc.ID] = struct{}{}
	counts := make(map[string]int, len(doc.Attributes))
	for attr, text := range doc.Attributes {
		tokens := tok.Tokenize(text)
		counts[attr] = len(tokens)
		for _, t := range tokens {
			byDoc, ok := m.postings[t.Lemma]
			if !ok {
				byDoc = make(map[uint32]map[string]*Posting)
				m.postings[t.Lemma] = byDoc
				m.dirty = true
			}
			byAttr, ok := byDoc[doc.ID]
			if !ok {
				byAttr = make(map[string]*Posting)
				byDoc[doc.ID] = byAttr
			}
			p, ok := byAttr[attr]
			if !ok {
				p = &Posting{DocID: doc.ID, Attribute: attr}
				byAttr[attr] = p
			}
			p.Positions = append(p.Positions, t.Position)
		}
	}
	m.attrCounts[doc.ID] = counts

	if len(doc.Fields) > 0 {
		values := make(map[string]FieldValue, len(doc.Fields))
		for field, raw := range doc.Fields {
			if v, ok := coerceField(raw); ok {
				values[field] = v
			}
		}
		m.fields[doc.ID] = values
	}
}

// Postings returns postings for term ordered by (DocID, Attribute).
func (m *MemIndex) Postings(term string) PostingList {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byDoc, ok := m.postings[term]
	if !ok {
		return nil
	}
	result := make(PostingList, 0, len(byDoc))
	for _, byAttr := range byDoc {
		for _, p := range byAttr {
			cp := *p
			cp.Positions = append([]int(nil), p.Positions...)
			sort.Ints(cp.Positions)
			result = append(result, cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DocID != result[j].DocID {
			return result[i].DocID < result[j].DocID
		}
		return result[i].Attribute < result[j].Attribute
	})
	return result
}

// Terms returns the sorted term dictionary.
func (m *MemIndex) Terms() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dirty {
		m.terms = make([]string, 0, len(m.postings))
		for term := range m.postings {
			m.terms = append(m.terms, term)
		}
		sort.Strings(m.terms)
		m.dirty = false
	}
	return m.terms
}

// TermsWithPrefix returns dictionary terms beginning with prefix.
func (m *MemIndex) TermsWithPrefix(prefix string) []string {
	terms := m.Terms()
	lo := sort.SearchStrings(terms, prefix)
	hi := lo
	for hi < len(terms) && strings.HasPrefix(terms[hi], prefix) {
		hi++
	}
	return terms[lo:hi]
}

// Frequency returns the number of documents containing term.
func (m *MemIndex) Frequency(term string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.postings[term])
}

// AttributeTokenCount returns the token count of one document attribute.
func (m *MemIndex) AttributeTokenCount(docID uint32, attribute string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts, ok := m.attrCounts[docID]
	if !ok {
		return 0, false
	}
	n, ok := counts[attribute]
	return n, ok
}

// HasDocument reports whether docID exists in the snapshot.
func (m *MemIndex) HasDocument(docID uint32) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.docs[docID]
	return ok
}

// Revision identifies this snapshot.
func (m *MemIndex) Revision() uint64 {
	return m.rev
}

// DocCount returns the number of documents in the snapshot.
func (m *MemIndex) DocCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// FieldValues implements DocumentReader against the in-memory field store.
func (m *MemIndex) FieldValues(_ context.Context, docIDs []uint32, field string) (map[uint32]FieldValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[uint32]FieldValue, len(docIDs))
	for _, id := range docIDs {
		if values, ok := m.fields[id]; ok {
			if v, ok := values[field]; ok {
				result[id] = v
			}
		}
	}
	return result, nil
}

// coerceField maps raw JSON/Go values onto FieldValue. Unsupported types are
// dropped rather than failing the document.
func coerceField(raw any) (FieldValue, bool) {
	switch v := raw.(type) {
	case float64:
		return FieldValue{Kind: FieldNumber, Num: v}, true
	case int:
		return FieldValue{Kind: FieldNumber, Num: float64(v)}, true
	case int64:
		return FieldValue{Kind: FieldNumber, Num: float64(v)}, true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return FieldValue{Kind: FieldNumber, Num: f}, true
		}
		return FieldValue{Kind: FieldString, Str: v.String()}, true
	case string:
		return FieldValue{Kind: FieldString, Str: v}, true
	default:
		return FieldValue{}, false
	}
}
