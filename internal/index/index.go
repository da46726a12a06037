// Package index defines the read interface the ranking engine consumes from
// the storage/indexing collaborator: an inverted index keyed by normalized
// term, a term-frequency dictionary, per-attribute token counts, and
// per-document field values for sorting. MemIndex is an in-memory snapshot
// implementation used by searchd and the tests; building and persisting a
// production index lives outside this module.
package index

import "context"

// Posting records every occurrence of one term within one attribute of one
// document. Positions are cumulative tokenizer positions, so position deltas
// carry separator gap weights.
type Posting struct {
	DocID     uint32
	Attribute string
	Positions []int
}

// PostingList is a slice of postings, ordered by (DocID, Attribute).
type PostingList []Posting

// Reader is the inverted-index snapshot the ranking engine reads. All
// methods must be safe for concurrent use and must not block on network or
// disk; implementations back them with snapshot-isolated structures.
type Reader interface {
	// Postings returns all postings for an exact normalized term.
	Postings(term string) PostingList
	// Terms returns the term dictionary in lexicographic order.
	Terms() []string
	// TermsWithPrefix returns dictionary terms beginning with prefix, in
	// lexicographic order.
	TermsWithPrefix(prefix string) []string
	// Frequency returns the number of documents containing the term. It
	// drives split decisions and the frequency matching strategy.
	Frequency(term string) int
	// AttributeTokenCount returns the token count of one attribute of one
	// document, used by the exactness rule. ok is false when the document
	// or attribute is unknown.
	AttributeTokenCount(docID uint32, attribute string) (int, bool)
	// HasDocument reports whether the document id exists in the snapshot.
	HasDocument(docID uint32) bool
	// Revision identifies the snapshot for cache keying.
	Revision() uint64
}

// FieldKind tags a sortable field value.
type FieldKind uint8

const (
	FieldMissing FieldKind = iota
	FieldNumber
	FieldString
)

// FieldValue is a typed per-document field value used by the sort and
// custom-sort rules.
type FieldValue struct {
	Kind FieldKind
	Num  float64
	Str  string
}

// DocumentReader resolves per-document field values. Lookups are batched so
// the engine can prefetch every candidate's value before the bucket sort and
// never block mid-comparator. Documents absent from the result map simply
// have no value for the field.
type DocumentReader interface {
	FieldValues(ctx context.Context, docIDs []uint32, field string) (map[uint32]FieldValue, error)
}
