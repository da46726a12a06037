package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/tidesearch/tidesearch/internal/index"
)

// FieldReader resolves sortable field values from the document_fields table:
//
//	doc_id    bigint
//	field     text
//	num_value double precision
//	str_value text
//
// A row carries either num_value or str_value; rows absent for a document
// mean the field is missing there.
type FieldReader struct {
	client *Client
	logger *slog.Logger
}

func NewFieldReader(client *Client) *FieldReader {
	return &FieldReader{
		client: client,
		logger: slog.Default().With("component", "field-reader"),
	}
}

const fieldValuesQuery = `
SELECT doc_id, num_value, str_value
FROM document_fields
WHERE field = $1 AND doc_id = ANY($2)`

// FieldValues fetches the field's value for every listed document in one
// round trip. Documents without a row are simply absent from the result.
func (r *FieldReader) FieldValues(ctx context.Context, docIDs []uint32, field string) (map[uint32]index.FieldValue, error) {
	if len(docIDs) == 0 {
		return map[uint32]index.FieldValue{}, nil
	}
	ids := make([]int64, len(docIDs))
	for i, id := range docIDs {
		ids[i] = int64(id)
	}

	rows, err := r.client.DB.QueryContext(ctx, fieldValuesQuery, field, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("querying field %q: %w", field, err)
	}
	defer rows.Close()

	values := make(map[uint32]index.FieldValue, len(docIDs))
	for rows.Next() {
		var (
			docID int64
			num   sql.NullFloat64
			str   sql.NullString
		)
		if err := rows.Scan(&docID, &num, &str); err != nil {
			return nil, fmt.Errorf("scanning field row: %w", err)
		}
		switch {
		case num.Valid:
			values[uint32(docID)] = index.FieldValue{Kind: index.FieldNumber, Num: num.Float64}
		case str.Valid:
			values[uint32(docID)] = index.FieldValue{Kind: index.FieldString, Str: str.String}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating field rows: %w", err)
	}
	return values, nil
}
