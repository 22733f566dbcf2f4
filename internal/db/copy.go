package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Record is a row that knows its values in COPY column order.
type Record interface {
	CopyValues() []any
}

// RecordSource implements pgx.CopyFromSource over a slice of records.
type RecordSource[T Record] struct {
	rows []T
	pos  int
}

// NewRecordSource creates a CopyFromSource backed by rows.
func NewRecordSource[T Record](rows []T) *RecordSource[T] {
	return &RecordSource[T]{rows: rows, pos: -1}
}

// Next advances to the next row. Returns false after the last row.
func (s *RecordSource[T]) Next() bool {
	s.pos++
	return s.pos < len(s.rows)
}

// Values returns the current row's values in COPY column order.
func (s *RecordSource[T]) Values() ([]any, error) {
	return s.rows[s.pos].CopyValues(), nil
}

func (s *RecordSource[T]) Err() error {
	return nil
}

// CopyRecords COPY-loads rows into table within tx and checks the row count.
func CopyRecords[T Record](ctx context.Context, tx pgx.Tx, table pgx.Identifier, columns []string, rows []T) (int64, error) {
	n, err := tx.CopyFrom(ctx, table, columns, NewRecordSource(rows))
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", table.Sanitize(), err)
	}
	if n != int64(len(rows)) {
		return n, fmt.Errorf("copy into %s: wrote %d of %d rows", table.Sanitize(), n, len(rows))
	}
	return n, nil
}
