package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// ChangeRecord is one row of the change log.
type ChangeRecord struct {
	Seq     int64
	BatchID string
	Change  ir.Change
}

// HistoryFilter narrows a History read. Zero fields match everything.
type HistoryFilter struct {
	BatchID string
	Handle  ir.Handle
	Space   ir.Space
	Limit   int
}

// History returns change log rows ordered by seq. With a Limit it returns
// the most recent rows, still in seq order.
func (s *Store) History(ctx context.Context, f HistoryFilter) ([]ChangeRecord, error) {
	var where []string
	var args []any
	if f.BatchID != "" {
		where = append(where, "batch_id = ?")
		args = append(args, f.BatchID)
	}
	if f.Handle.Valid() {
		where = append(where, "handle = ?")
		args = append(args, f.Handle)
	}
	if f.Space.Valid() {
		where = append(where, "kind = ? AND tag = ?")
		args = append(args, f.Space.Kind, f.Space.Tag)
	}

	query := `SELECT seq, batch_id, handle, kind, tag, old_number, new_number FROM identifier_changes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	records := []ChangeRecord{}
	for rows.Next() {
		var r ChangeRecord
		var sp ir.Space
		var from, to int64
		if err := rows.Scan(&r.Seq, &r.BatchID, &r.Change.Handle, &sp.Kind, &sp.Tag, &from, &to); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		r.Change.From = ir.ID(sp, from)
		r.Change.To = ir.ID(sp, to)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// LastSeq returns the seq of the most recent change (0 when none).
func (s *Store) LastSeq() int64 {
	return s.seq.current()
}
