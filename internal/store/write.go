package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// ChangeIdentifier relabels h to id and appends the change to the log in
// one transaction. It fails with ErrIdentifierInUse, changing nothing,
// when another entity holds id.
func (s *Store) ChangeIdentifier(ctx context.Context, h ir.Handle, id ir.Identifier) error {
	var change ir.Change
	var batchID string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var from ir.Identifier
		err := tx.QueryRowContext(ctx, `
			SELECT kind, tag, number FROM entities WHERE handle = ?
		`, h).Scan(&from.Space.Kind, &from.Space.Tag, &from.Number)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("change identifier: handle %d: %w", h, ErrUnknownHandle)
		}
		if err != nil {
			return fmt.Errorf("change identifier: %w", err)
		}
		if from.Space != id.Space {
			return fmt.Errorf("change %s to %s: space mismatch", from, id)
		}
		if from == id {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE entities SET number = ? WHERE handle = ?
		`, id.Number, h); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("change %s to %s: %w", from, id, ErrIdentifierInUse)
			}
			return fmt.Errorf("change %s to %s: %w", from, id, err)
		}

		batchID = s.bracket.Stamp(id.Space)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO identifier_changes
			(seq, batch_id, handle, kind, tag, old_number, new_number)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, s.seq.next(), batchID, h, id.Space.Kind, id.Space.Tag, from.Number, id.Number); err != nil {
			return fmt.Errorf("log change: %w", err)
		}
		change = ir.Change{Handle: h, From: from, To: id}
		return nil
	})
	if err != nil {
		return err
	}
	if change.Handle.Valid() {
		s.bracket.Record(batchID, change)
	}
	return nil
}

// BeginBatch opens or nests the change bracket of space sp.
func (s *Store) BeginBatch(_ context.Context, sp ir.Space) error {
	s.bracket.Begin(sp)
	return nil
}

// EndBatch closes one level of the change bracket of space sp.
func (s *Store) EndBatch(_ context.Context, sp ir.Space) error {
	return s.bracket.End(sp)
}

// DefineField declares a stored field.
func (s *Store) DefineField(ctx context.Context, name string, components int) error {
	name = ir.NormalizeName(name)
	if err := ir.ValidateFieldName(name); err != nil {
		return err
	}
	if components < 1 {
		return fmt.Errorf("field %q: components must be positive", name)
	}
	if n, ok := s.FieldComponents(name); ok {
		if n != components {
			return fmt.Errorf("field %q already defined with %d components", name, n)
		}
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO fields (name, components) VALUES (?, ?)
	`, name, components); err != nil {
		return fmt.Errorf("define field: %w", err)
	}
	s.mu.Lock()
	s.fields[name] = components
	s.mu.Unlock()
	return nil
}

// AddToGroup adds entities to group.
func (s *Store) AddToGroup(ctx context.Context, group string, hs ...ir.Handle) error {
	group = ir.NormalizeName(group)
	if group == "" {
		return fmt.Errorf("group name is empty")
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, h := range hs {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO group_members (name, handle) VALUES (?, ?)
			`, group, h); err != nil {
				return fmt.Errorf("add handle %d to group %q: %w", h, group, err)
			}
		}
		return nil
	})
}

// AddRangeToGroup adds every entity of space sp whose identifier lies in
// ranges and returns how many were added.
func (s *Store) AddRangeToGroup(ctx context.Context, group string, sp ir.Space, ranges ir.Ranges) (int, error) {
	group = ir.NormalizeName(group)
	if group == "" {
		return 0, fmt.Errorf("group name is empty")
	}
	added := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, r := range ranges {
			res, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO group_members (name, handle)
				SELECT ?, handle FROM entities
				WHERE kind = ? AND tag = ? AND number BETWEEN ? AND ?
			`, group, sp.Kind, sp.Tag, r.Start, r.Stop)
			if err != nil {
				return fmt.Errorf("add range %d..%d to group %q: %w", r.Start, r.Stop, group, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("add range to group %q: %w", group, err)
			}
			added += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}
