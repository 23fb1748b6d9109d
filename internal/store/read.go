package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// CountMembers returns the number of members of group in space s. An
// unknown group has no members; group "" holds every entity.
func (s *Store) CountMembers(ctx context.Context, group string, sp ir.Space) (int, error) {
	group = ir.NormalizeName(group)
	var n int
	var err error
	if group == "" {
		err = s.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM entities WHERE kind = ? AND tag = ?
		`, sp.Kind, sp.Tag).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM entities e JOIN group_members g ON g.handle = e.handle
			WHERE g.name = ? AND e.kind = ? AND e.tag = ?
		`, group, sp.Kind, sp.Tag).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

// Members returns the members of group in space s in ascending identifier
// order.
func (s *Store) Members(ctx context.Context, group string, sp ir.Space) ([]ir.Handle, error) {
	group = ir.NormalizeName(group)
	var rows *sql.Rows
	var err error
	if group == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT handle FROM entities
			WHERE kind = ? AND tag = ?
			ORDER BY number ASC
		`, sp.Kind, sp.Tag)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT e.handle
			FROM entities e JOIN group_members g ON g.handle = e.handle
			WHERE g.name = ? AND e.kind = ? AND e.tag = ?
			ORDER BY e.number ASC
		`, group, sp.Kind, sp.Tag)
	}
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	return scanHandles(rows)
}

// Identifier returns the current identifier of h.
func (s *Store) Identifier(ctx context.Context, h ir.Handle) (ir.Identifier, error) {
	var id ir.Identifier
	err := s.db.QueryRowContext(ctx, `
		SELECT kind, tag, number FROM entities WHERE handle = ?
	`, h).Scan(&id.Space.Kind, &id.Space.Tag, &id.Number)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Identifier{}, fmt.Errorf("handle %d: %w", h, ErrUnknownHandle)
	}
	if err != nil {
		return ir.Identifier{}, fmt.Errorf("read identifier: %w", err)
	}
	return id, nil
}

// Lookup finds the entity holding id.
func (s *Store) Lookup(ctx context.Context, id ir.Identifier) (ir.Handle, bool, error) {
	var h ir.Handle
	err := s.db.QueryRowContext(ctx, `
		SELECT handle FROM entities WHERE kind = ? AND tag = ? AND number = ?
	`, id.Space.Kind, id.Space.Tag, id.Number).Scan(&h)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup %s: %w", id, err)
	}
	return h, true, nil
}

// IsMember reports whether h belongs to group. Every entity belongs to "".
func (s *Store) IsMember(ctx context.Context, h ir.Handle, group string) (bool, error) {
	group = ir.NormalizeName(group)
	if group == "" {
		_, err := s.Identifier(ctx, h)
		return err == nil, err
	}
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM group_members WHERE name = ? AND handle = ?
	`, group, h).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return true, nil
}

// Shape returns the reference shape of an element, ShapeNone otherwise.
func (s *Store) Shape(ctx context.Context, h ir.Handle) (ir.Shape, error) {
	var shape ir.Shape
	err := s.db.QueryRowContext(ctx, `SELECT shape FROM entities WHERE handle = ?`, h).Scan(&shape)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.ShapeNone, fmt.Errorf("handle %d: %w", h, ErrUnknownHandle)
	}
	if err != nil {
		return ir.ShapeNone, fmt.Errorf("read shape: %w", err)
	}
	return shape, nil
}

// ElementNodes returns the corner node handles of an element.
func (s *Store) ElementNodes(ctx context.Context, h ir.Handle) ([]ir.Handle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT node FROM element_nodes WHERE element = ? ORDER BY position ASC
	`, h)
	if err != nil {
		return nil, fmt.Errorf("query element nodes: %w", err)
	}
	return scanHandles(rows)
}

// FieldNames returns the defined fields in sorted order.
func (s *Store) FieldNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// FieldComponents returns the component count of a defined field.
func (s *Store) FieldComponents(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.fields[ir.NormalizeName(name)]
	return n, ok
}

// Values returns the stored value of field name on h.
func (s *Store) Values(ctx context.Context, h ir.Handle, name string) ([]float64, bool, error) {
	var text string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM field_values WHERE handle = ? AND field = ?
	`, h, ir.NormalizeName(name)).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", name, err)
	}
	v, err := unmarshalValues(text)
	if err != nil {
		return nil, false, fmt.Errorf("read %s at handle %d: %w", name, h, err)
	}
	return v, true, nil
}

// Entity is one row of a listing.
type Entity struct {
	Handle     ir.Handle
	Identifier ir.Identifier
	Name       string
	Shape      ir.Shape
}

// Entities lists the members of group in space s in ascending identifier
// order.
func (s *Store) Entities(ctx context.Context, group string, sp ir.Space) ([]Entity, error) {
	group = ir.NormalizeName(group)
	query := `
		SELECT e.handle, e.kind, e.tag, e.number, COALESCE(e.name, ''), e.shape
		FROM entities e
		WHERE e.kind = ? AND e.tag = ?
		ORDER BY e.number ASC
	`
	args := []any{sp.Kind, sp.Tag}
	if group != "" {
		query = `
			SELECT e.handle, e.kind, e.tag, e.number, COALESCE(e.name, ''), e.shape
			FROM entities e JOIN group_members g ON g.handle = e.handle
			WHERE g.name = ? AND e.kind = ? AND e.tag = ?
			ORDER BY e.number ASC
		`
		args = []any{group, sp.Kind, sp.Tag}
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	entities := []Entity{}
	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.Handle, &e.Identifier.Space.Kind, &e.Identifier.Space.Tag,
			&e.Identifier.Number, &e.Name, &e.Shape); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return entities, nil
}

// Groups returns every group name in sorted order.
func (s *Store) Groups(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT name FROM group_members ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()
	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return names, nil
}

// Identifiers returns the current identifier of every entity.
func (s *Store) Identifiers(ctx context.Context) (map[ir.Handle]ir.Identifier, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT handle, kind, tag, number FROM entities`)
	if err != nil {
		return nil, fmt.Errorf("query identifiers: %w", err)
	}
	defer rows.Close()
	ids := make(map[ir.Handle]ir.Identifier)
	for rows.Next() {
		var h ir.Handle
		var id ir.Identifier
		if err := rows.Scan(&h, &id.Space.Kind, &id.Space.Tag, &id.Number); err != nil {
			return nil, fmt.Errorf("scan identifier: %w", err)
		}
		ids[h] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identifiers: %w", err)
	}
	return ids, nil
}

// Fingerprint hashes the identifier of every entity.
func (s *Store) Fingerprint(ctx context.Context) (string, error) {
	ids, err := s.Identifiers(ctx)
	if err != nil {
		return "", err
	}
	return ir.Fingerprint(ids)
}

func scanHandles(rows *sql.Rows) ([]ir.Handle, error) {
	defer rows.Close()
	var hs []ir.Handle
	for rows.Next() {
		var h ir.Handle
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan handle: %w", err)
		}
		hs = append(hs, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate handles: %w", err)
	}
	return hs, nil
}
