package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cmlibs/zinc-sub001/internal/ir"
	"github.com/cmlibs/zinc-sub001/internal/mesh"
)

var importOrder = []ir.Space{
	ir.NodeSpace, ir.DatapointSpace, ir.ElementSpace, ir.FaceSpace, ir.LineSpace,
}

// Import copies every entity, field value and group of m into the store
// in one transaction. It fails, importing nothing, if any identifier or
// entity name is already used in the store. It returns the number of
// entities added.
func (s *Store) Import(ctx context.Context, m *mesh.Mesh) (int, error) {
	handles := make(map[ir.Handle]ir.Handle, m.Len())
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, name := range m.FieldNames() {
			n, _ := m.FieldComponents(name)
			if have, ok := s.FieldComponents(name); ok {
				if have != n {
					return fmt.Errorf("import field %q: %d components, store has %d", name, n, have)
				}
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO fields (name, components) VALUES (?, ?)
			`, name, n); err != nil {
				return fmt.Errorf("import field %q: %w", name, err)
			}
		}
		for _, sp := range importOrder {
			for _, h := range m.Handles(sp) {
				nh, err := importEntity(ctx, tx, m, h, handles)
				if err != nil {
					return err
				}
				handles[h] = nh
			}
		}
		for _, group := range m.Groups() {
			for _, h := range m.GroupHandles(group) {
				if _, err := tx.ExecContext(ctx, `
					INSERT OR IGNORE INTO group_members (name, handle) VALUES (?, ?)
				`, group, handles[h]); err != nil {
					return fmt.Errorf("import group %q: %w", group, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := s.loadFields(); err != nil {
		return 0, err
	}
	return len(handles), nil
}

func importEntity(ctx context.Context, tx *sql.Tx, m *mesh.Mesh, h ir.Handle, handles map[ir.Handle]ir.Handle) (ir.Handle, error) {
	id, err := m.Identifier(ctx, h)
	if err != nil {
		return 0, err
	}
	shape, err := m.Shape(ctx, h)
	if err != nil {
		return 0, err
	}
	var name any
	if n := m.Name(h); n != "" {
		name = n
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO entities (kind, tag, number, name, shape) VALUES (?, ?, ?, ?, ?)
	`, id.Space.Kind, id.Space.Tag, id.Number, name, shape)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "entities.name") {
				return 0, fmt.Errorf("import %s: entity name %q already used", id, name)
			}
			return 0, fmt.Errorf("import %s: %w", id, ErrIdentifierInUse)
		}
		return 0, fmt.Errorf("import %s: %w", id, err)
	}
	last, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", id, err)
	}
	nh := ir.Handle(last)

	nodes, err := m.ElementNodes(ctx, h)
	if err != nil {
		return 0, err
	}
	for pos, n := range nodes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO element_nodes (element, position, node) VALUES (?, ?, ?)
		`, nh, pos, handles[n]); err != nil {
			return 0, fmt.Errorf("import %s nodes: %w", id, err)
		}
	}

	for _, field := range m.FieldNames() {
		v, ok, err := m.Values(ctx, h, field)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		text, err := marshalValues(v)
		if err != nil {
			return 0, fmt.Errorf("import %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO field_values (handle, field, value) VALUES (?, ?, ?)
		`, nh, field, text); err != nil {
			return 0, fmt.Errorf("import %s field %q: %w", id, field, err)
		}
	}
	return nh, nil
}

// Export builds an in-memory mesh holding the current contents of the
// store.
func (s *Store) Export(ctx context.Context) (*mesh.Mesh, error) {
	m := mesh.New()
	for _, name := range s.FieldNames() {
		n, _ := s.FieldComponents(name)
		if err := m.DefineField(name, n); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}

	handles := make(map[ir.Handle]ir.Handle)
	for _, sp := range importOrder {
		entities, err := s.Entities(ctx, "", sp)
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		for _, e := range entities {
			nh, err := s.exportEntity(ctx, m, e, handles)
			if err != nil {
				return nil, fmt.Errorf("export %s: %w", e.Identifier, err)
			}
			handles[e.Handle] = nh
		}
	}

	groups, err := s.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	for _, group := range groups {
		rows, err := s.db.QueryContext(ctx, `
			SELECT handle FROM group_members WHERE name = ? ORDER BY handle ASC
		`, group)
		if err != nil {
			return nil, fmt.Errorf("export group %q: %w", group, err)
		}
		hs, err := scanHandles(rows)
		if err != nil {
			return nil, fmt.Errorf("export group %q: %w", group, err)
		}
		members := make([]ir.Handle, len(hs))
		for i, h := range hs {
			members[i] = handles[h]
		}
		if err := m.AddToGroup(group, members...); err != nil {
			return nil, fmt.Errorf("export group %q: %w", group, err)
		}
	}
	return m, nil
}

func (s *Store) exportEntity(ctx context.Context, m *mesh.Mesh, e Entity, handles map[ir.Handle]ir.Handle) (ir.Handle, error) {
	var nh ir.Handle
	var err error
	switch e.Identifier.Space.Kind {
	case ir.KindNode:
		nh, err = m.AddNode(e.Identifier.Number)
	case ir.KindDatapoint:
		nh, err = m.AddDatapoint(e.Identifier.Number)
	default:
		var nodes []ir.Handle
		nodes, err = s.ElementNodes(ctx, e.Handle)
		if err != nil {
			return 0, err
		}
		for i, n := range nodes {
			nodes[i] = handles[n]
		}
		nh, err = m.AddElement(e.Identifier.Space.Tag, e.Identifier.Number, e.Shape, nodes)
	}
	if err != nil {
		return 0, err
	}
	if e.Name != "" {
		if err := m.SetName(nh, e.Name); err != nil {
			return 0, err
		}
	}
	for _, field := range s.FieldNames() {
		v, ok, err := s.Values(ctx, e.Handle, field)
		if err != nil {
			return 0, err
		}
		if ok {
			if err := m.SetValues(nh, field, v); err != nil {
				return 0, err
			}
		}
	}
	return nh, nil
}
