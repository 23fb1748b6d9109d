package mesh

import (
	"context"
	"fmt"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// CountMembers returns the number of members of group in space s. An
// unknown group has no members; group "" holds every entity.
func (m *Mesh) CountMembers(ctx context.Context, group string, s ir.Space) (int, error) {
	hs, err := m.Members(ctx, group, s)
	return len(hs), err
}

// Members returns the members of group in space s in ascending identifier
// order.
func (m *Mesh) Members(_ context.Context, group string, s ir.Space) ([]ir.Handle, error) {
	group = ir.NormalizeName(group)
	if group == "" {
		return m.Handles(s), nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	bm, ok := m.groups[group]
	if !ok {
		return nil, nil
	}
	var hs []ir.Handle
	it := bm.Iterator()
	for it.HasNext() {
		h := ir.Handle(it.Next())
		if m.entities[h-1].id.Space == s {
			hs = append(hs, h)
		}
	}
	m.sortByNumberLocked(hs)
	return hs, nil
}

// Identifier returns the current identifier of h.
func (m *Mesh) Identifier(_ context.Context, h ir.Handle) (ir.Identifier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, err := m.entityLocked(h)
	if err != nil {
		return ir.Identifier{}, err
	}
	return e.id, nil
}

// Lookup finds the entity holding id.
func (m *Mesh) Lookup(_ context.Context, id ir.Identifier) (ir.Handle, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.index[id]
	return h, ok, nil
}

// IsMember reports whether h belongs to group. Every entity belongs to "".
func (m *Mesh) IsMember(_ context.Context, h ir.Handle, group string) (bool, error) {
	group = ir.NormalizeName(group)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, err := m.entityLocked(h); err != nil {
		return false, err
	}
	if group == "" {
		return true, nil
	}
	bm, ok := m.groups[group]
	return ok && bm.Contains(uint32(h)), nil
}

// ChangeIdentifier relabels h to id. It fails with ErrIdentifierInUse,
// changing nothing, when another entity holds id.
func (m *Mesh) ChangeIdentifier(_ context.Context, h ir.Handle, id ir.Identifier) error {
	m.mu.Lock()
	e, err := m.entityLocked(h)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if id.Space != e.id.Space {
		m.mu.Unlock()
		return fmt.Errorf("change %s to %s: space mismatch", e.id, id)
	}
	if id == e.id {
		m.mu.Unlock()
		return nil
	}
	if _, taken := m.index[id]; taken {
		m.mu.Unlock()
		return fmt.Errorf("change %s to %s: %w", e.id, id, ErrIdentifierInUse)
	}
	from := e.id
	delete(m.index, from)
	m.index[id] = h
	e.id = id
	m.mu.Unlock()

	m.bracket.Record(m.bracket.Stamp(id.Space), ir.Change{Handle: h, From: from, To: id})
	return nil
}

// Shape returns the reference shape of an element, ShapeNone otherwise.
func (m *Mesh) Shape(_ context.Context, h ir.Handle) (ir.Shape, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, err := m.entityLocked(h)
	if err != nil {
		return ir.ShapeNone, err
	}
	return e.shape, nil
}

// BeginBatch opens or nests the change bracket of space s.
func (m *Mesh) BeginBatch(_ context.Context, s ir.Space) error {
	m.bracket.Begin(s)
	return nil
}

// EndBatch closes one level of the change bracket of space s.
func (m *Mesh) EndBatch(_ context.Context, s ir.Space) error {
	return m.bracket.End(s)
}
