package mesh

import (
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// AddToGroup adds entities to group, creating it if needed.
func (m *Mesh) AddToGroup(group string, hs ...ir.Handle) error {
	group = ir.NormalizeName(group)
	if group == "" {
		return fmt.Errorf("group name is empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range hs {
		if _, err := m.entityLocked(h); err != nil {
			return fmt.Errorf("add to group %q: %w", group, err)
		}
	}
	bm := m.groupLocked(group)
	for _, h := range hs {
		bm.Add(uint32(h))
	}
	return nil
}

// AddRangeToGroup adds every entity of space s whose identifier lies in
// ranges and returns how many were added. Identifiers in the ranges that
// no entity holds are skipped.
func (m *Mesh) AddRangeToGroup(group string, s ir.Space, ranges ir.Ranges) (int, error) {
	group = ir.NormalizeName(group)
	if group == "" {
		return 0, fmt.Errorf("group name is empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bm := m.groupLocked(group)
	added := 0
	for i, e := range m.entities {
		if e.id.Space == s && ranges.Contains(e.id.Number) {
			if bm.CheckedAdd(uint32(i + 1)) {
				added++
			}
		}
	}
	return added, nil
}

// RemoveFromGroup removes entities from group.
func (m *Mesh) RemoveFromGroup(group string, hs ...ir.Handle) {
	group = ir.NormalizeName(group)
	m.mu.Lock()
	defer m.mu.Unlock()
	if bm, ok := m.groups[group]; ok {
		for _, h := range hs {
			bm.Remove(uint32(h))
		}
	}
}

// Groups returns the group names in sorted order.
func (m *Mesh) Groups() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.groups))
	for name := range m.groups {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// GroupHandles returns every member of group, of any space, in handle
// order.
func (m *Mesh) GroupHandles(group string) []ir.Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bm, ok := m.groups[ir.NormalizeName(group)]
	if !ok {
		return nil
	}
	hs := make([]ir.Handle, 0, bm.GetCardinality())
	for _, v := range bm.ToArray() {
		hs = append(hs, ir.Handle(v))
	}
	return hs
}

func (m *Mesh) groupLocked(group string) *roaring.Bitmap {
	bm, ok := m.groups[group]
	if !ok {
		bm = roaring.New()
		m.groups[group] = bm
	}
	return bm
}
