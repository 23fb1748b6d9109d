package mesh

import (
	"context"
	"fmt"
	"slices"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// DefineField declares a stored field with a fixed number of components.
func (m *Mesh) DefineField(name string, components int) error {
	name = ir.NormalizeName(name)
	if err := ir.ValidateFieldName(name); err != nil {
		return err
	}
	if components < 1 {
		return fmt.Errorf("field %q: components must be positive", name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.fields[name]; ok && n != components {
		return fmt.Errorf("field %q already defined with %d components", name, n)
	}
	m.fields[name] = components
	return nil
}

// SetValues stores the value of a field on one entity.
func (m *Mesh) SetValues(h ir.Handle, name string, values []float64) error {
	name = ir.NormalizeName(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.fields[name]
	if !ok {
		return fmt.Errorf("set %q: %w", name, ErrUnknownField)
	}
	if len(values) != n {
		return fmt.Errorf("set %q: got %d components, want %d", name, len(values), n)
	}
	e, err := m.entityLocked(h)
	if err != nil {
		return err
	}
	if e.values == nil {
		e.values = make(map[string][]float64)
	}
	e.values[name] = slices.Clone(values)
	return nil
}

// FieldNames returns the defined fields in sorted order.
func (m *Mesh) FieldNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.fields))
	for name := range m.fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// FieldComponents returns the component count of a defined field.
func (m *Mesh) FieldComponents(name string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.fields[ir.NormalizeName(name)]
	return n, ok
}

// Values returns the stored value of field name on h. ok is false when the
// entity carries no value for it.
func (m *Mesh) Values(_ context.Context, h ir.Handle, name string) ([]float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, err := m.entityLocked(h)
	if err != nil {
		return nil, false, err
	}
	v, ok := e.values[ir.NormalizeName(name)]
	return slices.Clone(v), ok, nil
}
