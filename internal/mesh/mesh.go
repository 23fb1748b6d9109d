// Package mesh is an in-memory keyed collection of nodes, datapoints and
// elements.
//
// A Mesh satisfies engine.Collection and field.Source. Entities are
// referred to by Handle, which never changes; identifiers are labels that
// can be changed with ChangeIdentifier. Groups are roaring bitmaps over
// handles, so a relabel never touches group membership.
package mesh

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"

	"github.com/cmlibs/zinc-sub001/internal/ir"
	"github.com/cmlibs/zinc-sub001/internal/notify"
)

var (
	// ErrIdentifierInUse is returned when an identifier is already held by
	// another entity of the same space.
	ErrIdentifierInUse = errors.New("identifier in use")

	// ErrUnknownHandle is returned for a handle that refers to nothing.
	ErrUnknownHandle = errors.New("unknown entity handle")

	// ErrUnknownField is returned for a field that is not defined.
	ErrUnknownField = errors.New("unknown field")
)

type entity struct {
	id     ir.Identifier
	name   string
	shape  ir.Shape
	nodes  []ir.Handle
	values map[string][]float64
}

// Mesh is an in-memory keyed collection.
//
// Thread-safety: all methods are safe for concurrent use. Change
// notifications are delivered without the mesh lock held.
type Mesh struct {
	mu       sync.RWMutex
	entities []*entity // index = handle-1
	index    map[ir.Identifier]ir.Handle
	names    map[string]ir.Handle
	fields   map[string]int
	groups   map[string]*roaring.Bitmap
	bracket  *notify.Bracket
}

// New creates an empty mesh.
func New() *Mesh {
	return &Mesh{
		index:   make(map[ir.Identifier]ir.Handle),
		names:   make(map[string]ir.Handle),
		fields:  make(map[string]int),
		groups:  make(map[string]*roaring.Bitmap),
		bracket: notify.New(newBatchID),
	}
}

func newBatchID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Subscribe registers fn for identifier change notifications.
func (m *Mesh) Subscribe(fn notify.Subscriber) {
	m.bracket.Subscribe(fn)
}

// AddNode adds a node with the given identifier number.
func (m *Mesh) AddNode(number int64) (ir.Handle, error) {
	return m.add(&entity{id: ir.ID(ir.NodeSpace, number)})
}

// AddDatapoint adds a datapoint with the given identifier number.
func (m *Mesh) AddDatapoint(number int64) (ir.Handle, error) {
	return m.add(&entity{id: ir.ID(ir.DatapointSpace, number)})
}

// AddElement adds an element of the given tag and shape. nodes are the
// handles of its corner nodes in reference order; they may be empty.
func (m *Mesh) AddElement(tag ir.Tag, number int64, shape ir.Shape, nodes []ir.Handle) (ir.Handle, error) {
	s := ir.Space{Kind: ir.KindElement, Tag: tag}
	if !s.Valid() {
		return 0, fmt.Errorf("add element %d: invalid tag %s", number, tag)
	}
	if len(nodes) > 0 && len(nodes) != shape.LinearNodes() {
		return 0, fmt.Errorf("add element %d: %s needs %d nodes, got %d",
			number, shape, shape.LinearNodes(), len(nodes))
	}
	m.mu.RLock()
	for _, n := range nodes {
		e, err := m.entityLocked(n)
		if err != nil {
			m.mu.RUnlock()
			return 0, fmt.Errorf("add element %d: %w", number, err)
		}
		if e.id.Space != ir.NodeSpace {
			m.mu.RUnlock()
			return 0, fmt.Errorf("add element %d: handle %d is not a node", number, n)
		}
	}
	m.mu.RUnlock()
	return m.add(&entity{id: ir.ID(s, number), shape: shape, nodes: slices.Clone(nodes)})
}

func (m *Mesh) add(e *entity) (ir.Handle, error) {
	if e.id.Number <= 0 {
		return 0, fmt.Errorf("add %s: identifier must be positive", e.id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.index[e.id]; taken {
		return 0, fmt.Errorf("add %s: %w", e.id, ErrIdentifierInUse)
	}
	m.entities = append(m.entities, e)
	h := ir.Handle(len(m.entities))
	m.index[e.id] = h
	return h, nil
}

// SetName attaches a unique label to an entity.
func (m *Mesh) SetName(h ir.Handle, name string) error {
	name = ir.NormalizeName(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.entityLocked(h)
	if err != nil {
		return err
	}
	if other, taken := m.names[name]; taken && other != h {
		return fmt.Errorf("entity name %q already used", name)
	}
	if e.name != "" {
		delete(m.names, e.name)
	}
	e.name = name
	m.names[name] = h
	return nil
}

// ByName returns the entity carrying name.
func (m *Mesh) ByName(name string) (ir.Handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.names[ir.NormalizeName(name)]
	return h, ok
}

// Name returns the label of h ("" when it has none).
func (m *Mesh) Name(h ir.Handle) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, err := m.entityLocked(h); err == nil {
		return e.name
	}
	return ""
}

// Len returns the number of entities of every kind.
func (m *Mesh) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entities)
}

// Handles returns every entity of space s in ascending identifier order.
func (m *Mesh) Handles(s ir.Space) []ir.Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handlesLocked(s)
}

// ElementNodes returns the corner node handles of an element.
func (m *Mesh) ElementNodes(_ context.Context, h ir.Handle) ([]ir.Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, err := m.entityLocked(h)
	if err != nil {
		return nil, err
	}
	return slices.Clone(e.nodes), nil
}

// Identifiers returns the current identifier of every entity.
func (m *Mesh) Identifiers() map[ir.Handle]ir.Identifier {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make(map[ir.Handle]ir.Identifier, len(m.entities))
	for i, e := range m.entities {
		ids[ir.Handle(i+1)] = e.id
	}
	return ids
}

// Fingerprint hashes the identifier of every entity.
func (m *Mesh) Fingerprint() (string, error) {
	return ir.Fingerprint(m.Identifiers())
}

func (m *Mesh) entityLocked(h ir.Handle) (*entity, error) {
	if !h.Valid() || int(h) > len(m.entities) {
		return nil, fmt.Errorf("handle %d: %w", h, ErrUnknownHandle)
	}
	return m.entities[h-1], nil
}

func (m *Mesh) sortByNumberLocked(hs []ir.Handle) {
	slices.SortFunc(hs, func(a, b ir.Handle) int {
		return cmp.Compare(m.entities[a-1].id.Number, m.entities[b-1].id.Number)
	})
}
