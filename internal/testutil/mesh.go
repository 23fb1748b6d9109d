package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmlibs/zinc-sub001/internal/ir"
	"github.com/cmlibs/zinc-sub001/internal/mesh"
)

// KeyField is the stored field NodeMesh fills from Entity.Key.
const KeyField = "key"

// Entity describes one node for NodeMesh.
type Entity struct {
	Name string
	ID   int64
	Key  []float64
}

// NodeMesh builds a mesh whose nodes are the given entities. members go
// into group; others stay outside it. When any entity has a Key, the
// field "key" is defined with that many components and set on every
// entity that has one.
func NodeMesh(t testing.TB, group string, members []Entity, others ...Entity) *mesh.Mesh {
	t.Helper()
	m := mesh.New()
	for _, e := range append(append([]Entity{}, members...), others...) {
		if len(e.Key) > 0 {
			require.NoError(t, m.DefineField(KeyField, len(e.Key)))
			break
		}
	}
	add := func(e Entity) ir.Handle {
		h, err := m.AddNode(e.ID)
		require.NoError(t, err)
		if e.Name != "" {
			require.NoError(t, m.SetName(h, e.Name))
		}
		if len(e.Key) > 0 {
			require.NoError(t, m.SetValues(h, KeyField, e.Key))
		}
		return h
	}
	var hs []ir.Handle
	for _, e := range members {
		hs = append(hs, add(e))
	}
	for _, e := range others {
		add(e)
	}
	if group != "" {
		require.NoError(t, m.AddToGroup(group, hs...))
	}
	return m
}

// ElementMesh builds a strip of unit squares along x, one element per
// identifier in ids, left to right. Nodes carry a two component
// "coordinates" field and are numbered 1.. bottom row first.
func ElementMesh(t testing.TB, ids ...int64) *mesh.Mesh {
	t.Helper()
	m := mesh.New()
	require.NoError(t, m.DefineField("coordinates", 2))

	n := len(ids)
	bottom := make([]ir.Handle, n+1)
	top := make([]ir.Handle, n+1)
	for row, hs := range [][]ir.Handle{bottom, top} {
		for i := range hs {
			h, err := m.AddNode(int64(row*(n+1) + i + 1))
			require.NoError(t, err)
			require.NoError(t, m.SetValues(h, "coordinates", []float64{float64(i), float64(row)}))
			hs[i] = h
		}
	}
	for i, id := range ids {
		nodes := []ir.Handle{bottom[i], bottom[i+1], top[i], top[i+1]}
		_, err := m.AddElement(ir.TagElement, id, ir.ShapeSquare, nodes)
		require.NoError(t, err)
	}
	return m
}

// Numbers returns the identifier numbers of the named entities.
func Numbers(t testing.TB, m *mesh.Mesh, names ...string) map[string]int64 {
	t.Helper()
	ids := m.Identifiers()
	out := make(map[string]int64, len(names))
	for _, name := range names {
		h, ok := m.ByName(name)
		require.True(t, ok, "no entity named %q", name)
		out[name] = ids[h].Number
	}
	return out
}
