package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlibs/zinc-sub001/internal/engine"
	"github.com/cmlibs/zinc-sub001/internal/ir"
	"github.com/cmlibs/zinc-sub001/internal/mesh"
	"github.com/cmlibs/zinc-sub001/internal/testutil"
)

const treeDoc = `
nodes: [{id: 1, name: a}, {id: 2, name: b}]
elements:
  - {id: 1, name: e1, shape: line, nodes: [1, 2]}
  - {id: 1, name: f1, tag: face, shape: line, nodes: [1, 2]}
datapoints: [{id: 1, name: d1}]
regions:
  - name: child
    nodes: [{id: 5, name: c5}]
    regions:
      - name: leaf
        nodes: [{id: 7, name: l7}]
`

func TestOffsetTree(t *testing.T) {
	root, err := mesh.LoadYAML([]byte(treeDoc))
	require.NoError(t, err)
	var rec testutil.Recorder
	root.Mesh().Subscribe(rec.Record)

	reports, err := engine.OffsetTree(context.Background(), root, engine.Offsets{Nodes: 10, Elements: 100})
	require.NoError(t, err)

	require.Len(t, reports, 3)
	assert.Equal(t, "/", reports[0].Path)
	assert.Equal(t, "/child", reports[1].Path)
	assert.Equal(t, "/child/leaf", reports[2].Path)
	assert.Len(t, reports[0].Reports, 2)
	require.Len(t, reports[1].Reports, 1, "child has no elements")
	assert.Equal(t, ir.NodeSpace, reports[1].Reports[0].Space)

	m := root.Mesh()
	assert.Equal(t, map[string]int64{"a": 11, "b": 12, "e1": 101, "f1": 1, "d1": 1},
		testutil.Numbers(t, m, "a", "b", "e1", "f1", "d1"))

	child, err := root.Find("child")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"c5": 15}, testutil.Numbers(t, child.Mesh(), "c5"))
	leaf, err := root.Find("child/leaf")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"l7": 17}, testutil.Numbers(t, leaf.Mesh(), "l7"))

	// One change set per bracketed space of the root.
	spaces := make(map[ir.Space]int)
	for _, cs := range rec.Sets() {
		spaces[cs.Space]++
	}
	assert.Equal(t, map[ir.Space]int{ir.NodeSpace: 1, ir.ElementSpace: 1}, spaces)
}

func TestOffsetTree_Datapoints(t *testing.T) {
	root, err := mesh.LoadYAML([]byte(treeDoc))
	require.NoError(t, err)

	_, err = engine.OffsetTree(context.Background(), root, engine.Offsets{Nodes: 3, Data: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a": 1, "d1": 4}, testutil.Numbers(t, root.Mesh(), "a", "d1"))
}

func TestOffsetTree_StopsOnFailure(t *testing.T) {
	root, err := mesh.LoadYAML([]byte(treeDoc))
	require.NoError(t, err)

	reports, err := engine.OffsetTree(context.Background(), root, engine.Offsets{Nodes: -6})
	require.Error(t, err)
	assert.True(t, engine.IsNonPositiveIdentifier(err))
	assert.Empty(t, reports)
	assert.Equal(t, map[string]int64{"a": 1}, testutil.Numbers(t, root.Mesh(), "a"))
}
