package mesh

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

const sampleDoc = `
fields:
  - name: coordinates
    components: 2
nodes:
  - {id: 1, name: n1, values: {coordinates: [0, 0]}}
  - {id: 2, name: n2, values: {coordinates: [1, 0]}}
  - {id: 3, values: {coordinates: [0, 1]}}
  - {id: 4, values: {coordinates: [1, 1]}}
elements:
  - {id: 7, name: e7, shape: square, nodes: [1, 2, 3, 4]}
  - {id: 2, tag: line, shape: line, nodes: [1, 2]}
groups:
  - name: bottom
    members: [n1, n2]
    ranges: {line: "1..5"}
regions:
  - name: heart
    nodes:
      - {id: 1}
`

func TestLoadYAML(t *testing.T) {
	ctx := context.Background()
	root, err := LoadYAML([]byte(sampleDoc))
	require.NoError(t, err)
	m := root.Mesh()

	assert.Len(t, m.Handles(ir.NodeSpace), 4)
	assert.Len(t, m.Handles(ir.ElementSpace), 1)
	assert.Len(t, m.Handles(ir.LineSpace), 1)

	e7, ok := m.ByName("e7")
	require.True(t, ok)
	shape, err := m.Shape(ctx, e7)
	require.NoError(t, err)
	assert.Equal(t, ir.ShapeSquare, shape)
	nodes, err := m.ElementNodes(ctx, e7)
	require.NoError(t, err)
	assert.Len(t, nodes, 4)

	n, err := m.CountMembers(ctx, "bottom", ir.NodeSpace)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = m.CountMembers(ctx, "bottom", ir.LineSpace)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	heart, err := root.Find("/heart")
	require.NoError(t, err)
	assert.Len(t, heart.Mesh().Handles(ir.NodeSpace), 1)
	assert.Len(t, root.Children(), 1)
}

func TestLoadYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "nodez: []"},
		{"duplicate node", "nodes: [{id: 1}, {id: 1}]"},
		{"undefined element node", "elements: [{id: 1, shape: line, nodes: [1, 2]}]"},
		{"bad shape", "elements: [{id: 1, shape: blob}]"},
		{"unknown member", "groups: [{name: g, members: [nope]}]"},
		{"bad range", "nodes: [{id: 1}]\ngroups: [{name: g, ranges: {node: \"5..1\"}}]"},
		{"undefined field", "nodes: [{id: 1, values: {x: [1]}}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadYAML([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestDocument_RoundTrip(t *testing.T) {
	root, err := LoadYAML([]byte(sampleDoc))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, root.EncodeYAML(&buf))

	again, err := LoadYAML(buf.Bytes())
	require.NoError(t, err)

	want, err := root.Mesh().Fingerprint()
	require.NoError(t, err)
	got, err := again.Mesh().Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, root.Document(), again.Document())
}

func TestRegion_Find(t *testing.T) {
	root := NewRegion("", nil)
	child := NewRegion("a", nil)
	require.NoError(t, root.AddChild(child))
	require.NoError(t, child.AddChild(NewRegion("b", nil)))
	require.Error(t, root.AddChild(NewRegion("a", nil)))

	r, err := root.Find("a/b")
	require.NoError(t, err)
	assert.Equal(t, "b", r.Name())

	r, err = root.Find("/")
	require.NoError(t, err)
	assert.Same(t, root, r)

	_, err = root.Find("a/c")
	require.Error(t, err)
}

func TestRegion_Walk(t *testing.T) {
	root := NewRegion("", nil)
	a := NewRegion("a", nil)
	require.NoError(t, root.AddChild(a))
	require.NoError(t, a.AddChild(NewRegion("b", nil)))
	require.NoError(t, root.AddChild(NewRegion("c", nil)))

	var paths []string
	root.Walk(func(path string, r *Region) {
		found, err := root.Find(path)
		require.NoError(t, err)
		assert.Same(t, found, r)
		paths = append(paths, path)
	})
	assert.Equal(t, []string{"/", "/a", "/a/b", "/c"}, paths)
}
