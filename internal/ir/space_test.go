package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpace(t *testing.T) {
	tests := map[string]Space{
		"node":      NodeSpace,
		"Nodes":     NodeSpace,
		"data":      DatapointSpace,
		"element":   ElementSpace,
		"faces":     FaceSpace,
		" line ":    LineSpace,
		"datapoint": DatapointSpace,
	}
	for in, want := range tests {
		got, err := ParseSpace(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		assert.True(t, got.Valid())
	}

	_, err := ParseSpace("cell")
	assert.Error(t, err)
}

func TestSpaceString(t *testing.T) {
	assert.Equal(t, "node", NodeSpace.String())
	assert.Equal(t, "face", FaceSpace.String())
	assert.Equal(t, "element:7", ID(ElementSpace, 7).String())
	assert.Equal(t, "datapoint:3", ID(DatapointSpace, 3).String())
}

func TestSpaceValid(t *testing.T) {
	assert.False(t, Space{Kind: KindNode, Tag: TagFace}.Valid())
	assert.False(t, Space{Kind: KindElement}.Valid())
	assert.False(t, Space{}.Valid())
}

func TestShapeCentre(t *testing.T) {
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, ShapeCube.Centre())
	assert.Equal(t, []float64{0.5}, ShapeLine.Centre())
	tri := ShapeTriangle.Centre()
	require.Len(t, tri, 2)
	assert.InDelta(t, 1.0/3.0, tri[0], 1e-12)
	assert.Equal(t, 4, ShapeTetrahedron.LinearNodes())
	assert.Equal(t, 8, ShapeCube.LinearNodes())
	assert.Empty(t, ShapeNone.Centre())
}

func TestParseShape(t *testing.T) {
	s, err := ParseShape("Tetrahedron")
	require.NoError(t, err)
	assert.Equal(t, ShapeTetrahedron, s)
	_, err = ParseShape("prism")
	assert.Error(t, err)
}

func TestChangeSetNet(t *testing.T) {
	cs := ChangeSet{Space: NodeSpace, Changes: []Change{
		{Handle: 2, From: ID(NodeSpace, 3), To: ID(NodeSpace, 10)},
		{Handle: 1, From: ID(NodeSpace, 2), To: ID(NodeSpace, 3)},
		{Handle: 2, From: ID(NodeSpace, 10), To: ID(NodeSpace, 4)},
		{Handle: 3, From: ID(NodeSpace, 7), To: ID(NodeSpace, 8)},
		{Handle: 3, From: ID(NodeSpace, 8), To: ID(NodeSpace, 7)},
	}}
	assert.Equal(t, []Change{
		{Handle: 2, From: ID(NodeSpace, 3), To: ID(NodeSpace, 4)},
		{Handle: 1, From: ID(NodeSpace, 2), To: ID(NodeSpace, 3)},
	}, cs.Net())
}

func TestValidateFieldName(t *testing.T) {
	assert.NoError(t, ValidateFieldName("coordinates"))
	assert.NoError(t, ValidateFieldName("_x1"))
	assert.Error(t, ValidateFieldName(""))
	assert.Error(t, ValidateFieldName("1x"))
	assert.Error(t, ValidateFieldName("my-field"))
	assert.Error(t, ValidateFieldName("time"))
	assert.Error(t, ValidateFieldName("if"))
	assert.Error(t, ValidateFieldName("null"))
	assert.Equal(t, "café", NormalizeName("  café "))
}
