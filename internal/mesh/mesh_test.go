package mesh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

func TestAddNode_RejectsDuplicateAndNonPositive(t *testing.T) {
	m := New()
	_, err := m.AddNode(5)
	require.NoError(t, err)

	_, err = m.AddNode(5)
	require.ErrorIs(t, err, ErrIdentifierInUse)

	_, err = m.AddNode(0)
	require.Error(t, err)

	// Datapoints are numbered independently of nodes.
	_, err = m.AddDatapoint(5)
	require.NoError(t, err)
}

func TestAddElement_TagsAreIndependent(t *testing.T) {
	m := New()
	_, err := m.AddElement(ir.TagElement, 1, ir.ShapeLine, nil)
	require.NoError(t, err)
	_, err = m.AddElement(ir.TagFace, 1, ir.ShapeLine, nil)
	require.NoError(t, err)
	_, err = m.AddElement(ir.TagFace, 1, ir.ShapeLine, nil)
	require.ErrorIs(t, err, ErrIdentifierInUse)
}

func TestAddElement_ChecksNodes(t *testing.T) {
	m := New()
	n1, _ := m.AddNode(1)
	d1, _ := m.AddDatapoint(1)

	_, err := m.AddElement(ir.TagElement, 1, ir.ShapeLine, []ir.Handle{n1})
	require.Error(t, err, "line needs two nodes")

	_, err = m.AddElement(ir.TagElement, 1, ir.ShapeLine, []ir.Handle{n1, d1})
	require.Error(t, err, "datapoint is not a node")
}

func TestChangeIdentifier(t *testing.T) {
	ctx := context.Background()
	m := New()
	a, _ := m.AddNode(1)
	b, _ := m.AddNode(2)

	err := m.ChangeIdentifier(ctx, a, ir.ID(ir.NodeSpace, 2))
	require.ErrorIs(t, err, ErrIdentifierInUse)
	id, _ := m.Identifier(ctx, a)
	assert.Equal(t, int64(1), id.Number, "failed change leaves identifier alone")

	require.NoError(t, m.ChangeIdentifier(ctx, a, ir.ID(ir.NodeSpace, 7)))
	h, found, err := m.Lookup(ctx, ir.ID(ir.NodeSpace, 7))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, a, h)

	_, found, _ = m.Lookup(ctx, ir.ID(ir.NodeSpace, 1))
	assert.False(t, found)

	err = m.ChangeIdentifier(ctx, b, ir.ID(ir.FaceSpace, 3))
	require.Error(t, err, "cannot move between spaces")

	err = m.ChangeIdentifier(ctx, 99, ir.ID(ir.NodeSpace, 3))
	require.ErrorIs(t, err, ErrUnknownHandle)
}

func TestChangeIdentifier_Notifications(t *testing.T) {
	ctx := context.Background()
	m := New()
	a, _ := m.AddNode(1)
	b, _ := m.AddNode(2)

	var sets []ir.ChangeSet
	m.Subscribe(func(cs ir.ChangeSet) { sets = append(sets, cs) })

	require.NoError(t, m.BeginBatch(ctx, ir.NodeSpace))
	require.NoError(t, m.ChangeIdentifier(ctx, a, ir.ID(ir.NodeSpace, 10)))
	require.NoError(t, m.ChangeIdentifier(ctx, b, ir.ID(ir.NodeSpace, 20)))
	assert.Empty(t, sets)
	require.NoError(t, m.EndBatch(ctx, ir.NodeSpace))

	require.Len(t, sets, 1)
	assert.Len(t, sets[0].Changes, 2)
	assert.NotEmpty(t, sets[0].BatchID)

	require.NoError(t, m.ChangeIdentifier(ctx, a, ir.ID(ir.NodeSpace, 11)))
	require.Len(t, sets, 2)
	assert.NotEqual(t, sets[0].BatchID, sets[1].BatchID)
}

func TestMembers_OrderedByIdentifier(t *testing.T) {
	ctx := context.Background()
	m := New()
	c, _ := m.AddNode(30)
	a, _ := m.AddNode(10)
	b, _ := m.AddNode(20)
	_, _ = m.AddNode(40)
	require.NoError(t, m.AddToGroup("g", c, a, b))

	hs, err := m.Members(ctx, "g", ir.NodeSpace)
	require.NoError(t, err)
	assert.Equal(t, []ir.Handle{a, b, c}, hs)

	n, err := m.CountMembers(ctx, "", ir.NodeSpace)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = m.CountMembers(ctx, "missing", ir.NodeSpace)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = m.CountMembers(ctx, "g", ir.ElementSpace)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIsMember(t *testing.T) {
	ctx := context.Background()
	m := New()
	a, _ := m.AddNode(1)
	b, _ := m.AddNode(2)
	require.NoError(t, m.AddToGroup("g", a))

	ok, err := m.IsMember(ctx, a, "g")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.IsMember(ctx, b, "g")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.IsMember(ctx, b, "")
	require.NoError(t, err)
	assert.True(t, ok, "every entity is in the whole collection")

	// Membership follows the handle, not the identifier.
	require.NoError(t, m.ChangeIdentifier(ctx, a, ir.ID(ir.NodeSpace, 50)))
	ok, _ = m.IsMember(ctx, a, "g")
	assert.True(t, ok)
}

func TestAddRangeToGroup(t *testing.T) {
	m := New()
	for _, n := range []int64{1, 2, 3, 7, 9} {
		_, err := m.AddNode(n)
		require.NoError(t, err)
	}
	_, err := m.AddElement(ir.TagElement, 2, ir.ShapeLine, nil)
	require.NoError(t, err)

	rs, err := ir.ParseRanges("2..7")
	require.NoError(t, err)
	added, err := m.AddRangeToGroup("mid", ir.NodeSpace, rs)
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	added, err = m.AddRangeToGroup("mid", ir.NodeSpace, rs)
	require.NoError(t, err)
	assert.Zero(t, added, "already members")

	assert.Equal(t, []string{"mid"}, m.Groups())
}

func TestFields(t *testing.T) {
	ctx := context.Background()
	m := New()
	h, _ := m.AddNode(1)

	require.Error(t, m.DefineField("time", 1), "reserved name")
	require.NoError(t, m.DefineField("x", 2))
	require.Error(t, m.DefineField("x", 3), "redefined with other size")

	require.ErrorIs(t, m.SetValues(h, "y", []float64{1}), ErrUnknownField)
	require.Error(t, m.SetValues(h, "x", []float64{1}))
	require.NoError(t, m.SetValues(h, "x", []float64{1, 2}))

	v, ok, err := m.Values(ctx, h, "x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, v)

	assert.Equal(t, []string{"x"}, m.FieldNames())
}

func TestFingerprint_TracksIdentifiers(t *testing.T) {
	ctx := context.Background()
	m := New()
	a, _ := m.AddNode(1)

	before, err := m.Fingerprint()
	require.NoError(t, err)

	require.NoError(t, m.ChangeIdentifier(ctx, a, ir.ID(ir.NodeSpace, 2)))
	changed, err := m.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, before, changed)

	require.NoError(t, m.ChangeIdentifier(ctx, a, ir.ID(ir.NodeSpace, 1)))
	after, err := m.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
