package notify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

func counter() BatchIDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("batch-%d", n)
	}
}

func change(h ir.Handle, from, to int64) ir.Change {
	return ir.Change{Handle: h, From: ir.ID(ir.NodeSpace, from), To: ir.ID(ir.NodeSpace, to)}
}

func TestRecordOutsideBatchDeliversImmediately(t *testing.T) {
	b := New(counter())
	var got []ir.ChangeSet
	b.Subscribe(func(cs ir.ChangeSet) { got = append(got, cs) })

	b.Record(b.Stamp(ir.NodeSpace), change(1, 5, 6))
	b.Record(b.Stamp(ir.NodeSpace), change(2, 7, 8))

	require.Len(t, got, 2)
	assert.Equal(t, "batch-1", got[0].BatchID)
	assert.Equal(t, "batch-2", got[1].BatchID)
}

func TestBatchSuppressesUntilOutermostEnd(t *testing.T) {
	b := New(counter())
	var got []ir.ChangeSet
	b.Subscribe(func(cs ir.ChangeSet) { got = append(got, cs) })

	outer := b.Begin(ir.NodeSpace)
	inner := b.Begin(ir.NodeSpace)
	assert.Equal(t, outer, inner)
	assert.Equal(t, outer, b.Stamp(ir.NodeSpace))

	b.Record(outer, change(1, 5, 105))
	require.NoError(t, b.End(ir.NodeSpace))
	assert.Empty(t, got, "inner end must not deliver")

	b.Record(outer, change(2, 9, 109))
	require.NoError(t, b.End(ir.NodeSpace))

	require.Len(t, got, 1)
	assert.Equal(t, outer, got[0].BatchID)
	assert.Len(t, got[0].Changes, 2)

	_, active := b.Active(ir.NodeSpace)
	assert.False(t, active)
}

func TestBatchIsPerSpace(t *testing.T) {
	b := New(counter())
	var got []ir.ChangeSet
	b.Subscribe(func(cs ir.ChangeSet) { got = append(got, cs) })

	b.Begin(ir.FaceSpace)
	c := ir.Change{Handle: 3, From: ir.ID(ir.ElementSpace, 1), To: ir.ID(ir.ElementSpace, 2)}
	b.Record(b.Stamp(ir.ElementSpace), c)
	require.Len(t, got, 1, "element space is not bracketed")
	require.NoError(t, b.End(ir.FaceSpace))
	assert.Len(t, got, 1, "empty face batch delivers nothing")
}

func TestEndUnbalanced(t *testing.T) {
	b := New(nil)
	err := b.End(ir.NodeSpace)
	require.ErrorIs(t, err, ErrUnbalanced)
}
