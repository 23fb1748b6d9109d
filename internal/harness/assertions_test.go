package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlibs/zinc-sub001/internal/ir"
	"github.com/cmlibs/zinc-sub001/internal/mesh"
)

func TestAssertIdentifiers(t *testing.T) {
	result := NewResult()
	result.Identifiers["/"] = map[string]int64{"A": 1, "B": 2}
	result.Identifiers["/heart"] = map[string]int64{"H": 7}

	assert.NoError(t, assertIdentifiers(result, Assertion{Expect: map[string]int64{"A": 1}}))
	assert.NoError(t, assertIdentifiers(result, Assertion{Region: "heart", Expect: map[string]int64{"H": 7}}))

	err := assertIdentifiers(result, Assertion{Expect: map[string]int64{"A": 3, "Z": 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A: got 1, want 3")
	assert.Contains(t, err.Error(), "Z: no such entity")

	err = assertIdentifiers(result, Assertion{Region: "lung", Expect: map[string]int64{"A": 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region /lung not found")
}

func TestAssertUnchanged(t *testing.T) {
	m := mesh.New()
	h, err := m.AddNode(1)
	require.NoError(t, err)
	before, err := m.Fingerprint()
	require.NoError(t, err)
	ctx := &AssertionContext{Root: mesh.NewRegion("", m), Before: map[string]string{"/": before}}

	assert.NoError(t, assertUnchanged(ctx, Assertion{}))

	require.NoError(t, m.ChangeIdentifier(t.Context(), h, ir.ID(ir.NodeSpace, 2)))
	err = assertUnchanged(ctx, Assertion{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identifiers changed")
}

func TestAssertNotifications(t *testing.T) {
	result := NewResult()
	result.Notifications = 2
	assert.NoError(t, assertNotifications(result, Assertion{Count: 2}))
	assert.Error(t, assertNotifications(result, Assertion{Count: 1}))
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Identifiers["/"] = map[string]int64{"A": 1}
	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertIdentifiers, Expect: map[string]int64{"A": 1}},
		{Type: AssertNotifications, Count: 4},
		{Type: "bogus"},
	}, &AssertionContext{})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "assertion 1 (notifications)")
	assert.Contains(t, errs[1], "unknown assertion type: bogus")
}
