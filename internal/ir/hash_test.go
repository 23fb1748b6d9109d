package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintStable(t *testing.T) {
	ids := map[Handle]Identifier{
		1: ID(NodeSpace, 5),
		2: ID(NodeSpace, 9),
		3: ID(FaceSpace, 5),
	}
	a, err := Fingerprint(ids)
	require.NoError(t, err)
	b, err := Fingerprint(map[Handle]Identifier{3: ID(FaceSpace, 5), 2: ID(NodeSpace, 9), 1: ID(NodeSpace, 5)})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprintDetectsRelabel(t *testing.T) {
	before, err := Fingerprint(map[Handle]Identifier{1: ID(NodeSpace, 5), 2: ID(NodeSpace, 9)})
	require.NoError(t, err)
	swapped, err := Fingerprint(map[Handle]Identifier{1: ID(NodeSpace, 9), 2: ID(NodeSpace, 5)})
	require.NoError(t, err)
	otherSpace, err := Fingerprint(map[Handle]Identifier{1: ID(DatapointSpace, 5), 2: ID(DatapointSpace, 9)})
	require.NoError(t, err)

	assert.NotEqual(t, before, swapped)
	assert.NotEqual(t, before, otherSpace)
}

func TestFingerprintEmpty(t *testing.T) {
	fp, err := Fingerprint(nil)
	require.NoError(t, err)
	assert.Equal(t, hashWithDomain(DomainFingerprint, []byte("{}")), fp)
}
