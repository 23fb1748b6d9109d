package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRanges(t *testing.T) {
	rs, err := ParseRanges("12..20, 1..5,9, 4..6, 7")
	require.NoError(t, err)
	assert.Equal(t, Ranges{{1, 7}, {9, 9}, {12, 20}}, rs)
	assert.Equal(t, "1..7,9,12..20", rs.String())

	assert.True(t, rs.Contains(1))
	assert.True(t, rs.Contains(7))
	assert.False(t, rs.Contains(8))
	assert.True(t, rs.Contains(9))
	assert.True(t, rs.Contains(15))
	assert.False(t, rs.Contains(21))
	assert.False(t, rs.Contains(0))
}

func TestParseRangesEmpty(t *testing.T) {
	rs, err := ParseRanges("")
	require.NoError(t, err)
	assert.Empty(t, rs)
	assert.False(t, rs.Contains(1))
}

func TestParseRangesErrors(t *testing.T) {
	for _, in := range []string{"a", "5..2", "1..x", "1...3"} {
		_, err := ParseRanges(in)
		assert.Error(t, err, in)
	}
}
