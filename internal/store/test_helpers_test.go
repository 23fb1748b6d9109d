package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmlibs/zinc-sub001/internal/ir"
	"github.com/cmlibs/zinc-sub001/internal/mesh"
	"github.com/cmlibs/zinc-sub001/internal/testutil"
)

// createTestStore creates a store in a temporary directory.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// importedStore creates a store holding the contents of m, with
// predictable batch IDs.
func importedStore(t *testing.T, m *mesh.Mesh) *Store {
	t.Helper()
	s := createTestStore(t, WithBatchIDs(testutil.NewSequentialIDs("").Next))
	_, err := s.Import(context.Background(), m)
	require.NoError(t, err)
	return s
}

func handleOf(t *testing.T, s *Store, sp ir.Space, number int64) ir.Handle {
	t.Helper()
	h, found, err := s.Lookup(context.Background(), ir.ID(sp, number))
	require.NoError(t, err)
	require.True(t, found, "%s not found", ir.ID(sp, number))
	return h
}
