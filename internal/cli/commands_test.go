package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImport(t *testing.T) {
	db := filepath.Join(t.TempDir(), "mesh.db")
	path := writeMesh(t, testMesh)

	out, err := execute(t, NewImportCommand, "json", path, "--db", db)
	require.NoError(t, err)

	var result ImportResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, result.Entities)
	assert.Empty(t, result.Skipped)

	t.Run("conflicting import fails", func(t *testing.T) {
		_, err := execute(t, NewImportCommand, "text", path, "--db", db)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, NewImportCommand, "text", filepath.Join(t.TempDir(), "none.yaml"), "--db", db)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

func TestImport_SkipsChildRegions(t *testing.T) {
	db := filepath.Join(t.TempDir(), "mesh.db")
	path := writeMesh(t, `
nodes:
  - {id: 1, name: n1}
regions:
  - name: heart
    nodes:
      - {id: 1, name: h1}
`)
	out, err := execute(t, NewImportCommand, "text", path, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 entities")
	assert.Contains(t, out, "skipped child region /heart")
}

func TestRenumber_Offset(t *testing.T) {
	db := importedDB(t)

	out, err := execute(t, NewRenumberCommand, "json", "--db", db, "--group", "g", "--offset", "10")
	require.NoError(t, err)

	var result RenumberResult
	decodeData(t, out, &result)
	assert.Equal(t, "g", result.Group)
	assert.Equal(t, "node", result.Space)
	assert.Equal(t, 2, result.Members)
	assert.Equal(t, 2, result.Relabelled)
	assert.Equal(t, []ChangeOutput{
		{From: "node:2", To: "node:12"},
		{From: "node:3", To: "node:13"},
	}, result.Changes)

	assert.Equal(t, map[string]int64{"C": 1, "A": 12, "B": 13}, listIDs(t, db))
}

func TestRenumber_SortBy(t *testing.T) {
	db := importedDB(t)

	out, err := execute(t, NewRenumberCommand, "text", "--db", db, "--group", "g", "--sort-by", "key", "--offset", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Renumbered 2 node entities of group g")

	assert.Equal(t, map[string]int64{"C": 1, "B": 5, "A": 6}, listIDs(t, db))
}

func TestRenumber_SortByExpression(t *testing.T) {
	db := filepath.Join(t.TempDir(), "mesh.db")
	_, err := execute(t, NewImportCommand, "text", writeMesh(t, `
fields:
  - {name: coordinates, components: 2}
nodes:
  - {id: 1, name: C, values: {coordinates: [0, 0]}}
  - {id: 2, name: A, values: {coordinates: [1, 5]}}
  - {id: 3, name: B, values: {coordinates: [2, 7]}}
groups:
  - {name: g, members: [A, B]}
`), "--db", db)
	require.NoError(t, err)

	out, err := execute(t, NewRenumberCommand, "json", "--db", db, "--group", "g",
		"--sort-by", "expr:-coordinates[0]", "--offset", "10")
	require.NoError(t, err, out)

	var result RenumberResult
	decodeData(t, out, &result)
	assert.Equal(t, 2, result.Relabelled)
	assert.Equal(t, map[string]int64{"C": 1, "B": 10, "A": 11}, listIDs(t, db))

	t.Run("bad expression", func(t *testing.T) {
		_, err := execute(t, NewRenumberCommand, "text", "--db", db, "--group", "g", "--sort-by", "expr:nosuch + 1")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

func TestRenumber_Rejected(t *testing.T) {
	db := importedDB(t)

	out, err := execute(t, NewRenumberCommand, "json", "--db", db, "--group", "g", "--offset", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeData(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "OUTSIDE_COLLISION", resp.Error.Code)

	assert.Equal(t, map[string]int64{"C": 1, "A": 2, "B": 3}, listIDs(t, db), "rejected call must change nothing")
}

func TestRenumber_CommandErrors(t *testing.T) {
	db := importedDB(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing database", []string{"--db", filepath.Join(t.TempDir(), "none.db"), "--offset", "1"}},
		{"bad space", []string{"--db", db, "--space", "cell", "--offset", "1"}},
		{"unknown sort field", []string{"--db", db, "--sort-by", "nosuch"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, NewRenumberCommand, "text", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestOffset(t *testing.T) {
	db := importedDB(t)

	out, err := execute(t, NewOffsetCommand, "text", "--db", db, "--nodes", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "/: 3 node identifiers shifted")

	assert.Equal(t, map[string]int64{"C": 101, "A": 102, "B": 103}, listIDs(t, db))

	t.Run("no offset", func(t *testing.T) {
		_, err := execute(t, NewOffsetCommand, "text", "--db", db)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

func TestGroup(t *testing.T) {
	db := importedDB(t)

	out, err := execute(t, NewGroupCommand, "text", "add", "h", "--db", db, "--ranges", "1..2")
	require.NoError(t, err)
	assert.Equal(t, "Added 2 node entities to group h\n", out)

	out, err = execute(t, NewGroupCommand, "json", "list", "--db", db)
	require.NoError(t, err)
	var groups GroupListResult
	decodeData(t, out, &groups)
	assert.Equal(t, []string{"g", "h"}, groups.Groups)

	assert.Equal(t, map[string]int64{"C": 1, "A": 2}, listIDs(t, db, "--group", "h"))

	t.Run("bad ranges", func(t *testing.T) {
		_, err := execute(t, NewGroupCommand, "text", "add", "h", "--db", db, "--ranges", "5..")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

func TestList_Text(t *testing.T) {
	db := importedDB(t)

	out, err := execute(t, NewListCommand, "text", "--db", db, "--group", "g")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "A")
	assert.NotContains(t, out, "C")
}

func TestHistory(t *testing.T) {
	db := importedDB(t)

	out, err := execute(t, NewHistoryCommand, "text", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No identifier changes recorded.\n", out)

	_, err = execute(t, NewRenumberCommand, "text", "--db", db, "--group", "g", "--offset", "10")
	require.NoError(t, err)

	out, err = execute(t, NewHistoryCommand, "json", "--db", db)
	require.NoError(t, err)
	var result HistoryResult
	decodeData(t, out, &result)
	require.Len(t, result.Changes, 2)
	assert.Equal(t, result.Changes[0].BatchID, result.Changes[1].BatchID)
	assert.Equal(t, "node:2", result.Changes[0].From)
	assert.Equal(t, "node:12", result.Changes[0].To)

	out, err = execute(t, NewHistoryCommand, "json", "--db", db, "--limit", "1")
	require.NoError(t, err)
	decodeData(t, out, &result)
	assert.Len(t, result.Changes, 1)
}

func TestVerify(t *testing.T) {
	db := importedDB(t)

	out, err := execute(t, NewVerifyCommand, "text", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Collection is consistent")
}

func TestExport(t *testing.T) {
	db := importedDB(t)
	_, err := execute(t, NewRenumberCommand, "text", "--db", db, "--group", "g", "--offset", "10")
	require.NoError(t, err)

	out, err := execute(t, NewExportCommand, "json", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "name: A")
	assert.Contains(t, out, "id: 12")

	t.Run("reimport", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "out.yaml")
		_, err := execute(t, NewExportCommand, "text", "--db", db, "-o", file)
		require.NoError(t, err)

		data, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Equal(t, out, string(data))

		other := filepath.Join(t.TempDir(), "copy.db")
		_, err = execute(t, NewImportCommand, "text", file, "--db", other)
		require.NoError(t, err)
		assert.Equal(t, listIDs(t, db), listIDs(t, other))
	})
}
