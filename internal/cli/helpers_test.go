package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/cmlibs/zinc-sub001/internal/config"
)

const testMesh = `
fields:
  - {name: key, components: 1}
nodes:
  - {id: 1, name: C}
  - {id: 2, name: A, values: {key: [2]}}
  - {id: 3, name: B, values: {key: [1]}}
groups:
  - {name: g, members: [A, B]}
`

// testRootOptions returns options with default config and silent logs, so
// commands can run without the root command.
func testRootOptions(format string) *RootOptions {
	return &RootOptions{
		Format: format,
		Config: config.DefaultConfig(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// execute runs the command built by newCmd with args and returns its
// standard output.
func execute(t *testing.T, newCmd func(*RootOptions) *cobra.Command, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := newCmd(testRootOptions(format))
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeMesh writes content as a mesh document and returns its path.
func writeMesh(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// importedDB returns a database holding testMesh.
func importedDB(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "mesh.db")
	_, err := execute(t, NewImportCommand, "text", writeMesh(t, testMesh), "--db", db)
	require.NoError(t, err)
	return db
}

// decodeData decodes the data payload of a JSON CLIResponse into v.
func decodeData(t *testing.T, out string, v any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), "output: %s", out)
	if v != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, v))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}

// listIDs returns name -> identifier for a space of db.
func listIDs(t *testing.T, db string, args ...string) map[string]int64 {
	t.Helper()
	out, err := execute(t, NewListCommand, "json", append([]string{"--db", db}, args...)...)
	require.NoError(t, err)
	var result ListResult
	decodeData(t, out, &result)
	ids := make(map[string]int64)
	for _, e := range result.Entities {
		ids[e.Name] = e.Identifier
	}
	return ids
}
