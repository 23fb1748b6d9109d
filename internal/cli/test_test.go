package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: shift
description: "Offset a group past the outside entity"
mesh:
  nodes:
    - {id: 1, name: C}
    - {id: 2, name: A}
  groups:
    - {name: g, members: [A]}
steps:
  - renumber: {group: g, space: node, offset: 5}
assertions:
  - type: identifiers
    expect: {A: 7, C: 1}
`

const failingScenario = `name: wrong
description: "Asserts an identifier the call does not produce"
mesh:
  nodes:
    - {id: 1, name: A}
steps:
  - renumber: {space: node, offset: 1}
assertions:
  - type: identifiers
    expect: {A: 99}
`

func writeScenario(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestTestCommand_HarnessScenarios(t *testing.T) {
	out, err := execute(t, NewTestCommand, "text",
		filepath.Join("..", "harness", "testdata", "scenarios"),
		"--golden-dir", filepath.Join("..", "harness", "testdata", "golden"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ All scenarios passed")
	assert.Contains(t, out, "0 failed")
}

func TestTestCommand_UpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "shift.yaml", passingScenario)

	out, err := execute(t, NewTestCommand, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ shift (golden updated)")

	golden := filepath.Join(dir, "golden", "shift.golden")
	require.FileExists(t, golden)

	_, err = execute(t, NewTestCommand, "text", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte(`{"stale":true}`), 0644))
	out, err = execute(t, NewTestCommand, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommand_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "shift.yaml", passingScenario)
	writeScenario(t, dir, "wrong.yaml", failingScenario)

	out, err := execute(t, NewTestCommand, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result TestResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
}

func TestTestCommand_Filter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "shift.yaml", passingScenario)
	writeScenario(t, dir, "wrong.yaml", failingScenario)

	out, err := execute(t, NewTestCommand, "json", dir, "--filter", "sh*")
	require.NoError(t, err)

	var result TestResult
	decodeData(t, out, &result)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, "shift", result.Scenarios[0].Name)
}

func TestTestCommand_Empty(t *testing.T) {
	out, err := execute(t, NewTestCommand, "text", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestTestCommand_MissingDir(t *testing.T) {
	_, err := execute(t, NewTestCommand, "text", filepath.Join(t.TempDir(), "none"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
