package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/seqscope/core/scope"
	"github.com/opal-lang/seqscope/runtime/editor"
	"github.com/opal-lang/seqscope/runtime/loader"
)

const moverDoc = `{
  "format_version": "1.0.0",
  "id": "mover",
  "sequence": {
    "kind": "sequence",
    "args": {
      "label": "Move",
      "version": 1,
      "locals": {
        "kind": "scope_declaration",
        "args": {},
        "body": [
          {"kind": "parameter_declaration", "args": {"label": "parent", "default_value": {"kind": "coordinate", "args": {"x": 1, "y": 2, "z": 3}}}}
        ]
      }
    },
    "body": [
      {"kind": "move_absolute", "args": {"location": {"kind": "identifier", "args": {"label": "parent"}}, "speed": 100}}
    ]
  }
}`

const callerDoc = `{
  "format_version": "1.0.0",
  "id": "caller",
  "sequence": {
    "kind": "sequence",
    "args": {"label": "Call mover", "version": 1, "locals": {"kind": "scope_declaration", "args": {}, "body": []}},
    "body": [
      {"kind": "execute", "args": {"sequence_id": "mover"}, "body": []}
    ]
  }
}`

const farmDoc = `{
  "format_version": "1.0.0",
  "tools": [{"id": 1, "name": "Seeder"}],
  "points": [
    {"pointer_type": "ToolSlot", "id": 10, "name": "Slot", "x": 10, "y": 20, "z": 0, "tool_id": 1},
    {"pointer_type": "Plant", "id": 20, "name": "Tomato", "x": 1, "y": 2, "z": 3}
  ],
  "point_groups": [{"id": 5, "name": "Beds", "point_ids": [20]}]
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newWorkspace lays out a farm with the mover and caller sequences.
func newWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, loader.ResourcesFile), farmDoc)
	writeFile(t, filepath.Join(dir, loader.SequencesDir, "mover.json"), moverDoc)
	writeFile(t, filepath.Join(dir, loader.SequencesDir, "caller.json"), callerDoc)
	return dir
}

type result struct {
	stdout, stderr string
	err            error
}

// run executes scopectl against dir without color. The workspace's
// scopectl.yaml is created empty if missing.
func run(t *testing.T, dir, stdin string, args ...string) result {
	t.Helper()
	config := filepath.Join(dir, DefaultConfigFile)
	if _, err := os.Stat(config); os.IsNotExist(err) {
		writeFile(t, config, "")
	}

	var out, errOut bytes.Buffer
	cmd := newRootCmd(streams{in: strings.NewReader(stdin), out: &out, err: &errOut})
	base := []string{"--dir", dir, "--config", config, "--no-color"}
	cmd.SetArgs(append(base, args...))
	err := cmd.ExecuteContext(context.Background())
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func TestShowHeader(t *testing.T) {
	dir := newWorkspace(t)
	r := run(t, dir, "", "show", "mover")
	require.NoError(t, r.err)
	assert.Equal(t, "Variables of mover:\n└─ Location variable: Externally defined\n", r.stdout)
}

func TestShowStep(t *testing.T) {
	dir := newWorkspace(t)
	r := run(t, dir, "", "show", "caller", "--step", "0")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Step 0 of caller:")
	assert.Contains(t, r.stdout, "Coordinate (1, 2, 3) [default]")
	assert.Contains(t, r.stdout, "at (1, 2, 3)")
}

func TestShowUnknownSequence(t *testing.T) {
	dir := newWorkspace(t)
	r := run(t, dir, "", "show", "ghost")
	var cliErr *CLIError
	require.ErrorAs(t, r.err, &cliErr)
	assert.Contains(t, cliErr.Message, `unknown sequence "ghost"`)
}

func TestNextLabel(t *testing.T) {
	dir := newWorkspace(t)
	r := run(t, dir, "", "next-label", "mover")
	require.NoError(t, r.err)
	assert.Equal(t, "Location variable 1\n", r.stdout)
}

func TestDeclareWritesWorkspace(t *testing.T) {
	dir := newWorkspace(t)
	r := run(t, dir, "", "declare", "mover", "--label", "Location variable 1", "--tool", "1")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Location variable 1: Seeder (10, 20, 0)")

	seq, err := loader.ReadSequence(filepath.Join(dir, loader.SequencesDir, "mover.json"))
	require.NoError(t, err)
	_, ok := seq.Declaration("Location variable 1")
	assert.True(t, ok)

	r = run(t, dir, "", "show", "mover")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Location variable 1: Seeder (10, 20, 0)")
}

func TestDeclareAddVariableNeedsFeature(t *testing.T) {
	dir := newWorkspace(t)
	r := run(t, dir, "", "declare", "mover")
	require.Error(t, r.err)

	var editErr *editor.EditError
	assert.ErrorAs(t, r.err, &editErr)

	writeFile(t, filepath.Join(dir, DefaultConfigFile), "features:\n  multiple_variables: true\n")
	r = run(t, dir, "", "declare", "mover")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Location variable 1: Coordinate (0, 0, 0)")
}

func TestDeclareStepOverride(t *testing.T) {
	dir := newWorkspace(t)
	r := run(t, dir, "", "declare", "caller", "--step", "0", "--label", "parent", "--point", "Plant:20")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Location variable: Tomato (1, 2, 3) [override]")
	assert.Contains(t, r.stdout, "Default value - Coordinate (1, 2, 3)")
}

func TestDeclareFlagErrors(t *testing.T) {
	dir := newWorkspace(t)
	tests := []struct {
		name string
		args []string
	}{
		{"value without label", []string{"declare", "mover", "--tool", "1"}},
		{"two values", []string{"declare", "mover", "--label", "x", "--tool", "1", "--group", "5"}},
		{"bad point", []string{"declare", "mover", "--label", "x", "--point", "Rock:1"}},
		{"bad coordinate", []string{"declare", "mover", "--label", "x", "--coord", "1,2"}},
		{"bad kind", []string{"declare", "mover", "--label", "x", "--kind", "constant", "--none"}},
		{"bad step path", []string{"declare", "caller", "--step", "a.b", "--label", "parent", "--none"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, run(t, dir, "", tt.args...).err)
		})
	}
}

func TestRemoveInUseIsNotified(t *testing.T) {
	dir := newWorkspace(t)
	r := run(t, dir, "", "rm", "mover", "parent")
	assert.ErrorIs(t, r.err, errReported)
	assert.Contains(t, r.stderr, scope.InUseMessage)
}

func TestRemoveUnused(t *testing.T) {
	dir := newWorkspace(t)
	require.NoError(t, run(t, dir, "", "declare", "mover", "--label", "spare", "--coord", "1,1,1").err)
	r := run(t, dir, "", "rm", "mover", "spare")
	require.NoError(t, r.err, r.stderr)
	assert.NotContains(t, r.stdout, "spare")
}

func TestChoices(t *testing.T) {
	dir := newWorkspace(t)
	r := run(t, dir, "", "choices", "mover", "parent", "--kind", "parameter", "--groups")
	require.NoError(t, r.err)
	for _, want := range []string{"Variables:", "Coordinates:", "Custom coordinates", "Tools and Seed Containers:", "Seeder", "Plants:", "Tomato", "Groups:", "Beds"} {
		assert.Contains(t, r.stdout, want)
	}

	r = run(t, dir, "", "choices", "mover", "parent", "--kind", "parameter")
	require.NoError(t, r.err)
	assert.NotContains(t, r.stdout, "Beds")
}

func TestImportFromStdin(t *testing.T) {
	dir := t.TempDir()
	doc := strings.Replace(moverDoc, `"id": "mover"`, `"id": "fresh"`, 1)
	r := run(t, dir, doc, "import", "-")
	require.NoError(t, r.err, r.stderr)
	assert.Equal(t, "imported fresh\n", r.stdout)

	_, err := os.Stat(filepath.Join(dir, loader.SequencesDir, "fresh.json"))
	assert.NoError(t, err)
}

func TestImportRejectsInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	writeFile(t, path, `{"format_version": "1.0.0"}`)
	r := run(t, dir, "", "import", path)
	var docErr *loader.DocumentError
	require.ErrorAs(t, r.err, &docErr)
	assert.Equal(t, path, docErr.Path)
}

func TestReplScript(t *testing.T) {
	dir := newWorkspace(t)
	script := strings.Join([]string{
		"# bind the tool, then look",
		`declare mover --label "Location variable 1" --tool 1`,
		"next-label mover",
		"exit",
		"show ghost",
	}, "\n")
	r := run(t, dir, script, "repl")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Seeder (10, 20, 0)")
	assert.Contains(t, r.stdout, "Location variable 2\n")
}

func TestReplScriptStopsAtFailure(t *testing.T) {
	dir := newWorkspace(t)
	r := run(t, dir, "show mover\nshow ghost\nshow mover\n", "repl")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "line 2")
	assert.Equal(t, 1, strings.Count(r.stdout, "Variables of mover"))
}
