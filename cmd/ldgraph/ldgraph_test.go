package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noteJSON = `{
  "@context": "https://www.w3.org/ns/activitystreams",
  "id": "https://example.com/notes/1",
  "type": "Note",
  "name": "First note",
  "content": "hello graph world"
}`

type testEnv struct {
	t       *testing.T
	dir     string
	baseArg []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	indexYAML := `- type: https://www.w3.org/ns/activitystreams#Note
  indexed: [https://www.w3.org/ns/activitystreams#content]
  projected: [https://www.w3.org/ns/activitystreams#name]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.yaml"), []byte(indexYAML), 0o644))
	toml := "[storage]\nbackend = \"badger\"\ndir = \"" + filepath.Join(dir, "data") + "\"\n\n" +
		"[search]\nindex_config = \"" + filepath.Join(dir, "index.yaml") + "\"\n"
	configPath := filepath.Join(dir, "ldgraph.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(toml), 0o644))
	return &testEnv{t: t, dir: dir, baseArg: []string{"--config", configPath}}
}

func (e *testEnv) run(stdin string, args ...string) (string, error) {
	e.t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(append([]string{}, args...), e.baseArg...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) mustRun(stdin string, args ...string) string {
	e.t.Helper()
	out, err := e.run(stdin, args...)
	require.NoError(e.t, err)
	return out
}

func TestPutGetRemove(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(noteJSON, "put", "-")

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(env.mustRun("", "get", "https://example.com/notes/1")), &doc))
	assert.Equal(t, "https://example.com/notes/1", doc["id"])
	assert.Equal(t, "First note", doc["name"])

	env.mustRun("", "remove", "https://example.com/notes/1")
	_, err := env.run("", "get", "https://example.com/notes/1")
	assert.ErrorContains(t, err, "not found")
}

func TestPutFromFile(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "notes.json")
	second := strings.Replace(strings.Replace(noteJSON, "notes/1", "notes/2", 1), "First", "Second", 1)
	require.NoError(t, os.WriteFile(path, []byte("["+noteJSON+","+second+"]"), 0o644))
	env.mustRun("", "put", path)

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(env.mustRun("", "query", `{"type": "Note"}`)), &results))
	assert.Len(t, results, 2)

	var one map[string]any
	require.NoError(t, json.Unmarshal([]byte(env.mustRun("", "query", "--one", `{"name": "Second note"}`)), &one))
	assert.Equal(t, "https://example.com/notes/2", one["id"])
}

func TestQueryNoMatch(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun("", "query", `{"type": "Person"}`)
	assert.JSONEq(t, `[]`, out)

	_, err := env.run("", "query", `not json`)
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(noteJSON, "put", "-")

	out := env.mustRun("", "search", "graph")
	assert.JSONEq(t, `[{"id": "https://example.com/notes/1", "name": "First note"}]`, out)

	out = env.mustRun("", "search", "--raw", "graph")
	assert.JSONEq(t, `[{
		"id": "https://example.com/notes/1",
		"type": "https://www.w3.org/ns/activitystreams#Note",
		"name": "First note"
	}]`, out)
}

func sortedLines(s string) []string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	sort.Strings(lines)
	return lines
}

func TestExportImport(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(noteJSON, "put", "-")

	exported := env.mustRun("", "export")
	assert.Contains(t, exported, `<https://example.com/notes/1> <https://www.w3.org/ns/activitystreams#name> "First note" .`)

	env.mustRun(exported, "import", "-", "--graph", "copy")
	copied := env.mustRun("", "export", "--graph", "copy")
	assert.Equal(t, sortedLines(exported), sortedLines(copied))

	path := filepath.Join(env.dir, "out.nt")
	env.mustRun("", "export", "--output", path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sortedLines(exported), sortedLines(string(data)))
}

func TestImportRejectsMalformed(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("<https://example.com/a> broken .\n", "import", "-")
	assert.ErrorContains(t, err, "ntriples")
}

func TestInvalidBackend(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("", "get", "https://example.com/x", "--backend", "postgres")
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestDefaultConfigPersistsAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	env := &testEnv{t: t, dir: dir}

	env.mustRun(noteJSON, "put", "-")

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(env.mustRun("", "get", "https://example.com/notes/1")), &doc))
	assert.Equal(t, "First note", doc["name"])
	assert.DirExists(t, filepath.Join(dir, "ldgraph-data"))
}
