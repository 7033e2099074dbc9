package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testComposition = `
root: gateway
components:
  - name: books
    sdl: "type Book { id: ID! title: String } type Query { book(id: ID!): Book secret: String }"
    fixtures:
      Query.book: { id: "1", title: "Some Title" }
  - name: gateway
    imports:
      - component: books
        exclude: ["Query.secret"]
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "composition.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testComposition), 0o644))
	return path
}

func TestHelp(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"help", "exec"}, &out, &bytes.Buffer{}))
	require.Contains(t, out.String(), "exec FLAGS")

	require.Error(t, run([]string{"help", "serve"}, &out, &bytes.Buffer{}))
}

func TestUnknownCommand(t *testing.T) {
	var stderr bytes.Buffer
	require.Error(t, run([]string{"serve"}, &bytes.Buffer{}, &stderr))
	require.Contains(t, stderr.String(), "USAGE")

	require.Error(t, run(nil, &bytes.Buffer{}, &bytes.Buffer{}))
}

func TestCompileSDL(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"compile-sdl", "-config", writeConfig(t)}, &out, &bytes.Buffer{}))
	require.Contains(t, out.String(), "type Query")
	require.Contains(t, out.String(), "book(id: ID!): Book")
	require.NotContains(t, out.String(), "secret")
}

func TestCompileSDLToFile(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "schema.graphql")
	require.NoError(t, run([]string{"compile-sdl", "-config", writeConfig(t), "-out", outFile}, &bytes.Buffer{}, &bytes.Buffer{}))
	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	require.Contains(t, string(data), "type Book")
}

func TestCompileSDLRequiresConfig(t *testing.T) {
	var stderr bytes.Buffer
	require.Error(t, run([]string{"compile-sdl"}, &bytes.Buffer{}, &stderr))
	require.Contains(t, stderr.String(), "compile-sdl FLAGS")
}

func TestExec(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{
		"exec",
		"-config", writeConfig(t),
		"-query", `query Q($id: ID!) { book(id: $id) { title } }`,
		"-variables", `{"id": "1"}`,
		"-metrics",
	}, &out, &bytes.Buffer{})
	require.NoError(t, err)
	require.Contains(t, out.String(), `{"data":{"book":{"title":"Some Title"}}}`)
	require.Contains(t, out.String(), `graphql_component_executions_total{component="gateway"} 1`)
	require.Contains(t, out.String(), `graphql_component_delegations_total{component="books",field="book"} 1`)
}

func TestExecReportsErrors(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"exec", "-config", writeConfig(t), "-query", `{ secret }`}, &out, &bytes.Buffer{})
	require.NoError(t, err)
	require.Contains(t, out.String(), `"errors":[`)
}

func TestExecBadVariables(t *testing.T) {
	err := run([]string{"exec", "-config", writeConfig(t), "-query", `{ book(id: "1") { id } }`, "-variables", `[`}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
}
