package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const composition = `
root: gateway
components:
  - name: books
    types: [books.graphql]
    fixtures:
      Query.book: { id: "1", title: "Some Title" }
      Query.secret: "hidden"
  - name: gateway
    sdl: "type Query { hello: String }"
    fixtures:
      Query.hello: "world"
    imports:
      - component: books
        exclude: ["Query.secret"]
`

func writeComposition(t *testing.T, yml string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "books.graphql"),
		[]byte(`type Book { id: ID! title: String } type Query { book: Book secret: String }`), 0o644))
	path := filepath.Join(dir, "graphql-component.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	return path
}

func TestLoadAndBuild(t *testing.T) {
	f, err := Load(writeComposition(t, composition))
	require.NoError(t, err)

	all, root, err := f.Build(nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "gateway", root.Name())

	res := root.Execute(context.Background(), `{ hello book { id title } }`)
	require.Nil(t, res.Errors)
	want := map[string]any{
		"hello": "world",
		"book":  map[string]any{"id": "1", "title": "Some Title"},
	}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	res = root.Execute(context.Background(), `{ secret }`)
	require.NotEmpty(t, res.Errors)
}

func TestBuildMocks(t *testing.T) {
	f, err := Parse([]byte(`
useMocks: true
components:
  - name: only
    sdl: "type Thing { name: String size: Int } type Query { thing: Thing }"
    mocks:
      String: mocked
`))
	require.NoError(t, err)
	_, root, err := f.Build(nil)
	require.NoError(t, err)
	require.Equal(t, "only", root.Name())

	res := root.Execute(context.Background(), `{ thing { name size } }`)
	require.Nil(t, res.Errors)
	require.Equal(t, map[string]any{"thing": map[string]any{"name": "mocked", "size": 42}}, res.Data)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		yml  string
		want error
	}{
		{
			name: "unknown import",
			yml: `
components:
  - name: a
    imports: [{ component: missing }]
`,
			want: ErrUnknownComponent,
		},
		{
			name: "unknown root",
			yml: `
root: nope
components:
  - name: a
`,
			want: ErrUnknownComponent,
		},
		{
			name: "cycle",
			yml: `
components:
  - name: a
    imports: [{ component: b }]
  - name: b
    imports: [{ component: a }]
`,
			want: ErrImportCycle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yml))
			require.NoError(t, err)
			_, _, err = f.Build(nil)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for name, yml := range map[string]string{
		"empty":     `root: a`,
		"no name":   "components:\n  - types: []\n",
		"duplicate": "components:\n  - name: a\n  - name: a\n",
		"malformed": "components: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(yml))
			require.Error(t, err)
		})
	}
}

func TestFixtureKeyMustNameAField(t *testing.T) {
	f, err := Parse([]byte(`
components:
  - name: a
    sdl: "type Query { a: String }"
    fixtures:
      nofield: 1
`))
	require.NoError(t, err)
	_, _, err = f.Build(nil)
	require.Error(t, err)
}
