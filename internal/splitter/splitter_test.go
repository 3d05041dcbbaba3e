package splitter_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ALE-Terry/pg-schema-dump-parser/internal/dump"
	"github.com/ALE-Terry/pg-schema-dump-parser/internal/splitter"
)

// fakeDefs serves canned routine definitions keyed by schema.name.
type fakeDefs struct {
	defs  map[string]string
	calls []string
}

func (f *fakeDefs) FunctionDef(_ context.Context, schema, name string) (string, error) {
	key := schema + "." + name
	f.calls = append(f.calls, key)
	def, ok := f.defs[key]
	if !ok {
		return "", fmt.Errorf("no definition found for %s", key)
	}
	return def, nil
}

func TestRun_WritesClassifiedStatements(t *testing.T) {
	in := strings.Join([]string{
		"CREATE TABLE public.users (\n    id integer NOT NULL\n);\n",
		"CREATE INDEX idx1 ON public.users (id);\n",
		"GRANT SELECT ON TABLE public.users TO role1;\n",
		"GRANT USAGE ON SCHEMA public TO role1;\n",
	}, "")

	tree := dump.NewTree(t.TempDir())
	warnings, err := splitter.Run(context.Background(), &fakeDefs{}, tree, strings.NewReader(in))
	require.NoError(t, err)
	assert.Zero(t, warnings)

	for path, want := range map[string]string{
		"tables/public/users.sql":   "CREATE TABLE public.users (\n    id integer NOT NULL\n);\n",
		"indexes/public/idx1.sql":   "CREATE INDEX idx1 ON public.users (id);\n",
		"acls/public/users.sql":     "GRANT SELECT ON TABLE public.users TO role1;\n",
		"utilities/others/acls.sql": "GRANT USAGE ON SCHEMA public TO role1;\n",
	} {
		data, err := os.ReadFile(filepath.Join(tree.SchemaDir(), path))
		require.NoError(t, err, path)
		assert.Equal(t, want, string(data), path)
	}
}

func TestRun_FunctionBodyComesFromLiveDatabase(t *testing.T) {
	in := "CREATE FUNCTION public.add(a integer, b integer) RETURNS integer\n    LANGUAGE sql\n    AS $$ SELECT a + b $$;\n"
	liveDef := "CREATE OR REPLACE FUNCTION public.add(a integer, b integer)\n RETURNS integer\n LANGUAGE sql\nAS $function$ SELECT a + b $function$;\n"

	defs := &fakeDefs{defs: map[string]string{"public.add": liveDef}}
	tree := dump.NewTree(t.TempDir())

	warnings, err := splitter.Run(context.Background(), defs, tree, strings.NewReader(in))
	require.NoError(t, err)
	assert.Zero(t, warnings)
	assert.Equal(t, []string{"public.add"}, defs.calls)

	data, err := os.ReadFile(filepath.Join(tree.SchemaDir(), "functions", "public", "add.sql"))
	require.NoError(t, err)
	// The dump text is discarded in favor of the live definition.
	assert.Equal(t, liveDef, string(data))
}

func TestRun_UnclassifiedStatementIsDroppedAndCounted(t *testing.T) {
	in := "CREATE OPERATOR public.=== (FUNCTION = public.eq);\n" +
		"CREATE TABLE public.users (\n    id integer\n);\n"

	tree := dump.NewTree(t.TempDir())
	warnings, err := splitter.Run(context.Background(), &fakeDefs{}, tree, strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 1, warnings)

	// Nothing was written for the operator statement.
	entries, err := os.ReadDir(tree.SchemaDir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tables", entries[0].Name())
}

func TestRun_ExtractionFailureAborts(t *testing.T) {
	tree := dump.NewTree(t.TempDir())
	_, err := splitter.Run(context.Background(), &fakeDefs{}, tree,
		strings.NewReader("CREATE TABLE users (\n    id integer\n);\n"))
	require.Error(t, err)
}

func TestRun_FunctionDefFailureAborts(t *testing.T) {
	tree := dump.NewTree(t.TempDir())
	_, err := splitter.Run(context.Background(), &fakeDefs{}, tree,
		strings.NewReader("CREATE FUNCTION public.gone() RETURNS void\n    LANGUAGE sql\n    AS $$ $$;\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "public.gone")
}
