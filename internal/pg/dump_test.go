package pg

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterDump(t *testing.T) {
	in := strings.Join([]string{
		"--",
		"-- PostgreSQL database dump",
		"--",
		"",
		"SET statement_timeout = 0;",
		"SET client_encoding = 'UTF8';",
		"CREATE TABLE public.users (",
		"    id integer NOT NULL",
		");",
		"   ",
		"SELECT pg_catalog.set_config('search_path', '', false);",
	}, "\n")

	out, err := io.ReadAll(FilterDump(strings.NewReader(in)))
	require.NoError(t, err)
	assert.Equal(t,
		"CREATE TABLE public.users (\n    id integer NOT NULL\n);\nSELECT pg_catalog.set_config('search_path', '', false);\n",
		string(out))
}

func TestFilterDump_PropagatesReadError(t *testing.T) {
	r := io.MultiReader(strings.NewReader("CREATE TABLE public.users ();\n"), failingReader{})
	_, err := io.ReadAll(FilterDump(r))
	require.Error(t, err)
}

// failingReader is a reader that always fails.
type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestParseDumpVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pg_dump (PostgreSQL) 16.4\n", "16.4"},
		{"pg_dump (PostgreSQL) 17.0 (Debian 17.0-1.pgdg120+1)\n", "17.0"},
		{"pg_dump (PostgreSQL) 9.6.24\n", "9.6"},
	}
	for _, tt := range tests {
		got, err := parseDumpVersion(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseDumpVersion_Unrecognized(t *testing.T) {
	_, err := parseDumpVersion("pg_dump (PostgreSQL) unknown")
	require.Error(t, err)
}
