package segment_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ALE-Terry/pg-schema-dump-parser/internal/segment"
)

func scanAll(t *testing.T, in string) []string {
	t.Helper()
	sc := segment.NewScanner(strings.NewReader(in))
	var parts []string
	for sc.Scan() {
		parts = append(parts, sc.Text())
	}
	require.NoError(t, sc.Err())
	return parts
}

func TestScanner_SplitsOnDelimiter(t *testing.T) {
	in := "CREATE TABLE a.b (x int);\nCREATE TABLE a.c (y int);\n"
	parts := scanAll(t, in)

	require.Equal(t, []string{"CREATE TABLE a.b (x int)", "CREATE TABLE a.c (y int)"}, parts)

	// Re-joining with the delimiter reproduces the input exactly.
	assert.Equal(t, in, strings.Join(parts, segment.Delimiter)+segment.Delimiter)
}

func TestScanner_BareSemicolonDoesNotSplit(t *testing.T) {
	parts := scanAll(t, "CREATE VIEW a.v AS SELECT 'x;y' AS s;\n")
	assert.Equal(t, []string{"CREATE VIEW a.v AS SELECT 'x;y' AS s"}, parts)
}

func TestScanner_TrailingPartialYieldedAtEOF(t *testing.T) {
	parts := scanAll(t, "CREATE TABLE a.b (x int);\nGRANT USAGE")
	assert.Equal(t, []string{"CREATE TABLE a.b (x int)", "GRANT USAGE"}, parts)
}

func TestScanner_EmptyInput(t *testing.T) {
	assert.Empty(t, scanAll(t, ""))
}

func TestScanner_StatementSpanningReads(t *testing.T) {
	// Statements larger than the scanner's initial buffer must still come
	// out whole.
	big := "CREATE TABLE a.b (\n" + strings.Repeat("    col integer,\n", 10000) + "    last integer\n)"
	parts := scanAll(t, big+segment.Delimiter+"CREATE TABLE a.c (y int);\n")
	require.Len(t, parts, 2)
	assert.Equal(t, big, parts[0])
}

func TestSplitAll(t *testing.T) {
	parts := segment.SplitAll("A;\nB;\n;\nC")
	assert.Equal(t, []string{"A", "B", "C"}, parts)

	assert.Empty(t, segment.SplitAll(""))
}
