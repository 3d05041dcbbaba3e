// Package segment splits a SQL dump stream into statement-sized chunks.
package segment

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// Delimiter terminates one statement in a pg_dump stream. pg_dump ends
// every top-level statement with a semicolon followed by a newline.
const Delimiter = ";\n"

const (
	initialBuffer = 64 * 1024
	// A single statement can be large (wide views, big composite types),
	// so the scanner buffer is allowed to grow well past the default.
	maxStatement = 16 * 1024 * 1024
)

// ScanStatements is a bufio.SplitFunc yielding the text between successive
// delimiters. The delimiter is consumed but not included in the token. Any
// trailing partial buffer is yielded as the final token at end of stream.
func ScanStatements(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.Index(data, []byte(Delimiter)); i >= 0 {
		return i + len(Delimiter), data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// NewScanner wraps r in a scanner that yields one statement per Scan call.
func NewScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, initialBuffer), maxStatement)
	sc.Split(ScanStatements)
	return sc
}

// SplitAll splits in-memory text into statements the same way the scanner
// does, dropping empty parts.
func SplitAll(text string) []string {
	parts := strings.Split(text, Delimiter)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
