// Package splitter drives the dump → segment → classify → write pipeline.
package splitter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ALE-Terry/pg-schema-dump-parser/internal/classify"
	"github.com/ALE-Terry/pg-schema-dump-parser/internal/dump"
	"github.com/ALE-Terry/pg-schema-dump-parser/internal/segment"
)

// DefinitionSource fetches the authoritative definition of a routine from
// the live database.
type DefinitionSource interface {
	FunctionDef(ctx context.Context, schema, name string) (string, error)
}

// Run drains the dump stream one statement at a time, classifying each and
// writing it into the tree. It returns the number of statements no rule
// could classify; those are logged per occurrence and dropped. Extraction
// and I/O errors abort the run.
func Run(ctx context.Context, defs DefinitionSource, tree *dump.Tree, r io.Reader) (warnings int, err error) {
	sc := segment.NewScanner(r)
	for sc.Scan() {
		stmt := sc.Text()
		if stmt == "" {
			continue
		}
		stmt += segment.Delimiter

		res, err := classify.Classify(stmt)
		switch {
		case errors.Is(err, classify.ErrSkip):
			continue
		case errors.Is(err, classify.ErrUnclassified):
			log.Warn().Str("statement", head(stmt)).Msg("parsing not yet implemented, statement dropped")
			warnings++
			continue
		case err != nil:
			return warnings, err
		}

		text := stmt
		if res.NeedsDefinition {
			if text, err = defs.FunctionDef(ctx, res.Schema, res.Name); err != nil {
				return warnings, err
			}
		}

		if err := tree.WriteObject(res, text); err != nil {
			return warnings, err
		}
		log.Debug().
			Str("type", string(res.Type)).
			Str("schema", res.Schema).
			Str("name", res.Name).
			Msg("statement written")
	}
	if err := sc.Err(); err != nil {
		return warnings, fmt.Errorf("reading dump stream: %w", err)
	}
	return warnings, nil
}

// head returns the first line of a statement, for log output.
func head(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return stmt[:i]
	}
	return stmt
}
