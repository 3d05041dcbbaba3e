// Package classify routes dump statements to the output bucket they belong
// to. Classification is an ordered rule table: the first rule whose
// predicate matches a statement wins, so the declaration order of the rules
// is part of the contract.
package classify

import (
	"errors"
	"fmt"
	"strings"
)

// ObjectType names an output bucket under <directory>/schema/. The set is
// closed; there is no dynamic registration.
type ObjectType string

const (
	Tables             ObjectType = "tables"
	ColumnsMod         ObjectType = "columns_mod"
	ClusteredIndexes   ObjectType = "clustered_indexes"
	Constraints        ObjectType = "constraints"
	Defaults           ObjectType = "defaults"
	Partitions         ObjectType = "partitions"
	Indexes            ObjectType = "indexes"
	Views              ObjectType = "views"
	Aggregates         ObjectType = "aggregates"
	Functions          ObjectType = "functions"
	Procedures         ObjectType = "procedures"
	Types              ObjectType = "types"
	Domains            ObjectType = "domains"
	Sequences          ObjectType = "sequences"
	Triggers           ObjectType = "triggers"
	Rules              ObjectType = "rules"
	Identities         ObjectType = "identities"
	RowLevelSecurities ObjectType = "row_level_securities"
	ReplicaIdentities  ObjectType = "replica_identities"
	ACLs               ObjectType = "acls"
	Comments           ObjectType = "comments"
	Extensions         ObjectType = "extensions"

	// Utilities is the catch-all bucket for statements whose object does
	// not warrant a per-schema subdirectory (schemas, servers, event
	// triggers, ...). Files live under utilities/others/<name>.sql.
	Utilities ObjectType = "utilities"
)

// utilitySchema is the single pseudo-schema directory for utility files.
const utilitySchema = "others"

var (
	// ErrUnclassified marks a CREATE or ALTER statement no rule claims.
	// Callers log it, drop the statement and flag the run.
	ErrUnclassified = errors.New("statement matches no classification rule")

	// ErrSkip marks text that is not a schema statement at all (for
	// example the empty trailing segment of a dump). It is ignored
	// silently.
	ErrSkip = errors.New("statement is not subject to classification")
)

// Result describes where one classified statement belongs.
type Result struct {
	Type   ObjectType
	Schema string
	Name   string

	// Append selects deduplicating append over plain overwrite when the
	// target file already exists.
	Append bool

	// NeedsDefinition marks functions and procedures, whose dump text is
	// discarded in favor of the definition fetched from the live catalog.
	NeedsDefinition bool
}

// Classify resolves stmt (one segment with its delimiter re-appended)
// against the rule table. Rules are evaluated in declaration order and the
// first match wins. A matching rule whose name-extraction pattern does not
// match the statement is a hard error: it means an unhandled SQL variant.
func Classify(stmt string) (Result, error) {
	for _, r := range rules {
		if r.match(stmt) {
			return r.resolve(stmt)
		}
	}
	if strings.HasPrefix(stmt, "CREATE") || strings.HasPrefix(stmt, "ALTER") {
		return Result{}, ErrUnclassified
	}
	return Result{}, ErrSkip
}

func extractionError(typ ObjectType, stmt string) error {
	return fmt.Errorf("extracting object name for %s from %q", typ, head(stmt))
}

// head returns the first line of a statement, for diagnostics.
func head(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return stmt[:i]
	}
	return stmt
}
