package classify

import (
	"regexp"
	"strings"
)

// Name-extraction patterns, anchored against the statement grammar of the
// bucket they serve. Keyword matching in the predicates is case sensitive
// (pg_dump emits uppercase keywords); extraction is not.
var (
	reObjectName = regexp.MustCompile(`(?i)^(CREATE.*TABLE|COMMENT ON \w+|CREATE AGGREGATE|CREATE.*VIEW|CREATE TYPE|CREATE DOMAIN|CREATE COLLATION|CREATE.*SEQUENCE|ALTER.*TABLE \w+|ALTER.*TABLE|GRANT.*ON \w+|REVOKE.*ON \w+|GRANT.*ON|REVOKE.*ON|.*TRIGGER.*?ON|.*RULE.*\n.*?ON.*) (\w+)\.(\w+)`)
	reIndexName  = regexp.MustCompile(`(?i)^CREATE .*INDEX (\w+) ON (\w+)\.(\w+)`)
	reExtension  = regexp.MustCompile(`(?i)^CREATE EXTENSION.* (\w+) WITH SCHEMA (\w+)`)
	reRoutine    = regexp.MustCompile(`(?i)^(CREATE FUNCTION|CREATE OR REPLACE FUNCTION|CREATE PROCEDURE|CREATE OR REPLACE PROCEDURE) (\w+)\.(\w+)`)

	reQualified     = regexp.MustCompile(`\w+\.\w+`)
	reEnableTrigger = regexp.MustCompile(`ENABLE.*TRIGGER`)
	reEnableRule    = regexp.MustCompile(`ENABLE.*RULE`)
	reRowLevelSec   = regexp.MustCompile(`ROW LEVEL SECURITY`)
	reReplicaIdent  = regexp.MustCompile(`REPLICA IDENTITY`)
)

// rule pairs a match predicate with the resolver producing the bucket and
// extracted names for the statements it claims.
type rule struct {
	match   func(string) bool
	resolve func(string) (Result, error)
}

// The rule table. Order matters: for example an ALTER TABLE statement that
// both alters a column and sets a default lands in columns_mod because that
// rule is declared first.
var rules = []rule{
	{starts("CREATE TABLE", "CREATE UNLOGGED TABLE", "CREATE FOREIGN TABLE"), object(Tables)},
	{alterTableWith(contains("ALTER COLUMN")), object(ColumnsMod)},
	{alterTableWith(contains("CLUSTER ON")), object(ClusteredIndexes)},
	{alterTableWith(contains("ADD CONSTRAINT")), object(Constraints)},
	{alterTableWith(contains("SET DEFAULT")), object(Defaults)},
	{alterTableWith(contains("ATTACH PARTITION", "INHERIT")), object(Partitions)},
	{starts("CREATE INDEX", "CREATE UNIQUE INDEX"), index},
	{starts("CREATE VIEW", "CREATE OR REPLACE VIEW", "CREATE MATERIALIZED VIEW"), object(Views)},
	{starts("CREATE AGGREGATE"), object(Aggregates)},
	{starts("CREATE FUNCTION", "CREATE OR REPLACE FUNCTION"), routine(Functions)},
	{starts("CREATE PROCEDURE", "CREATE OR REPLACE PROCEDURE"), routine(Procedures)},
	{starts("CREATE TYPE"), object(Types)},
	{starts("CREATE DOMAIN"), object(Domains)},
	{starts("CREATE SEQUENCE", "CREATE UNLOGGED SEQUENCE"), object(Sequences)},
	{anyOf(
		starts("CREATE TRIGGER", "CREATE OR REPLACE TRIGGER", "CREATE CONSTRAINT TRIGGER", "CREATE OR REPLACE CONSTRAINT TRIGGER", "ALTER TRIGGER"),
		contains("DISABLE TRIGGER"),
		matches(reEnableTrigger),
	), object(Triggers)},
	{anyOf(
		starts("CREATE RULE", "CREATE OR REPLACE RULE", "ALTER RULE"),
		contains("DISABLE RULE"),
		matches(reEnableRule),
	), object(Rules)},
	{starts("CREATE SCHEMA"), utility("schemas")},
	{contains("OWNER TO", "OWNED BY"), utility("ownerships")},
	{all(contains("GRANT", "REVOKE"), matches(reQualified)), object(ACLs)},
	{all(contains("GRANT", "REVOKE"), not(matches(reQualified))), utility("acls")},
	{starts("CREATE EXTENSION"), extension},
	{starts("CREATE SERVER"), utility("servers")},
	{all(starts("COMMENT"), matches(reQualified)), object(Comments)},
	{all(starts("COMMENT"), not(matches(reQualified))), utility("comments")},
	{starts("CREATE EVENT TRIGGER", "ALTER EVENT TRIGGER"), utility("events")},
	{starts("CREATE USER MAPPING"), utility("mappings")},
	{starts("CREATE PUBLICATION"), utility("publications")},
	{all(starts("ALTER PUBLICATION"), not(contains("OWNER TO"))), utility("publications")},
	{starts("CREATE SUBSCRIPTION"), utility("subscriptions")},
	{all(starts("ALTER SUBSCRIPTION"), not(contains("OWNER TO"))), utility("subscriptions")},
	{starts("CREATE COLLATION"), utility("collations")},
	{alterTableWith(contains("ADD GENERATED ALWAYS AS IDENTITY")), object(Identities)},
	{alterTableWith(matches(reRowLevelSec)), object(RowLevelSecurities)},
	{alterTableWith(matches(reReplicaIdent)), object(ReplicaIdentities)},
}

// ── Predicates ────────────────────────────────────────────────────────────

func starts(prefixes ...string) func(string) bool {
	return func(stmt string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(stmt, p) {
				return true
			}
		}
		return false
	}
}

// contains reports whether the statement contains any of the substrings.
func contains(substrings ...string) func(string) bool {
	return func(stmt string) bool {
		for _, s := range substrings {
			if strings.Contains(stmt, s) {
				return true
			}
		}
		return false
	}
}

func matches(re *regexp.Regexp) func(string) bool {
	return func(stmt string) bool { return re.MatchString(stmt) }
}

func not(pred func(string) bool) func(string) bool {
	return func(stmt string) bool { return !pred(stmt) }
}

func anyOf(preds ...func(string) bool) func(string) bool {
	return func(stmt string) bool {
		for _, p := range preds {
			if p(stmt) {
				return true
			}
		}
		return false
	}
}

func all(preds ...func(string) bool) func(string) bool {
	return func(stmt string) bool {
		for _, p := range preds {
			if !p(stmt) {
				return false
			}
		}
		return true
	}
}

// alterTableWith matches ALTER TABLE / ALTER FOREIGN TABLE statements that
// also satisfy pred.
func alterTableWith(pred func(string) bool) func(string) bool {
	isAlter := starts("ALTER TABLE", "ALTER FOREIGN TABLE")
	return func(stmt string) bool { return isAlter(stmt) && pred(stmt) }
}

// ── Resolvers ─────────────────────────────────────────────────────────────

// object resolves a per-object bucket with deduplicating append semantics.
// The schema and object name come from the shared grammar pattern.
func object(typ ObjectType) func(string) (Result, error) {
	return func(stmt string) (Result, error) {
		m := reObjectName.FindStringSubmatch(stmt)
		if m == nil {
			return Result{}, extractionError(typ, stmt)
		}
		return Result{Type: typ, Schema: m[2], Name: m[3], Append: true}, nil
	}
}

// index files are singletons per index, so they overwrite. The file is
// named after the index, not the table it is on.
func index(stmt string) (Result, error) {
	m := reIndexName.FindStringSubmatch(stmt)
	if m == nil {
		return Result{}, extractionError(Indexes, stmt)
	}
	return Result{Type: Indexes, Schema: m[2], Name: m[1]}, nil
}

func extension(stmt string) (Result, error) {
	m := reExtension.FindStringSubmatch(stmt)
	if m == nil {
		return Result{}, extractionError(Extensions, stmt)
	}
	return Result{Type: Extensions, Schema: m[2], Name: m[1]}, nil
}

// routine resolves functions and procedures. Only the header names are
// taken from the dump; the definition itself is re-fetched from the live
// database because dollar-quoted bodies can embed the statement delimiter.
func routine(typ ObjectType) func(string) (Result, error) {
	return func(stmt string) (Result, error) {
		m := reRoutine.FindStringSubmatch(stmt)
		if m == nil {
			return Result{}, extractionError(typ, stmt)
		}
		return Result{Type: typ, Schema: m[2], Name: m[3], NeedsDefinition: true}, nil
	}
}

// utility resolves a catch-all bucket: one append-mode file per utility
// type under utilities/others/.
func utility(name string) func(string) (Result, error) {
	return func(string) (Result, error) {
		return Result{Type: Utilities, Schema: utilitySchema, Name: name, Append: true}, nil
	}
}
