// Package pg talks to the target PostgreSQL instance: catalog queries over
// database/sql and the pg_dump subprocess producing the schema stream.
package pg

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/ALE-Terry/pg-schema-dump-parser/internal/config"
)

// ApplicationName identifies this tool in connection strings, so its
// sessions are recognizable in pg_stat_activity.
const ApplicationName = "pg_schema_dump_parser"

// Client wraps a live connection to the target database.
type Client struct {
	db  *sql.DB
	cfg config.Postgres
}

// Open connects to the database described by cfg and verifies the
// connection with a ping.
func Open(cfg *config.Config) (*Client, error) {
	db, err := sql.Open("postgres", cfg.Postgres.DSN(ApplicationName))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s:%s/%s: %w", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Database, err)
	}
	return &Client{db: db, cfg: cfg.Postgres}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// ServerVersion returns the server_version setting of the live database.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	const query = `SELECT setting FROM pg_catalog.pg_settings WHERE name = 'server_version'`

	var version string
	if err := c.db.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return "", fmt.Errorf("querying server version: %w", err)
	}
	return version, nil
}

// functionDefQuery aggregates the definitions of every overload of a
// routine name into one text, overloads separated by the statement
// delimiter.
const functionDefQuery = `
SELECT pg_catalog.string_agg(pg_catalog.pg_get_functiondef(f.oid), E';\n') || ';'
FROM (
    SELECT oid FROM pg_catalog.pg_proc
    WHERE proname = $1 AND pronamespace = $2::regnamespace
) AS f`

// FunctionDef returns the authoritative definition of schema.name from the
// catalog. The dump text for functions and procedures is not reusable:
// dollar-quoted bodies can embed the statement delimiter, so the definition
// is always re-fetched from pg_get_functiondef.
func (c *Client) FunctionDef(ctx context.Context, schema, name string) (string, error) {
	var def sql.NullString
	if err := c.db.QueryRowContext(ctx, functionDefQuery, name, schema).Scan(&def); err != nil {
		return "", fmt.Errorf("querying definition of %s.%s: %w", schema, name, err)
	}
	if !def.Valid {
		return "", fmt.Errorf("no definition found for %s.%s", schema, name)
	}
	return def.String + "\n", nil
}
