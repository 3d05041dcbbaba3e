// Package config reads the database configuration file passed on the
// command line.
package config

import (
	"fmt"
	"net/url"

	"gopkg.in/ini.v1"
)

// Config holds the settings read from the ini-style configuration file.
type Config struct {
	Postgres Postgres `ini:"postgresql"`
}

// Postgres is the [postgresql] section. Schema may be empty, which dumps
// every schema in the database. Password may be empty when authentication
// is handled by the client tools (.pgpass, environment).
type Postgres struct {
	Host     string `ini:"host"`
	Port     string `ini:"port"`
	Database string `ini:"db"`
	Schema   string `ini:"schema"`
	User     string `ini:"user"`
	Password string `ini:"password"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	var cfg Config
	if err := f.Section("postgresql").MapTo(&cfg.Postgres); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}
	if err := cfg.Postgres.validate(); err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return &cfg, nil
}

func (p Postgres) validate() error {
	switch {
	case p.Host == "":
		return fmt.Errorf("postgresql.host is required")
	case p.Port == "":
		return fmt.Errorf("postgresql.port is required")
	case p.Database == "":
		return fmt.Errorf("postgresql.db is required")
	case p.User == "":
		return fmt.Errorf("postgresql.user is required")
	}
	return nil
}

// DSN builds the connection URL handed to both lib/pq and pg_dump.
func (p Postgres) DSN(appName string) string {
	u := url.URL{
		Scheme: "postgresql",
		Host:   p.Host + ":" + p.Port,
		Path:   "/" + p.Database,
	}
	if p.Password != "" {
		u.User = url.UserPassword(p.User, p.Password)
	} else {
		u.User = url.User(p.User)
	}
	q := url.Values{}
	q.Set("application_name", appName)
	u.RawQuery = q.Encode()
	return u.String()
}
