package dump

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// MetadataFile is the name of the run summary inside the schema tree.
const MetadataFile = "METADATA"

// Metadata is the summary record of one run.
type Metadata struct {
	DatabaseVersion string `yaml:"database_version"`
	PgDumpVersion   string `yaml:"pg_dump_version"`
	DatabaseName    string `yaml:"database_name"`
	DatabaseHost    string `yaml:"database_host"`
	Warnings        bool   `yaml:"warnings"`
}

// WriteMetadata records the run summary at <root>/schema/METADATA,
// replacing any record a previous run left behind.
func (t *Tree) WriteMetadata(generatedBy string, generatedAt time.Time, elapsed time.Duration, meta Metadata) error {
	body, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Do not edit\n# Generated by %s %s\n# Schema parsing completed in %.2f seconds\n\n",
		generatedBy, generatedAt.UTC().Format(time.RFC3339), elapsed.Seconds())
	buf.Write(body)

	if err := os.MkdirAll(t.SchemaDir(), dirPerm); err != nil {
		return fmt.Errorf("creating %s: %w", t.SchemaDir(), err)
	}
	path := filepath.Join(t.SchemaDir(), MetadataFile)
	if err := os.WriteFile(path, buf.Bytes(), filePerm); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
