// Package dump persists classified statements as the on-disk schema tree.
package dump

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ALE-Terry/pg-schema-dump-parser/internal/classify"
	"github.com/ALE-Terry/pg-schema-dump-parser/internal/segment"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Tree is the output layout rooted at the target directory. Per-object
// files live at <root>/schema/<type>/<schema>/<name>.sql.
type Tree struct {
	root string
}

func NewTree(root string) *Tree {
	return &Tree{root: root}
}

// SchemaDir returns the directory holding all generated files.
func (t *Tree) SchemaDir() string {
	return filepath.Join(t.root, "schema")
}

// Clean removes any previous run's output. The tree is always a fresh
// re-derivation of the current database state, never an incremental merge.
func (t *Tree) Clean() error {
	if err := os.RemoveAll(t.SchemaDir()); err != nil {
		return fmt.Errorf("cleaning %s: %w", t.SchemaDir(), err)
	}
	return nil
}

// WriteObject persists one statement under the bucket the classifier
// resolved. Overwrite buckets replace the file unconditionally; append
// buckets only add the statement when no existing statement in the file
// already contains it, so re-applying a dump never duplicates entries.
func (t *Tree) WriteObject(res classify.Result, text string) error {
	dir := filepath.Join(t.SchemaDir(), string(res.Type), res.Schema)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	path := filepath.Join(dir, res.Name+".sql")
	if !res.Append {
		if err := os.WriteFile(path, []byte(text), filePerm); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		return nil
	}
	if err := appendUnique(path, text); err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	return nil
}

// appendUnique appends text to the file at path unless one of the file's
// existing statements already contains it.
func appendUnique(path, text string) error {
	current, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return os.WriteFile(path, []byte(text), filePerm)
	}
	if err != nil {
		return err
	}

	for _, stmt := range segment.SplitAll(string(current)) {
		if strings.Contains(stmt+segment.Delimiter, text) {
			return nil
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
