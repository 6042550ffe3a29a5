package changeset

import (
	"fmt"
	"strings"
)

// Kind is the namespace of a change-set. Migrations and seeds are tracked
// independently of each other.
type Kind string

const (
	Migration Kind = "migration"
	Seed      Kind = "seeder"
)

// Kinds returns all change-set kinds.
func Kinds() []Kind {
	return []Kind{Migration, Seed}
}

// Dir returns the name of the directory that holds change-sets of this kind.
// It's also the name of the ledger table.
func (k Kind) Dir() string {
	return string(k) + "s"
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// Direction is the direction in which a change-set file is applied.
type Direction string

const (
	Forward Direction = "up"
	Reverse Direction = "down"
)

// Suffix returns the filename suffix of change-set files in this direction.
func (d Direction) Suffix() string {
	return fmt.Sprintf("_%s.sql", d)
}

// File is a single change-set file.
type File struct {
	Path      string
	ID        string
	Name      string
	Kind      Kind
	Direction Direction
}

// ChangeSet is a forward/reverse file pair sharing the same ID. Either side
// may be missing.
type ChangeSet struct {
	ID      string
	Name    string
	Kind    Kind
	Forward *File
	Reverse *File
}

// ParseFilename extracts the change-set ID and name from a filename in the
// format <id>_<name><suffix>. The ID is the text before the first underscore.
// It returns false if the filename doesn't contain an underscore, or if the
// ID is empty.
func ParseFilename(filename, suffix string) (id, name string, ok bool) {
	id, rest, found := strings.Cut(filename, "_")
	if !found || id == "" {
		return "", "", false
	}
	name = strings.TrimPrefix(strings.TrimSuffix("_"+rest, suffix), "_")

	return id, name, true
}

// NormalizeName converts a human-provided change-set name into the slug used
// in filenames.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}
