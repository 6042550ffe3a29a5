package changeset

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// Template is the placeholder content of newly created change-set files.
const Template = "-- write your SQL here\n"

// Repository discovers change-set files stored on a filesystem, under
// <root>/<kind dir>/.
type Repository struct {
	fs   vfs.FileSystem
	root string
}

// NewRepository returns a new Repository rooted at root.
func NewRepository(fs vfs.FileSystem, root string) *Repository {
	return &Repository{fs: fs, root: root}
}

// Dir returns the directory where change-sets of the given kind are stored.
func (r *Repository) Dir(kind Kind) string {
	return filepath.Join(r.root, kind.Dir())
}

// ListForward returns all forward files of the given kind, sorted in
// ascending filename order. Since IDs are fixed-width timestamps, this is also
// the order in which they were created.
func (r *Repository) ListForward(kind Kind) ([]File, error) {
	return r.list(kind, Forward)
}

// ListReverse returns all reverse files of the given kind, sorted in
// descending filename order, i.e. newest first.
func (r *Repository) ListReverse(kind Kind) ([]File, error) {
	files, err := r.list(kind, Reverse)
	if err != nil {
		return nil, err
	}
	slices.Reverse(files)

	return files, nil
}

// ChangeSets returns the forward/reverse pairs of the given kind, keyed by ID.
func (r *Repository) ChangeSets(kind Kind) (map[string]*ChangeSet, error) {
	sets := map[string]*ChangeSet{}
	get := func(f File) *ChangeSet {
		cs, ok := sets[f.ID]
		if !ok {
			cs = &ChangeSet{ID: f.ID, Name: f.Name, Kind: kind}
			sets[f.ID] = cs
		}
		return cs
	}

	fwd, err := r.ListForward(kind)
	if err != nil {
		return nil, err
	}
	for _, f := range fwd {
		get(f).Forward = &f
	}

	rev, err := r.ListReverse(kind)
	if err != nil {
		return nil, err
	}
	for _, f := range rev {
		get(f).Reverse = &f
	}

	return sets, nil
}

// ReadBody returns the SQL contents of f.
func (r *Repository) ReadBody(f File) (string, error) {
	body, err := vfs.ReadFile(r.fs, f.Path)
	if err != nil {
		return "", fmt.Errorf("failed reading %s file '%s': %w", f.Kind, f.Path, err)
	}

	return string(body), nil
}

// Create writes a new forward/reverse file pair with placeholder content. The
// ID is the millisecond Unix timestamp of now. Existing files are never
// overwritten.
func (r *Repository) Create(kind Kind, name string, now time.Time) (fwd, rev File, err error) {
	name = NormalizeName(name)
	if name == "" {
		return fwd, rev, fmt.Errorf("%s name is required", kind)
	}

	dir := r.Dir(kind)
	if err = r.fs.MkdirAll(dir, 0o755); err != nil {
		return fwd, rev, fmt.Errorf("failed creating directory '%s': %w", dir, err)
	}

	id := strconv.FormatInt(now.UnixMilli(), 10)
	base := fmt.Sprintf("%s_%s", id, name)
	fwd = File{
		Path: filepath.Join(dir, base+Forward.Suffix()),
		ID:   id, Name: name, Kind: kind, Direction: Forward,
	}
	rev = File{
		Path: filepath.Join(dir, base+Reverse.Suffix()),
		ID:   id, Name: name, Kind: kind, Direction: Reverse,
	}

	for _, f := range []File{fwd, rev} {
		if err = r.writeIfMissing(f.Path, Template); err != nil {
			return fwd, rev, err
		}
	}

	return fwd, rev, nil
}

func (r *Repository) list(kind Kind, dir Direction) ([]File, error) {
	path := r.Dir(kind)
	entries, err := vfs.ReadDir(r.fs, path)
	if err != nil {
		if vfs.IsErrNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed reading %s directory '%s': %w", kind, path, err)
	}

	suffix := dir.Suffix()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)

	files := make([]File, 0, len(names))
	for _, fname := range names {
		id, name, ok := ParseFilename(fname, suffix)
		if !ok {
			continue
		}
		files = append(files, File{
			Path:      filepath.Join(path, fname),
			ID:        id,
			Name:      name,
			Kind:      kind,
			Direction: dir,
		})
	}

	return files, nil
}

func (r *Repository) writeIfMissing(path, content string) error {
	_, err := r.fs.Stat(path)
	if err == nil {
		return nil
	}
	if !vfs.IsErrNotExist(err) {
		return fmt.Errorf("failed checking file '%s': %w", path, err)
	}

	if err = vfs.WriteFile(r.fs, path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed writing file '%s': %w", path, err)
	}

	return nil
}
