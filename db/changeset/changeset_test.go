package changeset_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/dbctl/db/changeset"
)

func TestParseFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		suffix   string
		expID    string
		expName  string
		expOK    bool
	}{
		{
			name:     "ok/forward",
			filename: "1700000000000_add_users_table_up.sql",
			suffix:   "_up.sql",
			expID:    "1700000000000", expName: "add_users_table", expOK: true,
		},
		{
			name:     "ok/reverse",
			filename: "1700000000000_add_users_table_down.sql",
			suffix:   "_down.sql",
			expID:    "1700000000000", expName: "add_users_table", expOK: true,
		},
		{
			name:     "ok/no_name",
			filename: "1700000000000_up.sql",
			suffix:   "_up.sql",
			expID:    "1700000000000", expName: "", expOK: true,
		},
		{
			name:     "skip/no_separator",
			filename: "1700000000000.sql",
			suffix:   "_up.sql",
		},
		{
			name:     "skip/empty_id",
			filename: "_add_users_up.sql",
			suffix:   "_up.sql",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, name, ok := changeset.ParseFilename(tt.filename, tt.suffix)
			assert.Equal(t, tt.expOK, ok)
			assert.Equal(t, tt.expID, id)
			assert.Equal(t, tt.expName, name)
		})
	}
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "add_users_table", changeset.NormalizeName("  add users table\n"))
	assert.Equal(t, "", changeset.NormalizeName("   "))
}

func newTestFS(t *testing.T, files map[string]string) vfs.FileSystem {
	t.Helper()

	fs := memoryfs.New()
	for path, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, vfs.WriteFile(fs, path, []byte(content), 0o644))
	}

	return fs
}

func TestRepositoryList(t *testing.T) {
	t.Parallel()

	fs := newTestFS(t, map[string]string{
		"/root/migrations/300_third_up.sql":   "3",
		"/root/migrations/100_first_up.sql":   "1",
		"/root/migrations/200_second_up.sql":  "2",
		"/root/migrations/100_first_down.sql": "-1",
		"/root/migrations/300_third_down.sql": "-3",
		"/root/migrations/README.md":          "",
		"/root/migrations/noseparator_up.sql": "",
		"/root/migrations/sub/400_x_up.sql":   "",
		"/root/seeders/100_users_up.sql":      "s1",
	})
	// A directory with a matching name is ignored.
	require.NoError(t, fs.MkdirAll("/root/migrations/500_dir_up.sql", 0o755))

	repo := changeset.NewRepository(fs, "/root")

	t.Run("ok/forward_ascending", func(t *testing.T) {
		t.Parallel()

		files, err := repo.ListForward(changeset.Migration)
		require.NoError(t, err)

		ids := make([]string, len(files))
		for i, f := range files {
			ids[i] = f.ID
		}
		// "noseparator_up.sql" has an ID of "noseparator" and an empty name.
		assert.Equal(t, []string{"100", "200", "300", "noseparator"}, ids)
		assert.Equal(t, changeset.File{
			Path:      "/root/migrations/100_first_up.sql",
			ID:        "100",
			Name:      "first",
			Kind:      changeset.Migration,
			Direction: changeset.Forward,
		}, files[0])
	})

	t.Run("ok/reverse_descending", func(t *testing.T) {
		t.Parallel()

		files, err := repo.ListReverse(changeset.Migration)
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, "300", files[0].ID)
		assert.Equal(t, "third", files[0].Name)
		assert.Equal(t, changeset.Reverse, files[0].Direction)
		assert.Equal(t, "100", files[1].ID)
	})

	t.Run("ok/kinds_are_separate", func(t *testing.T) {
		t.Parallel()

		files, err := repo.ListForward(changeset.Seed)
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "/root/seeders/100_users_up.sql", files[0].Path)
		assert.Equal(t, changeset.Seed, files[0].Kind)
	})

	t.Run("ok/missing_dir", func(t *testing.T) {
		t.Parallel()

		files, err := changeset.NewRepository(fs, "/nothere").ListForward(changeset.Migration)
		require.NoError(t, err)
		assert.Empty(t, files)

		files, err = changeset.NewRepository(fs, "/nothere").ListReverse(changeset.Seed)
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("ok/change_sets", func(t *testing.T) {
		t.Parallel()

		sets, err := repo.ChangeSets(changeset.Migration)
		require.NoError(t, err)

		require.Contains(t, sets, "200")
		assert.NotNil(t, sets["200"].Forward)
		assert.Nil(t, sets["200"].Reverse, "200 has no reverse file")

		require.Contains(t, sets, "300")
		assert.Equal(t, "/root/migrations/300_third_up.sql", sets["300"].Forward.Path)
		assert.Equal(t, "/root/migrations/300_third_down.sql", sets["300"].Reverse.Path)
	})

	t.Run("ok/read_body", func(t *testing.T) {
		t.Parallel()

		files, err := repo.ListReverse(changeset.Migration)
		require.NoError(t, err)
		body, err := repo.ReadBody(files[0])
		require.NoError(t, err)
		assert.Equal(t, "-3", body)
	})

	t.Run("err/read_body_missing", func(t *testing.T) {
		t.Parallel()

		_, err := repo.ReadBody(changeset.File{Path: "/root/migrations/999_gone_up.sql", Kind: changeset.Migration})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed reading migration file")
	})
}

func TestRepositoryCreate(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1700000000000)

	t.Run("ok/new_pair", func(t *testing.T) {
		t.Parallel()

		fs := memoryfs.New()
		repo := changeset.NewRepository(fs, "src/db")
		fwd, rev, err := repo.Create(changeset.Seed, "add users", now)
		require.NoError(t, err)

		assert.Equal(t, filepath.Join("src/db", "seeders", "1700000000000_add_users_up.sql"), fwd.Path)
		assert.Equal(t, filepath.Join("src/db", "seeders", "1700000000000_add_users_down.sql"), rev.Path)
		assert.Equal(t, "1700000000000", fwd.ID)
		assert.Equal(t, "add_users", rev.Name)

		for _, f := range []changeset.File{fwd, rev} {
			body, rerr := vfs.ReadFile(fs, f.Path)
			require.NoError(t, rerr)
			assert.Equal(t, changeset.Template, string(body))
		}

		files, err := repo.ListForward(changeset.Seed)
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, fwd, files[0])
	})

	t.Run("ok/existing_not_overwritten", func(t *testing.T) {
		t.Parallel()

		fs := newTestFS(t, map[string]string{
			"/db/migrations/1700000000000_init_up.sql": "CREATE TABLE x (id INT);",
		})
		repo := changeset.NewRepository(fs, "/db")
		fwd, rev, err := repo.Create(changeset.Migration, "init", now)
		require.NoError(t, err)

		body, err := vfs.ReadFile(fs, fwd.Path)
		require.NoError(t, err)
		assert.Equal(t, "CREATE TABLE x (id INT);", string(body))

		body, err = vfs.ReadFile(fs, rev.Path)
		require.NoError(t, err)
		assert.Equal(t, changeset.Template, string(body))
	})

	t.Run("err/empty_name", func(t *testing.T) {
		t.Parallel()

		repo := changeset.NewRepository(memoryfs.New(), "/db")
		_, _, err := repo.Create(changeset.Migration, "  ", now)
		require.EqualError(t, err, "migration name is required")
	})
}
