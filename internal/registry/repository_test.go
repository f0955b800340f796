package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"svcman/internal/logger"
	"svcman/internal/services"
)

func newTestRepo(t *testing.T, opts ...Option) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "services.json")
	return NewRepository(path, logger.Nop(), opts...)
}

func strPtr(s string) *string { return &s }

func TestLoad_MissingFile(t *testing.T) {
	repo := newTestRepo(t)

	entries, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveAndLoad(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Save(Entry{Tag: "sys", Name: "nginx"}))
	require.NoError(t, repo.Save(Entry{Tag: "docker", Name: "gitea", Path: strPtr("~/web/giteaService")}))

	entries, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "sys", entries[0].Tag)
	assert.Equal(t, "nginx", entries[0].Name)
	assert.Nil(t, entries[0].Path)
	assert.Equal(t, "gitea", entries[1].Name)
	assert.Equal(t, "~/web/giteaService", entries[1].Location())
}

func TestSave_FileFormat(t *testing.T) {
	repo := newTestRepo(t, WithBackup(false))

	require.NoError(t, repo.Save(Entry{Tag: "sys", Name: "nginx"}))
	require.NoError(t, repo.Save(Entry{Tag: "docker", Name: "status", Path: strPtr("/srv/status")}))

	data, err := os.ReadFile(repo.Path())
	require.NoError(t, err)

	want := `[
  {
    "tag": "sys",
    "name": "nginx",
    "path": null
  },
  {
    "tag": "docker",
    "name": "status",
    "path": "/srv/status"
  }
]
`
	assert.Equal(t, want, string(data))
}

func TestSave_PreservesOrder(t *testing.T) {
	repo := newTestRepo(t)
	names := []string{"nginx", "postgres", "redis", "caddy", "minio"}

	for _, n := range names {
		require.NoError(t, repo.Save(Entry{Tag: "sys", Name: n}))
	}

	entries, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, entries, len(names))
	for i, n := range names {
		assert.Equal(t, n, entries[i].Name)
	}
}

func TestLoad_CorruptedFile(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	path := filepath.Join(t.TempDir(), "services.json")
	require.NoError(t, os.WriteFile(path, []byte("invalid json"), 0644))

	repo := NewRepository(path, logger.FromZap(zap.New(core)))

	entries, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 1, logs.FilterMessage("registry file is corrupted, treating it as empty").Len())
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.json")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0644))

	entries, err := NewRepository(path, nil).Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemoveByName(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		remove string
	}{
		{"exact", "nginx", "nginx"},
		{"case insensitive", "Nginx", "nginx"},
		{"upper input", "  nginx ", "NGINX"},
		{"whitespace", " nginx ", "  nginx  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepo(t)
			require.NoError(t, repo.Save(Entry{Tag: "sys", Name: "postgres"}))
			require.NoError(t, repo.Save(Entry{Tag: "sys", Name: tt.stored}))

			removed, err := repo.RemoveByName(tt.remove)
			require.NoError(t, err)
			assert.Equal(t, 1, removed)

			entries, err := repo.Load()
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "postgres", entries[0].Name)
		})
	}
}

func TestRemoveByName_RemovesAllMatches(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Save(Entry{Tag: "sys", Name: "nginx"}))
	require.NoError(t, repo.Save(Entry{Tag: "sys", Name: "redis"}))
	require.NoError(t, repo.Save(Entry{Tag: "sys", Name: "NGINX"}))

	removed, err := repo.RemoveByName("nginx")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "redis", entries[0].Name)
}

func TestRemoveByName_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Save(Entry{Tag: "sys", Name: "nginx"}))

	before, err := os.ReadFile(repo.Path())
	require.NoError(t, err)

	_, err = repo.RemoveByName("nonexistent")
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.IsType(t, services.ServiceNotFoundError{}, err)

	after, err := os.ReadFile(repo.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRemoveByName_EmptyRegistry(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.RemoveByName("nginx")
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, statErr := os.Stat(repo.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestEntryRecordConversion(t *testing.T) {
	rec := services.Record{Kind: services.KindCompose, Name: "gitea", Location: "/srv/gitea"}
	e := EntryFromRecord(rec)
	assert.Equal(t, "docker", e.Tag)
	require.NotNil(t, e.Path)

	back, err := e.Record()
	require.NoError(t, err)
	assert.Equal(t, rec, back)

	sys := EntryFromRecord(services.Record{Kind: services.KindSystem, Name: "nginx"})
	assert.Nil(t, sys.Path)

	_, err = Entry{Tag: "lxc", Name: "x"}.Record()
	assert.ErrorIs(t, err, services.ErrValidation)
}
