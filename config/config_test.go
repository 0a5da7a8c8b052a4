package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, BackendJSON, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join("data", "library_data.json"), cfg.Storage.BooksFile)
	assert.Equal(t, filepath.Join("data", "users_data.json"), cfg.Storage.UsersFile)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Empty(t, cfg.Librarian.PasswordHash)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yml")
	in := &Config{
		Storage: StorageConfig{
			Backend:      BackendSQLite,
			BooksFile:    "b.json",
			UsersFile:    "u.json",
			DatabaseFile: "lib.db",
		},
		Librarian: LibrarianConfig{PasswordHash: "$2a$10$abcdefghijklmnopqrstuv"},
		Log:       LogConfig{Level: "debug", File: "library.log"},
	}
	require.NoError(t, Save(in, path))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LIBRARY_STORAGE_BACKEND", "sqlite")
	t.Setenv("LIBRARY_LOG_LEVEL", "info")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: postgres\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown storage.backend")
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unterminated\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "reading config")
}
