package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"library-catalog/config"
	"library-catalog/library"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// execute runs the root command with args against a scratch data directory.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LIBRARY_STORAGE_BOOKS_FILE", filepath.Join(dir, "books.json"))
	t.Setenv("LIBRARY_STORAGE_USERS_FILE", filepath.Join(dir, "users.json"))
	t.Setenv("LIBRARY_STORAGE_DATABASE_FILE", filepath.Join(dir, "library.db"))
	t.Setenv("LIBRARY_LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(dir, "config.yml"), "--backend", ""}, args...))
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return out.String(), err
}

func TestBooksCommandEmptyCatalog(t *testing.T) {
	out, err := execute(t, "", "books")
	require.NoError(t, err)
	assert.Contains(t, out, library.EmptyCatalogNotice)
}

func TestBooksCommandSQLite(t *testing.T) {
	out, err := execute(t, "", "books", "--backend", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, library.EmptyCatalogNotice)
	assert.Equal(t, config.BackendSQLite, cfg.Storage.Backend)
	_, statErr := os.Stat(cfg.Storage.DatabaseFile)
	assert.NoError(t, statErr)
}

func TestUnknownBackendFails(t *testing.T) {
	_, err := execute(t, "", "books", "--backend", "postgres")
	assert.ErrorContains(t, err, "unknown storage.backend")
}

func TestHashPasswordCommand(t *testing.T) {
	out, err := execute(t, "opensesame\n", "hash-password")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	hash := strings.TrimSpace(lines[len(lines)-1])
	hash = strings.TrimPrefix(hash, "New librarian password: ")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("opensesame")))
}

func TestInitWritesConfig(t *testing.T) {
	out, err := execute(t, "", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")

	path := flagConfig
	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Storage.BooksFile, loaded.Storage.BooksFile)

	// Second run refuses to overwrite.
	rootCmd.SetArgs([]string{"--config", path, "init"})
	assert.ErrorContains(t, rootCmd.Execute(), "already exists")
}

func TestRootRunsMenu(t *testing.T) {
	out, err := execute(t, "3\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Main Menu")
	assert.Contains(t, out, "Thank you for using the Library Management System!")
}
