package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"library-catalog/library"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportBooks(t *testing.T) {
	color.NoColor = true
	dir := t.TempDir()
	manifest := filepath.Join(dir, "books.yml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
- title: The Hobbit
  author: J.R.R. Tolkien
- title: the hobbit
  author: j.r.r. tolkien
- title: X
  author: Nobody
- title: Romeo and Juliet
  author: William Shakespeare
`), 0o644))

	entries, err := readManifest(manifest)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	lib, err := library.NewLibrary(library.NewFileStore(filepath.Join(dir, "b.json"), filepath.Join(dir, "u.json"), log), log)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, importBooks(&out, lib, entries))

	assert.Len(t, lib.Books(), 2)
	assert.Contains(t, out.String(), "Successfully imported: 2 books")
	assert.Contains(t, out.String(), "Skipped: 2")
	assert.Contains(t, out.String(), "is already in this library.")
	assert.Contains(t, out.String(), "Book title must be at least 2 characters")
}

func TestReadManifestRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("title: [oops"), 0o644))

	_, err := readManifest(path)
	assert.ErrorContains(t, err, "parsing manifest")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncateString("abcdef", 2))
}
