package library

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"), quietLogger())
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabaseEmptyOnFirstOpen(t *testing.T) {
	db := tempDB(t)
	books, err := db.LoadBooks()
	if err != nil {
		t.Fatalf("load books: %v", err)
	}
	if len(books) != 0 {
		t.Fatalf("want empty catalog, got %d books", len(books))
	}
	users, err := db.LoadUsers()
	if err != nil {
		t.Fatalf("load users: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("want no users, got %d", len(users))
	}
}

func TestDatabaseBooksKeepOrder(t *testing.T) {
	db := tempDB(t)
	in := []*Book{
		{Title: "Zebra", Author: "Last", Available: true},
		{Title: "Apple", Author: "First", Available: false, BorrowedBy: "alice"},
		{Title: "Mango", Author: "Middle", Available: true},
	}
	if err := db.SaveBooks(in); err != nil {
		t.Fatalf("save: %v", err)
	}
	// A second save must fully replace the first.
	if err := db.SaveBooks(in[:2]); err != nil {
		t.Fatalf("resave: %v", err)
	}

	out, err := db.LoadBooks()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 books, got %d", len(out))
	}
	if out[0].Title != "Zebra" || out[1].Title != "Apple" {
		t.Fatalf("order not kept: %q, %q", out[0].Title, out[1].Title)
	}
	if out[1].Available || out[1].BorrowedBy != "alice" {
		t.Fatalf("borrow state lost: %+v", out[1])
	}
}

func TestDatabaseUsers(t *testing.T) {
	db := tempDB(t)
	users := map[string]*User{
		"alice": {Username: "alice", Password: "secret1", Role: RoleReader, BorrowedBooks: []string{"Dune", "Emma"}},
		"bob":   {Username: "bob", Password: "pw1", Role: RoleReader},
	}
	if err := db.SaveUsers(users); err != nil {
		t.Fatalf("save: %v", err)
	}
	delete(users, "bob")
	users["alice"].RemoveBorrowed("Dune")
	if err := db.SaveUsers(users); err != nil {
		t.Fatalf("resave: %v", err)
	}

	out, err := db.LoadUsers()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("want 1 user, got %d", len(out))
	}
	alice := out["alice"]
	if alice == nil || alice.Password != "secret1" || alice.Role != RoleReader {
		t.Fatalf("alice not restored: %+v", alice)
	}
	if len(alice.BorrowedBooks) != 1 || alice.BorrowedBooks[0] != "Emma" {
		t.Fatalf("borrowed books = %v, want [Emma]", alice.BorrowedBooks)
	}
}

func TestDatabaseBacksLibrary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.db")

	db, err := NewDatabase(path, quietLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	lib, err := NewLibrary(db, quietLogger())
	if err != nil {
		t.Fatalf("library: %v", err)
	}
	if _, err := lib.AddBook("Dune", "Herbert"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := lib.RegisterUser("alice", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	s, err := lib.Login("alice", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := lib.Borrow(s, "Dune"); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	db.Close()

	db, err = NewDatabase(path, quietLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	lib, err = NewLibrary(db, quietLogger())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	b, ok := lib.SearchByTitle("Dune")
	if !ok || b.BorrowedBy != "alice" {
		t.Fatalf("borrow not persisted: %+v", b)
	}
	u, _ := lib.User("alice")
	if len(u.BorrowedBooks) != 1 {
		t.Fatalf("user loans not persisted: %v", u.BorrowedBooks)
	}
}

func TestDatabaseGarbageFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.db")
	if err := os.WriteFile(path, []byte(strings.Repeat("not a sqlite database\n", 200)), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	db, err := NewDatabase(path, quietLogger())
	if err != nil {
		t.Fatalf("open garbage: %v", err)
	}
	defer db.Close()
	books, err := db.LoadBooks()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(books) != 0 {
		t.Fatalf("want empty catalog, got %d", len(books))
	}
}
