package library

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Store persists the catalog and the user accounts. Each Save rewrites the
// whole store.
type Store interface {
	LoadBooks() ([]*Book, error)
	SaveBooks(books []*Book) error
	LoadUsers() (map[string]*User, error)
	SaveUsers(users map[string]*User) error
	Close() error
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type bookRecord struct {
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Status     *bool   `json:"status"`
	BorrowedBy *string `json:"borrowed_by"`
}

type userRecord struct {
	Password      string   `json:"password"`
	Role          string   `json:"role"`
	BorrowedBooks []string `json:"borrowed_books"`
}

func toBookRecords(books []*Book) []bookRecord {
	records := make([]bookRecord, 0, len(books))
	for _, b := range books {
		status := b.Available
		r := bookRecord{Title: b.Title, Author: b.Author, Status: &status}
		if b.BorrowedBy != "" {
			by := b.BorrowedBy
			r.BorrowedBy = &by
		}
		records = append(records, r)
	}
	return records
}

// fromBookRecords drops records without a title or author and repairs the
// availability/borrower pairing.
func fromBookRecords(records []bookRecord) []*Book {
	books := make([]*Book, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Author) == "" {
			continue
		}
		b := NewBook(r.Title, r.Author)
		if r.BorrowedBy != nil {
			b.BorrowedBy = strings.TrimSpace(*r.BorrowedBy)
		}
		if r.Status != nil {
			b.Available = *r.Status
		} else {
			b.Available = b.BorrowedBy == ""
		}
		// A borrowed book with no known borrower cannot be returned by anyone.
		if b.Available || b.BorrowedBy == "" {
			b.Available, b.BorrowedBy = true, ""
		}
		books = append(books, b)
	}
	return books
}

func toUserRecords(users map[string]*User) map[string]userRecord {
	records := make(map[string]userRecord, len(users))
	for name, u := range users {
		borrowed := u.BorrowedBooks
		if borrowed == nil {
			borrowed = []string{}
		}
		records[name] = userRecord{Password: u.Password, Role: string(u.Role), BorrowedBooks: borrowed}
	}
	return records
}

func fromUserRecords(records map[string]userRecord) map[string]*User {
	users := make(map[string]*User, len(records))
	for name, r := range records {
		if strings.TrimSpace(name) == "" {
			continue
		}
		role := Role(r.Role)
		if role != RoleLibrarian {
			role = RoleReader
		}
		u := &User{Username: name, Password: r.Password, Role: role}
		for _, title := range r.BorrowedBooks {
			u.AddBorrowed(title)
		}
		users[name] = u
	}
	return users
}

// FileStore keeps books and users in two human-readable JSON files.
type FileStore struct {
	booksPath string
	usersPath string
	log       *slog.Logger
}

// NewFileStore returns a store backed by the given files. They are created on
// first load if missing.
func NewFileStore(booksPath, usersPath string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{booksPath: booksPath, usersPath: usersPath, log: logger}
}

func (s *FileStore) LoadBooks() ([]*Book, error) {
	var records []bookRecord
	if err := s.load(s.booksPath, "[]", &records); err != nil {
		return nil, err
	}
	return fromBookRecords(records), nil
}

func (s *FileStore) SaveBooks(books []*Book) error {
	return s.write(s.booksPath, toBookRecords(books))
}

func (s *FileStore) LoadUsers() (map[string]*User, error) {
	var records map[string]userRecord
	if err := s.load(s.usersPath, "{}", &records); err != nil {
		return nil, err
	}
	return fromUserRecords(records), nil
}

func (s *FileStore) SaveUsers(users map[string]*User) error {
	return s.write(s.usersPath, toUserRecords(users))
}

func (s *FileStore) Close() error { return nil }

// load decodes path into v. Missing, empty and unparseable files are reset to
// empty and leave v at its zero value.
func (s *FileStore) load(path, empty string, v any) error {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s.reset(path, empty)
	case err != nil:
		return fmt.Errorf("read %s: %w", path, err)
	case len(strings.TrimSpace(string(data))) == 0:
		return s.reset(path, empty)
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.Warn("store file unreadable, starting empty", "path", path, "error", err)
		return s.reset(path, empty)
	}
	return nil
}

func (s *FileStore) reset(path, empty string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(empty), 0o644); err != nil {
		return fmt.Errorf("initialise %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) write(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}
	return nil
}
