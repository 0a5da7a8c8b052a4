package library

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReservedUsername can never be registered; it names the librarian, who
// signs in out of band.
const ReservedUsername = "admin"

// Library owns the catalog and the user accounts and is the only code that
// mutates them. Every mutating call writes the affected stores before it
// returns.
type Library struct {
	books []*Book
	users map[string]*User
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// NewLibrary loads both stores. Unreadable store contents are handled by the
// store itself; only I/O failures are returned.
func NewLibrary(store Store, logger *slog.Logger) (*Library, error) {
	if logger == nil {
		logger = slog.Default()
	}
	books, err := store.LoadBooks()
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	users, err := store.LoadUsers()
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if users == nil {
		users = make(map[string]*User)
	}
	l := &Library{books: books, users: users, store: store, log: logger, now: time.Now}
	l.reconcileBorrowed()
	logger.Debug("library loaded", "books", len(books), "users", len(users))
	return l, nil
}

// reconcileBorrowed makes each user's borrowed list agree with the catalog:
// an entry stays only while a book with that title is lent to that user, and
// is rewritten to the book's own title. Books lent to a known user are added
// to that user's list. Nothing is saved until the next mutation.
func (l *Library) reconcileBorrowed() {
	for _, u := range l.users {
		kept := u.BorrowedBooks[:0]
		for _, title := range u.BorrowedBooks {
			i := slices.IndexFunc(l.books, func(b *Book) bool {
				return !b.Available && b.BorrowedBy == u.Username && b.sameTitle(title)
			})
			if i < 0 {
				l.log.Warn("dropping stale borrowed entry", "user", u.Username, "title", title)
				continue
			}
			if canonical := l.books[i].Title; !slices.Contains(kept, canonical) {
				kept = append(kept, canonical)
			}
		}
		u.BorrowedBooks = kept
	}
	for _, b := range l.books {
		if b.Available {
			continue
		}
		if u, ok := l.users[b.BorrowedBy]; ok {
			u.AddBorrowed(b.Title)
		}
	}
}

// ------------------ Persistence ------------------

func (l *Library) saveBooks() error {
	if err := l.store.SaveBooks(l.books); err != nil {
		l.log.Error("saving books failed", "error", err)
		return &PersistError{Store: "books", Err: err}
	}
	return nil
}

func (l *Library) saveUsers() error {
	if err := l.store.SaveUsers(l.users); err != nil {
		l.log.Error("saving users failed", "error", err)
		return &PersistError{Store: "users", Err: err}
	}
	return nil
}

// ------------------ Catalog ------------------

// AddBook appends a new available book. Books are duplicates when both title
// and author match, ignoring case.
func (l *Library) AddBook(title, author string) (Book, error) {
	if err := ValidateBook(title, author); err != nil {
		return Book{}, err
	}
	b := NewBook(title, author)
	for _, existing := range l.books {
		if existing.sameTitle(b.Title) && strings.EqualFold(existing.Author, b.Author) {
			return Book{}, &BookError{Op: OpAdd, Title: b.Title, Author: b.Author, Err: ErrDuplicateBook}
		}
	}
	l.books = append(l.books, b)
	l.log.Info("book added", "title", b.Title, "author", b.Author)
	return *b, l.saveBooks()
}

// RemoveBook deletes the first book whose title matches, ignoring case. A
// borrowed book is also taken off its borrower's list.
func (l *Library) RemoveBook(title string) (Book, error) {
	title = strings.TrimSpace(title)
	i := slices.IndexFunc(l.books, func(b *Book) bool { return b.sameTitle(title) })
	if i < 0 {
		return Book{}, &BookError{Op: OpRemove, Title: title, Err: ErrNotFound}
	}
	removed := *l.books[i]
	l.books = slices.Delete(l.books, i, i+1)
	l.log.Info("book removed", "title", removed.Title, "author", removed.Author)
	if removed.Available {
		return removed, l.saveBooks()
	}
	if u, ok := l.users[removed.BorrowedBy]; ok {
		u.RemoveBorrowed(removed.Title)
	}
	return removed, errors.Join(l.saveBooks(), l.saveUsers())
}

// findByTitle prefers an exact (case-insensitive) title and falls back to the
// first fuzzy match in catalog order.
func (l *Library) findByTitle(title string) *Book {
	title = strings.TrimSpace(title)
	for _, b := range l.books {
		if b.sameTitle(title) {
			return b
		}
	}
	for _, b := range l.books {
		if FuzzyMatch(title, b.Title) {
			return b
		}
	}
	return nil
}

// SearchByTitle returns a copy of the matching book, if any.
func (l *Library) SearchByTitle(title string) (Book, bool) {
	if b := l.findByTitle(title); b != nil {
		return *b, true
	}
	return Book{}, false
}

// SearchByAuthor returns every book whose author matches exactly, or failing
// that every fuzzy match. The two passes are never merged.
func (l *Library) SearchByAuthor(author string) ([]Book, error) {
	author = strings.TrimSpace(author)
	var found []Book
	for _, b := range l.books {
		if strings.EqualFold(b.Author, author) {
			found = append(found, *b)
		}
	}
	if len(found) == 0 {
		for _, b := range l.books {
			if FuzzyMatch(author, b.Author) {
				found = append(found, *b)
			}
		}
	}
	if len(found) == 0 {
		return nil, &BookError{Op: OpSearchAuthor, Author: author, Err: ErrNotFound}
	}
	return found, nil
}

// Books returns the catalog in display order.
func (l *Library) Books() []Book {
	out := make([]Book, len(l.books))
	for i, b := range l.books {
		out[i] = *b
	}
	return out
}

// DisplayBooks renders the numbered catalog listing.
func (l *Library) DisplayBooks() string { return FormatCatalog(l.Books()) }

// ------------------ Circulation ------------------

func (l *Library) sessionUser(s *Session) (*User, error) {
	if !s.Active() {
		return nil, ErrNotLoggedIn
	}
	u, ok := l.users[s.Username]
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return u, nil
}

// Borrow lends the book matching title to the session's user.
func (l *Library) Borrow(s *Session, title string) (Book, error) {
	u, err := l.sessionUser(s)
	if err != nil {
		return Book{}, err
	}
	b := l.findByTitle(title)
	if b == nil {
		return Book{}, &BookError{Op: OpBorrow, Title: strings.TrimSpace(title), Err: ErrNotFound}
	}
	if err := b.Borrow(u.Username); err != nil {
		return *b, &BookError{Op: OpBorrow, Title: b.Title, Borrower: b.BorrowedBy, Err: err}
	}
	u.AddBorrowed(b.Title)
	l.log.Info("book borrowed", "title", b.Title, "user", u.Username, "session", s.ID)
	return *b, errors.Join(l.saveBooks(), l.saveUsers())
}

// Return takes back the book matching title. Only its borrower may return it.
func (l *Library) Return(s *Session, title string) (Book, error) {
	u, err := l.sessionUser(s)
	if err != nil {
		return Book{}, err
	}
	b := l.findByTitle(title)
	switch {
	case b == nil:
		return Book{}, &BookError{Op: OpReturn, Title: strings.TrimSpace(title), Err: ErrNotFound}
	case b.Available:
		return *b, &BookError{Op: OpReturn, Title: b.Title, Err: ErrNotBorrowed}
	case b.BorrowedBy != u.Username:
		return *b, &BookError{Op: OpReturn, Title: b.Title, Borrower: b.BorrowedBy, Err: ErrWrongBorrower}
	}
	if err := b.Return(); err != nil {
		return *b, &BookError{Op: OpReturn, Title: b.Title, Err: err}
	}
	u.RemoveBorrowed(b.Title)
	l.log.Info("book returned", "title", b.Title, "user", u.Username, "session", s.ID)
	return *b, errors.Join(l.saveBooks(), l.saveUsers())
}

// ------------------ Accounts ------------------

// RegisterUser creates a reader account. The reserved librarian name is
// refused in any letter case.
func (l *Library) RegisterUser(username, password string) (User, error) {
	if err := ValidateUser(username, password); err != nil {
		return User{}, err
	}
	username = strings.TrimSpace(username)
	if _, exists := l.users[username]; exists || strings.EqualFold(username, ReservedUsername) {
		return User{}, &UserError{Username: username, Err: ErrUsernameTaken}
	}
	u := &User{Username: username, Password: password, Role: RoleReader}
	l.users[username] = u
	l.log.Info("user registered", "user", username)
	return u.snapshot(), l.saveUsers()
}

// Login checks credentials verbatim and opens a new session.
func (l *Library) Login(username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	u, ok := l.users[username]
	if !ok || u.Password != password {
		l.log.Info("login rejected", "user", username)
		return nil, &UserError{Username: username, Err: ErrInvalidCredentials}
	}
	s := &Session{ID: uuid.New(), Username: u.Username, StartedAt: l.now()}
	l.log.Info("login", "user", u.Username, "session", s.ID)
	return s, nil
}

// Logout closes s and returns the departing username. It reports false when
// s was not an active session.
func (l *Library) Logout(s *Session) (string, bool) {
	if !s.Active() {
		return "", false
	}
	s.closed = true
	l.log.Info("logout", "user", s.Username, "session", s.ID)
	return s.Username, true
}

// User returns a copy of the named account.
func (l *Library) User(username string) (User, bool) {
	u, ok := l.users[username]
	if !ok {
		return User{}, false
	}
	return u.snapshot(), true
}
