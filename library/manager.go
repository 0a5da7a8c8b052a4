package library

import (
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// LibraryManager is a thin façade over the Library, keeping CLI code simple.
// It holds the process-wide session: at most one reader is logged in at a time.
type LibraryManager struct {
	lib       *Library
	store     Store
	session   *Session
	librarian []byte // bcrypt hash of the librarian secret
}

// NewLibraryManager loads the library from store. librarianHash is the bcrypt
// hash checked by AuthorizeLibrarian.
func NewLibraryManager(store Store, librarianHash []byte, logger *slog.Logger) (*LibraryManager, error) {
	lib, err := NewLibrary(store, logger)
	if err != nil {
		return nil, err
	}
	return &LibraryManager{lib: lib, store: store, librarian: librarianHash}, nil
}

// Close closes the underlying store.
func (lm *LibraryManager) Close() error { return lm.store.Close() }

// Library exposes the core for read-only listing.
func (lm *LibraryManager) Library() *Library { return lm.lib }

// HashLibrarianPassword returns the bcrypt hash to configure as the librarian secret.
func HashLibrarianPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash librarian password: %w", err)
	}
	return hash, nil
}

// AuthorizeLibrarian checks the out-of-band librarian secret.
func (lm *LibraryManager) AuthorizeLibrarian(password string) bool {
	return bcrypt.CompareHashAndPassword(lm.librarian, []byte(password)) == nil
}

// ------------------ Book helpers ------------------

func (lm *LibraryManager) AddBook(title, author string) (string, error) {
	b, err := lm.lib.AddBook(title, author)
	return messageIfDone(AddedMessage(b), err)
}

func (lm *LibraryManager) RemoveBook(title string) (string, error) {
	b, err := lm.lib.RemoveBook(title)
	return messageIfDone(RemovedMessage(b), err)
}

func (lm *LibraryManager) SearchByTitle(title string) (Book, bool) { return lm.lib.SearchByTitle(title) }

func (lm *LibraryManager) SearchByAuthor(author string) ([]Book, error) {
	return lm.lib.SearchByAuthor(author)
}

func (lm *LibraryManager) Books() []Book        { return lm.lib.Books() }
func (lm *LibraryManager) DisplayBooks() string { return lm.lib.DisplayBooks() }

// ------------------ Circulation ------------------

func (lm *LibraryManager) Borrow(title string) (string, error) {
	b, err := lm.lib.Borrow(lm.session, title)
	return messageIfDone(BorrowedMessage(b), err)
}

func (lm *LibraryManager) ReturnBook(title string) (string, error) {
	b, err := lm.lib.Return(lm.session, title)
	return messageIfDone(ReturnedMessage(b), err)
}

// BorrowedBooks lists the titles held by the logged-in user.
func (lm *LibraryManager) BorrowedBooks() ([]string, error) {
	if !lm.session.Active() {
		return nil, ErrNotLoggedIn
	}
	u, ok := lm.lib.User(lm.session.Username)
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return u.BorrowedBooks, nil
}

// ------------------ Accounts ------------------

func (lm *LibraryManager) Register(username, password string) (string, error) {
	u, err := lm.lib.RegisterUser(username, password)
	return messageIfDone(RegisteredMessage(u), err)
}

// Login replaces any current session with a new one for username.
func (lm *LibraryManager) Login(username, password string) (string, error) {
	s, err := lm.lib.Login(username, password)
	if err != nil {
		return "", err
	}
	if lm.session.Active() {
		lm.lib.Logout(lm.session)
	}
	lm.session = s
	return WelcomeMessage(s.Username), nil
}

func (lm *LibraryManager) Logout() string {
	name, ok := lm.lib.Logout(lm.session)
	lm.session = nil
	if !ok {
		return NoSessionNotice
	}
	return GoodbyeMessage(name)
}

// CurrentUser returns the logged-in username, or "" when nobody is.
func (lm *LibraryManager) CurrentUser() string {
	if !lm.session.Active() {
		return ""
	}
	return lm.session.Username
}

// messageIfDone keeps the success message when the only failure was saving.
func messageIfDone(msg string, err error) (string, error) {
	if err != nil && !IsPersistOnly(err) {
		return "", err
	}
	return msg, err
}
