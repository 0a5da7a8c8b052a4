package library

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Book is a catalog entry and its current availability.
// BorrowedBy is non-empty exactly when the book is not Available.
type Book struct {
	Title      string
	Author     string
	Available  bool
	BorrowedBy string
}

// NewBook returns an available book with trimmed fields.
func NewBook(title, author string) *Book {
	return &Book{
		Title:     strings.TrimSpace(title),
		Author:    strings.TrimSpace(author),
		Available: true,
	}
}

// Borrow lends the book to username. A borrowed book is left untouched.
func (b *Book) Borrow(username string) error {
	if !b.Available {
		return ErrAlreadyBorrowed
	}
	b.Available = false
	b.BorrowedBy = username
	return nil
}

// Return puts the book back on the shelf. Who may return it is decided by the caller.
func (b *Book) Return() error {
	if b.Available {
		return ErrNotBorrowed
	}
	b.Available = true
	b.BorrowedBy = ""
	return nil
}

func (b *Book) sameTitle(title string) bool { return strings.EqualFold(b.Title, title) }

func (b *Book) String() string { return b.Title + " by " + b.Author }

// Role is a user's permission level.
type Role string

const (
	RoleReader    Role = "reader"
	RoleLibrarian Role = "librarian"
)

// User is a registered account and the titles it currently holds.
type User struct {
	Username      string
	Password      string
	Role          Role
	BorrowedBooks []string
}

// AddBorrowed records title; already held titles are not duplicated.
func (u *User) AddBorrowed(title string) {
	if !u.HasBorrowed(title) {
		u.BorrowedBooks = append(u.BorrowedBooks, title)
	}
}

// RemoveBorrowed drops title if present.
func (u *User) RemoveBorrowed(title string) {
	if i := slices.Index(u.BorrowedBooks, title); i >= 0 {
		u.BorrowedBooks = slices.Delete(u.BorrowedBooks, i, i+1)
	}
}

func (u *User) HasBorrowed(title string) bool { return slices.Contains(u.BorrowedBooks, title) }

func (u *User) snapshot() User {
	c := *u
	c.BorrowedBooks = slices.Clone(u.BorrowedBooks)
	return c
}

// Session is a logged-in user context returned by Library.Login.
type Session struct {
	ID        uuid.UUID
	Username  string
	StartedAt time.Time

	closed bool
}

// Active reports whether the session can still be used.
func (s *Session) Active() bool { return s != nil && !s.closed }
