package library

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateBook      = errors.New("book already in library")
	ErrNotFound           = errors.New("book not found")
	ErrAlreadyBorrowed    = errors.New("book already borrowed")
	ErrNotBorrowed        = errors.New("book not borrowed")
	ErrWrongBorrower      = errors.New("book borrowed by another user")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrUsernameTaken      = errors.New("username already exists or is reserved")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPersist            = errors.New("persist store")
)

// Operation names carried by BookError so the display layer can pick wording.
const (
	OpAdd          = "add"
	OpRemove       = "remove"
	OpSearchAuthor = "search by author"
	OpBorrow       = "borrow"
	OpReturn       = "return"
)

// BookError reports a catalog operation that failed for a specific book.
type BookError struct {
	Op       string
	Title    string
	Author   string
	Borrower string // current borrower, set for ErrAlreadyBorrowed and ErrWrongBorrower
	Err      error
}

func (e *BookError) Error() string {
	subject := e.Title
	if subject == "" {
		subject = e.Author
	}
	if e.Borrower != "" {
		return fmt.Sprintf("%s %q: %v (borrowed by %s)", e.Op, subject, e.Err, e.Borrower)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, subject, e.Err)
}

func (e *BookError) Unwrap() error { return e.Err }

// UserError reports an account operation that failed.
type UserError struct {
	Username string
	Err      error
}

func (e *UserError) Error() string { return fmt.Sprintf("user %q: %v", e.Username, e.Err) }

func (e *UserError) Unwrap() error { return e.Err }

// PersistError is returned when an operation succeeded in memory but the
// store could not be written.
type PersistError struct {
	Store string
	Err   error
}

func (e *PersistError) Error() string { return fmt.Sprintf("save %s: %v", e.Store, e.Err) }

func (e *PersistError) Unwrap() error { return e.Err }

func (e *PersistError) Is(target error) bool { return target == ErrPersist }

// IsPersistOnly reports whether err consists solely of persistence failures,
// meaning the operation itself took effect.
func IsPersistOnly(err error) bool {
	if err == nil {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if !IsPersistOnly(e) {
				return false
			}
		}
		return true
	}
	var pe *PersistError
	return errors.As(err, &pe)
}
