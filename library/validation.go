package library

import (
	"strings"
	"unicode/utf8"
)

// ValidationKind identifies which field constraint was violated.
type ValidationKind int

const (
	EmptyTitle ValidationKind = iota + 1
	EmptyAuthor
	TitleTooShort
	AuthorTooShort
	EmptyUsername
	PasswordTooShort
	UsernameTooShort
)

const (
	minTitleLen    = 2
	minAuthorLen   = 2
	minUsernameLen = 3
	minPasswordLen = 3
)

var validationMessages = map[ValidationKind]string{
	EmptyTitle:       "Book title cannot be empty",
	EmptyAuthor:      "Author name cannot be empty",
	TitleTooShort:    "Book title must be at least 2 characters",
	AuthorTooShort:   "Author name must be at least 2 characters",
	EmptyUsername:    "Username cannot be empty",
	PasswordTooShort: "Password must be at least 3 characters",
	UsernameTooShort: "Username must be at least 3 characters",
}

// ValidationError is a single failed field check. It matches ErrValidation.
type ValidationError struct {
	Kind ValidationKind
}

func (e *ValidationError) Error() string { return validationMessages[e.Kind] }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ValidateBook checks title and author. Only the first failing check is reported.
func ValidateBook(title, author string) error {
	title, author = strings.TrimSpace(title), strings.TrimSpace(author)
	switch {
	case title == "":
		return &ValidationError{Kind: EmptyTitle}
	case author == "":
		return &ValidationError{Kind: EmptyAuthor}
	case utf8.RuneCountInString(title) < minTitleLen:
		return &ValidationError{Kind: TitleTooShort}
	case utf8.RuneCountInString(author) < minAuthorLen:
		return &ValidationError{Kind: AuthorTooShort}
	}
	return nil
}

// ValidateUser checks registration input. The password is measured as typed.
func ValidateUser(username, password string) error {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return &ValidationError{Kind: EmptyUsername}
	case utf8.RuneCountInString(password) < minPasswordLen:
		return &ValidationError{Kind: PasswordTooShort}
	case utf8.RuneCountInString(username) < minUsernameLen:
		return &ValidationError{Kind: UsernameTooShort}
	}
	return nil
}

// FuzzyMatch reports whether every whitespace-separated word of query occurs
// somewhere in text, ignoring case. Word order and boundaries don't matter.
func FuzzyMatch(query, text string) bool {
	text = strings.ToLower(text)
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if !strings.Contains(text, word) {
			return false
		}
	}
	return true
}
