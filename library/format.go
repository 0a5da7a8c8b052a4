package library

import (
	"errors"
	"fmt"
	"strings"
)

// EmptyCatalogNotice is shown instead of an empty listing.
const EmptyCatalogNotice = "There are no books in this library."

// StatusText is "Available" or "Borrowed by <user>".
func StatusText(b Book) string {
	if b.Available {
		return "Available"
	}
	return "Borrowed by " + b.BorrowedBy
}

// FormatBook renders "title by author - status".
func FormatBook(b Book) string {
	return fmt.Sprintf("%s by %s - %s", b.Title, b.Author, StatusText(b))
}

// FormatCatalog renders a 1-indexed listing in catalog order.
func FormatCatalog(books []Book) string {
	if len(books) == 0 {
		return EmptyCatalogNotice
	}
	lines := make([]string, 0, len(books))
	for i, b := range books {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, FormatBook(b)))
	}
	return strings.Join(lines, "\n")
}

func AddedMessage(b Book) string {
	return fmt.Sprintf("%s by %s has been successfully added to the Library.", b.Title, b.Author)
}

func RemovedMessage(b Book) string {
	return fmt.Sprintf("%s has been successfully removed from the Library.", b.Title)
}

func BorrowedMessage(b Book) string {
	return fmt.Sprintf("The book %s has been successfully borrowed.", b.Title)
}

func ReturnedMessage(b Book) string {
	return fmt.Sprintf("You have successfully returned the book %s.", b.Title)
}

func RegisteredMessage(User) string { return "User registered successfully" }

func WelcomeMessage(username string) string { return fmt.Sprintf("Welcome %s!", username) }

func GoodbyeMessage(username string) string { return fmt.Sprintf("Goodbye %s!", username) }

const NoSessionNotice = "No user logged in"

// Describe turns an operation error into the message shown to the operator.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return "Error: " + ve.Error()
	}
	if IsPersistOnly(err) {
		return "Error saving changes - " + err.Error()
	}

	var be *BookError
	if errors.As(err, &be) {
		return describeBookError(be)
	}

	switch {
	case errors.Is(err, ErrNotLoggedIn):
		return "Please login first."
	case errors.Is(err, ErrUsernameTaken):
		return "Username already exists or is reserved"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password"
	}
	return "Error: " + err.Error()
}

func describeBookError(e *BookError) string {
	switch {
	case errors.Is(e.Err, ErrDuplicateBook):
		return fmt.Sprintf("%s by %s is already in this library.", e.Title, e.Author)
	case errors.Is(e.Err, ErrNotFound) && e.Op == OpSearchAuthor:
		return "There are no books by this author in this library."
	case errors.Is(e.Err, ErrNotFound) && e.Op == OpReturn:
		return fmt.Sprintf("The book %s was not found.", e.Title)
	case errors.Is(e.Err, ErrNotFound):
		return "Book not found in the library."
	case errors.Is(e.Err, ErrAlreadyBorrowed):
		return fmt.Sprintf("%s is currently borrowed by %s", e.Title, e.Borrower)
	case errors.Is(e.Err, ErrWrongBorrower):
		return fmt.Sprintf("You cannot return %s as it was borrowed by %s.", e.Title, e.Borrower)
	case errors.Is(e.Err, ErrNotBorrowed):
		return fmt.Sprintf("The book %s was not borrowed.", e.Title)
	}
	return "Error: " + e.Error()
}
