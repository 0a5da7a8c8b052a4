package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"library-catalog/library"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// errExit ends the session from any menu.
var errExit = errors.New("exit requested")

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Border(lipgloss.DoubleBorder()).
			Padding(0, 2)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
)

type menu struct {
	sc  *bufio.Scanner
	out io.Writer
	tty *os.File // set when input is an interactive terminal
	mgr *library.LibraryManager
}

func newMenu(in io.Reader, out io.Writer, mgr *library.LibraryManager) *menu {
	m := &menu{sc: bufio.NewScanner(in), out: out, mgr: mgr}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		m.tty = f
	}
	return m
}

// run shows the main menu until the operator exits or input ends.
func (m *menu) run() error {
	fmt.Fprintln(m.out, bannerStyle.Render("Welcome to the Library Management System!"))

	for {
		m.title("Main Menu")
		m.println("1. Librarian Login")
		m.println("2. Reader Access")
		m.println("3. Exit")

		choice, err := m.readChoice("Choose option (1-3): ", 3)
		if err == nil {
			switch choice {
			case 1:
				err = m.librarianLogin()
			case 2:
				err = m.readerAccess()
			case 3:
				err = errExit
			}
		}
		if err != nil {
			return m.finish(err)
		}
	}
}

// finish turns menu termination into the process result.
func (m *menu) finish(err error) error {
	if !errors.Is(err, errExit) && !errors.Is(err, io.EOF) {
		return err
	}
	if m.mgr.CurrentUser() != "" {
		m.println(m.mgr.Logout())
	}
	m.println("Thank you for using the Library Management System!")
	return nil
}

func (m *menu) librarianLogin() error {
	password, err := m.readSecret("Enter Admin Password: ")
	if err != nil {
		return err
	}
	if !m.mgr.AuthorizeLibrarian(password) {
		m.fail("Invalid admin password.")
		return nil
	}
	return m.librarianMenu()
}

func (m *menu) librarianMenu() error {
	for {
		m.title("Librarian Menu")
		m.println("1. Add Book")
		m.println("2. Remove Book")
		m.println("3. Display All Books")
		m.println("4. Back to Main Menu")
		m.println("5. Exit")

		choice, err := m.readChoice("Choose option (1-5): ", 5)
		if err != nil {
			return err
		}
		switch choice {
		case 1:
			title, err := m.readLine("Enter book title: ")
			if err != nil {
				return err
			}
			author, err := m.readLine("Enter book author: ")
			if err != nil {
				return err
			}
			m.report(m.mgr.AddBook(title, author))
		case 2:
			title, err := m.readLine("Enter book title: ")
			if err != nil {
				return err
			}
			m.report(m.mgr.RemoveBook(title))
		case 3:
			m.println("These are the books in the Library: ")
			m.println(m.mgr.DisplayBooks())
		case 4:
			return nil
		case 5:
			return errExit
		}
	}
}

// readerAccess authenticates a reader, then opens the reader menu.
func (m *menu) readerAccess() error {
	for {
		m.title("User Authentication")
		m.println("1. Login")
		m.println("2. Register New User")
		m.println("3. Back to Main Menu")

		choice, err := m.readChoice("Choose option (1-3): ", 3)
		if err != nil {
			return err
		}
		switch choice {
		case 1:
			username, err := m.readLine("Username: ")
			if err != nil {
				return err
			}
			password, err := m.readSecret("Password: ")
			if err != nil {
				return err
			}
			msg, err := m.mgr.Login(username, password)
			if err != nil {
				m.fail(library.Describe(err))
				continue
			}
			m.ok(msg)
			return m.readerMenu()
		case 2:
			username, err := m.readLine("Choose username: ")
			if err != nil {
				return err
			}
			password, err := m.readSecret("Choose password: ")
			if err != nil {
				return err
			}
			m.report(m.mgr.Register(username, password))
		case 3:
			return nil
		}
	}
}

func (m *menu) readerMenu() error {
	for {
		m.title("Reader Menu")
		m.println("1. Search for Book by Title")
		m.println("2. Search for Book by Author")
		m.println("3. Display All Books")
		m.println("4. Return a Book")
		m.println("5. View My Borrowed Books")
		m.println("6. Logout")
		m.println("7. Exit")

		choice, err := m.readChoice("Choose option (1-7): ", 7)
		if err != nil {
			return err
		}
		switch choice {
		case 1:
			err = m.searchTitle()
		case 2:
			err = m.searchAuthor()
		case 3:
			m.title("All Books in Library")
			m.println(m.mgr.DisplayBooks())
			err = m.borrowByNumber(m.mgr.Books())
		case 4:
			var title string
			if title, err = m.readLine("Enter the book title you'd like to return: "); err == nil {
				m.report(m.mgr.ReturnBook(title))
			}
		case 5:
			m.showBorrowed()
		case 6:
			m.println(m.mgr.Logout())
			return nil
		case 7:
			return errExit
		}
		if err != nil {
			return err
		}
	}
}

func (m *menu) searchTitle() error {
	query, err := m.readLine("Enter the book title: ")
	if err != nil {
		return err
	}
	b, found := m.mgr.SearchByTitle(query)
	if !found {
		m.fail("Book not found in the library.")
		return nil
	}
	m.println("Found: " + library.FormatBook(b))
	if !b.Available {
		return nil
	}
	answer, err := m.readLine("Do you want to borrow this book? (y/n): ")
	if err != nil {
		return err
	}
	if a := strings.ToLower(strings.TrimSpace(answer)); a == "y" || a == "yes" {
		m.report(m.mgr.Borrow(b.Title))
	}
	return nil
}

func (m *menu) searchAuthor() error {
	author, err := m.readLine("Enter the author's name: ")
	if err != nil {
		return err
	}
	books, err := m.mgr.SearchByAuthor(author)
	if err != nil {
		m.fail(library.Describe(err))
		return nil
	}
	m.println("\nBooks by " + strings.TrimSpace(author) + ":")
	for i, b := range books {
		m.println(fmt.Sprintf("%d. %s - %s", i+1, b.Title, library.StatusText(b)))
	}
	return m.borrowByNumber(books)
}

// borrowByNumber lets the reader pick one of books by its listed number.
// An empty answer skips.
func (m *menu) borrowByNumber(books []library.Book) error {
	if len(books) == 0 {
		return nil
	}
	answer, err := m.readLine("\nEnter book number to borrow (or press Enter to skip): ")
	if err != nil {
		return err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil
	}
	n, convErr := strconv.Atoi(answer)
	switch {
	case convErr != nil:
		m.fail("Invalid input. Please enter a valid number.")
	case n < 1 || n > len(books):
		m.fail("Invalid book number.")
	case !books[n-1].Available:
		m.fail(fmt.Sprintf("The book %s is currently borrowed.", books[n-1].Title))
	default:
		m.report(m.mgr.Borrow(books[n-1].Title))
	}
	return nil
}

func (m *menu) showBorrowed() {
	titles, err := m.mgr.BorrowedBooks()
	if err != nil {
		m.fail(library.Describe(err))
		return
	}
	if len(titles) == 0 {
		m.println("You have no borrowed books.")
		return
	}
	m.title("Your Borrowed Books")
	for i, t := range titles {
		m.println(fmt.Sprintf("%d. %s", i+1, t))
	}
}

// ------------------ Input ------------------

func (m *menu) readLine(prompt string) (string, error) {
	fmt.Fprint(m.out, prompt)
	if !m.sc.Scan() {
		if err := m.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return m.sc.Text(), nil
}

// readSecret reads a password without echo on a terminal. The value is kept
// verbatim.
func (m *menu) readSecret(prompt string) (string, error) {
	if m.tty == nil {
		return m.readLine(prompt)
	}
	fmt.Fprint(m.out, prompt)
	b, err := term.ReadPassword(int(m.tty.Fd()))
	fmt.Fprintln(m.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// readChoice re-prompts until a number between 1 and limit is entered.
func (m *menu) readChoice(prompt string, limit int) (int, error) {
	for {
		line, err := m.readLine(prompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		switch {
		case err != nil:
			m.fail("Invalid input. Please enter a number.")
		case n < 1 || n > limit:
			m.fail(fmt.Sprintf("Invalid choice. Please enter a number between 1 and %d.", limit))
		default:
			return n, nil
		}
	}
}

// ------------------ Output ------------------

func (m *menu) println(s string) { fmt.Fprintln(m.out, s) }

func (m *menu) title(s string) { fmt.Fprintln(m.out, "\n"+titleStyle.Render("=== "+s+" ===")) }

func (m *menu) ok(s string) { fmt.Fprintln(m.out, color.GreenString("✓"), s) }

func (m *menu) warn(s string) { fmt.Fprintln(m.out, color.YellowString("!"), s) }

func (m *menu) fail(s string) { fmt.Fprintln(m.out, color.RedString("✗"), s) }

// report prints the outcome of a LibraryManager call. A save failure after a
// successful operation is shown as a warning next to the success message.
func (m *menu) report(msg string, err error) {
	switch {
	case err == nil:
		m.ok(msg)
	case library.IsPersistOnly(err):
		m.ok(msg)
		m.warn(library.Describe(err))
	default:
		m.fail(library.Describe(err))
	}
}
